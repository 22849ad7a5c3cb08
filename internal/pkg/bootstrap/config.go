// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"fulfillment/internal/pkg/database"
	"fulfillment/internal/pkg/nacos"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config 是两个服务共用的配置结构，每个服务只读取自己关心的部分。
type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`

	Infra struct {
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
		Nacos struct {
			Addrs     string `yaml:"addrs"`
			Namespace string `yaml:"namespace"`
			Group     string `yaml:"group"`
			Register  bool   `yaml:"register"`
		} `yaml:"nacos"`
		MySQL database.Config `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers             string `yaml:"brokers"`
			OrderEventsTopic    string `yaml:"orderEventsTopic"`
			ReleaseFailureTopic string `yaml:"releaseFailureTopic"`
		} `yaml:"kafka"`
	} `yaml:"infra"`

	Inventory struct {
		// LedgerBackend 取值 memory、redis 或 mysql。
		LedgerBackend string `yaml:"ledgerBackend"`
		// Products 在启动时写入商品目录和库存台账，已存在的记录不会被覆盖。
		Products []ProductSeed `yaml:"products"`
	} `yaml:"inventory"`

	Order struct {
		// Repository 取值 memory 或 mysql。
		Repository      string `yaml:"repository"`
		DefaultCurrency string `yaml:"defaultCurrency"`
	} `yaml:"order"`

	InventoryClient struct {
		BaseURL        string        `yaml:"baseUrl"`
		ServiceName    string        `yaml:"serviceName"`
		ConnectTimeout time.Duration `yaml:"connectTimeout"`
		Timeout        time.Duration `yaml:"timeout"`
		MaxRetries     int           `yaml:"maxRetries"`
		InitialBackoff time.Duration `yaml:"initialBackoff"`
	} `yaml:"inventoryClient"`
}

// ProductSeed 是配置文件中预置的一个商品及其初始库存。
type ProductSeed struct {
	ProductID   string  `yaml:"productId"`
	SKU         string  `yaml:"sku"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Price       float64 `yaml:"price"`
	Currency    string  `yaml:"currency"`
	Active      bool    `yaml:"active"`
	StockQty    int     `yaml:"stockQty"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig 返回最近一次 Load 的结果，未加载时返回默认配置。
func GetCurrentConfig() *Config {
	if c := currentConfig.Load(); c != nil {
		return c
	}
	return defaultConfig()
}

func defaultConfig() *Config {
	c := &Config{}
	c.Server.Port = 8080
	c.Log.Level = "info"
	c.Infra.Nacos.Group = "DEFAULT_GROUP"
	c.Infra.MySQL = database.Config{Host: "localhost", Port: 3306, User: "root", Database: "fulfillment", MaxOpenConns: 20, MaxIdleConns: 5}
	c.Infra.Redis.Addrs = "localhost:6379"
	c.Infra.Kafka.OrderEventsTopic = "order-events"
	c.Infra.Kafka.ReleaseFailureTopic = "inventory-release-failures"
	c.Inventory.LedgerBackend = "memory"
	c.Order.Repository = "memory"
	c.Order.DefaultCurrency = "USD"
	c.InventoryClient.BaseURL = "http://localhost:8082"
	c.InventoryClient.ServiceName = "inventory-service"
	c.InventoryClient.ConnectTimeout = 3 * time.Second
	c.InventoryClient.Timeout = 5 * time.Second
	c.InventoryClient.MaxRetries = 2
	c.InventoryClient.InitialBackoff = 500 * time.Millisecond
	return c
}

// Load 按 默认值 -> 配置文件（或 Nacos 配置中心）-> 环境变量 的顺序合成配置。
// 未显式指定 CONFIG_FILE 时，configs/<service>.yaml 不存在不算错误。
func Load(serviceName string) (*Config, error) {
	cfg := defaultConfig()

	if dataId := getEnv("NACOS_CONFIG_DATA_ID", ""); dataId != "" {
		content, err := nacos.FetchConfig(
			getEnv("NACOS_SERVER_ADDRS", "localhost:8848"),
			getEnv("NACOS_NAMESPACE", ""),
			getEnv("NACOS_GROUP", "DEFAULT_GROUP"),
			dataId,
		)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
			return nil, errors.Wrapf(err, "parse nacos config %s", dataId)
		}
		log.Info().Str("dataId", dataId).Msg("config loaded from nacos")
	} else {
		path, explicit := os.LookupEnv("CONFIG_FILE")
		if !explicit {
			path = "configs/" + serviceName + ".yaml"
		}
		if err := loadFile(path, cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	applyEnv(cfg)
	if err := validateSeeds(cfg.Inventory.Products); err != nil {
		return nil, err
	}
	currentConfig.Store(cfg)
	return cfg, nil
}

// validateSeeds 检查预置商品：productId 非空且不重复，库存和价格不能为负。
func validateSeeds(seeds []ProductSeed) error {
	seen := make(map[string]bool, len(seeds))
	for i, s := range seeds {
		if strings.TrimSpace(s.ProductID) == "" {
			return errors.Errorf("inventory.products[%d]: productId is required", i)
		}
		if seen[s.ProductID] {
			return errors.Errorf("inventory.products[%d]: duplicate productId %s", i, s.ProductID)
		}
		seen[s.ProductID] = true
		if s.StockQty < 0 {
			return errors.Errorf("inventory.products[%d]: stockQty of %s must not be negative, got %d", i, s.ProductID, s.StockQty)
		}
		if s.Price < 0 {
			return errors.Errorf("inventory.products[%d]: price of %s must not be negative, got %v", i, s.ProductID, s.Price)
		}
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = getEnvBool("LOG_PRETTY", cfg.Log.Pretty)

	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Nacos.Addrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.Addrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	cfg.Infra.Nacos.Register = getEnvBool("NACOS_REGISTER", cfg.Infra.Nacos.Register)

	cfg.Infra.MySQL.Host = getEnv("MYSQL_HOST", cfg.Infra.MySQL.Host)
	cfg.Infra.MySQL.Port = getEnvInt("MYSQL_PORT", cfg.Infra.MySQL.Port)
	cfg.Infra.MySQL.User = getEnv("MYSQL_USER", cfg.Infra.MySQL.User)
	cfg.Infra.MySQL.Password = getEnv("MYSQL_PASSWORD", cfg.Infra.MySQL.Password)
	cfg.Infra.MySQL.Database = getEnv("MYSQL_DATABASE", cfg.Infra.MySQL.Database)

	cfg.Infra.Redis.Addrs = getEnv("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Kafka.Brokers = getEnv("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)

	cfg.Inventory.LedgerBackend = getEnv("LEDGER_BACKEND", cfg.Inventory.LedgerBackend)
	cfg.Order.Repository = getEnv("ORDER_REPOSITORY", cfg.Order.Repository)
	cfg.Order.DefaultCurrency = getEnv("DEFAULT_CURRENCY", cfg.Order.DefaultCurrency)

	cfg.InventoryClient.BaseURL = getEnv("INVENTORY_BASE_URL", cfg.InventoryClient.BaseURL)
	cfg.InventoryClient.ServiceName = getEnv("INVENTORY_SERVICE_NAME", cfg.InventoryClient.ServiceName)
	cfg.InventoryClient.MaxRetries = getEnvInt("INVENTORY_MAX_RETRIES", cfg.InventoryClient.MaxRetries)
}

// KafkaBrokers 把逗号分隔的 broker 列表拆开，未配置时返回 nil。
func (c *Config) KafkaBrokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.Infra.Kafka.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer environment override")
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
