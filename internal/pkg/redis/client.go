// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Client 封装了 go-redis 的 UniversalClient，并按名称管理 Lua 脚本。
// 单地址时是普通客户端，多地址时是集群客户端，脚本涉及的 key 需要使用 hash tag。
type Client struct {
	rdb     goredis.UniversalClient
	mu      sync.RWMutex
	scripts map[string]*goredis.Script
}

// NewClient 连接 redis。addrs 格式为 "host1:port1,host2:port2"。
func NewClient(addrs string) (*Client, error) {
	var list []string
	for _, a := range strings.Split(addrs, ",") {
		if a = strings.TrimSpace(a); a != "" {
			list = append(list, a)
		}
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("no redis address configured")
	}

	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: list})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(err, "ping redis %s", addrs)
	}
	log.Info().Strs("addrs", list).Msg("✅ Successfully connected to Redis.")
	return NewClientFrom(rdb), nil
}

// NewClientFrom 用已有的 UniversalClient 构造 Client。
func NewClientFrom(rdb goredis.UniversalClient) *Client {
	return &Client{rdb: rdb, scripts: make(map[string]*goredis.Script)}
}

// LoadScriptFromContent 注册一个 Lua 脚本并预加载到服务端。
func (c *Client) LoadScriptFromContent(name, content string) error {
	script := goredis.NewScript(content)
	if err := script.Load(context.Background(), c.rdb).Err(); err != nil {
		return errors.Wrapf(err, "load script %s", name)
	}
	c.mu.Lock()
	c.scripts[name] = script
	c.mu.Unlock()
	return nil
}

// RunScript 执行已注册的脚本。Run 内部先走 EVALSHA，脚本缓存丢失时回退到 EVAL。
func (c *Client) RunScript(ctx context.Context, name string, keys []string, args ...interface{}) *goredis.Cmd {
	c.mu.RLock()
	script, ok := c.scripts[name]
	c.mu.RUnlock()
	if !ok {
		cmd := goredis.NewCmd(ctx)
		cmd.SetErr(fmt.Errorf("script %s is not loaded", name))
		return cmd
	}
	return script.Run(ctx, c.rdb, keys, args...)
}

// GetClient 返回底层客户端。
func (c *Client) GetClient() goredis.UniversalClient {
	return c.rdb
}

// Close 关闭连接池。
func (c *Client) Close() error {
	return c.rdb.Close()
}
