package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"fulfillment/internal/pkg/apperr"
	"fulfillment/internal/pkg/logger"
)

// ErrorResponse 是所有服务统一的错误响应体。
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	ErrorCode string    `json:"errorCode"`
	Message   string    `json:"message"`
}

// WriteJSON 以 JSON 写出响应。
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError 根据错误分类选择状态码并写出统一的错误体。
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	event := logger.Ctx(r.Context()).Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Ctx(r.Context()).Error()
	}
	event.Err(err).Str("error_code", string(kind)).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	WriteJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		ErrorCode: string(kind),
		Message:   apperr.MessageOf(err),
	})
}
