package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the envelope every function answers failures with.
type ErrorBody struct {
	Error string `json:"error"`
}

// WriteJSONResponse 写入JSON响应
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// 状态码已写出，编码失败无法再改变响应
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccessResponse 写入成功响应
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusOK, data)
}

// WriteErrorResponse writes {"error": message} with status 400. Every caught
// failure is reported this way, whatever its kind.
func WriteErrorResponse(w http.ResponseWriter, message string) {
	WriteJSONResponse(w, http.StatusBadRequest, ErrorBody{Error: message})
}

// WriteHTMLResponse 写入HTML响应
func WriteHTMLResponse(w http.ResponseWriter, statusCode int, html []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(html)
}

// ParseJSONBody 解析JSON请求体
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// GetQueryParam 获取查询参数，如果不存在则返回默认值
func GetQueryParam(r *http.Request, key, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}
