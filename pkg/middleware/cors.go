package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"puantajx-functions/pkg/config"
)

// CORS 创建CORS中间件
//
// Preflight requests pass through to the router, which answers them with a
// bare 200.
func CORS(cfg *config.Config) func(http.Handler) http.Handler {
	corsOptions := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Authorization",
			"X-Client-Info",
			"Apikey",
			"Content-Type",
		},
		OptionsPassthrough: true,
		MaxAge:             300, // 5分钟
	}

	// 当AllowedOrigins为*时，不能设置AllowCredentials为true
	corsOptions.AllowCredentials = !contains(cfg.AllowedOrigins, "*")

	return cors.Handler(corsOptions)
}

// contains 检查切片是否包含指定的字符串
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
