package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/hlog"

	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/utils"
)

// Recovery 恢复中间件，处理panic并以标准错误格式返回
func Recovery(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				hlog.FromRequest(r).Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")

				if cfg.IsDevelopment() {
					utils.WriteErrorResponse(w, fmt.Sprintf("Internal server error: %v", rec))
					return
				}
				// 生产环境：隐藏详细错误信息
				utils.WriteErrorResponse(w, "Internal server error occurred")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
