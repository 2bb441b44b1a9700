package handlers

import (
	"net/http"
	"time"

	"puantajx-functions/pkg/config"
	"puantajx-functions/pkg/database"
	"puantajx-functions/pkg/utils"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	config  *config.Config
	records database.RecordStore
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(cfg *config.Config, records database.RecordStore) *HealthHandler {
	return &HealthHandler{config: cfg, records: records}
}

// HealthCheck GET /
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	// 测试数据库连接
	dbStatus := "healthy"
	if err := h.records.HealthCheck(r.Context()); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	utils.WriteSuccessResponse(w, map[string]interface{}{
		"service":     "puantajx-functions",
		"environment": h.config.Environment,
		"database":    h.databaseType(),
		"db_status":   dbStatus,
		"timestamp":   time.Now().Unix(),
		"status":      "healthy",
	})
}

// databaseType 获取数据库类型
func (h *HealthHandler) databaseType() string {
	if h.config.UsesDirectPostgres() {
		return "postgresql"
	} else if h.config.SupabaseURL != "" {
		return "supabase"
	}
	return "unknown"
}
