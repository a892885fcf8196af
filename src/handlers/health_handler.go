// backend/src/handlers/health_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/utils"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Error("Health check failed", "error", err)
		utils.SendJSONError(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	sendJSON(w, r, http.StatusOK, map[string]string{"status": "ok", "message": "Trade journal backend is running"})
}
