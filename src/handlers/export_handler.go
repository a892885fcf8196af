// backend/src/handlers/export_handler.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ExportHandler struct {
	exportService services.ExportService
}

func NewExportHandler(service services.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: service,
	}
}

func (h *ExportHandler) HandleExportExecutions(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.exportService.ExportExecutions(r.Context(), &buf); err != nil {
		logger.FromContext(r.Context()).Error("Executions export failed", "error", err)
		utils.SendJSONError(w, "Failed to export executions.", http.StatusInternalServerError)
		return
	}
	writeCSV(w, services.ExportFileName("executions", time.Now()), buf.Bytes())
}

func (h *ExportHandler) HandleExportTrades(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := h.exportService.ExportTrades(r.Context(), &buf, filter); err != nil {
		logger.FromContext(r.Context()).Error("Trades export failed", "error", err)
		utils.SendJSONError(w, "Failed to export trades.", http.StatusInternalServerError)
		return
	}
	writeCSV(w, services.ExportFileName("trades", time.Now()), buf.Bytes())
}

// The export is buffered so a failure can still be reported as a JSON error.
func writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
