// backend/src/handlers/journal_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/processors"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type JournalHandler struct {
	journalService services.JournalService
}

func NewJournalHandler(service services.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: service,
	}
}

func (h *JournalHandler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	trades, err := h.journalService.GetTrades(r.Context(), filter)
	h.respond(w, r, "trades", trades, err)
}

func (h *JournalHandler) HandleGetDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	metrics, err := h.journalService.GetDashboardMetrics(r.Context(), filter)
	h.respond(w, r, "dashboard metrics", metrics, err)
}

func (h *JournalHandler) HandleGetCalendarData(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	days, err := h.journalService.GetCalendarData(r.Context(), filter)
	h.respond(w, r, "calendar data", days, err)
}

func (h *JournalHandler) HandleGetCumulativePnl(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	points, err := h.journalService.GetCumulativePnl(r.Context(), filter)
	h.respond(w, r, "cumulative pnl", points, err)
}

func (h *JournalHandler) HandleGetTimeAnalysis(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	buckets, err := h.journalService.GetTimeAnalysis(r.Context(), filter)
	h.respond(w, r, "time analysis", buckets, err)
}

func (h *JournalHandler) HandleGetSymbolPerformance(w http.ResponseWriter, r *http.Request) {
	filter, ok := parseDateFilter(w, r)
	if !ok {
		return
	}
	sortBy := strings.TrimSpace(r.URL.Query().Get("sort"))
	if sortBy != "" && !processors.IsValidSymbolSort(sortBy) {
		utils.SendJSONError(w, fmt.Sprintf("Invalid sort %q, expected total_pnl, trade_count, win_rate or symbol", sortBy), http.StatusBadRequest)
		return
	}
	perf, err := h.journalService.GetSymbolPerformance(r.Context(), filter, sortBy)
	h.respond(w, r, "symbol performance", perf, err)
}

func (h *JournalHandler) HandleGetOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.journalService.GetOpenPositions(r.Context())
	if positions == nil {
		positions = []models.OpenPosition{}
	}
	h.respond(w, r, "open positions", positions, err)
}

func (h *JournalHandler) HandleGetExecutions(w http.ResponseWriter, r *http.Request) {
	executions, err := h.journalService.GetExecutions(r.Context())
	h.respond(w, r, "executions", executions, err)
}

// respond writes data with an ETag so an unchanged report is answered with 304.
func (h *JournalHandler) respond(w http.ResponseWriter, r *http.Request, what string, data interface{}, err error) {
	log := logger.FromContext(r.Context())
	if err != nil {
		log.Error("Error retrieving "+what, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("Error retrieving %s", what), http.StatusInternalServerError)
		return
	}

	currentETag, etagErr := utils.GenerateETag(data)
	if etagErr != nil {
		log.Error("Failed to generate ETag", "report", what, "error", etagErr)
	}

	w.Header().Set("Cache-Control", "no-cache, private")

	if etagErr == nil && currentETag != "" {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, cETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(cETag) == quotedETag {
				log.Debug("ETag match", "report", what, "etag", currentETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}

	sendJSON(w, r, http.StatusOK, data)
}

// parseDateFilter reads start_date/end_date. A malformed or inverted range is a 400.
func parseDateFilter(w http.ResponseWriter, r *http.Request) (models.DateFilter, bool) {
	q := r.URL.Query()
	filter := models.DateFilter{
		StartDate: strings.TrimSpace(q.Get("start_date")),
		EndDate:   strings.TrimSpace(q.Get("end_date")),
	}
	for name, value := range map[string]string{"start_date": filter.StartDate, "end_date": filter.EndDate} {
		if err := utils.ValidateDateParam(value); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid %s: %v", name, err), http.StatusBadRequest)
			return filter, false
		}
	}
	if filter.StartDate != "" && filter.EndDate != "" && filter.StartDate > filter.EndDate {
		utils.SendJSONError(w, "start_date must not be after end_date", http.StatusBadRequest)
		return filter, false
	}
	return filter, true
}
