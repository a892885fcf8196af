// backend/src/handlers/import_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/models"
	"github.com/username/tradejournal/backend/src/parsers/csvutil"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/services"
	"github.com/username/tradejournal/backend/src/utils"
)

type ImportHandler struct {
	importService  services.ImportService
	maxUploadBytes int64
}

func NewImportHandler(service services.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		importService:  service,
		maxUploadBytes: maxUploadBytes,
	}
}

// HandlePreview returns headers, sample rows and a suggested mapping. It never writes.
func (h *ImportHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %s)", humanize.Bytes(uint64(h.maxUploadBytes))), http.StatusBadRequest)
		return
	}

	content, ok := h.readUploadedFile(w, r)
	if !ok {
		return
	}

	preview, err := h.importService.Preview(content)
	if err != nil {
		h.writeImportError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, preview)
}

// HandleImport runs an import from either a fresh upload ("file") or an earlier preview
// ("preview_id"). The optional "mapping" field is a JSON ColumnMapping; without it the
// suggested mapping is used. "source" selects a fixed-layout parser.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	// A confirm by preview_id may arrive url-encoded.
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %s)", humanize.Bytes(uint64(h.maxUploadBytes))), http.StatusBadRequest)
		return
	}

	var mapping *models.ColumnMapping
	if raw := r.FormValue("mapping"); raw != "" {
		mapping = &models.ColumnMapping{}
		if err := json.Unmarshal([]byte(raw), mapping); err != nil {
			utils.SendJSONError(w, fmt.Sprintf("Invalid mapping JSON: %v", err), http.StatusBadRequest)
			return
		}
	}
	source := r.FormValue("source")

	var (
		result *models.ImportResult
		err    error
	)
	if previewID := r.FormValue("preview_id"); previewID != "" {
		log.Info("Processing import from preview", "previewID", previewID, "source", source)
		result, err = h.importService.RunImportFromPreview(r.Context(), previewID, mapping, source)
	} else {
		content, ok := h.readUploadedFile(w, r)
		if !ok {
			return
		}
		result, err = h.importService.RunImport(r.Context(), content, mapping, source)
	}
	if err != nil {
		h.writeImportError(w, r, err)
		return
	}
	sendJSON(w, r, http.StatusOK, result)
}

func (h *ImportHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	result, err := h.importService.Rebuild(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Rebuild failed", "error", err)
		utils.SendJSONError(w, "An internal error occurred while rebuilding trades.", http.StatusInternalServerError)
		return
	}
	sendJSON(w, r, http.StatusOK, result)
}

// readUploadedFile applies the upload checks and returns the file bytes. It writes the
// error response itself and returns false on failure.
func (h *ImportHandler) readUploadedFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	log := logger.FromContext(r.Context())

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	if fileHeader.Size > h.maxUploadBytes {
		log.Warn("Uploaded file header reports size too large", "fileSize", fileHeader.Size, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %s", humanize.Bytes(uint64(h.maxUploadBytes))), http.StatusBadRequest)
		return nil, false
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		log.Warn("Invalid client-declared file type", "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		log.Error("Failed to read uploaded file", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, "Failed to read uploaded file.", http.StatusBadRequest)
		return nil, false
	}
	if int64(len(content)) > h.maxUploadBytes {
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %s", humanize.Bytes(uint64(h.maxUploadBytes))), http.StatusBadRequest)
		return nil, false
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(content)
	if err != nil {
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	log.Info("File content validated by magic bytes", "filename", fileHeader.Filename, "clientType", clientContentType,
		"detectedType", detectedContentType, "size", humanize.Bytes(uint64(len(content))))
	return content, true
}

func (h *ImportHandler) writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var mErr *csvutil.MappingError
	switch {
	case errors.As(err, &mErr):
		log.Warn("Import rejected due to invalid column mapping", "error", err)
		utils.SendJSONErrorWithDetails(w, err.Error(), map[string]interface{}{
			"missing_fields":  mErr.Missing,
			"unknown_headers": mErr.UnknownHeaders,
		}, http.StatusBadRequest)
	case errors.Is(err, services.ErrMappingInvalid), errors.Is(err, services.ErrParsingFailed), errors.Is(err, services.ErrUnknownSource):
		log.Warn("Import rejected", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrPreviewNotFound):
		log.Warn("Import preview not found", "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("Internal error processing import", "error", err)
		utils.SendJSONError(w, "An internal error occurred while processing the file. Please try again later.", http.StatusInternalServerError)
	}
}

func sendJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).Error("Error encoding JSON response", "path", r.URL.Path, "error", err)
	}
}
