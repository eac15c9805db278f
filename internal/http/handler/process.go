package handler

import (
	"context"
	"log/slog"
	"net/http"

	"siteplan/internal/notify"
)

type ProcessHandler struct {
	Processor notify.BatchProcessor
	Logger    *slog.Logger
}

// Process runs one batch pass and returns its summary.
func (h *ProcessHandler) Process(w http.ResponseWriter, r *http.Request) {
	// a caller hanging up must not abandon claimed messages mid-send
	ctx := context.WithoutCancel(r.Context())

	sum, err := h.Processor.ProcessBatch(ctx)
	if err != nil {
		h.Logger.Error("process notification queue", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
