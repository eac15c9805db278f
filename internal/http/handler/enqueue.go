package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"siteplan/internal/notify"
)

type Enqueuer interface {
	Send(ctx context.Context, payload any) (int64, error)
}

type EnqueueHandler struct {
	Queue  Enqueuer
	Logger *slog.Logger
}

func (h *EnqueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var ev notify.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	ev.UserID = strings.TrimSpace(ev.UserID)
	ev.Type = notify.EventType(strings.TrimSpace(string(ev.Type)))
	ev.Title = strings.TrimSpace(ev.Title)
	ev.RelatedID = strings.TrimSpace(ev.RelatedID)

	if err := ev.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), notify.ErrMalformedEvent.Error()+": "))
		return
	}
	if !ev.Type.Known() {
		writeError(w, http.StatusBadRequest, "unknown type")
		return
	}
	if ev.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}

	id, err := h.Queue.Send(r.Context(), ev)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			h.Logger.Error("enqueue notification", "user_id", ev.UserID, "type", ev.Type, "error", err)
		}
		writeError(w, http.StatusInternalServerError, "failed enqueue")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"msgId": id})
}
