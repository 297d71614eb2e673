package handler

import (
	"log/slog"
	"net/http"

	"github.com/tunemarket/tunemarket/internal/domain"
)

// EventHandler serves the marketplace event log.
type EventHandler struct {
	events domain.EventStore
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events domain.EventStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		events: events,
		logger: logHandler(logger, "event"),
	}
}

type listEventsResponse struct {
	Events []eventJSON `json:"events"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// List returns recent events, newest first. Older events may already have
// been moved to the archive.
// GET /api/events?limit=50&offset=0
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	events, err := h.events.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list events failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listEventsResponse{
		Events: toEventList(events),
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}
