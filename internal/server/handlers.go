package server

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/pawalert/internal/models"
	"github.com/desertthunder/pawalert/internal/tasks"
)

const maxEventBytes = 64 << 10

// Submitter accepts listing events without blocking. [tasks.Engine] implements it.
type Submitter interface {
	Submit(ev models.ListingCreatedEvent) bool
	Stats() tasks.StatsSnapshot
}

// EventsHandler receives listing-created events from the listing subsystem.
type EventsHandler struct {
	engine Submitter
	logger *log.Logger
}

// NewEventsHandler creates an [EventsHandler].
func NewEventsHandler(engine Submitter, logger *log.Logger) *EventsHandler {
	return &EventsHandler{engine: engine, logger: logger}
}

func (h *EventsHandler) Routes() []string {
	return []string{"POST /events/listing-created"}
}

// ServeHTTP answers 202 once the event is queued. It never waits for matching or dispatch.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var ev models.ListingCreatedEvent
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err := dec.Decode(&ev); err != nil {
		h.logger.Warn("undecodable listing event", "err", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid listing event: " + err.Error()})
		return
	}

	if !h.engine.Submit(ev) {
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "event queue unavailable", "listingId": ev.ListingID})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "listingId": ev.ListingID})
}

// StatusHandler serves liveness and engine counters.
type StatusHandler struct {
	engine Submitter
}

// NewStatusHandler creates a [StatusHandler].
func NewStatusHandler(engine Submitter) *StatusHandler {
	return &StatusHandler{engine: engine}
}

func (h *StatusHandler) Routes() []string {
	return []string{"GET /health", "GET /stats"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/health":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "/stats":
		writeJSON(w, http.StatusOK, h.engine.Stats())
	default:
		http.NotFound(w, r)
	}
}

// NewRouter wires the engine handlers behind logging and panic recovery.
func NewRouter(engine Submitter, logger *log.Logger) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recoverer(logger), RequestLogger(logger))
	r.Handler(NewEventsHandler(engine, logger))
	r.Handler(NewStatusHandler(engine))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
