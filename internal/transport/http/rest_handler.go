package http

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/Tae5567/TrivParty-sub002/internal/app"
	"github.com/Tae5567/TrivParty-sub002/internal/domain"
)

// RESTHandler serves the replay, share, leaderboard and session lifecycle
// endpoints.
type RESTHandler struct {
	service *app.GameService
	log     *zap.Logger
}

func NewRESTHandler(service *app.GameService, log *zap.Logger) *RESTHandler {
	return &RESTHandler{service: service, log: log}
}

// Register attaches all REST routes to mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions/{id}/start", h.startSession)
	mux.HandleFunc("POST /sessions/{id}/advance", h.advanceQuestion)
	mux.HandleFunc("POST /sessions/{id}/complete", h.completeSession)
	mux.HandleFunc("GET /replays/{id}", h.getReplay)
	mux.HandleFunc("PATCH /replays/{id}/visibility", h.setVisibility)
	mux.HandleFunc("POST /replays/{id}/shares", h.recordShare)
	mux.HandleFunc("GET /leaderboard", h.globalLeaderboard)
}

func (h *RESTHandler) startSession(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.StartSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, question)
}

func (h *RESTHandler) advanceQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := h.service.AdvanceQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, question)
}

func (h *RESTHandler) completeSession(w http.ResponseWriter, r *http.Request) {
	replay, err := h.service.CompleteSession(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, replay)
}

func (h *RESTHandler) getReplay(w http.ResponseWriter, r *http.Request) {
	replay, err := h.service.GetReplay(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, replay)
}

type visibilityRequest struct {
	IsPublic bool `json:"isPublic"`
}

func (h *RESTHandler) setVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if err := h.service.SetReplayVisibility(r.Context(), r.PathValue("id"), req.IsPublic); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type shareRequest struct {
	Platform string `json:"platform"`
}

func (h *RESTHandler) recordShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Platform == "" {
		http.Error(w, "platform required", http.StatusBadRequest)
		return
	}
	origin, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		origin = r.RemoteAddr
	}
	share, err := h.service.RecordShare(r.Context(), r.PathValue("id"), req.Platform, origin)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, share)
}

func (h *RESTHandler) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	entries, err := h.service.GetGlobalLeaderboard(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response", zap.Error(err))
	}
}

func (h *RESTHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrReplayNotFound),
		errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrReplayExpired):
		status = http.StatusGone
	case errors.Is(err, domain.ErrInvalidLimit):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrSessionNotStarted),
		errors.Is(err, domain.ErrSessionNotComplete):
		status = http.StatusConflict
	default:
		h.log.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}
