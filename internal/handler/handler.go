package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/revisor/internal/i18n"
	"github.com/pavelanni/revisor/internal/model"
	"github.com/pavelanni/revisor/internal/plan"
	"github.com/pavelanni/revisor/internal/revision"
	"github.com/pavelanni/revisor/internal/store"
	"github.com/pavelanni/revisor/internal/testgen"
)

const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc     *revision.Service
	limiter *rateLimiter
	now     func() time.Time
}

// New creates a new Handler.
func New(svc *revision.Service, cfg model.RuntimeConfig) *Handler {
	return &Handler{
		svc:     svc,
		limiter: newRateLimiter(cfg.GenerateRate, cfg.GenerateBurst),
		now:     time.Now,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/topics", h.handleAddTopic)
		r.Get("/topics", h.handleListTopics)
		r.Delete("/topics/{topicID}", h.handleDeleteTopic)

		r.Post("/tests/submit", h.handleSubmitTest)

		r.Route("/ai", func(r chi.Router) {
			r.Get("/revision-plan", h.handleRevisionPlan)
			r.Get("/direction", h.handleDirection)
			r.Get("/suggest-concepts", h.handleSuggestConcepts)
			r.With(h.limiter.middleware).Get("/generate-test", h.handleGenerateTest)
		})
	})
}

func (h *Handler) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var in revision.TopicInput
	if !decodeJSON(w, r, &in) {
		return
	}
	topic, err := h.svc.AddTopic(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (h *Handler) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.svc.Topics()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if topics == nil {
		topics = []model.Topic{}
	}
	writeJSON(w, http.StatusOK, topics)
}

func (h *Handler) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "topicID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrInvalidRequest"))
		return
	}
	if err := h.svc.DeleteTopic(id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Topic deleted"})
}

func (h *Handler) handleSubmitTest(w http.ResponseWriter, r *http.Request) {
	var in revision.AttemptInput
	if !decodeJSON(w, r, &in) {
		return
	}
	res, err := h.svc.SubmitAttempt(in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleRevisionPlan(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Plan()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type directionResponse struct {
	plan.Directive
	Due string `json:"due"`
}

func (h *Handler) handleDirection(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Directive()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	entries, err := h.svc.Plan()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	ctx := r.Context()
	d.Message = i18n.Td(ctx, string(d.Kind), map[string]any{"Topic": d.Topic})
	writeJSON(w, http.StatusOK, directionResponse{
		Directive: d,
		Due:       i18n.Tp(ctx, "TopicsDue", plan.CountDue(entries, h.now())),
	})
}

func (h *Handler) handleGenerateTest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("topicId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrInvalidRequest"))
		return
	}
	test, err := h.svc.GenerateTest(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, test)
}

func (h *Handler) handleSuggestConcepts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := strings.TrimSpace(q.Get("topic"))
	if topic == "" {
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrInvalidRequest"))
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"suggestions": testgen.SuggestConcepts(q.Get("subject"), topic),
	})
}

// fail maps service errors to status codes. Unexpected errors are logged and hidden.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, i18n.T(ctx, "ErrTopicNotFound"))
	case errors.Is(err, revision.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, i18n.T(ctx, "ErrInternal"))
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		slog.Debug("bad request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, i18n.T(r.Context(), "ErrInvalidRequest"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
