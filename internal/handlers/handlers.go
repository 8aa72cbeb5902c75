package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"travel-wallet/internal/bot"
	"travel-wallet/internal/models"
	"travel-wallet/internal/render"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Conversation is the chat entry point the API drives.
type Conversation interface {
	Register(ctx context.Context, user models.UserID, name string) error
	HandleText(ctx context.Context, user models.UserID, text string) ([]bot.Reply, error)
	HandleConfirmation(ctx context.Context, user models.UserID, purpose bot.Purpose, accept bool) ([]bot.Reply, error)
	HandleCommand(ctx context.Context, user models.UserID, displayName string, cmd bot.Command) ([]bot.Reply, error)
}

// TripReader gives read access to the ledger.
type TripReader interface {
	Trips(ctx context.Context, user models.UserID) ([]models.Trip, error)
	Trip(ctx context.Context, tripID int64) (*models.Trip, error)
	Expenses(ctx context.Context, tripID int64, limit int) ([]models.Expense, error)
	Summary(ctx context.Context, tripID int64) (models.TripSummary, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	chat         Conversation
	trips        TripReader
	renderer     *render.Renderer
	logger       log.Logger
	historyLimit int
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(chat Conversation, trips TripReader, renderer *render.Renderer, logger log.Logger, historyLimit int) *Handlers {
	return &Handlers{
		chat:         chat,
		trips:        trips,
		renderer:     renderer,
		logger:       logger,
		historyLimit: historyLimit,
	}
}

// MessageRequest is the body of POST /api/messages.
type MessageRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Text   string `json:"text"`
}

// ConfirmationRequest is the body of POST /api/confirmations.
type ConfirmationRequest struct {
	UserID  string `json:"user_id"`
	Purpose string `json:"purpose"`
	Accept  bool   `json:"accept"`
}

// ReplyView is a rendered reply.
type ReplyView struct {
	Kind    bot.Kind    `json:"kind"`
	Text    string      `json:"text"`
	Confirm bot.Purpose `json:"confirm,omitempty"`
}

// RepliesResponse is returned by the message and confirmation endpoints.
type RepliesResponse struct {
	Replies []ReplyView `json:"replies"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Message handles a chat message. Text starting with '/' is run as a command.
func (h *Handlers) Message(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := models.UserID(strings.TrimSpace(req.UserID))
	if user == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.chat.Register(r.Context(), user, req.Name); err != nil {
		level.Error(h.logger).Log("msg", "register failed", "user", user, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	var (
		replies []bot.Reply
		err     error
	)
	if cmd, ok := bot.ParseCommand(req.Text); ok && !strings.EqualFold(strings.TrimSpace(req.Text), bot.SkipToken) {
		replies, err = h.chat.HandleCommand(r.Context(), user, req.Name, cmd)
	} else {
		replies, err = h.chat.HandleText(r.Context(), user, req.Text)
	}
	if err != nil {
		level.Error(h.logger).Log("msg", "message failed", "user", user, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeReplies(w, replies)
}

// Confirmation handles a yes/no answer.
func (h *Handlers) Confirmation(w http.ResponseWriter, r *http.Request) {
	var req ConfirmationRequest
	if err := decode(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user := models.UserID(strings.TrimSpace(req.UserID))
	if user == "" {
		h.writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	purpose := bot.Purpose(req.Purpose)
	if purpose != bot.PurposeRate && purpose != bot.PurposeExpense {
		h.writeError(w, http.StatusBadRequest, "purpose must be rate or expense")
		return
	}

	if err := h.chat.Register(r.Context(), user, ""); err != nil {
		level.Error(h.logger).Log("msg", "register failed", "user", user, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	replies, err := h.chat.HandleConfirmation(r.Context(), user, purpose, req.Accept)
	if err != nil {
		level.Error(h.logger).Log("msg", "confirmation failed", "user", user, "err", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.writeReplies(w, replies)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoggingMiddleware logs every request with its status and duration.
func (h *Handlers) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		level.Info(h.logger).Log(
			"request_id", uuid.NewString(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"took", time.Since(begin),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handlers) writeReplies(w http.ResponseWriter, replies []bot.Reply) {
	resp := RepliesResponse{Replies: make([]ReplyView, 0, len(replies))}
	for _, reply := range replies {
		resp.Replies = append(resp.Replies, ReplyView{
			Kind:    reply.Kind,
			Text:    h.renderer.Text(reply),
			Confirm: reply.Confirm,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
