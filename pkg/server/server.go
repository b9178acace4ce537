// Package server exposes the assistant over HTTP and serves the chat widget.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/assistant"
	"github.com/worldofchami/paychat/pkg/observability"
)

const genericError = "Something went wrong"

// Replier answers one chat turn.
type Replier interface {
	Reply(ctx context.Context, message string, history []assistant.Message) (string, error)
}

type Config struct {
	// StaticDir is served at / when set.
	StaticDir    string
	MaxBodyBytes int64
}

// chatRequest is the payload accepted by the /chat endpoint.
type chatRequest struct {
	Message string              `json:"message"`
	History []assistant.Message `json:"history"`
}

// chatResponse is the JSON shape returned by the /chat endpoint.
type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires middleware, the chat endpoint, health check and static files.
func NewRouter(cfg Config, replier Replier, logger *zap.Logger) http.Handler {
	logger = observability.OrNop(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(cors.AllowAll().Handler)
	if cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.MaxBodyBytes))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/chat", chatHandler(replier, logger))

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

func chatHandler(replier Replier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
			return
		}
		if err := assistant.ValidateHistory(req.History); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		reply, err := replier.Reply(r.Context(), req.Message, req.History)
		if err != nil {
			logger.Error("chat failed",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: genericError})
			return
		}

		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}

// recoverer turns a panic into the generic 500 body.
func recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic serving request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: genericError})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
