package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/antoniostano/todobot/internal/config"
	"github.com/antoniostano/todobot/internal/observability"
	"github.com/antoniostano/todobot/internal/todo"
	"github.com/antoniostano/todobot/internal/view"
)

// StoreReader is the read-only view of the task store served over HTTP.
type StoreReader interface {
	Lookup(userID string) (todo.UserRecord, bool)
	Stats() todo.Stats
}

// Deps are the components mounted on the router. Nil handlers leave their
// routes unregistered.
type Deps struct {
	Store     StoreReader
	StoreMode string
	Webhook   http.Handler
	Chat      http.Handler
	Logger    *zap.Logger
}

type Server struct {
	cfg    config.Config
	deps   Deps
	static http.Handler
}

func New(cfg config.Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Server{
		cfg:    cfg,
		deps:   deps,
		static: newStaticHandler(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Get("/ui", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ui/", http.StatusTemporaryRedirect)
	})
	r.Handle("/ui/*", http.StripPrefix("/ui/", s.static))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	if s.deps.Webhook != nil {
		r.Post("/v1/telegram/webhook", s.deps.Webhook.ServeHTTP)
	}
	if s.deps.Chat != nil {
		r.Get("/v1/chat/ws", s.deps.Chat.ServeHTTP)
	}
	if s.cfg.AdminToken != "" {
		r.With(s.requireAdmin).Get("/v1/users/{id}/tasks", s.handleUserTasks)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.deps.Store == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "task store not loaded")
		return
	}
	stats := s.deps.Store.Stats()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "ready",
		"store_mode":      s.storeMode(),
		"users":           stats.Users,
		"tasks":           stats.Tasks,
		"completed_tasks": stats.CompletedTasks,
		"telegram":        s.telegramMode(),
	})
}

// requireAdmin admits requests carrying "Authorization: Bearer <APP_ADMIN_TOKEN>".
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	want := []byte(s.cfg.AdminToken)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), want) != 1 {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "unauthorized", "admin token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userTasksResponse struct {
	UserID     string      `json:"user_id"`
	Tasks      []todo.Task `json:"tasks"`
	Categories []string    `json:"categories"`
	Rendered   string      `json:"rendered"`
}

// handleUserTasks serves one user's record, the same data /list renders.
func (s *Server) handleUserTasks(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_user_id", "missing user id")
		return
	}
	if s.deps.Store == nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "task store not loaded")
		return
	}
	rec, ok := s.deps.Store.Lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, "user_not_found", "no tasks stored for this user")
		return
	}
	text, _ := view.TaskList(rec)
	respondJSON(w, http.StatusOK, userTasksResponse{
		UserID:     id,
		Tasks:      rec.Tasks,
		Categories: rec.Categories,
		Rendered:   text,
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func (s *Server) storeMode() string {
	mode := strings.TrimSpace(s.deps.StoreMode)
	if mode == "" {
		return "unknown"
	}
	return mode
}

func (s *Server) telegramMode() string {
	if !s.cfg.TelegramEnabled() {
		return config.TelegramOff
	}
	return s.cfg.TelegramMode
}
