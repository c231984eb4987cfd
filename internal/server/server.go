package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/vraj-maheshwari/pollapp/internal/handler"
	"github.com/vraj-maheshwari/pollapp/internal/middleware"
	"github.com/vraj-maheshwari/pollapp/internal/store"
	ws "github.com/vraj-maheshwari/pollapp/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	pollH       *handler.PollHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, baseURL string, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	pollStore := store.NewPollStore(db)
	voteStore := store.NewVoteStore(db)
	insightStore := store.NewInsightStore(db)

	templates := handler.ParseTemplates()
	pollH := handler.NewPollHandler(pollStore, voteStore, insightStore, hub, templates, baseURL, logger.With("component", "poll"))

	return &Server{
		db:          db,
		hub:         hub,
		pollH:       pollH,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the websocket hub, mainly for tests and shutdown hooks.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.pollH.CreatePage)
	mux.HandleFunc("POST /{$}", s.rateLimitedHandler(s.pollH.Create))
	mux.HandleFunc("GET /poll/{id}", s.pollH.View)
	mux.HandleFunc("POST /poll/{id}", s.rateLimitedHandler(s.pollH.Vote))
	mux.HandleFunc("GET /results/{id}", s.pollH.ResultsPage)
	mux.HandleFunc("GET /api/results/{id}", s.pollH.APIResults)
	mux.HandleFunc("GET /share/{id}", s.pollH.SharePage)
	mux.HandleFunc("GET /creator/{id}/{secret}", s.pollH.Dashboard)
	mux.HandleFunc("GET /qr/{id}", s.pollH.QRCode)
	mux.HandleFunc("GET /health", s.healthHandler)

	// WebSocket endpoint for live result updates
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
