package api

import (
	"fmt"
	"net/http"

	_ "github.com/notevault/notevault/docs"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/notevault/notevault/internal/api/handlers"
	"github.com/notevault/notevault/internal/api/middleware"
	"github.com/notevault/notevault/internal/config"
	"github.com/notevault/notevault/internal/store"
	"github.com/notevault/notevault/internal/token"
	"github.com/rs/cors"
)

// NewRouter wires the full handler chain: request logging, CORS, admission
// control, then the public auth routes and the gated note routes. The store
// handle and token service are injected, never reached through globals.
func NewRouter(cfg config.Config, st store.Store, tokens *token.Service) http.Handler {
	mainMux := http.NewServeMux()
	c := cors.New(cfg.CorsConfig)

	authHandler := handlers.NewAuthHandler(st, tokens)
	notesHandler := handlers.NewNotesHandler(st, st)

	// ---------- PUBLIC ROUTES ----------
	mainMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	mainMux.HandleFunc("/docs/", httpSwagger.WrapHandler)

	mainMux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mainMux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// ---------- PROTECTED ROUTES ----------
	notesMux := http.NewServeMux()
	notesMux.HandleFunc("GET /api/notes", notesHandler.List)
	notesMux.HandleFunc("POST /api/notes", notesHandler.Create)
	notesMux.HandleFunc("GET /api/notes/search", notesHandler.Search)
	notesMux.HandleFunc("GET /api/notes/{id}", notesHandler.Get)
	notesMux.HandleFunc("PUT /api/notes/{id}", notesHandler.Update)
	notesMux.HandleFunc("DELETE /api/notes/{id}", notesHandler.Delete)
	notesMux.HandleFunc("POST /api/notes/{id}/share", notesHandler.Share)

	guard := middleware.Auth(tokens, st)
	mainMux.Handle("/api/notes", guard(notesMux))
	mainMux.Handle("/api/notes/", guard(notesMux))

	// Admission control sits in front of authentication: over-limit clients
	// are rejected whether or not they carry a valid token.
	limiter := middleware.NewRateLimiter(cfg.RateLimit)

	handler := c.Handler(limiter.Middleware(mainMux))
	handler = middleware.Logger(handler)
	return handler
}
