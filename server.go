package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/inkwell/apperror"
	"github.com/user/inkwell/auth"
	"github.com/user/inkwell/config"
	_ "github.com/user/inkwell/docs" // Generated Swagger docs
	"github.com/user/inkwell/posts"
	"github.com/user/inkwell/uploads"
	"github.com/user/inkwell/users"
)

// requestTimeout bounds every handler. The server's write deadline sits just
// past it so the timeout response can still be written.
const requestTimeout = 60 * time.Second

// deps are the stores behind the HTTP API.
type deps struct {
	users auth.UserStore
	posts posts.Store
}

func newPgDeps(pool *pgxpool.Pool) deps {
	return deps{
		users: auth.NewPgUserStore(pool),
		posts: posts.NewPgStore(pool),
	}
}

func newRouter(cfg *config.AppConfig, d deps) (http.Handler, error) {
	authHandlers := auth.NewHandlers(auth.NewService(d.users, cfg.Auth))
	userHandlers := users.NewUserHandlers(users.NewUserService(d.users))
	requireAuth := auth.JWTMiddleware(cfg.Auth)
	postHandler := posts.NewPostHandler(posts.NewPostService(d.posts, auth.NewAdminCheck(d.users)), requireAuth)

	uploadHandler, err := uploads.NewHandler(cfg.Uploads)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Panics inside handlers become a JSON 500 instead of a bare connection reset.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					auth.WriteError(w, r, apperror.NewInternalError("Internal server error", fmt.Errorf("panic: %v", rvr)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.With(requireAuth).Get("/me", userHandlers.HandleGetUserProfile())
	})

	r.Route("/api/posts", postHandler.RegisterRoutes)

	uploadHandler.RegisterRoutes(r, requireAuth)

	return r, nil
}

func newHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs the HTTP server until SIGINT or SIGTERM, then shuts down gracefully.
func serve(cfg *config.AppConfig, d deps) error {
	handler, err := newRouter(cfg, d)
	if err != nil {
		return err
	}

	srv := newHTTPServer(cfg.Server, handler)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped gracefully")
	return nil
}
