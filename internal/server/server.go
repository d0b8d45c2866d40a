package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/soulchat/soulchat/internal/config"
	"github.com/soulchat/soulchat/internal/handler"
	aihandler "github.com/soulchat/soulchat/internal/handler/ai"
	proactivehandler "github.com/soulchat/soulchat/internal/handler/proactive"
	sessionhandler "github.com/soulchat/soulchat/internal/handler/session"
	"github.com/soulchat/soulchat/internal/logging"
	"github.com/soulchat/soulchat/internal/realtime"
	"github.com/soulchat/soulchat/internal/svc"
	"github.com/soulchat/soulchat/internal/websocket"
)

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context
	Quiet  bool                // Suppress startup messages for clean CLI output
}

// Run starts the SoulChat server with the given configuration.
// It blocks until the context is cancelled or an error occurs.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	serverPort := c.Port

	if err := checkPortAvailable(serverPort); err != nil {
		return fmt.Errorf("port %d is already in use", serverPort)
	}

	var svcCtx *svc.ServiceContext
	if opts.SvcCtx != nil {
		svcCtx = opts.SvcCtx
	} else {
		var err error
		svcCtx, err = svc.NewServiceContext(c)
		if err != nil {
			return err
		}
		defer svcCtx.Close()
	}

	r := chi.NewRouter()

	if !opts.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(corsMiddleware(c))

	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	r.Route("/api/v1", func(r chi.Router) {
		registerAIRoutes(r, svcCtx)
		registerProactiveRoutes(r, svcCtx)
		registerSessionRoutes(r, svcCtx)
	})

	realtime.Configure(c.WebSocket.ReadLimit, c.WebSocket.SendBufferSize)
	r.Get("/ws", websocket.Handler(c, svcCtx.Hub))

	// The scheduler outlives individual requests; it stops with the context.
	if err := svcCtx.Scheduler.Start(ctx); err != nil {
		logging.Errorf("proactive scheduler start failed: %v", err)
	}

	// ReadTimeout/WriteTimeout are omitted: they set deadlines on the
	// underlying net.Conn which interfere with hijacked WebSocket
	// connections. Keepalive runs over ping/pong in the realtime package.
	httpServer := &http.Server{
		Addr:        fmt.Sprintf(":%d", serverPort),
		Handler:     r,
		IdleTimeout: 120 * time.Second,
	}

	if !opts.Quiet {
		fmt.Printf("SoulChat ready at http://localhost:%d\n", serverPort)
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	if !opts.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	httpServer.Shutdown(shutdownCtx)
	return nil
}

func registerAIRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Post("/ai/chat", aihandler.ChatHandler(svcCtx))
	r.Post("/ai/emotion", aihandler.EmotionHandler(svcCtx))
	r.Get("/ai/status", aihandler.StatusHandler(svcCtx))
	r.Get("/ai/breakers", aihandler.BreakersHandler(svcCtx))
	r.Post("/ai/breakers/{provider}/reset", aihandler.ResetBreakerHandler(svcCtx))
}

func registerProactiveRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Get("/proactive/config", proactivehandler.GetConfigHandler(svcCtx))
	r.Put("/proactive/config", proactivehandler.UpdateConfigHandler(svcCtx))
	r.Post("/proactive/trigger", proactivehandler.TriggerHandler(svcCtx))
	r.Post("/proactive/restart", proactivehandler.RestartHandler(svcCtx))
}

func registerSessionRoutes(r chi.Router, svcCtx *svc.ServiceContext) {
	r.Post("/sessions", sessionhandler.CreateSessionHandler(svcCtx))
	r.Get("/sessions/{id}/messages", sessionhandler.GetMessagesHandler(svcCtx))
}

// corsMiddleware allows same-origin, localhost, and the configured base URL.
func corsMiddleware(c config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin == "" || isAllowedOrigin(c, origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			// Other origins get no CORS headers, the browser blocks them

			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isAllowedOrigin(c config.Config, origin string) bool {
	for _, prefix := range []string{
		"http://localhost", "https://localhost",
		"http://127.0.0.1", "https://127.0.0.1",
	} {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	base := strings.TrimSuffix(c.App.BaseURL, "/")
	return base != "" && strings.HasPrefix(origin, base)
}

// checkPortAvailable checks if a port is available for binding
func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
