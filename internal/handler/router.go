package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/persona-chat/backend/internal/handler/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/persona-chat/backend/internal/middleware"
	personaModel "github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
	"github.com/zhouzirui/persona-chat/backend/pkg/utils"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Personas       personaModel.Store
	Chat           chat.Service
	Logger         *logging.Logger
	AllowedOrigins []string
	MetricsHandler http.Handler
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	personaHandler := persona.New(deps.Personas)
	chatHandler := chat.New(deps.Chat, logger)
	wsHandler := ws.New(deps.Chat, logger, originChecker(deps.AllowedOrigins))

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)
	})

	// CORS wraps the router so preflight requests never reach method routing.
	cors := middlewarePkg.CORS(middlewarePkg.CORSOptions{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: routeMethods(r),
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         10 * time.Minute,
	})
	return cors(r)
}

// routeMethods lists the methods the router serves, plus OPTIONS.
func routeMethods(r chi.Routes) []string {
	seen := map[string]struct{}{http.MethodOptions: {}}
	_ = chi.Walk(r, func(method, _ string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method] = struct{}{}
		return nil
	})

	methods := make([]string, 0, len(seen))
	for method := range seen {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// originChecker applies the CORS allowlist to websocket upgrades. Requests
// without an Origin header are not browser requests and are allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	allow := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			return nil
		}
		allow[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allow[origin]
		return ok
	}
}
