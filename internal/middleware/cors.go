package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSOptions configure the CORS middleware. AllowedMethods is normally
// derived from the registered routes.
type CORSOptions struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type corsPolicy struct {
	anyOrigin bool
	origins   map[string]struct{}
	methods   map[string]struct{}
	headers   map[string]string
}

func newCORSPolicy(opts CORSOptions) *corsPolicy {
	policy := &corsPolicy{
		origins: make(map[string]struct{}, len(opts.AllowedOrigins)),
		methods: make(map[string]struct{}, len(opts.AllowedMethods)),
	}
	for _, origin := range opts.AllowedOrigins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			policy.anyOrigin = true
		default:
			policy.origins[origin] = struct{}{}
		}
	}
	for _, method := range opts.AllowedMethods {
		policy.methods[strings.ToUpper(method)] = struct{}{}
	}

	policy.headers = map[string]string{
		"Access-Control-Allow-Methods": strings.Join(opts.AllowedMethods, ", "),
		"Access-Control-Allow-Headers": strings.Join(opts.AllowedHeaders, ", "),
	}
	if opts.MaxAge > 0 {
		policy.headers["Access-Control-Max-Age"] = strconv.Itoa(int(opts.MaxAge.Seconds()))
	}
	return policy
}

func (p *corsPolicy) allowsOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	if p.anyOrigin {
		return true
	}
	_, ok := p.origins[origin]
	return ok
}

func (p *corsPolicy) allowsMethod(method string) bool {
	_, ok := p.methods[strings.ToUpper(method)]
	return ok
}

// CORS answers preflight requests itself and decorates allowed cross-origin
// responses. A "*" origin echoes the caller's Origin back.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	policy := newCORSPolicy(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			requested := r.Header.Get("Access-Control-Request-Method")
			preflight := r.Method == http.MethodOptions && origin != "" && requested != ""

			w.Header().Add("Vary", "Origin")
			if policy.allowsOrigin(origin) && (!preflight || policy.allowsMethod(requested)) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				for key, value := range policy.headers {
					if value != "" {
						w.Header().Set(key, value)
					}
				}
			}

			if preflight {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
