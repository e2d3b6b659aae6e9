package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists origins allowed to make cross-origin requests.
	// Empty, or the single entry "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists the methods clients may use. Defaults to
	// "GET, POST, PUT, DELETE, OPTIONS" when empty.
	AllowMethods []string

	// AllowHeaders lists the request headers clients may send. When empty,
	// preflight responses echo Access-Control-Request-Headers back.
	AllowHeaders []string

	// ExposeHeaders lists response headers the browser may read.
	ExposeHeaders []string

	// AllowCredentials permits cookies and auth headers on cross-origin
	// requests. Incompatible with the wildcard origin, so enabling it
	// switches the middleware to echoing the specific matched origin.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Zero omits the
	// header; negative sends "0".
	MaxAge int
}

// corsPolicy is the precomputed form of a CORSConfig.
type corsPolicy struct {
	allowAll    bool
	origins     map[string]string // lowercased origin -> configured spelling
	methods     string
	headers     string
	expose      string
	credentials bool
	maxAge      string
}

func newCORSPolicy(cfg CORSConfig) corsPolicy {
	p := corsPolicy{
		allowAll:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		expose:      strings.Join(cfg.ExposeHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}

	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			p.allowAll = true
			break
		}
		p.origins[strings.ToLower(o)] = o
	}

	// The fetch spec forbids credentials with a wildcard origin.
	if p.credentials {
		p.allowAll = false
	}

	if p.methods == "" {
		p.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}

	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	} else if cfg.MaxAge < 0 {
		p.maxAge = "0"
	}

	return p
}

// allowOrigin returns the Access-Control-Allow-Origin value for a request
// origin, or "" when the origin is not allowed. Matching is case-insensitive
// but the configured spelling is what gets echoed.
func (p corsPolicy) allowOrigin(origin string) string {
	if p.allowAll {
		return "*"
	}
	return p.origins[strings.ToLower(origin)]
}

// CORS returns a middleware handling cross-origin resource sharing, including
// preflight requests (OPTIONS with Access-Control-Request-Method) and the
// Vary headers caches need to keep per-origin responses separate.
func CORS(cfg CORSConfig) Middleware {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			// Same-origin request. Still vary on Origin when responses
			// differ per origin.
			if origin == "" {
				if !p.allowAll {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			allowed := p.allowOrigin(origin)

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				p.writePreflight(w, r, allowed)
				return
			}

			if !p.allowAll {
				w.Header().Add("Vary", "Origin")
			}

			if allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				if p.credentials {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
				if p.expose != "" {
					w.Header().Set("Access-Control-Expose-Headers", p.expose)
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (p corsPolicy) writePreflight(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Add("Vary", "Origin")
	w.Header().Add("Vary", "Access-Control-Request-Method")
	w.Header().Add("Vary", "Access-Control-Request-Headers")

	// Disallowed origins get a bare 204 with no CORS headers.
	if allowed == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", allowed)
	w.Header().Set("Access-Control-Allow-Methods", p.methods)

	if p.headers != "" {
		w.Header().Set("Access-Control-Allow-Headers", p.headers)
	} else if rh := r.Header.Get("Access-Control-Request-Headers"); rh != "" {
		w.Header().Set("Access-Control-Allow-Headers", rh)
	}

	if p.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if p.maxAge != "" {
		w.Header().Set("Access-Control-Max-Age", p.maxAge)
	}

	w.WriteHeader(http.StatusNoContent)
}
