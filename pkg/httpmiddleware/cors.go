package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures the CORS middleware.
type CORSConfig struct {
	// AllowOrigins lists the origins allowed to make cross-origin requests.
	// Empty, or a single "*", allows every origin.
	AllowOrigins []string

	// AllowMethods lists the methods clients may use. Empty means
	// "GET, POST, PUT, DELETE, OPTIONS".
	AllowMethods []string

	// AllowHeaders lists the request headers clients may send. When empty,
	// preflight responses echo back Access-Control-Request-Headers.
	AllowHeaders []string

	// AllowCredentials permits credentialed requests. It is incompatible
	// with the wildcard origin, so enabling it switches the middleware to
	// echoing the matched origin instead of "*".
	AllowCredentials bool

	// MaxAge is how long, in seconds, browsers may cache preflight results.
	// Zero omits the header.
	MaxAge int
}

type cors struct {
	wildcard    bool
	origins     map[string]string // lowercased origin -> configured spelling
	methods     string
	headers     string
	credentials bool
	maxAge      string
}

// CORS returns a middleware implementing Cross-Origin Resource Sharing.
// Preflight requests (OPTIONS carrying Access-Control-Request-Method) are
// answered directly with 204 and never reach the wrapped handler. Vary
// headers are set so shared caches key on the origin.
func CORS(cfg CORSConfig) Middleware {
	c := &cors{
		wildcard:    len(cfg.AllowOrigins) == 0,
		origins:     make(map[string]string, len(cfg.AllowOrigins)),
		methods:     strings.Join(cfg.AllowMethods, ", "),
		headers:     strings.Join(cfg.AllowHeaders, ", "),
		credentials: cfg.AllowCredentials,
	}
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			c.wildcard = true
			continue
		}
		c.origins[strings.ToLower(o)] = o
	}
	// The wildcard origin must not be combined with credentials; echo the
	// matched origin instead.
	if c.credentials {
		c.wildcard = false
	}
	if c.methods == "" {
		c.methods = "GET, POST, PUT, DELETE, OPTIONS"
	}
	if cfg.MaxAge > 0 {
		c.maxAge = strconv.Itoa(cfg.MaxAge)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				if !c.wildcard {
					w.Header().Add("Vary", "Origin")
				}
				next.ServeHTTP(w, r)
				return
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				c.preflight(w, r, origin)
				return
			}

			c.actual(w, origin)
			next.ServeHTTP(w, r)
		})
	}
}

func (c *cors) preflight(w http.ResponseWriter, r *http.Request, origin string) {
	h := w.Header()
	h.Add("Vary", "Origin")
	h.Add("Vary", "Access-Control-Request-Method")
	h.Add("Vary", "Access-Control-Request-Headers")

	if allow := c.match(origin); allow != "" {
		h.Set("Access-Control-Allow-Origin", allow)
		h.Set("Access-Control-Allow-Methods", c.methods)

		switch {
		case c.headers != "":
			h.Set("Access-Control-Allow-Headers", c.headers)
		default:
			if req := r.Header.Get("Access-Control-Request-Headers"); req != "" {
				h.Set("Access-Control-Allow-Headers", req)
			}
		}
		if c.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if c.maxAge != "" {
			h.Set("Access-Control-Max-Age", c.maxAge)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *cors) actual(w http.ResponseWriter, origin string) {
	if !c.wildcard {
		w.Header().Add("Vary", "Origin")
	}
	allow := c.match(origin)
	if allow == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", allow)
	if c.credentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
}

// match returns the Access-Control-Allow-Origin value for origin, or "" when
// the origin is not allowed. Matching is case-insensitive; the configured
// spelling is echoed back.
func (c *cors) match(origin string) string {
	if c.wildcard {
		return "*"
	}
	return c.origins[strings.ToLower(origin)]
}
