package middleware

import (
	"net/http"
	"strconv"

	"github.com/benvon/port-plaisance/internal/metrics"
	"github.com/benvon/port-plaisance/internal/policy"
	"github.com/rs/cors"
)

// actualRequestMethods lets rs/cors decorate any standard method; which
// methods a browser may send cross-origin is governed by the preflight answer.
var actualRequestMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete,
}

var preflightVary = []string{"Origin", "Access-Control-Request-Method", "Access-Control-Request-Headers"}

// CORS enforces p on every request.
//
// OPTIONS requests are always answered here with 204 and never reach later
// stages; matching origins get the allow headers, others get none. Other
// requests continue down the chain, with rs/cors echoing the origin (never
// "*") and the credentials flag when the origin matches. A mismatch is not an
// error: the headers are simply omitted and the browser blocks the response.
func CORS(p *policy.CorsPolicy, m *metrics.PipelineMetrics) func(http.Handler) http.Handler {
	engine := cors.New(cors.Options{
		AllowOriginFunc:  p.Allows,
		AllowCredentials: p.AllowCredentials(),
		AllowedMethods:   actualRequestMethods,
	})

	return func(next http.Handler) http.Handler {
		actual := engine.Handler(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && p.Allows(origin)
			m.CORSDecision(decision(origin, allowed))

			if r.Method == http.MethodOptions {
				h := w.Header()
				for _, v := range preflightVary {
					h.Add("Vary", v)
				}
				if allowed {
					h.Set("Access-Control-Allow-Origin", origin)
					if p.AllowCredentials() {
						h.Set("Access-Control-Allow-Credentials", "true")
					}
					h.Set("Access-Control-Allow-Methods", p.AllowMethodsValue())
					h.Set("Access-Control-Allow-Headers", p.AllowHeadersValue())
					if p.MaxAge() > 0 {
						h.Set("Access-Control-Max-Age", strconv.Itoa(p.MaxAge()))
					}
				}
				m.Preflight(allowed)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", p.AllowMethodsValue())
				w.Header().Set("Access-Control-Allow-Headers", p.AllowHeadersValue())
			}
			actual.ServeHTTP(w, r)
		})
	}
}

func decision(origin string, allowed bool) string {
	switch {
	case origin == "":
		return metrics.DecisionNoOrigin
	case allowed:
		return metrics.DecisionAllowed
	default:
		return metrics.DecisionRejected
	}
}
