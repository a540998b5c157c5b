package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

// ReadyCheck reports whether one subsystem can take traffic. A nil return
// means ready.
type ReadyCheck func(ctx context.Context) error

// HealthHandler serves liveness probes. The process is up if the handler
// runs at all, so the answer is always 200 {"status":"ok"}.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		respond(rw, http.StatusOK, "ok")
	})
}

// ReadyHandler serves readiness probes. The first failing check turns the
// response into 503 {"status":"unavailable"}; with no checks the endpoint
// is always ready.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		for _, check := range checks {
			if err := check(req.Context()); err != nil {
				respond(rw, http.StatusServiceUnavailable, "unavailable")

				return
			}
		}

		respond(rw, http.StatusOK, "ok")
	})
}

func respond(rw http.ResponseWriter, code int, status string) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	_ = json.NewEncoder(rw).Encode(map[string]string{"status": status})
}
