package rest

import (
	"log"
	"net/http"
	"time"

	"github.com/eigital/eos-bridge/internal/directory"
	"github.com/eigital/eos-bridge/internal/platform/requestctx"
	"github.com/google/uuid"
)

// requestIDHeader carries the request identifier in both directions.
const requestIDHeader = "X-Request-ID"

// withMiddleware wraps the route table with the standard middleware chain.
// Recovery sits outermost so panics in the other layers are also caught.
func withMiddleware(next http.Handler, env Environment) http.Handler {
	return recoverPanic(requestID(logRequests(next)), env)
}

// requestID tags each request with an identifier, honouring one supplied by
// the caller.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	})
}

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests writes one line per request with method, path, status and
// duration.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		log.Printf("%s %s %d %s request_id=%s",
			r.Method, r.URL.Path, recorder.status, time.Since(start),
			requestctx.RequestIDFromContext(r.Context()))
	})
}

// recoverPanic converts handler panics into failure envelopes. Production
// responses elide the panic detail; development responses include it.
func recoverPanic(next http.Handler, env Environment) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			log.Printf("rest: panic serving %s %s: %v", r.Method, r.URL.Path, recovered)
			message := "Internal server error"
			if env == EnvDevelopment {
				message = panicMessage(recovered)
			}
			writeJSON(w, http.StatusInternalServerError, directory.Result{
				Success: false,
				Message: message,
				Error:   http.StatusInternalServerError,
			})
		}()
		next.ServeHTTP(w, r)
	})
}

// panicMessage renders a recovered panic value for development responses.
func panicMessage(recovered any) string {
	switch v := recovered.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "Internal server error"
	}
}
