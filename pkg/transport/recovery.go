package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/blueprint/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to a 500 envelope when nothing has been written yet. The
// server continues to accept new requests after a panic is recovered.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				logger.Error("panic recovered",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("panic", fmt.Sprint(p)),
				)
				if !rec.wroteHeader {
					WriteAPIError(w, api.NewServerError(fmt.Sprintf("internal server error: %v", p)))
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
