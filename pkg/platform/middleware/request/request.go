package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"landledger/pkg/requestcontext"
)

// HeaderRequestID carries the correlation id in and out of the service.
const HeaderRequestID = "X-Request-ID"

// maxInboundIDLength bounds caller-supplied request ids.
const maxInboundIDLength = 128

// RequestID reuses a caller-supplied id when present and sane, otherwise
// generates one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" || len(reqID) > maxInboundIDLength {
			reqID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, reqID)
		ctx := requestcontext.WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request id set by RequestID.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
