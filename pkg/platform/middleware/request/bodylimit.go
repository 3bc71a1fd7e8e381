package request

import (
	"net/http"
)

// BodyLimit caps request bodies at maxBytes. Requests that declare a larger
// Content-Length are rejected up front; undeclared bodies are wrapped with
// http.MaxBytesReader so that multipart parsing fails once the cap is hit.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = w.Write([]byte(`{"error":"payload_too_large","error_description":"request body exceeds limit"}`))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
