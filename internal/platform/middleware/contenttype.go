package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// ContentTypeJSON rejects body-carrying requests whose media type is not
// application/json. Mount it only on JSON subrouters; multipart endpoints
// skip it.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" {
				mediaType, _, err := mime.ParseMediaType(ct)
				if err != nil || !strings.EqualFold(mediaType, "application/json") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnsupportedMediaType)
					_, _ = w.Write([]byte(`{"error":"INVALID_INPUT","error_description":"Content-Type must be application/json"}`))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
