package middleware

import "net/http"

// statusRecorder captures the response status for logging and metrics.
// WriteHeader is recorded once; implicit 200s from Write are covered by the
// initial value.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
