package request

import "net/http"

// ClientWriter wraps a http.ResponseWriter and records the status code
// written to it, for logging and metrics after the handler returns.
type ClientWriter struct {
	http.ResponseWriter

	// statusCode is the status code written to the response.
	statusCode int
}

// NewClientWriter creates a new ClientWriter.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader implements the http.ResponseWriter interface.
func (w *ClientWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// StatusCode returns the status code written to the response, defaulting to
// 200 when the handler never called WriteHeader.
func (w *ClientWriter) StatusCode() int {
	return w.statusCode
}
