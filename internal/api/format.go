package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter writes responses as JSON, or MessagePack when the request asks
// for format=msgpack.
type Formatter struct{}

// WriteResponse encodes data with the given status code.
func (f Formatter) WriteResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	var err error
	if r.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", "application/x-msgpack")
		w.WriteHeader(status)
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		err = enc.Encode(data)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		err = json.NewEncoder(w).Encode(data)
	}
	if err != nil {
		// Headers are gone already; nothing left to tell the client.
		slog.Error("Failed to write response", "path", r.URL.Path, "error", err)
	}
}

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// WriteError writes an error body with the given status code.
func (f Formatter) WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	f.WriteResponse(w, r, status, errorResponse{Error: msg})
}
