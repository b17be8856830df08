package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxRequestBody bounds the size of a decoded JSON request body.
const maxRequestBody = 1 << 20

// errorResponse is the JSON body of every error answered by the v1 API.
type errorResponse struct {
	Error string `json:"error"`
}

// decodeRequest decodes the JSON body of r into into.
func decodeRequest(r *http.Request, into any) error {
	if r.Body == nil {
		return fmt.Errorf("empty request body")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(into); err != nil {
		if err == io.EOF {
			return fmt.Errorf("empty request body")
		}
		return err
	}
	return nil
}

// respondJSON writes v as JSON with the given status code.
func respondJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError writes {"error": msg} with the given status code.
func respondError(w http.ResponseWriter, status int, msg string) {
	_ = respondJSON(w, status, errorResponse{Error: msg})
}
