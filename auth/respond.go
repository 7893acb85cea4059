package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/akshayUniverse/cook-ease-sub001/apperror"
)

// maxJSONBodyBytes caps every JSON request body.
const maxJSONBodyBytes = 1 << 20

// WriteJSON serializes `data` to JSON and writes it with the given `status`.
// A nil `data` writes only the status line, which is how 204 responses are sent.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	if data == nil {
		w.WriteHeader(status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent, so all that is left is to record it.
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// WriteError converts any error into the standard `{"error": "..."}` body.
// Errors that are not an *apperror.AppError become a generic 500 so
// internal details never reach the client. Server-side failures are logged.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("an unexpected error occurred", err)
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		log.Printf("Error processing request %s %s: %v", r.Method, r.URL.Path, appErr)
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}

// DecodeJSON reads a JSON body into dst and then runs struct validation.
// Unknown fields, trailing data and oversized bodies are all rejected with 400.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.NewBadRequestError("request body is required", nil)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.NewBadRequestError("request body is too large", nil)
		}
		return apperror.NewBadRequestError("invalid request body: "+err.Error(), nil)
	}
	if decoder.More() {
		return apperror.NewBadRequestError("request body must contain a single JSON object", nil)
	}
	return apperror.Validate(dst)
}

// URLParamInt reads a positive integer chi route parameter such as {id}.
func URLParamInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperror.NewBadRequestError(fmt.Sprintf("invalid %s: %q", name, raw), nil)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter.
// A missing value yields def; a malformed one is a 400.
func QueryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewBadRequestError(fmt.Sprintf("invalid %s: must be an integer", name), nil)
	}
	return v, nil
}
