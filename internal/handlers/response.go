package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// maxBodyBytes bounds request bodies; avatars and gallery images may arrive
// as data URIs.
const maxBodyBytes = 8 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter, logger *slog.Logger, r *http.Request, allowed ...string) {
	logger.Warn("Method not allowed", "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, logger, http.StatusMethodNotAllowed,
		"Method not allowed. Supported methods: "+strings.Join(allowed, ", "))
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// splitPath trims prefix from the request path and returns the remaining
// non-empty segments.
func splitPath(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

func parseJourneyID(s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	return id, err == nil
}

func parseProductID(s string) (int, bool) {
	id, err := strconv.Atoi(s)
	return id, err == nil && id > 0
}

// statusError lets a journey mutation choose the response it fails with.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string { return e.msg }

func rejectWith(status int, msg string) error {
	return &statusError{status: status, msg: msg}
}
