package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

var ErrMissingParam = errors.New("missing parameter")

type envelope map[string]any

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

func (c controller) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		c.logger.Info("failed to write json", "error", err)
	}
}

func (c controller) writeError(w http.ResponseWriter, status int, message string) {
	c.writeJSON(w, status, envelope{"error": message})
}

func (c controller) readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}

	return nil
}

// readValidJSON decodes and validates the body, writing the error response
// itself. It reports whether the handler should continue.
func (c controller) readValidJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := c.readJSON(r, dst); err != nil {
		c.logger.InfoContext(r.Context(), "failed to read json", "error", err)
		c.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		c.logger.InfoContext(r.Context(), "validation failed", "errors", validationErrors)
		c.writeJSON(w, http.StatusBadRequest, envelope{"errors": validationErrors})
		return false
	}

	return true
}

func (c controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}

	return value, nil
}

func (c controller) getIntQueryParam(r *http.Request, key string, def int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}

	return n, nil
}

// remoteIP prefers the first X-Forwarded-For hop over the socket address.
func (c controller) remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}
