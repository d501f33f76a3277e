package web

// Shared request parsing helpers used across handlers.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/frequencia/internal/core"
)

// readBody reads the whole request body, bounded by the configured limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Sync.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return body, nil
}

// decodeJSON reads a bounded body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return badRequest(fmt.Errorf("invalid request body: %w", err))
	}
	return nil
}

// batchRecords extracts the record list of a sync request. The body is an
// object whose "records" member, or the entity's plural key, holds the list.
// A missing or null list yields an empty batch.
func batchRecords(body []byte, def core.EntityDefinition) ([]core.Payload, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, badRequest(fmt.Errorf("invalid request body: %w", err))
	}

	raw, ok := envelope["records"]
	if !ok {
		raw, ok = envelope[def.BatchKey]
	}
	if !ok || string(raw) == "null" {
		return nil, nil
	}

	var records []core.Payload
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, badRequest(errors.New("invalid request body: records must be a list"))
	}
	return records, nil
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(&core.ValidationError{
			Fields: []string{name},
			Detail: fmt.Sprintf("%q is not a valid id", raw),
		})
	}
	return id, nil
}

// queryID parses an optional positive integer query parameter. Absent
// means zero, which list filters treat as "any".
func queryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(&core.ValidationError{
			Fields: []string{name},
			Detail: fmt.Sprintf("%q is not a valid id", raw),
		})
	}
	return id, nil
}

// queryDate parses the optional date filter. Both "date" and the
// Portuguese "data" are accepted.
func queryDate(r *http.Request) (*core.Date, error) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("date"))
	if raw == "" {
		raw = strings.TrimSpace(q.Get("data"))
	}
	if raw == "" {
		return nil, nil
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		return nil, badRequest(err)
	}
	return &d, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, badRequest(&core.ValidationError{
			Fields: []string{name},
			Detail: fmt.Sprintf("%q is not a boolean", raw),
		})
	}
	return &v, nil
}

// clientIP returns the request's IP without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// orEmpty keeps empty lists encoded as [] rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
