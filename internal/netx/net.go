// Package netx holds small HTTP helpers for JSON handlers.
package netx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/threeline/internal/common"
)

// ErrBadRequest marks malformed request bodies and headers.
var ErrBadRequest = errors.New("bad request")

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set(common.ContentTypeHeader, common.ContentTypeJSON)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes a JSON body of at most limit bytes into v.
func ReadJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, limit)
		}
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", ErrBadRequest)
	}
	return nil
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) < len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", fmt.Errorf("%w: missing bearer token", ErrBadRequest)
	}
	tok := strings.TrimSpace(h[len(common.BearerPrefix):])
	if tok == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrBadRequest)
	}
	return tok, nil
}
