package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/threeline/internal/common"
)

const (
	maxResponseBytes = 16 << 20
	maxMessageBytes  = 512
)

type httpDoer struct {
	client *http.Client
}

type request struct {
	method string
	url    string
	header map[string]string
	body   any
}

// do sends req and decodes a 2xx JSON reply into out. An empty or "null"
// body leaves out untouched.
func (h *httpDoer) do(ctx context.Context, op error, req request, out any) error {
	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(b)
	}

	r, err := http.NewRequestWithContext(ctx, req.method, req.url, body)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	r.Header.Set("Accept", common.ContentTypeJSON)
	if body != nil {
		r.Header.Set(common.ContentTypeHeader, common.ContentTypeJSON)
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}

	resp, err := h.client.Do(r)
	if err != nil {
		return &Error{Op: op, Err: err, transport: true}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: err, transport: true}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: excerpt(data)}
	}

	trimmed := bytes.TrimSpace(data)
	if out == nil || len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func excerpt(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxMessageBytes {
		s = s[:maxMessageBytes] + "..."
	}
	return s
}
