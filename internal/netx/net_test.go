package netx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusCreated, map[string]int{"applied": 2}); err != nil {
		t.Fatalf("WriteJSON error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	if got := rec.Body.String(); got != "{\"applied\":2}\n" {
		t.Fatalf("body = %q", got)
	}
}

func TestReadJSON(t *testing.T) {
	var v struct {
		Email string `json:"email"`
	}

	t.Run("valid", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","extra":1}`))
		if err := ReadJSON(httptest.NewRecorder(), r, 1024, &v); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Email != "a@b.c" {
			t.Fatalf("email = %q", v.Email)
		}
	})

	for name, body := range map[string]string{
		"malformed": `{"email":`,
		"trailing":  `{"email":"a"} {"email":"b"}`,
		"too large": `{"email":"` + strings.Repeat("x", 2048) + `"}`,
		"empty":     ``,
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			err := ReadJSON(httptest.NewRecorder(), r, 1024, &v)
			if !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer  abc ", "abc", false},
		{"", "", true},
		{"Basic abc", "", true},
		{"Bearer ", "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, err := BearerToken(r)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("%q: got %q, %v", tt.header, got, err)
		}
	}
}
