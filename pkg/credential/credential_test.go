package credential

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestCredential_Apply(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	New("abc").Apply(req)
	if got := req.Header.Get("Authorization"); got != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", got, "Bearer abc")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	Credential{}.Apply(req)
	if got := req.Header.Get("Authorization"); got != "" {
		t.Errorf("zero credential set Authorization = %q", got)
	}
}

func TestCredential_StringRedacts(t *testing.T) {
	s := New("super-secret").String()
	if strings.Contains(s, "super-secret") {
		t.Errorf("String() leaks the token: %q", s)
	}
}

func TestCredential_Valid(t *testing.T) {
	if (Credential{}).Valid() {
		t.Error("zero credential should not be valid")
	}
	if !New("x").Valid() {
		t.Error("token without expiry should be valid")
	}
	expired := FromToken(&oauth2.Token{AccessToken: "x", Expiry: time.Now().Add(-time.Hour)})
	if expired.Valid() {
		t.Error("expired token should not be valid")
	}
}

func TestStatic(t *testing.T) {
	cred, err := Static("tok").Acquire(context.Background())
	if err != nil || cred.Token().AccessToken != "tok" {
		t.Errorf("Static.Acquire() = %v, %v", cred, err)
	}

	_, err = Static("").Acquire(context.Background())
	if !errors.Is(err, ErrMissingConfig) {
		t.Errorf("empty Static error = %v, want ErrMissingConfig", err)
	}
}

func TestTMSProvider_Acquire(t *testing.T) {
	var got tmsTokenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/oauth/token" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("client_id") != "publicapi" {
			t.Errorf("client_id = %q", r.URL.Query().Get("client_id"))
		}
		if r.Header.Get("x-api-key") != "key-1" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tms-token","token_type":"bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	p := &TMSProvider{
		BaseURL:      srv.URL + "/v1",
		APIKey:       "key-1",
		ClientID:     "publicapi",
		ClientSecret: "secret",
		Username:     "ops@example.com",
		Password:     "pw",
	}

	cred, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if cred.Token().AccessToken != "tms-token" {
		t.Errorf("AccessToken = %q", cred.Token().AccessToken)
	}
	if cred.Token().Expiry.IsZero() {
		t.Error("Expiry should be derived from expires_in")
	}
	if got.GrantType != "password" || got.Type != "business" || got.Scope != "read+trust+write" || got.Username != "ops@example.com" {
		t.Errorf("token request = %+v", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	cred.Apply(req)
	if req.Header.Get("Authorization") != "Bearer tms-token" {
		t.Errorf("Authorization = %q", req.Header.Get("Authorization"))
	}
}

func TestTMSProvider_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"invalid_grant"}`, wantStatus: 401},
		{name: "malformed body", status: http.StatusOK, body: `<html>`, wantStatus: 200},
		{name: "empty token", status: http.StatusOK, body: `{"token_type":"bearer"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := &TMSProvider{BaseURL: srv.URL, APIKey: "k", Username: "u", Password: "p"}
			_, err := p.Acquire(context.Background())

			var ae *AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("Acquire() error = %v, want *AuthError", err)
			}
			if ae.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", ae.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestTMSProvider_MissingConfig(t *testing.T) {
	p := &TMSProvider{BaseURL: "http://unused"}
	_, err := p.Acquire(context.Background())
	if !errors.Is(err, ErrMissingConfig) {
		t.Fatalf("Acquire() error = %v, want ErrMissingConfig", err)
	}
	for _, name := range []string{"TMS_API_KEY", "TMS_USERNAME", "TMS_PASSWORD"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q should name %s", err, name)
		}
	}
}

func TestLaneProvider_Acquire(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)

		switch r.URL.Path {
		case "/access/v1/token/organization":
			if body["username"] != "svc@example.com" || body["password"] != "svc-pw" {
				t.Errorf("organization body = %v", body)
			}
			w.Write([]byte(`{"accessToken":"org-token"}`))
		case "/access/v1/token/user":
			if r.Header.Get("Authorization") != "Bearer org-token" {
				t.Errorf("user token Authorization = %q", r.Header.Get("Authorization"))
			}
			if body["username"] != "rates@example.com" {
				t.Errorf("user body = %v", body)
			}
			w.Write([]byte(`{"accessToken":"user-token","expiresWhen":"2030-01-01T00:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := &LaneProvider{
		IdentityURL:     srv.URL + "/access/v1",
		ServiceEmail:    "svc@example.com",
		ServicePassword: "svc-pw",
		Username:        "rates@example.com",
	}

	cred, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if cred.Token().AccessToken != "user-token" {
		t.Errorf("AccessToken = %q, want user-token", cred.Token().AccessToken)
	}
	if cred.Token().Expiry.Year() != 2030 {
		t.Errorf("Expiry = %v", cred.Token().Expiry)
	}
	if len(calls) != 2 {
		t.Errorf("calls = %v, want organization then user", calls)
	}
}

func TestLaneProvider_OrganizationFailureStopsEarly(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := &LaneProvider{IdentityURL: srv.URL, ServiceEmail: "a", ServicePassword: "b", Username: "c"}
	_, err := p.Acquire(context.Background())

	var ae *AuthError
	if !errors.As(err, &ae) || ae.StatusCode != http.StatusForbidden {
		t.Fatalf("Acquire() error = %v, want 403 AuthError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
