package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/goccy/go-json"
)

type tokenResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func decodeToken(t *testing.T, body []byte) tokenResponse {
	t.Helper()
	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode token response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("empty token in %s", body)
	}
	return resp
}

func signupBody(username, email, password, birth string) map[string]string {
	return map[string]string{
		"username":   username,
		"email":      email,
		"password":   password,
		"first_name": "Test",
		"birth_date": birth,
	}
}

func TestSignup(t *testing.T) {
	h := newHarness(t)
	h.user("taken")
	underage := time.Now().AddDate(-10, 0, 0).Format("2006-01-02")

	tests := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"valid", signupBody("newbie", "Newbie@Example.com", "password123", "1990-05-01"), http.StatusCreated},
		{"underage", signupBody("kiddo", "kid@example.com", "password123", underage), http.StatusBadRequest},
		{"bad birth date", signupBody("dates", "dates@example.com", "password123", "01/05/1990"), http.StatusBadRequest},
		{"short password", signupBody("shorty", "short@example.com", "short", "1990-05-01"), http.StatusBadRequest},
		{"invalid username", signupBody("no spaces", "spaces@example.com", "password123", "1990-05-01"), http.StatusBadRequest},
		{"username taken", signupBody("taken", "other@example.com", "password123", "1990-05-01"), http.StatusConflict},
		{"email taken", signupBody("fresh", "taken@example.com", "password123", "1990-05-01"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/auth/signup", tt.body, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusCreated {
				resp := decodeToken(t, rec.Body.Bytes())
				if resp.User.Email != "newbie@example.com" {
					t.Errorf("email = %q, want lowercased", resp.User.Email)
				}
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/v1/auth/signup", signupBody("carol", "carol@example.com", "password123", "1985-01-01"), "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		name     string
		login    string
		password string
		status   int
	}{
		{"username", "carol", "password123", http.StatusOK},
		{"email", "CAROL@example.com", "password123", http.StatusOK},
		{"wrong password", "carol", "password124", http.StatusUnauthorized},
		{"unknown user", "dave", "password123", http.StatusUnauthorized},
		{"missing password", "carol", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/auth/signin", map[string]string{"login": tt.login, "password": tt.password}, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			resp := decodeToken(t, rec.Body.Bytes())
			me := h.do(http.MethodGet, "/api/v1/me", nil, resp.Token)
			if me.Code != http.StatusOK {
				t.Errorf("token rejected by /me: %d", me.Code)
			}
		})
	}
}

type fakeVerifier struct {
	token *auth.Token
	err   error
}

func (f fakeVerifier) VerifyIDToken(context.Context, string) (*auth.Token, error) {
	return f.token, f.err
}

func TestFirebaseLogin(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t)
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}, "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		h := newHarnessWithVerifier(t, fakeVerifier{err: errors.New("expired")})
		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("creates then reuses account", func(t *testing.T) {
		verifier := fakeVerifier{token: &auth.Token{UID: "fb-1", Claims: map[string]interface{}{
			"email": "Jane.Doe@Example.com",
			"name":  "Jane Doe",
		}}}
		h := newHarnessWithVerifier(t, verifier)
		// same username, different email: forces a numbered username
		if err := h.store.Users().CreateUser(h.ctx, &models.User{Username: "jane.doe", Email: "other@example.com"}); err != nil {
			t.Fatal(err)
		}

		first := h.do(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}, "")
		if first.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", first.Code, first.Body.String())
		}
		created := decodeToken(t, first.Body.Bytes()).User
		if created.Username != "jane.doe1" || created.Email != "jane.doe@example.com" {
			t.Errorf("created user = %s <%s>", created.Username, created.Email)
		}
		if created.FirstName != "Jane" || created.LastName != "Doe" {
			t.Errorf("name = %q %q", created.FirstName, created.LastName)
		}

		second := h.do(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}, "")
		if got := decodeToken(t, second.Body.Bytes()).User; got.ID != created.ID {
			t.Errorf("second login user = %d, want %d", got.ID, created.ID)
		}
	})

	t.Run("links existing email", func(t *testing.T) {
		verifier := fakeVerifier{token: &auth.Token{UID: "fb-2", Claims: map[string]interface{}{"email": "local@example.com"}}}
		h := newHarnessWithVerifier(t, verifier)
		local, _ := h.user("local")

		rec := h.do(http.MethodPost, "/api/v1/auth/firebase-login", map[string]string{"idToken": "x"}, "")
		linked := decodeToken(t, rec.Body.Bytes()).User
		if linked.ID != local.ID || linked.FirebaseUID == nil || *linked.FirebaseUID != "fb-2" {
			t.Errorf("linked = %+v", linked)
		}
	})
}

func TestUsernameFromEmail(t *testing.T) {
	tests := []struct {
		email string
		want  string
	}{
		{"jane.doe@example.com", "jane.doe"},
		{"a+b@example.com", "userab"},
		{"x@example.com", "userx"},
		{"this-is-a-very-long-local-part-indeed@example.com", "this-is-a-very-long-loca"},
	}
	for _, tt := range tests {
		if got := usernameFromEmail(tt.email); got != tt.want {
			t.Errorf("usernameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}
