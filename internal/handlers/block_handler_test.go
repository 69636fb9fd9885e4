package handlers

import (
	"fmt"
	"net/http"
	"testing"
)

func TestBlocks(t *testing.T) {
	h := newHarness(t)
	alice, token := h.user("alice")
	bob, _ := h.user("bob")
	blockPath := func(id uint) string { return fmt.Sprintf("/api/v1/users/%d/block", id) }

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"block", http.MethodPost, blockPath(bob.ID), token, http.StatusOK},
		{"block again", http.MethodPost, blockPath(bob.ID), token, http.StatusOK},
		{"self", http.MethodPost, blockPath(alice.ID), token, http.StatusBadRequest},
		{"unknown user", http.MethodPost, blockPath(9999), token, http.StatusNotFound},
		{"bad id", http.MethodPost, "/api/v1/users/abc/block", token, http.StatusBadRequest},
		{"anonymous", http.MethodPost, blockPath(bob.ID), "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := h.do(tt.method, tt.path, nil, tt.token); rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	var list struct {
		Users []struct {
			ID       uint   `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/blocks", nil, token), http.StatusOK, &list)
	if len(list.Users) != 1 || list.Users[0].Username != "bob" {
		t.Fatalf("blocked = %+v, want only bob", list.Users)
	}

	for i := 0; i < 2; i++ {
		var res struct {
			Blocked bool `json:"blocked"`
		}
		h.expect(h.do(http.MethodDelete, blockPath(bob.ID), nil, token), http.StatusOK, &res)
		if res.Blocked {
			t.Errorf("unblock %d reported blocked", i)
		}
	}
	h.expect(h.do(http.MethodGet, "/api/v1/blocks", nil, token), http.StatusOK, &list)
	if len(list.Users) != 0 {
		t.Errorf("blocked after unblock = %+v", list.Users)
	}
}
