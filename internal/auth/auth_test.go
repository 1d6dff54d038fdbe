package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/balkashynov/listeningroom/internal/apperr"
)

func TestIssueAndAuthenticate(t *testing.T) {
	j := NewJWT("test-secret", "listeningroom")
	token, err := j.Issue("vol-1", RoleVolunteer, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	r := httptest.NewRequest("GET", "/sessions", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	p, err := j.Authenticate(r)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.UserID != "vol-1" || p.Role != RoleVolunteer {
		t.Errorf("unexpected principal: %+v", p)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	j := NewJWT("test-secret", "listeningroom")
	other := NewJWT("other-secret", "listeningroom")
	foreign, _ := other.Issue("vol-1", RoleVolunteer, time.Hour)

	expiredIssuer := NewJWT("test-secret", "listeningroom")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.Issue("vol-1", RoleVolunteer, time.Hour)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"basic", "Basic dm9sOnB3"},
		{"empty bearer", "Bearer "},
		{"garbage", "Bearer not-a-token"},
		{"wrong secret", "Bearer " + foreign},
		{"expired", "Bearer " + expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			_, err := j.Authenticate(r)
			if !errors.Is(err, apperr.ErrUnauthenticated) {
				t.Errorf("expected ErrUnauthenticated, got %v", err)
			}
		})
	}
}

func TestPrincipalContext(t *testing.T) {
	ctx := WithPrincipal(httptest.NewRequest("GET", "/", nil).Context(), Principal{UserID: "s-1"})
	p, ok := FromContext(ctx)
	if !ok || p.UserID != "s-1" {
		t.Errorf("expected principal s-1, got %+v (ok=%v)", p, ok)
	}
}

func TestSubject(t *testing.T) {
	tok, err := NewJWT("one-secret", "").Issue("vol-9", RoleVolunteer, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	// Readable with any secret; this is a display helper
	if sub, err := Subject(tok); err != nil || sub != "vol-9" {
		t.Errorf("expected vol-9, got %q (%v)", sub, err)
	}
	if _, err := Subject("not-a-token"); err == nil {
		t.Error("expected an error for garbage input")
	}
}
