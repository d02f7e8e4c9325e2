package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestService() *Service {
	return NewService("test-secret", time.Hour, "session", false, "his-pass", "her-pass")
}

func TestService_Unlock(t *testing.T) {
	s := newTestService()

	role, err := s.Unlock("his-pass")
	if err != nil || role != "he" {
		t.Errorf("Expected he, got %q (%v)", role, err)
	}
	role, err = s.Unlock("her-pass")
	if err != nil || role != "she" {
		t.Errorf("Expected she, got %q (%v)", role, err)
	}
	if _, err := s.Unlock("guess"); err != ErrInvalidPassword {
		t.Errorf("Expected ErrInvalidPassword, got %v", err)
	}
}

func TestService_IssueAndVerify(t *testing.T) {
	s := newTestService()

	token, err := s.Issue("she")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Role != "she" || !claims.Unlocked {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestService_VerifyRejectsForeignToken(t *testing.T) {
	s := newTestService()
	other := NewService("other-secret", time.Hour, "session", false, "a", "b")

	token, _ := other.Issue("he")
	if _, err := s.Verify(token); err != ErrInvalidToken {
		t.Errorf("Token signed with another secret must fail, got %v", err)
	}
	if _, err := s.Verify("not-a-token"); err != ErrInvalidToken {
		t.Errorf("Garbage must fail, got %v", err)
	}
}

func TestService_VerifyRejectsExpiredToken(t *testing.T) {
	s := NewService("test-secret", -time.Minute, "session", false, "a", "b")

	token, err := s.Issue("he")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := s.Verify(token); err != ErrInvalidToken {
		t.Errorf("Expired token must fail, got %v", err)
	}
}

func TestService_RoleFromRequest(t *testing.T) {
	s := newTestService()
	token, _ := s.Issue("he")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(s.Cookie(token))
	if role := s.RoleFromRequest(r); role != "he" {
		t.Errorf("Expected he, got %q", role)
	}

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	if role := s.RoleFromRequest(bare); role != "" {
		t.Errorf("Missing cookie should yield empty role, got %q", role)
	}
}

func TestService_ClearCookie(t *testing.T) {
	s := newTestService()
	c := s.ClearCookie()
	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("Clear cookie should expire immediately: %+v", c)
	}
}
