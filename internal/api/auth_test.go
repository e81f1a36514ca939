package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/vigil-sec/vigil/internal/testutil"
)

func TestRegisterEstablishesSession(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)

	user, err := c.Register(context.Background(), "new@example.com", "hunter2", "New User")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "new@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if !sess.IsAuthenticated() {
		t.Error("IsAuthenticated = false after Register")
	}

	// The new account can use protected endpoints straight away.
	if _, err := c.Me(context.Background()); err != nil {
		t.Errorf("Me after Register: %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, _ := newTestStack(t, srv)
	srv.SeedUser("taken@example.com", "pw")

	_, err := c.Register(context.Background(), "taken@example.com", "pw2", "")
	if err == nil {
		t.Fatal("Register with duplicate email should fail")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Errorf("error = %v, want 409 APIError", err)
	}
}

func TestMeRefreshesCachedProfile(t *testing.T) {
	srv := testutil.NewAPIServer()
	defer srv.Close()

	c, sess := newTestStack(t, srv)
	loginTestUser(t, srv, c)

	sess.SetUser(nil) // drop the cache
	if _, err := c.Me(context.Background()); err != nil {
		t.Fatalf("Me: %v", err)
	}
	if u := sess.User(); u == nil || u.Email != "dev@example.com" {
		t.Errorf("cached user = %+v after Me", u)
	}
}
