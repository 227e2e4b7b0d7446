package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trussworks/userauth/pkg/cookie"
	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/memstore"
	"github.com/trussworks/userauth/pkg/mock"
	"github.com/trussworks/userauth/pkg/session"
	"github.com/trussworks/userauth/pkg/userstore"
)

var excluded = []string{"/api/v1/status/", "/api/v1/auth_session/login/"}

type testEnv struct {
	auth     *SessionAuth
	accounts Accounts
	users    *userstore.MemoryStore
	log      *mock.LogRecorder
	clock    *mock.Clock
}

func newTestEnv(t *testing.T, duration time.Duration) testEnv {
	t.Helper()

	log := mock.NewLogRecorder(nil)
	clock := mock.NewClock(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	sessions := session.NewSessionService(memstore.NewMemStore(), log, session.WithExpiration(session.ExpireAfter(duration)), session.WithClock(clock))
	users := userstore.NewMemoryStore()
	verifier := mock.PlainVerifier{}

	return testEnv{
		auth:     NewSessionAuth(sessions, users, verifier, cookie.NewService("", false, nil), log),
		accounts: NewAccounts(users, verifier, log),
		users:    users,
		log:      log,
		clock:    clock,
	}
}

func (e testEnv) requestWithSession(t *testing.T, path string, sessionKey string) *http.Request {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	if err := e.auth.Cookies().AddSessionKeyToRequest(req, sessionKey); err != nil {
		t.Fatal(err)
	}
	return req
}

func TestSessionEndToEnd(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	registered, err := env.accounts.RegisterUser(ctx, "a@b.com", "pw1", nil)
	if err != nil {
		t.Fatal(err)
	}

	sessionKey, user, err := env.auth.Login(ctx, "a@b.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != registered.ID {
		t.Fatal("logged in as the wrong user", user)
	}

	req := env.requestWithSession(t, "/api/v1/users/me", sessionKey)
	outcome, err := env.auth.Authenticate(req.URL.Path, excluded, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != Authenticated || outcome.User == nil || outcome.User.Email != "a@b.com" {
		t.Fatal("should have been authenticated as a@b.com", outcome)
	}

	destroyed, err := env.auth.Logout(req)
	if err != nil || !destroyed {
		t.Fatal("logout should have destroyed the session", err)
	}

	outcome, err = env.auth.Authenticate(req.URL.Path, excluded, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != Unauthenticated {
		t.Fatal("a stale cookie should be unauthenticated", outcome.Kind)
	}

	destroyed, err = env.auth.Logout(req)
	if err != nil || destroyed {
		t.Fatal("a second logout should destroy nothing", err)
	}

	bare := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	outcome, err = env.auth.Authenticate(bare.URL.Path, excluded, bare)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != MissingCredentials {
		t.Fatal("a request without credentials should be missing-credentials", outcome.Kind)
	}
}

func TestAuthenticateExcludedPath(t *testing.T) {
	env := newTestEnv(t, 0)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	outcome, err := env.auth.Authenticate(req.URL.Path, excluded, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != NoAuthNeeded || outcome.User != nil {
		t.Fatal("the status path should not need auth", outcome)
	}
}

func TestAuthorizationHeaderCountsAsCredentials(t *testing.T) {
	env := newTestEnv(t, 0)

	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

	outcome, err := env.auth.Authenticate(req.URL.Path, excluded, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != Unauthenticated {
		t.Fatal("a header without a session should be unauthenticated", outcome.Kind)
	}

	if len(env.log.MatchingMessages(domain.RequestIsUnauthenticated)) != 1 {
		t.Fatal("should have logged the rejection")
	}
}

func TestLoginErrorsAreDistinct(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	if _, err := env.accounts.RegisterUser(ctx, "a@b.com", "pw1", nil); err != nil {
		t.Fatal(err)
	}

	_, _, wrongPassword := env.auth.Login(ctx, "a@b.com", "wrongpw")
	if wrongPassword != domain.ErrBadCredentials {
		t.Fatal("expected bad credentials", wrongPassword)
	}

	_, _, noUser := env.auth.Login(ctx, "nouser@x.com", "pw1")
	if noUser != domain.ErrUserNotFound {
		t.Fatal("expected not found", noUser)
	}

	_, _, noEmail := env.auth.Login(ctx, "", "pw1")
	var validation domain.ValidationError
	if !errors.As(noEmail, &validation) || validation.Error() != "email missing" {
		t.Fatal("expected a missing email", noEmail)
	}

	_, _, noPassword := env.auth.Login(ctx, "a@b.com", "")
	if !errors.As(noPassword, &validation) || validation.Error() != "password missing" {
		t.Fatal("expected a missing password", noPassword)
	}

	if len(env.log.MatchingMessages(domain.SessionCreated)) != 0 {
		t.Fatal("no failed login should create a session")
	}
}

func TestExpiredSessionIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t, time.Minute)
	ctx := context.Background()

	if _, err := env.accounts.RegisterUser(ctx, "a@b.com", "pw1", nil); err != nil {
		t.Fatal(err)
	}
	sessionKey, _, err := env.auth.Login(ctx, "a@b.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}

	req := env.requestWithSession(t, "/api/v1/users/me", sessionKey)
	if user, err := env.auth.CurrentUser(req); err != nil || user == nil {
		t.Fatal("the session should be live", err)
	}

	env.clock.Advance(time.Minute)

	outcome, err := env.auth.Authenticate(req.URL.Path, excluded, req)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Kind != Unauthenticated {
		t.Fatal("an expired session should be unauthenticated", outcome.Kind)
	}
}

func TestDeletedUserIsUnauthenticated(t *testing.T) {
	env := newTestEnv(t, 0)
	ctx := context.Background()

	registered, err := env.accounts.RegisterUser(ctx, "a@b.com", "pw1", nil)
	if err != nil {
		t.Fatal(err)
	}
	sessionKey, _, err := env.auth.Login(ctx, "a@b.com", "pw1")
	if err != nil {
		t.Fatal(err)
	}

	if err := env.users.Delete(ctx, registered.ID); err != nil {
		t.Fatal(err)
	}

	req := env.requestWithSession(t, "/api/v1/users/me", sessionKey)
	user, err := env.auth.CurrentUser(req)
	if err != nil || user != nil {
		t.Fatal("a deleted user should not resolve", user, err)
	}

	if _, err := env.log.GetOnlyMatchingMessage(domain.SessionUserMissing); err != nil {
		t.Fatal(err)
	}
}

func TestRepositoryFailureIsUnavailable(t *testing.T) {
	log := mock.NewLogRecorder(nil)
	sessions := session.NewSessionService(memstore.NewMemStore(), log)
	cookies := cookie.NewService("", false, nil)
	auth := NewSessionAuth(sessions, mock.FailingUserRepository{}, mock.PlainVerifier{}, cookies, log)
	ctx := context.Background()

	if _, _, err := auth.Login(ctx, "a@b.com", "pw1"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a repository failure on login should be unavailable", err)
	}

	sessionKey, err := sessions.CreateSession(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	cookies.AddSessionKeyToRequest(req, sessionKey)

	outcome, err := auth.Authenticate(req.URL.Path, excluded, req)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a repository failure should never look unauthenticated", outcome, err)
	}
}

func TestSessionStoreFailureIsUnavailable(t *testing.T) {
	log := mock.NewLogRecorder(nil)
	sessions := session.NewSessionService(mock.FailingSessionStore{}, log)
	cookies := cookie.NewService("", false, nil)
	auth := NewSessionAuth(sessions, userstore.NewMemoryStore(), mock.PlainVerifier{}, cookies, log)

	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)
	cookies.AddSessionKeyToRequest(req, "some-key")

	if _, err := auth.Authenticate(req.URL.Path, excluded, req); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a storage failure should be unavailable", err)
	}

	if _, err := auth.Logout(req); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a storage failure on logout should be unavailable", err)
	}
}

func TestBasicAuth(t *testing.T) {
	users := userstore.NewMemoryStore()
	log := mock.NewLogRecorder(nil)
	accounts := NewAccounts(users, mock.PlainVerifier{}, log)
	basic := NewBasicAuth(users, mock.PlainVerifier{}, log)
	ctx := context.Background()

	if _, err := accounts.RegisterUser(ctx, "a@b.com", "pw1", nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		kind   OutcomeKind
	}{
		{"no header", "", MissingCredentials},
		{"right password", "Basic " + base64.StdEncoding.EncodeToString([]byte("a@b.com:pw1")), Authenticated},
		{"password with a colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("a@b.com:pw1:x")), Unauthenticated},
		{"wrong password", "Basic " + base64.StdEncoding.EncodeToString([]byte("a@b.com:nope")), Unauthenticated},
		{"unknown user", "Basic " + base64.StdEncoding.EncodeToString([]byte("x@y.com:pw1")), Unauthenticated},
		{"not base64", "Basic !!!", Unauthenticated},
		{"no colon", "Basic " + base64.StdEncoding.EncodeToString([]byte("a@b.com")), Unauthenticated},
		{"wrong scheme", "Bearer abc", Unauthenticated},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/users", nil)
			if test.header != "" {
				req.Header.Set("Authorization", test.header)
			}

			outcome, err := basic.Authenticate(req.URL.Path, excluded, req)
			if err != nil {
				t.Fatal(err)
			}
			if outcome.Kind != test.kind {
				t.Fatal("wrong outcome", outcome.Kind, test.kind)
			}
			if test.kind == Authenticated && outcome.User.Email != "a@b.com" {
				t.Fatal("wrong user", outcome.User)
			}
		})
	}

	failing := NewBasicAuth(mock.FailingUserRepository{}, mock.PlainVerifier{}, log)
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	req.SetBasicAuth("a@b.com", "pw1")
	if _, err := failing.Authenticate(req.URL.Path, excluded, req); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a repository failure should be unavailable", err)
	}
}

func TestNoAuth(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/v1/users", nil)
	outcome, err := NoAuth{}.Authenticate(req.URL.Path, excluded, req)
	if err != nil || outcome.Kind != NoAuthNeeded {
		t.Fatal("NoAuth should let everything through", outcome, err)
	}

	if user, err := (NoAuth{}).CurrentUser(req); user != nil || err != nil {
		t.Fatal("NoAuth never has a user")
	}
}

func TestOutcomeKindString(t *testing.T) {
	if Unauthenticated.String() != "unauthenticated" || OutcomeKind(42).String() != "unknown" {
		t.Fatal("wrong names")
	}
}
