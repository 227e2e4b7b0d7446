package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trussworks/userauth/pkg/domain"
	"github.com/trussworks/userauth/pkg/memstore"
	"github.com/trussworks/userauth/pkg/mock"
)

var startOfTest = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func getTestService(t *testing.T, options ...Option) (*Service, *mock.LogRecorder) {
	t.Helper()

	sessionLog := mock.NewLogRecorder(nil)
	return NewSessionService(memstore.NewMemStore(), sessionLog, options...), sessionLog
}

func TestCreateThenResolve(t *testing.T) {
	service, _ := getTestService(t)
	ctx := context.Background()
	userID := uuid.New().String()

	sessionKey, err := service.CreateSession(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}

	if len(sessionKey) != 64 {
		t.Fatal("session keys should carry 256 bits of hex encoded entropy", sessionKey)
	}

	resolved, err := service.ResolveUserID(ctx, sessionKey)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != userID {
		t.Fatal("resolved the wrong user", resolved, userID)
	}

	// resolving again changes nothing
	resolvedAgain, err := service.ResolveUserID(ctx, sessionKey)
	if err != nil || resolvedAgain != userID {
		t.Fatal("a session should resolve repeatedly", err)
	}
}

func TestCreateRejectsEmptyUserID(t *testing.T) {
	service, sessionLog := getTestService(t)

	_, err := service.CreateSession(context.Background(), "")
	if err != domain.ErrEmptyUserID {
		t.Fatal("didn't get the empty ID error.", err)
	}

	if len(sessionLog.MatchingMessages(domain.SessionCreated)) != 0 {
		t.Fatal("no session should have been logged")
	}
}

func TestResolveUnknownKey(t *testing.T) {
	service, sessionLog := getTestService(t)
	ctx := context.Background()

	if _, err := service.ResolveUserID(ctx, uuid.New().String()); err != domain.ErrValidSessionNotFound {
		t.Fatal("an unknown key should not resolve", err)
	}

	if _, err := service.ResolveUserID(ctx, ""); err != domain.ErrValidSessionNotFound {
		t.Fatal("an empty key should not resolve", err)
	}

	if _, err := sessionLog.GetOnlyMatchingMessage(domain.SessionDoesNotExist); err != nil {
		t.Fatal(err)
	}
}

func TestDestroySession(t *testing.T) {
	service, _ := getTestService(t)
	ctx := context.Background()

	sessionKey, err := service.CreateSession(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}

	if err := service.DestroySession(ctx, sessionKey); err != nil {
		t.Fatal(err)
	}

	if _, err := service.ResolveUserID(ctx, sessionKey); err != domain.ErrValidSessionNotFound {
		t.Fatal("a destroyed session should not resolve", err)
	}

	if err := service.DestroySession(ctx, sessionKey); err != domain.ErrValidSessionNotFound {
		t.Fatal("destroying twice should fail the second time", err)
	}

	if err := service.DestroySession(ctx, ""); err != domain.ErrValidSessionNotFound {
		t.Fatal("destroying an empty key should fail", err)
	}
}

func TestLogSessionCreatedDestroyed(t *testing.T) {
	service, sessionLog := getTestService(t)
	ctx := context.Background()

	sessionKey, err := service.CreateSession(ctx, uuid.New().String())
	if err != nil {
		t.Fatal(err)
	}

	createMsg, logErr := sessionLog.GetOnlyMatchingMessage(domain.SessionCreated)
	if logErr != nil {
		t.Fatal(logErr)
	}

	if createMsg.Level != "INFO" {
		t.Fatal("Wrong Log Level", createMsg.Level)
	}

	sessionHash, ok := createMsg.Fields["session_hash"]
	if !ok {
		t.Fatal("Didn't log the hashed session key")
	}

	if sessionHash == sessionKey {
		t.Fatal("We logged the actual session key!")
	}

	if err := service.DestroySession(ctx, sessionKey); err != nil {
		t.Fatal(err)
	}

	delMsg, delLogErr := sessionLog.GetOnlyMatchingMessage(domain.SessionDestroyed)
	if delLogErr != nil {
		t.Fatal(delLogErr)
	}

	if delMsg.Fields["session_hash"] != sessionHash {
		t.Fatal("create and destroy should log the same hash")
	}

	for _, line := range sessionLog.Lines() {
		for _, value := range line.Fields {
			if value == sessionKey {
				t.Fatal("We logged the actual session key!", line.Message)
			}
		}
	}
}

func TestExpiringSession(t *testing.T) {
	clock := mock.NewClock(startOfTest)
	duration := 30 * time.Second
	service, sessionLog := getTestService(t, WithExpiration(ExpireAfter(duration)), WithClock(clock))
	ctx := context.Background()

	sessionKey, err := service.CreateSession(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(duration - time.Nanosecond)
	if _, err := service.ResolveUserID(ctx, sessionKey); err != nil {
		t.Fatal("the session should still be valid just before its deadline", err)
	}

	clock.Advance(time.Nanosecond)
	_, err = service.ResolveUserID(ctx, sessionKey)
	if err != domain.ErrValidSessionNotFound {
		t.Fatal("the session should be expired at its deadline", err)
	}

	expiredMsg, logErr := sessionLog.GetOnlyMatchingMessage(domain.SessionExpired)
	if logErr != nil {
		t.Fatal(logErr)
	}
	if expiredMsg.Fields["session_hash"] == sessionKey {
		t.Fatal("We logged the actual session key!")
	}

	// an expired session is never swept, it just stops resolving, and can still be destroyed once
	if err := service.DestroySession(ctx, sessionKey); err != nil {
		t.Fatal(err)
	}

	// make sure you can re-auth after a session expired
	newKey, err := service.CreateSession(ctx, "42")
	if err != nil {
		t.Fatal(err)
	}
	if newKey == sessionKey {
		t.Fatal("a new login must mint a new key")
	}
	if userID, err := service.ResolveUserID(ctx, newKey); err != nil || userID != "42" {
		t.Fatal("the new session should resolve", err)
	}
}

func TestNonPositiveDurationNeverExpires(t *testing.T) {
	for _, duration := range []time.Duration{0, -5 * time.Second} {
		clock := mock.NewClock(startOfTest)
		service, _ := getTestService(t, WithExpiration(ExpireAfter(duration)), WithClock(clock))
		ctx := context.Background()

		sessionKey, err := service.CreateSession(ctx, "42")
		if err != nil {
			t.Fatal(err)
		}

		clock.Advance(24 * 365 * time.Hour)
		if _, err := service.ResolveUserID(ctx, sessionKey); err != nil {
			t.Fatal("sessions should never expire with duration", duration, err)
		}
	}
}

func TestExpireAfterTreatsMissingCreationTimeAsExpired(t *testing.T) {
	policy := ExpireAfter(time.Hour)
	if !policy(time.Time{}, startOfTest) {
		t.Fatal("a record without a creation time should be expired")
	}

	if NeverExpire(time.Time{}, startOfTest) {
		t.Fatal("NeverExpire should never expire")
	}

	store := memstore.NewMemStore()
	service := NewSessionService(store, mock.NewLogRecorder(nil), WithExpiration(policy), WithClock(mock.NewClock(startOfTest)))
	ctx := context.Background()

	if err := store.CreateSession(ctx, domain.Session{SessionKey: "legacy", UserID: "42"}); err != nil {
		t.Fatal(err)
	}
	if _, err := service.ResolveUserID(ctx, "legacy"); err != domain.ErrValidSessionNotFound {
		t.Fatal("a record without a creation time should not resolve", err)
	}
}

func TestConcurrentCreateNeverCollides(t *testing.T) {
	service, _ := getTestService(t)
	ctx := context.Background()

	const workers = 64
	keys := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := service.CreateSession(ctx, uuid.New().String())
			if err != nil {
				t.Error(err)
				return
			}
			keys[i] = key
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, key := range keys {
		if seen[key] {
			t.Fatal("two sessions got the same key")
		}
		seen[key] = true
	}

	var resolveGroup sync.WaitGroup
	for _, key := range keys {
		resolveGroup.Add(1)
		go func(key string) {
			defer resolveGroup.Done()
			if _, err := service.ResolveUserID(ctx, key); err != nil {
				t.Error(err)
			}
		}(key)
	}
	resolveGroup.Wait()
}

func TestStorageFailureIsUnavailable(t *testing.T) {
	sessionLog := mock.NewLogRecorder(nil)
	service := NewSessionService(mock.FailingSessionStore{}, sessionLog)
	ctx := context.Background()

	if _, err := service.CreateSession(ctx, "42"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a storage failure on create should be unavailable", err)
	}

	_, err := service.ResolveUserID(ctx, "some-key")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a storage failure on resolve should not look like a missing session", err)
	}
	if !errors.Is(err, mock.ErrBackendDown) {
		t.Fatal("the cause should stay reachable", err)
	}

	if err := service.DestroySession(ctx, "some-key"); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatal("a storage failure on destroy should be unavailable", err)
	}

	if len(sessionLog.MatchingMessages(domain.SessionUnexpectedError)) != 1 {
		t.Fatal("the failed resolve should have been logged")
	}
}

func TestHashSessionKey(t *testing.T) {
	hash := HashSessionKey("abc")
	if len(hash) != 12 {
		t.Fatal("the hash should be 12 characters", hash)
	}
	if hash != HashSessionKey("abc") {
		t.Fatal("the hash should be stable")
	}
	if hash == HashSessionKey("abd") {
		t.Fatal("different keys should hash differently")
	}
}
