package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStoreCreatePending(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()
	if sess.Token == "" {
		t.Fatalf("token should not be empty")
	}
	if sess.State != StatePending {
		t.Fatalf("state = %q, want %q", sess.State, StatePending)
	}

	got, err := s.Get(sess.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StatePending || got.BotID != 0 {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestStoreBindWrongKeyLeavesPending(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()

	if _, err := s.Bind(sess.Token, 123, "wrong"); !errors.Is(err, ErrWrongAuthKey) {
		t.Fatalf("Bind() error = %v, want ErrWrongAuthKey", err)
	}

	got, err := s.Get(sess.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != StatePending {
		t.Fatalf("state = %q, want %q after failed bind", got.State, StatePending)
	}
}

func TestStoreBindAndRebind(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()

	bound, err := s.Bind(sess.Token, 123, "secret")
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if bound.State != StateBound || bound.BotID != 123 {
		t.Fatalf("unexpected bound session: %+v", bound)
	}

	// Same bot again is idempotent.
	again, err := s.Bind(sess.Token, 123, "secret")
	if err != nil {
		t.Fatalf("rebind same bot error = %v", err)
	}
	if again.BotID != 123 {
		t.Fatalf("BotID = %d, want 123", again.BotID)
	}

	// A different bot must not steal the binding.
	if _, err := s.Bind(sess.Token, 456, "secret"); !errors.Is(err, ErrBotMismatch) {
		t.Fatalf("rebind other bot error = %v, want ErrBotMismatch", err)
	}
	got, err := s.Bound(sess.Token)
	if err != nil {
		t.Fatalf("Bound() error = %v", err)
	}
	if got.BotID != 123 {
		t.Fatalf("BotID = %d, want 123 after rejected rebind", got.BotID)
	}
}

func TestStoreBindUnknownToken(t *testing.T) {
	s := NewStore("secret", time.Minute)
	if _, err := s.Bind("never-created", 123, "secret"); !errors.Is(err, ErrNoSuchSession) {
		t.Fatalf("Bind() error = %v, want ErrNoSuchSession", err)
	}
}

func TestStoreBoundRejectsPending(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()
	if _, err := s.Bound(sess.Token); !errors.Is(err, ErrNotBound) {
		t.Fatalf("Bound() error = %v, want ErrNotBound", err)
	}
}

func TestStoreReleaseIsTerminal(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()
	if _, err := s.Bind(sess.Token, 123, "secret"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	released, err := s.Release(sess.Token, 123)
	if err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if released.State != StateClosed {
		t.Fatalf("state = %q, want %q", released.State, StateClosed)
	}

	if _, err := s.Get(sess.Token); !errors.Is(err, ErrNoSuchSession) {
		t.Fatalf("Get() after release error = %v, want ErrNoSuchSession", err)
	}
	if _, err := s.Release(sess.Token, 123); !errors.Is(err, ErrNoSuchSession) {
		t.Fatalf("second Release() error = %v, want ErrNoSuchSession", err)
	}
}

func TestStoreReleaseRequiresMatchingBot(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()
	if _, err := s.Bind(sess.Token, 123, "secret"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	if _, err := s.Release(sess.Token, 456); !errors.Is(err, ErrBotMismatch) {
		t.Fatalf("Release() error = %v, want ErrBotMismatch", err)
	}
	got, err := s.Bound(sess.Token)
	if err != nil {
		t.Fatalf("Bound() error = %v, session should survive mismatched release", err)
	}
	if got.BotID != 123 {
		t.Fatalf("BotID = %d, want 123", got.BotID)
	}
}

func TestStoreConcurrentCreateDistinctTokens(t *testing.T) {
	s := NewStore("secret", time.Minute)
	const n = 10000

	tokens := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tokens <- s.Create().Token
		}()
	}
	wg.Wait()
	close(tokens)

	seen := make(map[string]struct{}, n)
	for token := range tokens {
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = struct{}{}
	}
	if len(seen) != n {
		t.Fatalf("tokens = %d, want %d", len(seen), n)
	}
}

func TestStoreConcurrentReleaseSingleWinner(t *testing.T) {
	s := NewStore("secret", time.Minute)
	sess := s.Create()
	if _, err := s.Bind(sess.Token, 123, "secret"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	const n = 64
	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Release(sess.Token, 123)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrNoSuchSession) {
			t.Fatalf("unexpected release error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}
}

func TestStoreJanitorExpiresOnlyPending(t *testing.T) {
	s := NewStore("secret", 30*time.Millisecond)
	pending := s.Create()
	bound := s.Create()
	if _, err := s.Bind(bound.Token, 123, "secret"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.StartJanitor(ctx, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for {
		if _, err := s.Get(pending.Token); errors.Is(err, ErrNoSuchSession) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pending session was not expired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := s.Bound(bound.Token); err != nil {
		t.Fatalf("bound session expired: %v", err)
	}
}

func TestStoreReleaseHookFires(t *testing.T) {
	s := NewStore("secret", time.Minute)
	var mu sync.Mutex
	var closed []string
	s.SetReleaseHook(func(sess *Session) {
		mu.Lock()
		closed = append(closed, sess.Token)
		mu.Unlock()
	})

	sess := s.Create()
	if _, err := s.Bind(sess.Token, 123, "secret"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if _, err := s.Release(sess.Token, 123); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(closed) != 1 || closed[0] != sess.Token {
		t.Fatalf("hook tokens = %v, want [%s]", closed, sess.Token)
	}
}
