package rate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoginAttemptsWindow(t *testing.T) {
	l := NewLoginAttempts(LoginConfig{MaxLoginAttempts: 2, LoginCooldown: 50 * time.Millisecond})

	if err := l.Check("Ana"); err != nil {
		t.Fatalf("fresh user must pass: %v", err)
	}
	l.Fail("ana")
	l.Fail(" ANA ")
	if got := l.Count("ana"); got != 2 {
		t.Fatalf("expected 2 failures, got %d", got)
	}
	if err := l.Check("ana"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Check("bo"); err != nil {
		t.Fatalf("other users are unaffected: %v", err)
	}

	time.Sleep(80 * time.Millisecond)
	if err := l.Check("ana"); err != nil {
		t.Fatalf("window should have closed: %v", err)
	}
}

func TestLoginAttemptsReset(t *testing.T) {
	l := NewLoginAttempts(LoginConfig{MaxLoginAttempts: 1, LoginCooldown: time.Minute})
	l.Fail("ana")
	if err := l.Check("ana"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	l.Reset("ana")
	if got := l.Count("ana"); got != 0 {
		t.Fatalf("expected reset counter, got %d", got)
	}
}

func TestLoginAttemptsDisabled(t *testing.T) {
	l := NewLoginAttempts(LoginConfig{})
	for i := 0; i < 10; i++ {
		l.Fail("ana")
	}
	if err := l.Check("ana"); err != nil {
		t.Fatalf("disabled counter must not limit: %v", err)
	}

	var nilAttempts *LoginAttempts
	nilAttempts.Fail("ana")
	nilAttempts.Reset("ana")
	if err := nilAttempts.Check("ana"); err != nil {
		t.Fatalf("nil counter must not limit: %v", err)
	}
}

func TestPacerWaitHonoursContext(t *testing.T) {
	p := NewPacer(1, 1)
	ctx := context.Background()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first call should use burst: %v", err)
	}

	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := p.Wait(short); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPacerDisabled(t *testing.T) {
	p := NewPacer(0, 0)
	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("unlimited pacer failed: %v", err)
		}
	}
	var nilPacer *Pacer
	if err := nilPacer.Wait(context.Background()); err != nil {
		t.Fatalf("nil pacer failed: %v", err)
	}
}
