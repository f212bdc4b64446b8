package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	token, issued, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString(), Label: "ops"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(token, issued.ID+".") {
		t.Fatalf("token %q should start with key id", token)
	}
	if strings.Contains(string(issued.SecretHash), strings.TrimPrefix(token, issued.ID+".")) {
		t.Fatalf("secret stored in plaintext")
	}

	key, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if key.ID != issued.ID {
		t.Fatalf("verified wrong key: %s", key.ID)
	}
	if key.Label != "ops" {
		t.Fatalf("label = %q", key.Label)
	}
}

func TestVerifyTracksLastUsed(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	token, issued, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := svc.Verify(ctx, token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	stored, err := repo.FindByID(ctx, issued.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.LastUsed == nil {
		t.Fatalf("last_used not recorded")
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	token, issued, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, bad := range []string{
		"",
		"no-dot",
		issued.ID + ".wrong-secret",
		uuid.NewString() + "." + strings.SplitN(token, ".", 2)[1],
	} {
		if _, err := svc.Verify(ctx, bad); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("token %q: expected ErrInvalidKey, got %v", bad, err)
		}
	}
}

func TestVerifyExpiredKey(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	token, _, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString(), TTL: -time.Minute})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// A negative TTL leaves ExpiresAt nil; force one in the past instead.
	token2, issued, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString(), TTL: time.Nanosecond})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := svc.Verify(ctx, token); err != nil {
		t.Fatalf("key without expiry should verify: %v", err)
	}
	if _, err := svc.Verify(ctx, token2); !errors.Is(err, ErrKeyExpired) {
		t.Fatalf("expected ErrKeyExpired for %s, got %v", issued.ID, err)
	}
}

func TestVerifyRevokedKey(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	token, issued, err := svc.Issue(ctx, IssueInput{OwnerID: uuid.NewString()})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := svc.Revoke(ctx, issued.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.Verify(ctx, token); !errors.Is(err, ErrKeyRevoked) {
		t.Fatalf("expected ErrKeyRevoked, got %v", err)
	}
}
