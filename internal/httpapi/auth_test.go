package httpapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"milkbook/internal/service"
	"milkbook/internal/store"
	"milkbook/internal/store/memory"
)

func newTestAuth() (*AuthManager, *memory.Store) {
	repo := memory.New()
	return NewAuthManager(repo, []byte("test-secret-test-secret-test-secret!"), time.Hour), repo
}

func TestGateOpenUntilPasswordSet(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()

	enabled, err := auth.Enabled(ctx)
	if err != nil {
		t.Fatalf("enabled check failed: %v", err)
	}
	if enabled {
		t.Fatalf("gate should be open with no password set")
	}

	if _, _, err := auth.Login(ctx, "admin", "anything"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("login with no password set should fail, got %v", err)
	}
}

func TestSetPasswordAndLogin(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()

	if err := auth.SetPassword(ctx, "hunter22", "hunter22"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	enabled, err := auth.Enabled(ctx)
	if err != nil || !enabled {
		t.Fatalf("gate should be enabled: enabled=%v err=%v", enabled, err)
	}

	token, expiresAt, err := auth.Login(ctx, "admin", "hunter22")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("expected a future-dated token")
	}

	subject, err := auth.ParseToken(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if subject != "admin" {
		t.Fatalf("expected subject admin, got %q", subject)
	}

	if _, _, err := auth.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
	if _, _, err := auth.Login(ctx, "intruder", "hunter22"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials for wrong username, got %v", err)
	}
}

func TestSetPasswordConfirmMismatch(t *testing.T) {
	auth, _ := newTestAuth()

	err := auth.SetPassword(context.Background(), "hunter22", "hunter23")
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLegacyHexHashVerifiesAndUpgrades(t *testing.T) {
	auth, repo := newTestAuth()
	ctx := context.Background()

	sum := sha256.Sum256([]byte("oldpass"))
	if err := repo.SetSetting(ctx, service.SettingPasswordHash, hex.EncodeToString(sum[:])); err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}

	if _, _, err := auth.Login(ctx, "admin", "oldpass"); err != nil {
		t.Fatalf("legacy login failed: %v", err)
	}

	stored, err := repo.GetSetting(ctx, service.SettingPasswordHash)
	if err != nil {
		t.Fatalf("read hash failed: %v", err)
	}
	if !strings.HasPrefix(stored, "$2") {
		t.Fatalf("expected bcrypt upgrade, hash still %q", stored)
	}

	// The upgraded hash keeps verifying the same password.
	if _, _, err := auth.Login(ctx, "admin", "oldpass"); err != nil {
		t.Fatalf("login after upgrade failed: %v", err)
	}
}

func TestClearPasswordOpensGate(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()

	if err := auth.SetPassword(ctx, "hunter22", "hunter22"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	if err := auth.ClearPassword(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	enabled, err := auth.Enabled(ctx)
	if err != nil {
		t.Fatalf("enabled check failed: %v", err)
	}
	if enabled {
		t.Fatalf("gate should be open after clearing the password")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth, _ := newTestAuth()

	if _, err := auth.ParseToken("not-a-token"); !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}

	other := NewAuthManager(memory.New(), []byte("a-completely-different-signing-key!!"), time.Hour)
	if err := other.SetPassword(context.Background(), "x", "x"); err != nil {
		t.Fatalf("set password failed: %v", err)
	}
	token, _, err := other.Login(context.Background(), "admin", "x")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := auth.ParseToken(token); !errors.Is(err, ErrBadToken) {
		t.Fatalf("token signed with another key should be rejected, got %v", err)
	}
}
