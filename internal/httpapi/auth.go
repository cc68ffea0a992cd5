package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"milkbook/internal/service"
	"milkbook/internal/store"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrBadToken       = errors.New("invalid or expired token")
)

// SettingsStore is the slice of the repository the gate needs.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// AuthManager owns the optional credential gate. While no password hash is
// stored every request passes; once one is set, mutating requests need a
// session token from Login.
type AuthManager struct {
	settings SettingsStore
	secret   []byte
	ttl      time.Duration
}

func NewAuthManager(settings SettingsStore, secret []byte, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthManager{settings: settings, secret: secret, ttl: ttl}
}

// Enabled reports whether a password has been set.
func (a *AuthManager) Enabled(ctx context.Context) (bool, error) {
	hash, err := a.settings.GetSetting(ctx, service.SettingPasswordHash)
	if err != nil {
		return false, err
	}
	return hash != "", nil
}

// Login checks the credentials and issues a session token. Legacy
// hex-sha256 hashes verify too and are upgraded to bcrypt on success.
func (a *AuthManager) Login(ctx context.Context, username, password string) (token string, expiresAt time.Time, err error) {
	storedHash, err := a.settings.GetSetting(ctx, service.SettingPasswordHash)
	if err != nil {
		return "", time.Time{}, err
	}
	if storedHash == "" {
		return "", time.Time{}, fmt.Errorf("%w: no password is set", ErrBadCredentials)
	}

	storedUser, err := a.settings.GetSetting(ctx, service.SettingUsername)
	if err != nil {
		return "", time.Time{}, err
	}
	if storedUser == "" {
		storedUser = service.DefaultUsername
	}
	if strings.TrimSpace(username) != storedUser {
		return "", time.Time{}, ErrBadCredentials
	}

	legacy, ok := verifyPassword(storedHash, password)
	if !ok {
		return "", time.Time{}, ErrBadCredentials
	}
	if legacy {
		if err := a.storeHash(ctx, password); err != nil {
			log.Printf("[httpapi] WARN: legacy password hash upgrade failed: %v", err)
		}
	}

	expiresAt = time.Now().Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   storedUser,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseToken validates a session token and returns its subject.
func (a *AuthManager) ParseToken(raw string) (string, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrBadToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return "", ErrBadToken
	}
	return claims.Subject, nil
}

// CheckNewPassword validates a password change without writing anything,
// so callers can reject a whole request before touching the store.
func CheckNewPassword(newPassword, confirm string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password must not be empty", store.ErrInvalidInput)
	}
	if newPassword != confirm {
		return fmt.Errorf("%w: passwords do not match", store.ErrInvalidInput)
	}
	return nil
}

// SetPassword enables (or rotates) the gate. Both entries must match.
func (a *AuthManager) SetPassword(ctx context.Context, newPassword, confirm string) error {
	if err := CheckNewPassword(newPassword, confirm); err != nil {
		return err
	}
	return a.storeHash(ctx, newPassword)
}

// ClearPassword disables the gate.
func (a *AuthManager) ClearPassword(ctx context.Context) error {
	return a.settings.SetSetting(ctx, service.SettingPasswordHash, "")
}

func (a *AuthManager) storeHash(ctx context.Context, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return a.settings.SetSetting(ctx, service.SettingPasswordHash, string(hash))
}

// verifyPassword checks a candidate against the stored hash. It accepts
// bcrypt hashes and the legacy 64-char hex sha256 form; the bool result
// legacy reports which one matched.
func verifyPassword(storedHash, candidate string) (legacy, ok bool) {
	if strings.HasPrefix(storedHash, "$2") {
		return false, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(candidate)) == nil
	}
	if len(storedHash) == 64 {
		sum := sha256.Sum256([]byte(candidate))
		return true, hmac.Equal([]byte(hex.EncodeToString(sum[:])), []byte(storedHash))
	}
	return false, false
}
