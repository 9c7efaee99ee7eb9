package main

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth(t *testing.T) (*Auth, *DB) {
	t.Helper()
	prev := bcryptCost
	bcryptCost = bcrypt.MinCost
	t.Cleanup(func() { bcryptCost = prev })

	db := openTestDB(t)
	auth, err := NewAuth(db, testLog())
	if err != nil {
		t.Fatal(err)
	}
	return auth, db
}

func TestRegisterLoginValidate(t *testing.T) {
	auth, _ := newTestAuth(t)

	id, token, err := auth.Register("  nemo ", "fishy")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	pid, name, err := auth.ValidateToken(token)
	if err != nil || pid != id || name != "nemo" {
		t.Errorf("ValidateToken = (%d, %q, %v)", pid, name, err)
	}

	if _, _, err := auth.Register("nemo", "other"); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("duplicate register err = %v", err)
	}
	if _, _, err := auth.Register("n", "fishy"); err == nil {
		t.Error("short username accepted")
	}
	if _, _, err := auth.Register("dory", "abc"); err == nil {
		t.Error("short password accepted")
	}

	loginID, _, err := auth.Login("nemo", "fishy", "1.2.3.4")
	if err != nil || loginID != id {
		t.Errorf("login = (%d, %v)", loginID, err)
	}
	if _, _, err := auth.Login("nemo", "wrong", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("bad password err = %v", err)
	}
	if _, _, err := auth.Login("ghost", "fishy", "1.2.3.4"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestSecretSurvivesRestart(t *testing.T) {
	auth, db := newTestAuth(t)
	_, token, err := auth.Register("marlin", "ocean")
	if err != nil {
		t.Fatal(err)
	}

	again, err := NewAuth(db, testLog())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := again.ValidateToken(token); err != nil {
		t.Errorf("token rejected after restart: %v", err)
	}
}

func TestValidateTokenRejectsForgeries(t *testing.T) {
	auth, _ := newTestAuth(t)

	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		PlayerID: 1,
		Username: "old",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString(auth.jwtSecret)

	foreign, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, playerClaims{
		PlayerID: 1,
		Username: "spoof",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("not the secret"))

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, playerClaims{
		PlayerID: 1,
		Username: "none",
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, token := range map[string]string{
		"expired": expired,
		"foreign": foreign,
		"none":    unsigned,
		"garbage": "a.b.c",
	} {
		if _, _, err := auth.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestLoginRateLimit(t *testing.T) {
	auth, _ := newTestAuth(t)
	for i := 0; i < maxLoginAttempts; i++ {
		auth.Login("ghost", "x", "9.9.9.9")
	}
	if _, _, err := auth.Login("ghost", "x", "9.9.9.9"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("err = %v, want ErrRateLimited", err)
	}
	if _, _, err := auth.Login("ghost", "x", "8.8.8.8"); errors.Is(err, ErrRateLimited) {
		t.Error("other IPs should not be limited")
	}
}
