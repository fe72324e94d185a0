//go:build !integration

package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"borlette/domain"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenService_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewTokenService("s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	svc.WithClock(func() time.Time { return now })

	agent := domain.Principal{
		ID:       42,
		Role:     domain.RoleAgent,
		Username: "pierre",
		Ancestry: domain.Ancestry{Supervisor1ID: 7, Supervisor2ID: 3, SubsystemID: 100},
	}

	token, expiresAt, err := svc.Issue(agent)
	if err != nil {
		t.Fatal(err)
	}
	if !expiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("expiresAt = %v", expiresAt)
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != agent.ID || got.Role != agent.Role || got.Username != agent.Username || got.Ancestry != agent.Ancestry {
		t.Errorf("verified = %+v, want %+v", got, agent)
	}
}

func TestTokenService_Rejects(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := NewTokenService("s3cret", time.Hour)
	svc.WithClock(func() time.Time { return now })

	valid, _, err := svc.Issue(domain.Principal{ID: 1, Role: domain.RoleMaster, Username: "root"})
	if err != nil {
		t.Fatal(err)
	}

	other, _ := NewTokenService("other", time.Hour)
	other.WithClock(func() time.Time { return now })
	foreign, _, _ := other.Issue(domain.Principal{ID: 1, Role: domain.RoleMaster})

	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Role:             "master",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "cashier",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour))},
	}).SignedString([]byte("s3cret"))

	noExpiry, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "master",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString([]byte("s3cret"))

	tests := []struct {
		name  string
		token string
		clock time.Time
	}{
		{"garbage", "not-a-token", now},
		{"tampered", valid[:len(valid)-2] + "xx", now},
		{"foreign secret", foreign, now},
		{"unsigned", unsigned, now},
		{"unknown role", badRole, now},
		{"no expiry", noExpiry, now},
		{"expired", valid, now.Add(2 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := tt.clock
			svc.WithClock(func() time.Time { return clock })
			_, err := svc.Verify(tt.token)
			var aerr *domain.AuthError
			if !errors.As(err, &aerr) {
				t.Fatalf("err = %v, want AuthError", err)
			}
		})
	}

	svc.WithClock(func() time.Time { return now.Add(2 * time.Hour) })
	_, err = svc.Verify(valid)
	if err == nil || !strings.Contains(err.Error(), "expired") {
		t.Errorf("expired err = %v", err)
	}
}

func TestNewTokenService_Config(t *testing.T) {
	var cerr *domain.ConfigError
	if _, err := NewTokenService("", time.Hour); !errors.As(err, &cerr) {
		t.Errorf("empty secret err = %v, want ConfigError", err)
	}
	if _, err := NewTokenService("x", 0); !errors.As(err, &cerr) {
		t.Errorf("zero ttl err = %v, want ConfigError", err)
	}
	svc, _ := NewTokenService("x", time.Hour)
	if _, _, err := svc.Issue(domain.Principal{ID: 1}); err == nil {
		t.Error("issued token for unknown role")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatal(err)
	}
	if string(hash) == "secret1" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword("secret1", string(hash)) {
		t.Error("correct password rejected")
	}
	if CheckPassword("secret2", string(hash)) {
		t.Error("wrong password accepted")
	}
	if CheckPassword("secret1", "") {
		t.Error("empty hash accepted")
	}
}
