package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewRedemptionCodeFormat(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, errCode := NewRedemptionCode()
		if errCode != nil {
			t.Fatalf("generate code: %v", errCode)
		}
		if len(code) != 14 {
			t.Fatalf("expected 14 chars with dashes, got %q", code)
		}
		parts := strings.Split(code, "-")
		if len(parts) != 3 {
			t.Fatalf("expected 3 groups, got %q", code)
		}
		for _, part := range parts {
			if len(part) != 4 {
				t.Fatalf("expected 4-char groups, got %q", code)
			}
			for _, r := range part {
				if !strings.ContainsRune(codeAlphabet, r) {
					t.Fatalf("character %q outside alphabet in %q", r, code)
				}
			}
		}
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = struct{}{}
	}
}

func TestNewQRToken(t *testing.T) {
	token, errToken := NewQRToken()
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	if len(token) != 20 {
		t.Fatalf("expected 20 chars, got %q", token)
	}
	for _, r := range token {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("character %q outside alphabet in %q", r, token)
		}
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, errHash := HashPassword("s3cret-pass")
	if errHash != nil {
		t.Fatalf("hash password: %v", errHash)
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestPINHashRoundTrip(t *testing.T) {
	hash, errHash := HashPIN("4321")
	if errHash != nil {
		t.Fatalf("hash pin: %v", errHash)
	}
	if !CheckPIN(hash, "4321") {
		t.Fatalf("expected matching pin to verify")
	}
	if CheckPIN(hash, "0000") {
		t.Fatalf("expected wrong pin to fail")
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, errToken := GenerateAdminToken("secret", 42, "alice", true, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}

	claims, errParse := ParseAdminToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse token: %v", errParse)
	}
	if claims.AdminID != 42 || claims.Username != "alice" || !claims.IsSuperAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, errWrong := ParseAdminToken("other-secret", token); !errors.Is(errWrong, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", errWrong)
	}
}

func TestAdminTokenExpiry(t *testing.T) {
	token, errToken := GenerateAdminToken("secret", 1, "bob", false, -time.Minute)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}
	if _, errParse := ParseAdminToken("secret", token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestTOTPRoundTrip(t *testing.T) {
	secret, url, errGen := GenerateTOTPSecret("alice")
	if errGen != nil {
		t.Fatalf("generate totp secret: %v", errGen)
	}
	if secret == "" || url == "" {
		t.Fatalf("expected non-empty secret and url")
	}
	if ValidateTOTP("", secret) {
		t.Fatalf("expected empty code to fail validation")
	}
	if ValidateTOTP("12345", secret) {
		t.Fatalf("expected short code to fail validation")
	}
}
