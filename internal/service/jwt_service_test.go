package service

import (
	"errors"
	"testing"
	"time"

	"agrimarket/internal/domain"
)

func jwtFixtureIdentity() (domain.User, domain.Profile) {
	verifiedAt := time.Now().UTC()
	user := domain.User{
		ID:              "user-1",
		Email:           "amina@example.com",
		EmailVerifiedAt: &verifiedAt,
	}
	profile := domain.Profile{
		ID:       "profile-1",
		UserID:   "user-1",
		FullName: "Amina Bello",
		UserType: domain.UserTypeFarmer,
	}
	return user, profile
}

func TestJWTGenerateAndParse(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	user, profile := jwtFixtureIdentity()

	pair, err := svc.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("expected both tokens")
	}
	if pair.ExpiresIn != 60 {
		t.Fatalf("expected 60s expiry, got %d", pair.ExpiresIn)
	}

	claims, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.ProfileID != "profile-1" {
		t.Fatalf("unexpected identity claims %+v", claims)
	}
	if claims.UserType != domain.UserTypeFarmer || !claims.EmailVerified {
		t.Fatalf("unexpected session claims %+v", claims)
	}
}

func TestJWTRejectsRefreshAsAccess(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	user, profile := jwtFixtureIdentity()

	pair, err := svc.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected ErrJWTInvalid, got %v", err)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", time.Minute, time.Hour)
	verifier := NewJWTService("secret-b", time.Minute, time.Hour)
	user, profile := jwtFixtureIdentity()

	pair, err := issuer.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseAccessToken(pair.AccessToken); err == nil {
		t.Fatalf("expected parse failure with wrong secret")
	}
}

func TestJWTExpiredAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute, time.Hour)
	svc.accessTTL = -time.Minute
	user, profile := jwtFixtureIdentity()

	pair, err := svc.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
}

func TestJWTRefreshRotation(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	user, profile := jwtFixtureIdentity()

	pair, err := svc.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	rotated, err := svc.RefreshPair(pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == pair.RefreshToken {
		t.Fatalf("expected new token pair")
	}

	// El refresh usado queda revocado.
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected rotated token to be rejected, got %v", err)
	}
}

func TestJWTRevokeRefresh(t *testing.T) {
	svc := NewJWTService("test-secret", time.Minute, time.Hour)
	user, profile := jwtFixtureIdentity()

	pair, err := svc.GeneratePair(user, profile)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if err := svc.RevokeRefresh(pair.RefreshToken); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := svc.RefreshPair(pair.RefreshToken); !errors.Is(err, ErrJWTInvalid) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}
