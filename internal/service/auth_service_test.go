package service

import (
	"testing"
	"time"

	"github.com/3stan1104/GeneFlow/internal/config"
	"github.com/3stan1104/GeneFlow/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      "test-secret",
		JWTExpiry:      time.Hour,
		AdminAPISecret: "super-secret",
	}
}

func TestTokenRoundtrip(t *testing.T) {
	svc := NewAuthService(testConfig())

	token, err := svc.GenerateToken("uid-1", model.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UID != "uid-1" || claims.Role != model.RoleAdmin {
		t.Fatalf("claims wrong: %+v", claims)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}).GenerateToken("uid-1", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewAuthService(testConfig()).ValidateToken(token); err == nil {
		t.Fatalf("token signed with another secret must not validate")
	}
}

func TestCheckAPISecret(t *testing.T) {
	svc := NewAuthService(testConfig())

	if !svc.CheckAPISecret("super-secret") {
		t.Fatalf("matching secret should pass")
	}
	if svc.CheckAPISecret("wrong") {
		t.Fatalf("wrong secret should fail")
	}
	if svc.CheckAPISecret("") {
		t.Fatalf("empty header should fail")
	}

	disabled := NewAuthService(&config.Config{JWTSecret: "s", JWTExpiry: time.Hour})
	if disabled.CheckAPISecret("anything") {
		t.Fatalf("empty configured secret disables the fallback")
	}
}
