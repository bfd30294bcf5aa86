package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/gramtest-backend/internal/config"
)

func newAuth(secret string) *AuthService {
	return NewAuthService(&config.Config{JWTSecret: secret, JWTExpiry: time.Hour})
}

func TestAuthServiceRoundTrip(t *testing.T) {
	auth := newAuth("secret")

	student, err := auth.GenerateStudentToken(10, 100)
	if err != nil {
		t.Fatalf("student token: %v", err)
	}
	claims, err := auth.ValidateToken(student)
	if err != nil {
		t.Fatalf("validate student token: %v", err)
	}
	if claims.TokenType != TokenTypeStudent || claims.UserID != 10 || claims.ClassID != 100 {
		t.Errorf("unexpected student claims: %+v", claims)
	}

	teacher, err := auth.GenerateTeacherToken(7)
	if err != nil {
		t.Fatalf("teacher token: %v", err)
	}
	claims, err = auth.ValidateToken(teacher)
	if err != nil {
		t.Fatalf("validate teacher token: %v", err)
	}
	if claims.TokenType != TokenTypeTeacher || claims.UserID != 7 || claims.Subject != "7" {
		t.Errorf("unexpected teacher claims: %+v", claims)
	}
}

func TestAuthServiceRejects(t *testing.T) {
	auth := newAuth("secret")
	token, err := auth.GenerateStudentToken(10, 100)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := newAuth("other").ValidateToken(token); err == nil {
		t.Error("token signed with another secret must be rejected")
	}
	if _, err := auth.ValidateToken("not-a-jwt"); err == nil {
		t.Error("garbage must be rejected")
	}

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.ValidateToken(token)
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expired token: got %v, want ErrTokenExpired", err)
	}
}

func TestAuthServiceRejectsUnknownTokenType(t *testing.T) {
	auth := newAuth("secret")
	signed, err := auth.sign(Claims{RegisteredClaims: auth.registered(1), TokenType: "admin", UserID: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := auth.ValidateToken(signed); err == nil {
		t.Error("unknown token type must be rejected")
	}
}
