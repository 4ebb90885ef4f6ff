package util

import (
	"testing"
	"time"

	"github.com/byounghoonpark/PBH-Quiz/internal/model"
)

func TestJWTRoundTrip(t *testing.T) {
	gradeID := uint(3)
	user := &model.User{
		BaseModel: model.BaseModel{ID: 42},
		Email:     "student@example.com",
		Role:      model.Student,
		GradeID:   &gradeID,
	}

	token, err := GenerateJWT(user, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token, "test-secret")
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != 42 || claims.Role != model.Student {
		t.Fatalf("claims = %+v", claims)
	}
	if claims.GradeID == nil || *claims.GradeID != 3 {
		t.Fatalf("grade claim = %v, want 3", claims.GradeID)
	}
}

func TestJWTWrongSecret(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.Student}
	token, err := GenerateJWT(user, "secret-a", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT(token, "secret-b"); err == nil {
		t.Fatal("token signed with another secret must not parse")
	}
}

func TestJWTExpired(t *testing.T) {
	user := &model.User{BaseModel: model.BaseModel{ID: 1}, Role: model.Student}
	token, err := GenerateJWT(user, "test-secret", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT(token, "test-secret"); err == nil {
		t.Fatal("expired token must not parse")
	}
}
