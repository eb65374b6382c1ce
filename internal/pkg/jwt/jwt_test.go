package jwt

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	employeeID := "emp-1"

	token, expiresAt, err := svc.GenerateAccessToken(AccessClaims{
		UserID:     "user-1",
		Email:      "jane@example.com",
		EmployeeID: &employeeID,
		Role:       user.RoleManager,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.NotZero(t, expiresAt)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	claims, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "emp-1", claims["employee_id"])
	assert.Nil(t, claims["company_id"])
	assert.Equal(t, "manager", claims["role"])
	assert.Equal(t, TokenTypeAccess, claims["type"])
}

func TestGenerateAccessToken_InvalidExpiration(t *testing.T) {
	svc := NewJWTService("test-secret", "soon")
	_, _, err := svc.GenerateAccessToken(AccessClaims{UserID: "user-1"})
	assert.Error(t, err)
}

func TestSSEToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")

	token, expiresIn, err := svc.GenerateSSEToken(SSESubject{UserID: "user-1", EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	subject, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, SSESubject{UserID: "user-1", EmployeeID: "emp-1"}, subject)
}

func TestValidateSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret", "1h")
	access, _, err := svc.GenerateAccessToken(AccessClaims{UserID: "user-1", Role: user.RoleEmployee})
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)

	_, err = svc.ValidateSSEToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateSSEToken_WrongSecret(t *testing.T) {
	issuer := NewJWTService("secret-a", "1h")
	verifier := NewJWTService("secret-b", "1h")

	token, _, err := issuer.GenerateSSEToken(SSESubject{UserID: "user-1", EmployeeID: "emp-1"})
	require.NoError(t, err)

	_, err = verifier.ValidateSSEToken(token)
	assert.Error(t, err)
}
