package service

import (
	"testing"
	"time"

	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "civic-ledger")
	userID := uuid.New()

	token, err := svc.Generate(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestJWTTokenService_WrongSecret(t *testing.T) {
	svc1 := NewJWTTokenService("secret-one", time.Hour, "civic-ledger")
	svc2 := NewJWTTokenService("secret-two", time.Hour, "civic-ledger")

	token, err := svc1.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc2.Validate(token)
	assert.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestJWTTokenService_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret", -time.Minute, "civic-ledger")

	token, err := svc.Generate(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret", time.Hour, "civic-ledger")

	_, err := svc.Validate("not.a.jwt")
	assert.Error(t, err)
}
