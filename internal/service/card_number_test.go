package service

import (
	"strings"
	"testing"

	"civic-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCardNumber_Metro(t *testing.T) {
	for i := 0; i < 50; i++ {
		number, err := GenerateCardNumber(domain.CardKindMetro, uuid.New())
		require.NoError(t, err)
		assert.Len(t, number, 14)
		assert.True(t, strings.HasPrefix(number, "01"))
		assert.True(t, ValidLuhn(number), "metro number %s must pass the Luhn check", number)
	}
}

func TestGenerateCardNumber_Insurance(t *testing.T) {
	ownerID := uuid.New()
	number, err := GenerateCardNumber(domain.CardKindInsurance, ownerID)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(number, "INS-"))
	fragment := strings.ToUpper(strings.ReplaceAll(ownerID.String(), "-", "")[:8])
	assert.Contains(t, number, fragment)

	parts := strings.Split(number, "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 6, "random suffix is zero-padded to 6 digits")
}

func TestGenerateCardNumber_UnknownKind(t *testing.T) {
	_, err := GenerateCardNumber(domain.CardKind("loyalty"), uuid.New())
	assert.Error(t, err)
}

func TestValidLuhn(t *testing.T) {
	assert.True(t, ValidLuhn("79927398713"))
	assert.False(t, ValidLuhn("79927398710"))
	assert.False(t, ValidLuhn("7992739871a"))
	assert.False(t, ValidLuhn("7"))
}
