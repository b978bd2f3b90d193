package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"civic-ledger/internal/core/domain"
	"civic-ledger/pkg/apperror"

	"github.com/google/uuid"
)

const metroPrefix = "01"

// GenerateCardNumber produces a fresh card number for the given kind.
// Metro numbers are 14 digits: the "01" scheme prefix, 11 random digits and
// a Luhn check digit. Insurance numbers carry an "INS-" prefix, an owner
// fragment and a zero-padded random suffix.
func GenerateCardNumber(kind domain.CardKind, ownerID uuid.UUID) (string, error) {
	switch kind {
	case domain.CardKindMetro:
		return generateMetroNumber()
	case domain.CardKindInsurance:
		return generateInsuranceNumber(ownerID)
	default:
		return "", apperror.Validation(fmt.Sprintf("unknown card kind: %s", kind))
	}
}

func generateMetroNumber() (string, error) {
	var sb strings.Builder
	sb.WriteString(metroPrefix)
	for i := 0; i < 11; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", apperror.ErrCryptoFailure(fmt.Errorf("generating card digits: %w", err))
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	partial := sb.String()
	return partial + string(byte('0'+luhnCheckDigit(partial))), nil
}

func generateInsuranceNumber(ownerID uuid.UUID) (string, error) {
	fragment := strings.ToUpper(strings.ReplaceAll(ownerID.String(), "-", "")[:8])
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", apperror.ErrCryptoFailure(fmt.Errorf("generating card suffix: %w", err))
	}
	return fmt.Sprintf("INS-%s-%06d", fragment, n.Int64()), nil
}

// luhnCheckDigit computes the digit that makes digits+check pass the Luhn
// checksum.
func luhnCheckDigit(digits string) int {
	sum := 0
	double := true
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// ValidLuhn reports whether a numeric string passes the Luhn checksum.
func ValidLuhn(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
