package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CardTopUpRequest{
		Kind:       "  metro  ",
		CardNumber: " 01234567890123 ",
		WalletID:   "id",
	}
	SanitizeStruct(&req)
	assert.Equal(t, "metro", req.Kind)
	assert.Equal(t, "01234567890123", req.CardNumber)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := TopUpWalletRequest{Description: `<script>alert(1)</script>`}
	SanitizeStruct(&req)
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", req.Description)
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	subtype := "  Healthcare  "
	req := CreateWalletRequest{Kind: "organization", OrgSubtype: &subtype}
	SanitizeStruct(&req)
	assert.Equal(t, "Healthcare", *req.OrgSubtype)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := CreateWalletRequest{Kind: "individual"}
	SanitizeStruct(&req)
	assert.Nil(t, req.OrgSubtype)
}

func TestSanitizeStruct_NonStructIsNoOp(t *testing.T) {
	s := "unchanged"
	SanitizeStruct(s)
	SanitizeStruct(&s)
	assert.Equal(t, "unchanged", s)
}

func TestSafeRefPattern(t *testing.T) {
	assert.True(t, safeRefRe.MatchString("CVLA1B2C3D4E5F6A7B8"))
	assert.False(t, safeRefRe.MatchString("cvl lowercase"))
	assert.False(t, safeRefRe.MatchString("REF-WITH-DASH"))
	assert.False(t, safeRefRe.MatchString(""))
}
