package payment

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedBody(t *testing.T, fields []Field, passphrase string) string {
	t.Helper()
	sig := Sign(fields, passphrase)
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.Key)+"="+url.QueryEscape(f.Value))
	}
	parts = append(parts, "signature="+sig)
	return strings.Join(parts, "&")
}

func sampleFields() []Field {
	return []Field{
		{"m_payment_id", "cart-u1"},
		{"pf_payment_id", "1089250"},
		{"payment_status", "COMPLETE"},
		{"item_name", "Campus Market order"},
		{"amount_gross", "150.00"},
		{"custom_str1", "buyer-uid-1"},
		{"custom_str2", ""},
		{"merchant_id", "10000100"},
	}
}

func TestParseAndVerify(t *testing.T) {
	body := signedBody(t, sampleFields(), "s3cret pass")
	n, err := ParseNotification(body)
	require.NoError(t, err)

	assert.Equal(t, "buyer-uid-1", n.BuyerID)
	assert.Equal(t, "1089250", n.PaymentID())
	assert.True(t, n.Completed())
	assert.Equal(t, "150", n.AmountGross.String())

	v := NewSignatureVerifier("10000100", "s3cret pass")
	assert.NoError(t, v.Verify(n))
}

func TestVerifyRejectsTampering(t *testing.T) {
	body := signedBody(t, sampleFields(), "s3cret pass")
	tampered := strings.Replace(body, "amount_gross=150.00", "amount_gross=1.00", 1)
	n, err := ParseNotification(tampered)
	require.NoError(t, err)

	err = NewSignatureVerifier("", "s3cret pass").Verify(n)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestVerifyRejectsWrongPassphraseAndMerchant(t *testing.T) {
	n, err := ParseNotification(signedBody(t, sampleFields(), "s3cret pass"))
	require.NoError(t, err)

	assert.ErrorIs(t, NewSignatureVerifier("", "other").Verify(n), apperr.ErrUnauthorized)
	assert.ErrorIs(t, NewSignatureVerifier("999", "s3cret pass").Verify(n), apperr.ErrUnauthorized)
}

func TestVerifyRejectsUnsigned(t *testing.T) {
	n, err := ParseNotification("custom_str1=buyer-uid-1&payment_status=COMPLETE")
	require.NoError(t, err)
	assert.ErrorIs(t, NewSignatureVerifier("", "").Verify(n), apperr.ErrUnauthorized)
}

func TestParseNotificationValidation(t *testing.T) {
	_, err := ParseNotification("")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ParseNotification("payment_status=COMPLETE")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = ParseNotification("custom_str1=u1&amount_gross=abc")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNotCompleted(t *testing.T) {
	n, err := ParseNotification("custom_str1=u1&payment_status=CANCELLED")
	require.NoError(t, err)
	assert.False(t, n.Completed())
	assert.Equal(t, "", n.PaymentID())
}
