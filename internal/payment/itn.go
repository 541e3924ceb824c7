// Package payment parses and authenticates payment-gateway notifications
// (PayFast-style ITN: form-encoded fields signed with an MD5 digest over the
// fields in received order plus the merchant passphrase).
package payment

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shopspring/decimal"
)

const StatusComplete = "COMPLETE"

// Field is one key/value pair in the order the gateway sent it.
type Field struct {
	Key   string
	Value string
}

type Notification struct {
	MerchantID        string
	MerchantPaymentID string
	GatewayPaymentID  string
	Status            string
	AmountGross       decimal.Decimal
	// BuyerID is threaded through the gateway as an opaque custom field.
	BuyerID   string
	Signature string
	Fields    []Field
}

func (n *Notification) Completed() bool {
	return strings.EqualFold(strings.TrimSpace(n.Status), StatusComplete)
}

// PaymentID is the gateway's id, falling back to ours when absent.
func (n *Notification) PaymentID() string {
	if n.GatewayPaymentID != "" {
		return n.GatewayPaymentID
	}
	return n.MerchantPaymentID
}

// ParseNotification decodes a form body without losing field order.
func ParseNotification(body string) (*Notification, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation("empty notification")
	}
	n := &Notification{}
	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, apperr.Validation("bad field name %q", rawKey)
		}
		val, err := url.QueryUnescape(rawVal)
		if err != nil {
			return nil, apperr.Validation("bad value for %q", key)
		}
		n.Fields = append(n.Fields, Field{Key: key, Value: val})
		switch key {
		case "merchant_id":
			n.MerchantID = val
		case "m_payment_id":
			n.MerchantPaymentID = val
		case "pf_payment_id":
			n.GatewayPaymentID = val
		case "payment_status":
			n.Status = val
		case "custom_str1":
			n.BuyerID = strings.TrimSpace(val)
		case "signature":
			n.Signature = strings.ToLower(strings.TrimSpace(val))
		case "amount_gross":
			if val == "" {
				continue
			}
			amt, err := decimal.NewFromString(val)
			if err != nil {
				return nil, apperr.Validation("bad amount_gross %q", val)
			}
			n.AmountGross = amt
		}
	}
	if n.BuyerID == "" {
		return nil, apperr.Validation("missing buyer correlation id")
	}
	return n, nil
}

// Sign computes the gateway signature over fields (signature excluded, empty
// values skipped) and the passphrase.
func Sign(fields []Field, passphrase string) string {
	var parts []string
	for _, f := range fields {
		if f.Key == "signature" || f.Value == "" {
			continue
		}
		parts = append(parts, f.Key+"="+url.QueryEscape(strings.TrimSpace(f.Value)))
	}
	if passphrase != "" {
		parts = append(parts, "passphrase="+url.QueryEscape(strings.TrimSpace(passphrase)))
	}
	sum := md5.Sum([]byte(strings.Join(parts, "&")))
	return hex.EncodeToString(sum[:])
}

type SignatureVerifier struct {
	merchantID string
	passphrase string
}

func NewSignatureVerifier(merchantID, passphrase string) *SignatureVerifier {
	return &SignatureVerifier{merchantID: merchantID, passphrase: passphrase}
}

// Verify rejects notifications that are unsigned, signed with the wrong
// passphrase, or addressed to another merchant.
func (v *SignatureVerifier) Verify(n *Notification) error {
	if n == nil || n.Signature == "" {
		return fmt.Errorf("%w: unsigned notification", apperr.ErrUnauthorized)
	}
	if v.merchantID != "" && n.MerchantID != v.merchantID {
		return fmt.Errorf("%w: merchant mismatch", apperr.ErrUnauthorized)
	}
	want := Sign(n.Fields, v.passphrase)
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.Signature)) != 1 {
		return fmt.Errorf("%w: signature mismatch", apperr.ErrUnauthorized)
	}
	return nil
}
