package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/identity"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/payment"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "campus pass"

type recordingSettlement struct {
	calls []service.SettlementRequest
}

func (s *recordingSettlement) Settle(_ context.Context, in service.SettlementRequest) (*service.SettlementResult, error) {
	s.calls = append(s.calls, in)
	return &service.SettlementResult{
		BuyerID:          in.BuyerID,
		PaymentID:        in.PaymentID,
		ProcessedItemIDs: []string{"item-1"},
		Skipped:          []service.SkippedEntry{{ItemID: "item-2", Reason: service.SkipNotForSale}},
	}, nil
}

type recordingOrders struct {
	service.OrderService
	completed []string
}

func (o *recordingOrders) Complete(_ context.Context, orderID, paymentID string) ([]model.PurchaseRecord, error) {
	o.completed = append(o.completed, orderID+":"+paymentID)
	return nil, nil
}

func notifyBody(status, mPaymentID string, sign bool) string {
	fields := []payment.Field{
		{Key: "m_payment_id", Value: mPaymentID},
		{Key: "pf_payment_id", Value: "pf-77"},
		{Key: "payment_status", Value: status},
		{Key: "amount_gross", Value: "80.00"},
		{Key: "custom_str1", Value: "buyer-1"},
	}
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		parts = append(parts, url.QueryEscape(f.Key)+"="+url.QueryEscape(f.Value))
	}
	sig := payment.Sign(fields, testPassphrase)
	if !sign {
		sig = strings.Repeat("0", len(sig))
	}
	parts = append(parts, "signature="+sig)
	return strings.Join(parts, "&")
}

func newPaymentHandler(sync bool) (*PaymentHandler, *recordingSettlement, *recordingOrders) {
	settle := &recordingSettlement{}
	orders := &recordingOrders{}
	h := NewPaymentHandler(payment.NewSignatureVerifier("", testPassphrase), settle, orders, sync)
	return h, settle, orders
}

func postNotify(t *testing.T, h *PaymentHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/notify", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Notify(e.NewContext(req, rec)))
	return rec
}

func TestNotifySettlesVerifiedCompletePayment(t *testing.T) {
	h, settle, _ := newPaymentHandler(true)

	rec := postNotify(t, h, notifyBody("COMPLETE", "cart-buyer-1", true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	require.Len(t, settle.calls, 1)
	assert.Equal(t, "buyer-1", settle.calls[0].BuyerID)
	assert.Equal(t, "pf-77", settle.calls[0].PaymentID)
	assert.Equal(t, "notify", settle.calls[0].Source)
	require.NotNil(t, settle.calls[0].AmountGross)
	assert.Equal(t, "80.00", settle.calls[0].AmountGross.StringFixed(2))
}

func TestNotifyRejectsBadSignature(t *testing.T) {
	h, settle, _ := newPaymentHandler(true)

	rec := postNotify(t, h, notifyBody("COMPLETE", "cart-buyer-1", false))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, settle.calls)
}

func TestNotifyIgnoresIncompletePayment(t *testing.T) {
	h, settle, _ := newPaymentHandler(true)

	rec := postNotify(t, h, notifyBody("CANCELLED", "cart-buyer-1", true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, settle.calls)
}

func TestNotifyMalformedBody(t *testing.T) {
	h, settle, _ := newPaymentHandler(true)

	rec := postNotify(t, h, "payment_status=COMPLETE")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, settle.calls)
}

func TestNotifyCompletesLegacyOrder(t *testing.T) {
	h, settle, orders := newPaymentHandler(true)

	rec := postNotify(t, h, notifyBody("COMPLETE", "order-42", true))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"42:pf-77"}, orders.completed)
	assert.Empty(t, settle.calls)
}

func TestSuccess(t *testing.T) {
	newCtx := func(req identity.Requester) (echo.Context, *httptest.ResponseRecorder) {
		e := echo.New()
		r := httptest.NewRequest(http.MethodPost, "/payments/success", strings.NewReader(`{"paymentId":"pay-1"}`))
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		r = r.WithContext(identity.WithRequester(r.Context(), req))
		rec := httptest.NewRecorder()
		return e.NewContext(r, rec), rec
	}

	t.Run("settles the caller's cart", func(t *testing.T) {
		h, settle, _ := newPaymentHandler(true)
		c, rec := newCtx(identity.Requester{ID: "buyer-1", Email: "b@uni.example"})
		require.NoError(t, h.Success(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"processedItemIds":["item-1"]`)
		require.Len(t, settle.calls, 1)
		assert.Equal(t, "buyer-1", settle.calls[0].BuyerID)
		assert.Equal(t, "pay-1", settle.calls[0].PaymentID)
	})

	t.Run("anonymous caller", func(t *testing.T) {
		h, settle, _ := newPaymentHandler(true)
		c, rec := newCtx(identity.Requester{})
		require.NoError(t, h.Success(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, settle.calls)
	})

	t.Run("defers to the notification when not synchronous", func(t *testing.T) {
		h, settle, _ := newPaymentHandler(false)
		c, rec := newCtx(identity.Requester{ID: "buyer-1"})
		require.NoError(t, h.Success(c))
		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Empty(t, settle.calls)
	})
}
