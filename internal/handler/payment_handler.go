package handler

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/payment"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/shopspring/decimal"
)

const (
	maxNotificationBytes = 64 << 10
	// orderPaymentPrefix marks m_payment_id values that pay a legacy order.
	orderPaymentPrefix = "order-"
)

type PaymentHandler struct {
	verifier   *payment.SignatureVerifier
	settlement service.SettlementService
	orders     service.OrderService
	syncSettle bool
}

func NewPaymentHandler(verifier *payment.SignatureVerifier, settlement service.SettlementService, orders service.OrderService, syncSettle bool) *PaymentHandler {
	return &PaymentHandler{verifier: verifier, settlement: settlement, orders: orders, syncSettle: syncSettle}
}

type PaymentSuccessRequest struct {
	PaymentID string           `json:"paymentId"`
	Amount    *decimal.Decimal `json:"amount"`
}

type SkippedResponse struct {
	ItemID string `json:"itemId"`
	Reason string `json:"reason"`
}

type SettlementResponse struct {
	PaymentID string             `json:"paymentId"`
	Processed []string           `json:"processedItemIds"`
	Purchases []PurchaseResponse `json:"purchases"`
	Skipped   []SkippedResponse  `json:"skipped"`
}

// Success is the browser returning from the gateway. It settles the
// caller's own cart under the given payment id.
func (h *PaymentHandler) Success(c echo.Context) error {
	if !h.syncSettle {
		return c.JSON(http.StatusAccepted, map[string]string{"status": "awaiting_notification"})
	}
	req := requester(c)
	if !req.Authenticated() {
		return respondError(c, apperr.ErrUnauthorized)
	}
	var body PaymentSuccessRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.settlement.Settle(c.Request().Context(), service.SettlementRequest{
		BuyerID:     req.ID,
		BuyerEmail:  req.Email,
		PaymentID:   body.PaymentID,
		AmountGross: body.Amount,
		Source:      "success",
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSettlementResponse(res))
}

// Notify is the gateway's server-to-server callback. Anything that fails
// verification is refused; everything after that is acknowledged with a
// plain OK so the gateway stops retrying, and failures are only logged.
func (h *PaymentHandler) Notify(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationBytes))
	if err != nil {
		return badRequest(c, "unreadable body")
	}
	n, err := payment.ParseNotification(string(raw))
	if err != nil {
		return respondError(c, err)
	}
	if err := h.verifier.Verify(n); err != nil {
		log.Printf("payment notify: rejected %s: %v", n.PaymentID(), err)
		return respondError(c, err)
	}
	if !n.Completed() {
		log.Printf("payment notify: %s status %s, nothing to settle", n.PaymentID(), n.Status)
		return c.String(http.StatusOK, "OK")
	}

	ctx := c.Request().Context()
	if orderID, ok := strings.CutPrefix(n.MerchantPaymentID, orderPaymentPrefix); ok && h.orders != nil {
		if _, err := h.orders.Complete(ctx, orderID, n.PaymentID()); err != nil {
			log.Printf("payment notify: order %s payment %s: %v", orderID, n.PaymentID(), err)
		}
		return c.String(http.StatusOK, "OK")
	}

	amount := n.AmountGross
	res, err := h.settlement.Settle(ctx, service.SettlementRequest{
		BuyerID:     n.BuyerID,
		PaymentID:   n.PaymentID(),
		AmountGross: &amount,
		Source:      "notify",
	})
	if err != nil {
		log.Printf("payment notify: %s settlement failed: %v", n.PaymentID(), err)
		return c.String(http.StatusOK, "OK")
	}
	for _, s := range res.Skipped {
		log.Printf("payment notify: %s skipped item %s: %s", n.PaymentID(), s.ItemID, s.Reason)
	}
	return c.String(http.StatusOK, "OK")
}

func toSettlementResponse(res *service.SettlementResult) SettlementResponse {
	out := SettlementResponse{
		PaymentID: res.PaymentID,
		Processed: append([]string{}, res.ProcessedItemIDs...),
		Purchases: make([]PurchaseResponse, 0, len(res.Purchases)),
		Skipped:   make([]SkippedResponse, 0, len(res.Skipped)),
	}
	for i := range res.Purchases {
		out.Purchases = append(out.Purchases, toPurchaseResponse(&res.Purchases[i], nil))
	}
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, SkippedResponse{ItemID: s.ItemID, Reason: s.Reason})
	}
	return out
}
