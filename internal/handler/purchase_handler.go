package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/service"
)

type PurchaseHandler struct {
	svc    service.PurchaseService
	notify service.NotificationService
}

func NewPurchaseHandler(svc service.PurchaseService, notify service.NotificationService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc, notify: notify}
}

type PurchaseResponse struct {
	ID               string        `json:"id"`
	ItemID           string        `json:"itemId"`
	ItemTitle        string        `json:"itemTitle"`
	ItemPrice        string        `json:"itemPrice"`
	Quantity         int           `json:"quantity"`
	SellerID         string        `json:"sellerId"`
	SellerEmail      string        `json:"sellerEmail,omitempty"`
	BuyerID          string        `json:"buyerId"`
	BuyerEmail       string        `json:"buyerEmail,omitempty"`
	PaymentID        string        `json:"paymentId"`
	OrderID          *string       `json:"orderId,omitempty"`
	TotalAmount      string        `json:"totalAmount"`
	Status           string        `json:"status"`
	CollectionStatus string        `json:"collectionStatus"`
	CollectedAt      *string       `json:"collectedAt,omitempty"`
	Item             *ItemResponse `json:"item,omitempty"`
	CreatedAt        string        `json:"createdAt"`
	UpdatedAt        string        `json:"updatedAt"`
}

func toPurchaseResponse(p *model.PurchaseRecord, item *model.Item) PurchaseResponse {
	var collectedAt *string
	if p.CollectedAt != nil {
		val := p.CollectedAt.Format(time.RFC3339)
		collectedAt = &val
	}
	resp := PurchaseResponse{
		ID:               p.ID,
		ItemID:           p.ItemID,
		ItemTitle:        p.ItemTitle,
		ItemPrice:        p.ItemPrice.StringFixed(2),
		Quantity:         p.Quantity,
		SellerID:         p.SellerID,
		SellerEmail:      p.SellerEmail,
		BuyerID:          p.BuyerID,
		BuyerEmail:       p.BuyerEmail,
		PaymentID:        p.PaymentID,
		OrderID:          p.OrderID,
		TotalAmount:      p.TotalAmount.StringFixed(2),
		Status:           string(p.Status),
		CollectionStatus: string(p.CollectionStatus),
		CollectedAt:      collectedAt,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
	if item != nil {
		ir := toItemResponse(item)
		resp.Item = &ir
	}
	return resp
}

func toPurchaseList(list []service.PurchaseWithItem) []PurchaseResponse {
	out := make([]PurchaseResponse, 0, len(list))
	for i := range list {
		out = append(out, toPurchaseResponse(&list[i].Purchase, list[i].Item))
	}
	return out
}

func (h *PurchaseHandler) ListMine(c echo.Context) error {
	list, err := h.svc.ListMine(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"purchases": toPurchaseList(list)})
}

func (h *PurchaseHandler) ListSales(c echo.Context) error {
	list, err := h.svc.ListSales(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sales": toPurchaseList(list)})
}

func (h *PurchaseHandler) Get(c echo.Context) error {
	req := requester(c)
	p, err := h.svc.Get(c.Request().Context(), req, c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	if h.notify != nil {
		_, _ = h.notify.MarkByItem(c.Request().Context(), req, p.Purchase.ItemID)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(&p.Purchase, p.Item))
}

func (h *PurchaseHandler) Collect(c echo.Context) error {
	p, err := h.svc.Collect(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(&p.Purchase, p.Item))
}
