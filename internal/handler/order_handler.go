package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/service"
)

// OrderHandler serves the older order-based checkout. Its clients only know
// the available/reserved/sold/inactive vocabulary, so item statuses are
// translated on the way out.
type OrderHandler struct {
	svc   service.OrderService
	items service.ItemService
}

func NewOrderHandler(svc service.OrderService, items service.ItemService) *OrderHandler {
	return &OrderHandler{svc: svc, items: items}
}

type OrderItemResponse struct {
	ItemID     string `json:"itemId"`
	Title      string `json:"title"`
	UnitPrice  string `json:"unitPrice"`
	Quantity   int    `json:"quantity"`
	ItemStatus string `json:"itemStatus,omitempty"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	BuyerID   string              `json:"buyerId"`
	SellerID  string              `json:"sellerId"`
	Status    string              `json:"status"`
	Total     string              `json:"total"`
	PaymentID *string             `json:"paymentId,omitempty"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt string              `json:"createdAt"`
}

func (h *OrderHandler) Create(c echo.Context) error {
	req := requester(c)
	orders, err := h.svc.CreateFromCart(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"orders": h.toOrderList(c, orders)})
}

func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.svc.List(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": h.toOrderList(c, orders)})
}

func (h *OrderHandler) Get(c echo.Context) error {
	o, err := h.svc.Get(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.toOrderResponse(c, o))
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	o, err := h.svc.Cancel(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, h.toOrderResponse(c, o))
}

func (h *OrderHandler) toOrderList(c echo.Context, orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, h.toOrderResponse(c, &orders[i]))
	}
	return out
}

func (h *OrderHandler) toOrderResponse(c echo.Context, o *model.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID,
		BuyerID:   o.BuyerID,
		SellerID:  o.SellerID,
		Status:    string(o.Status),
		Total:     o.Total.StringFixed(2),
		PaymentID: o.PaymentID,
		Items:     make([]OrderItemResponse, 0, len(o.Items)),
		CreatedAt: o.CreatedAt.Format(time.RFC3339),
	}
	req := requester(c)
	for _, it := range o.Items {
		line := OrderItemResponse{
			ItemID:    it.ItemID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
		}
		if item, err := h.items.Get(c.Request().Context(), req, it.ItemID); err == nil {
			line.ItemStatus = lifecycle.ToLegacy(item.Status)
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
