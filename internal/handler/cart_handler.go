package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/service"
)

type CartHandler struct {
	svc service.CartService
}

func NewCartHandler(svc service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

type CartLineResponse struct {
	ItemID    string       `json:"itemId"`
	Quantity  int          `json:"quantity"`
	LineTotal string       `json:"lineTotal"`
	Item      ItemResponse `json:"item"`
}

type CartResponse struct {
	CartID string             `json:"cartId"`
	Lines  []CartLineResponse `json:"lines"`
	Total  string             `json:"total"`
}

type AddToCartRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

func (h *CartHandler) Get(c echo.Context) error {
	v, err := h.svc.Get(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *CartHandler) Add(c echo.Context) error {
	var body AddToCartRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}
	v, err := h.svc.Add(c.Request().Context(), requester(c), body.ItemID, body.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *CartHandler) Remove(c echo.Context) error {
	v, err := h.svc.Remove(c.Request().Context(), requester(c), c.Param("itemId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(v))
}

func toCartResponse(v *service.CartView) CartResponse {
	resp := CartResponse{
		CartID: v.CartID,
		Lines:  make([]CartLineResponse, 0, len(v.Lines)),
		Total:  v.Total.StringFixed(2),
	}
	for i := range v.Lines {
		l := &v.Lines[i]
		resp.Lines = append(resp.Lines, CartLineResponse{
			ItemID:    l.Entry.ItemID,
			Quantity:  l.Entry.Quantity,
			LineTotal: l.LineTotal.StringFixed(2),
			Item:      toItemResponse(&l.Item),
		})
	}
	return resp
}
