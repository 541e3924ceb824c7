package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/service"
)

type RevenueHandler struct {
	svc service.RevenueService
}

func NewRevenueHandler(svc service.RevenueService) *RevenueHandler {
	return &RevenueHandler{svc: svc}
}

type RevenueResponse struct {
	Sales              int    `json:"sales"`
	Collected          int    `json:"collected"`
	Gross              string `json:"gross"`
	AwaitingCollection string `json:"awaitingCollection"`
}

func (h *RevenueHandler) Get(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context(), requester(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, RevenueResponse{
		Sales:              sum.Sales,
		Collected:          sum.Collected,
		Gross:              sum.Gross.StringFixed(2),
		AwaitingCollection: sum.AwaitingCollection.StringFixed(2),
	})
}
