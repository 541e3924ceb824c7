package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/lifecycle"
	"github.com/shinyyama/campus-market/internal/model"
	"github.com/shinyyama/campus-market/internal/repository"
	"github.com/shinyyama/campus-market/internal/service"
	"github.com/shopspring/decimal"
)

type ItemHandler struct {
	svc       service.ItemService
	lifecycle service.LifecycleService
}

func NewItemHandler(svc service.ItemService, lc service.LifecycleService) *ItemHandler {
	return &ItemHandler{svc: svc, lifecycle: lc}
}

type ItemResponse struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Price             string   `json:"price"`
	Category          string   `json:"category"`
	Condition         string   `json:"condition"`
	Status            string   `json:"status"`
	SellerID          string   `json:"sellerId"`
	BuyerID           *string  `json:"buyerId,omitempty"`
	Images            []string `json:"images"`
	CollectionAddress string   `json:"collectionAddress,omitempty"`
	ModerationNote    string   `json:"moderationNote,omitempty"`
	CollectedAt       *string  `json:"collectedAt,omitempty"`
	CreatedAt         string   `json:"createdAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Total int64          `json:"total"`
}

// TransitionResponse tells the caller how the cart cleanup went.
type TransitionResponse struct {
	Item        ItemResponse `json:"item"`
	CartsPurged int64        `json:"cartsPurged"`
	PurgeError  string       `json:"purgeError,omitempty"`
}

type CreateItemRequest struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Price             decimal.Decimal `json:"price"`
	Category          string          `json:"category"`
	Condition         string          `json:"condition"`
	Images            []string        `json:"images"`
	CollectionAddress string          `json:"collectionAddress"`
}

type UpdateItemRequest struct {
	Title             *string          `json:"title"`
	Description       *string          `json:"description"`
	Price             *decimal.Decimal `json:"price"`
	Category          *string          `json:"category"`
	Condition         *string          `json:"condition"`
	Images            *[]string        `json:"images"`
	CollectionAddress *string          `json:"collectionAddress"`
}

func (h *ItemHandler) Create(c echo.Context) error {
	var req CreateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	item, err := h.svc.Create(c.Request().Context(), requester(c), service.CreateItemInput{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		Category:          req.Category,
		Condition:         req.Condition,
		Images:            req.Images,
		CollectionAddress: req.CollectionAddress,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toItemResponse(item))
}

func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.svc.Get(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) Update(c echo.Context) error {
	var req UpdateItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	item, err := h.svc.Update(c.Request().Context(), requester(c), c.Param("id"), service.UpdateItemInput{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		Category:          req.Category,
		Condition:         req.Condition,
		Images:            req.Images,
		CollectionAddress: req.CollectionAddress,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemResponse(item))
}

func (h *ItemHandler) Delete(c echo.Context) error {
	res, err := h.svc.Delete(c.Request().Context(), requester(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toDeleteResponse(res))
}

func (h *ItemHandler) List(c echo.Context) error {
	f, err := parseItemFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	page, err := h.svc.List(c.Request().Context(), requester(c), service.ListItemsInput{Filter: f, Query: c.QueryParam("q")})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemList(page))
}

// ListMine lists the caller's own listings in every status.
func (h *ItemHandler) ListMine(c echo.Context) error {
	f, err := parseItemFilter(c)
	if err != nil {
		return respondError(c, err)
	}
	req := requester(c)
	f.SellerID = req.ID
	page, err := h.svc.List(c.Request().Context(), req, service.ListItemsInput{Filter: f, Query: c.QueryParam("q")})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toItemList(page))
}

func (h *ItemHandler) Submit(c echo.Context) error {
	res, err := h.lifecycle.Submit(c.Request().Context(), requester(c), c.Param("id"))
	return h.transitioned(c, res, err)
}

func (h *ItemHandler) Withdraw(c echo.Context) error {
	res, err := h.lifecycle.Withdraw(c.Request().Context(), requester(c), c.Param("id"))
	return h.transitioned(c, res, err)
}

func (h *ItemHandler) Unlist(c echo.Context) error {
	res, err := h.lifecycle.Unlist(c.Request().Context(), requester(c), c.Param("id"))
	return h.transitioned(c, res, err)
}

func (h *ItemHandler) Collect(c echo.Context) error {
	res, err := h.lifecycle.Collect(c.Request().Context(), requester(c), c.Param("id"))
	return h.transitioned(c, res, err)
}

func (h *ItemHandler) transitioned(c echo.Context, res *service.TransitionResult, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toTransitionResponse(res))
}

func parseItemFilter(c echo.Context) (repository.ItemFilter, error) {
	f := repository.ItemFilter{
		SellerID: c.QueryParam("sellerId"),
		BuyerID:  c.QueryParam("buyerId"),
		Sort:     repository.ItemSort(c.QueryParam("sort")),
		Limit:    queryInt(c, "limit"),
		Offset:   queryInt(c, "offset"),
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &f.MinPrice, "maxPrice": &f.MaxPrice} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, validationf("%s must be a number", name)
		}
		*dst = &d
	}
	if raw := c.QueryParam("category"); raw != "" {
		cat, err := model.ParseCategory(raw)
		if err != nil {
			return f, err
		}
		f.Category = cat
	}
	if raw := c.QueryParam("condition"); raw != "" {
		cond, err := model.ParseCondition(raw)
		if err != nil {
			return f, err
		}
		f.Condition = cond
	}
	if raw := c.QueryParam("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			st, err := lifecycle.ParseAny(part)
			if err != nil {
				return f, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	return f, nil
}

func toItemResponse(item *model.Item) ItemResponse {
	resp := ItemResponse{
		ID:                item.ID,
		Title:             item.Title,
		Description:       item.Description,
		Price:             item.Price.StringFixed(2),
		Category:          string(item.Category),
		Condition:         string(item.Condition),
		Status:            item.Status.String(),
		SellerID:          item.SellerID,
		BuyerID:           item.BuyerID,
		Images:            item.ImageRefs(),
		CollectionAddress: item.CollectionAddress,
		ModerationNote:    item.ModerationNote,
		CreatedAt:         item.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         item.UpdatedAt.Format(time.RFC3339),
	}
	if item.CollectedAt != nil {
		s := item.CollectedAt.Format(time.RFC3339)
		resp.CollectedAt = &s
	}
	return resp
}

func toItemList(page *service.ItemPage) ItemListResponse {
	resp := ItemListResponse{
		Items: make([]ItemResponse, 0, len(page.Items)),
		Total: page.Total,
	}
	for i := range page.Items {
		resp.Items = append(resp.Items, toItemResponse(&page.Items[i]))
	}
	return resp
}

func toTransitionResponse(res *service.TransitionResult) TransitionResponse {
	out := TransitionResponse{Item: toItemResponse(res.Item), CartsPurged: res.CartsPurged}
	if res.PurgeErr != nil {
		out.PurgeError = res.PurgeErr.Error()
	}
	return out
}

type DeleteResponse struct {
	ID          string `json:"id"`
	Deleted     bool   `json:"deleted"`
	CartsPurged int64  `json:"cartsPurged"`
	PurgeError  string `json:"purgeError,omitempty"`
	ImageError  string `json:"imageError,omitempty"`
}

func toDeleteResponse(res *service.DeleteResult) DeleteResponse {
	out := DeleteResponse{ID: res.ItemID, Deleted: true, CartsPurged: res.CartsPurged}
	if res.PurgeErr != nil {
		out.PurgeError = res.PurgeErr.Error()
	}
	if res.ImageErr != nil {
		out.ImageError = res.ImageErr.Error()
	}
	return out
}
