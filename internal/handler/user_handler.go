package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/repository"
)

type UserHandler struct {
	profiles repository.UserProfileRepository
}

func NewUserHandler(profiles repository.UserProfileRepository) *UserHandler {
	return &UserHandler{profiles: profiles}
}

type PublicUserResponse struct {
	UID         string `json:"uid"`
	DisplayName string `json:"displayName"`
}

type MeResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

// GetPublic exposes only what a buyer needs to know about a seller.
func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := strings.TrimSpace(c.Param("uid"))
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	p, err := h.profiles.FindByID(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	name := p.DisplayName
	if name == "" {
		name, _, _ = strings.Cut(p.Email, "@")
	}
	return c.JSON(http.StatusOK, PublicUserResponse{UID: p.UID, DisplayName: name})
}

func (h *UserHandler) Me(c echo.Context) error {
	req := requester(c)
	if !req.Authenticated() {
		return respondError(c, apperr.ErrUnauthorized)
	}
	p, err := h.profiles.FindByID(c.Request().Context(), req.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, MeResponse{
		UID:         p.UID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		IsAdmin:     req.IsAdmin,
	})
}
