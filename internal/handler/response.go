package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
	appmw "github.com/shinyyama/campus-market/internal/middleware"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Store and unknown failures are
// logged and answered with a generic message.
func respondError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request().Method, c.Path(), err)
		msg = http.StatusText(status)
	}
	return c.JSON(status, NewErrorResponse(apperr.Code(err), msg))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", message))
}

func requester(c echo.Context) identity.Requester {
	return appmw.Requester(c)
}

func queryInt(c echo.Context, name string) int {
	v, _ := strconv.Atoi(c.QueryParam(name))
	return v
}

func validationf(format string, args ...interface{}) error {
	return apperr.Validation(format, args...)
}
