package presenter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/veilshelf/veilshelf"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg, Code: "not_found"})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// FromError maps a ledger error to its HTTP shape. The Code field is what
// clients dispatch on; the Error field is for humans.
func FromError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, veilshelf.ErrNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, veilshelf.ErrDuplicateID):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "duplicate_id"})
	case errors.Is(err, veilshelf.ErrAlreadyDisclosed):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Code: "already_disclosed"})
	case errors.Is(err, veilshelf.ErrInvalidProof):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_proof"})
	case errors.Is(err, veilshelf.ErrInvalidCiphertext):
		return c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "invalid_ciphertext"})
	case errors.Is(err, veilshelf.ErrEncoding):
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "encoding_error"})
	case errors.Is(err, veilshelf.ErrOracleUnavailable):
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Code: "oracle_unavailable"})
	default:
		return InternalError(c, err)
	}
}
