package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "github.com/feral-file/ff-token-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
)

// respondBadRequest responds with a bad request error
func respondBadRequest(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError(message, details...))
}

// respondNotFound responds with a not found error
func respondNotFound(c *gin.Context, message string, details ...string) {
	c.JSON(http.StatusNotFound, apierrors.NewNotFoundError(message, details...))
}

// respondValidationError responds with a validation error
func respondValidationError(c *gin.Context, details string) {
	c.JSON(http.StatusUnprocessableEntity, apierrors.NewValidationError(details))
}

// respondInternalError responds with an internal server error and logs it
func respondInternalError(c *gin.Context, err error, message string) {
	logger.Error(err, zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, apierrors.NewInternalError(message))
}

// respondLedgerError maps a ledger operation error to an HTTP response.
// Authorization and gate refusals are 403, unknown classes 404, balance
// shortfalls 409, malformed operations 400, anything else 500.
func respondLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotAdministrator):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Caller is not authorized for this operation", err.Error()))
	case errors.Is(err, domain.ErrTransfersDisabled):
		c.JSON(http.StatusForbidden, apierrors.NewForbiddenError("Transfers are disabled", err.Error()))
	case errors.Is(err, domain.ErrUnknownTokenClass):
		c.JSON(http.StatusNotFound, apierrors.NewNotFoundError("Unknown token class", err.Error()))
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.JSON(http.StatusConflict, apierrors.NewConflictError("Insufficient balance", err.Error()))
	case errors.Is(err, domain.ErrArrayLengthMismatch),
		errors.Is(err, domain.ErrArithmeticOverflow),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, apierrors.NewBadRequestError("Invalid operation", err.Error()))
	default:
		respondInternalError(c, err, "Operation failed")
	}
}
