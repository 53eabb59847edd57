package handlers

import (
	"errors"
	"net/http"
	"os"

	"netbilling-sim/internal/api/models"
	"netbilling-sim/internal/data"
	"netbilling-sim/internal/simulate"
	"netbilling-sim/internal/store"

	"github.com/gin-gonic/gin"
)

// requestError marks a failure caused by the shape of the request itself.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

func respond(c *gin.Context, status int, code, message string, details map[string]any) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondError maps a failure onto the error envelope.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var reqErr *requestError
	var missing *data.MissingColumnsError
	var dateErr *data.DateError
	switch {
	case errors.As(err, &reqErr):
		respond(c, http.StatusBadRequest, models.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, simulate.ErrInvalidInputs):
		respond(c, http.StatusBadRequest, models.CodeInvalidInputs, err.Error(), nil)
	case errors.As(err, &missing):
		respond(c, http.StatusUnprocessableEntity, models.CodeMissingColumns, err.Error(),
			map[string]any{"columns": missing.Columns})
	case errors.As(err, &dateErr):
		respond(c, http.StatusUnprocessableEntity, models.CodeDateError, err.Error(), nil)
	case errors.Is(err, data.ErrNoRows):
		respond(c, http.StatusUnprocessableEntity, models.CodeDateError, err.Error(), nil)
	case errors.Is(err, store.ErrNotFound), errors.Is(err, os.ErrNotExist):
		respond(c, http.StatusNotFound, models.CodeNotFound, err.Error(), nil)
	default:
		respond(c, http.StatusInternalServerError, models.CodeSimulationError, err.Error(), nil)
	}
}
