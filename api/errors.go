package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/roombooking/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`
	RoomID  string              `json:"room_id,omitempty"`
}

// writeError maps domain errors onto status codes. Unexpected errors are
// attached to the context for the access log and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	resp := errorResponse{Status: "error", Message: err.Error()}
	status := http.StatusInternalServerError

	if ve := domain.IsValidationError(err); ve != nil {
		resp.Fields = ve.Fields()
		c.JSON(http.StatusBadRequest, resp)
		return
	}
	if ce := domain.IsCapacityError(err); ce != nil {
		resp.RoomID = ce.RoomID
		c.JSON(http.StatusConflict, resp)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrLocked),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrNoPricing):
		status = http.StatusConflict
	default:
		_ = c.Error(err)
		resp.Message = "internal server error"
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Status: "error", Message: msg})
}
