package postboard

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ApiError struct {
	Status    int    `json:"-"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

var (
	ErrBadRequest = ApiError{Status: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: "%s"}
	ErrNotFound   = ApiError{Status: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: "%s"}
)

// New fills the Message template with messages.
func (e ApiError) New(messages ...string) ApiError {
	args := make([]any, len(messages))
	for i, msg := range messages {
		args[i] = msg
	}

	message := fmt.Sprintf(e.Message, args...)
	return ApiError{
		Status:    e.Status,
		ErrorCode: e.ErrorCode,
		Message:   message,
	}
}

func (e ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

type ErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// SendError writes err as an ErrorResponse. An ApiError keeps its status,
// 400 when unset; anything else is a 500 with a generic message.
func SendError(c *gin.Context, err error) {
	_ = c.Error(err)

	var customErr ApiError
	if errors.As(err, &customErr) {
		status := customErr.Status
		if status == 0 {
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{
			ErrorCode: customErr.ErrorCode,
			Message:   customErr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		ErrorCode: "INTERNAL_SERVER_ERROR",
		Message:   "An unknown error occurred",
	})
}
