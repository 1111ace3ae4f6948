package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidInput   = "invalid input data"
	msgInvalidDate    = "invalid date format. Use yyyy-MM-dd HH:mm:ss"
	msgUnreadableBody = "malformed request body"
	msgUnexpected     = "an unexpected error occurred"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Timestamp string   `json:"timestamp" example:"2026-10-17T10:30:00"`
	Status    int      `json:"status" example:"400"`
	Error     string   `json:"error" example:"VALIDATION_ERROR"`
	Message   string   `json:"message" example:"invalid input data"`
	Details   []string `json:"details"`
	Path      string   `json:"path" example:"/predict"`
}

func newErrorResponse(c *gin.Context, now time.Time, err error) (int, ErrorResponse) {
	kind := domain.KindOf(err)
	resp := ErrorResponse{
		Timestamp: now.Format(isoLocalLayout),
		Status:    kind.HTTPStatus(),
		Error:     kind.Code(),
		Message:   msgUnexpected,
		Details:   []string{},
		Path:      c.Request.URL.Path,
	}

	var derr *domain.Error
	if errors.As(err, &derr) && kind != domain.KindUnexpected {
		resp.Message = derr.Message
		if len(derr.Details) > 0 {
			resp.Details = derr.Details
		}
	}
	return resp.Status, resp
}

// bindError turns a ShouldBindJSON failure into a domain error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fieldMessage(fe))
		}
		return &domain.Error{Kind: domain.KindValidation, Message: msgInvalidInput, Details: details, Err: err}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field == "fechaPartida" {
		return dateError(err)
	}
	return &domain.Error{Kind: domain.KindInvalidRequest, Message: msgUnreadableBody, Details: []string{}, Err: err}
}

func dateError(err error) error {
	return &domain.Error{Kind: domain.KindInvalidRequest, Message: msgInvalidDate, Details: []string{"fechaPartida"}, Err: err}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return field + " must have exactly " + fe.Param() + " characters"
	case "alpha":
		return field + " must contain only letters"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case tagDistance:
		return field + " must have at most 7 integer digits and 2 decimals"
	default:
		return field + " is invalid"
	}
}
