package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"kanmind/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator"
)

const (
	msgRequired     = "This field is required."
	msgInvalidEmail = "Enter a valid email address."
	msgInvalidJSON  = "JSON parse error."
	msgInvalidDate  = "Date has wrong format. Use one of these formats instead: YYYY-MM-DD."
	msgInternal     = "A server error occurred."
)

// newValidator reports fields under their JSON names.
func newValidator() *validator.Validate {
	valid := validator.New()
	valid.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return valid
}

// validationErrorToErrorResponse converts struct validation failures into a
// field map.
func validationErrorToErrorResponse(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(errors.NonFieldKey, err.Error())
	}
	v := &errors.ValidationError{}
	for _, verr := range verrs {
		switch verr.Tag() {
		case "required":
			v.Add(verr.Field(), msgRequired)
		case "email":
			v.Add(verr.Field(), msgInvalidEmail)
		case "max":
			v.Add(verr.Field(), fmt.Sprintf("Ensure this field has no more than %s characters.", verr.Param()))
		case "min":
			v.Add(verr.Field(), fmt.Sprintf("Ensure this field has at least %s characters.", verr.Param()))
		default:
			v.Add(verr.Field(), "Invalid value.")
		}
	}
	return v
}

// bindErrorToErrorResponse turns a JSON decoding failure into a field error
// when the offending field is known.
func bindErrorToErrorResponse(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return errors.NewValidationError(typeErr.Field, fmt.Sprintf("Incorrect type. Expected %s.", typeErr.Type.Kind()))
	}
	var dateErr *time.ParseError
	if errors.As(err, &dateErr) {
		return errors.NewValidationError("due_date", msgInvalidDate)
	}
	return errors.NewValidationError(errors.NonFieldKey, msgInvalidJSON)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errors.ErrValidationFailed):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// errorBody renders a validation error as its field map, collapsing a lone
// non-field message to {"detail": "..."}.
func errorBody(err error, status int) any {
	var v *errors.ValidationError
	if errors.As(err, &v) {
		if msgs, ok := v.Fields[errors.NonFieldKey]; ok && len(v.Fields) == 1 && len(msgs) == 1 {
			return gin.H{"detail": msgs[0]}
		}
		return v.Fields
	}
	switch status {
	case http.StatusUnauthorized:
		return gin.H{"detail": "Authentication credentials were not provided."}
	case http.StatusForbidden:
		return gin.H{"detail": "You do not have permission to perform this action."}
	case http.StatusNotFound:
		return gin.H{"detail": "Not found."}
	case http.StatusTooManyRequests:
		return gin.H{"detail": "Request was throttled."}
	}
	return gin.H{"detail": msgInternal}
}

func (api *API) writeError(ctx *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		api.logger.Error("request failed",
			"method", ctx.Request.Method,
			"path", ctx.Request.URL.Path,
			"error", err,
		)
	}
	ctx.AbortWithStatusJSON(status, errorBody(err, status))
}
