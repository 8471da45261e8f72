package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/maxaizer/ipu-notifier/internal/entities"
)

const maxBodyBytes = 1 << 20

type listRequest struct {
	Tags   []string `json:"tags" validate:"required,min=1,dive,required"`
	Limit  *int     `json:"limit"`
	Offset *int     `json:"offset"`
}

func (r listRequest) pagination() (limit int, offset int) {
	if r.Limit != nil {
		limit = *r.Limit
	}
	if r.Offset != nil {
		offset = *r.Offset
	}
	return limit, offset
}

type refreshRequest struct {
	Refresh *bool `json:"refresh" validate:"required"`
}

var validate = validator.New()

var validationMessages = map[string]string{
	"Tags":    "tags must be a non-empty array of strings",
	"Refresh": "refresh must be a boolean",
}

// decodeRequest reads a JSON body into dst and validates it, failures are *entities.ValidationError.
func decodeRequest(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))

	if err := decoder.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return entities.NewValidationError("", "Invalid JSON payload")
		case errors.As(err, &typeErr):
			return entities.NewValidationError(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
		default:
			return entities.NewValidationError("", "Invalid JSON payload")
		}
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		return toValidationError(validationErrs)
	}
	return nil
}

func toValidationError(errs validator.ValidationErrors) *entities.ValidationError {
	fieldErr := errs[0]

	// dive errors are reported on "Tags[0]"
	field := fieldErr.StructField()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}

	if message, ok := validationMessages[field]; ok {
		return entities.NewValidationError("", message)
	}
	return entities.NewValidationError(strings.ToLower(field), fmt.Sprintf("failed on %q", fieldErr.Tag()))
}
