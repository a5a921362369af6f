package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/hireflow/internal/domain"
)

var requestValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return v
}

// bind decodes a size-limited JSON body into dst and validates it. Failures are
// returned as *domain.InputError.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return &domain.InputError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			}
		case errors.Is(err, io.EOF):
			return domain.Invalid("body", "is empty")
		default:
			return domain.Invalid("body", "is not valid JSON")
		}
	}

	if err := requestValidator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldError(verrs[0])
		}
		return domain.Invalid("body", err.Error())
	}
	return nil
}

func fieldError(fe validator.FieldError) *domain.InputError {
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}
	switch fe.Tag() {
	case "required":
		return domain.Missing(field)
	case "gte":
		return domain.Invalid(field, "must be greater than or equal to "+fe.Param())
	case "datetime":
		return domain.Invalid(field, "must be a YYYY-MM-DD date")
	default:
		return domain.Invalid(field, "failed "+fe.Tag()+" check")
	}
}
