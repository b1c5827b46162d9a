package utils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/arnavkapoor/stitchkart-commerce/internal/errors"
	"github.com/arnavkapoor/stitchkart-commerce/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ParseAndValidate decodes the request body into dst and runs struct
// validation. On failure it writes the error response itself and returns
// false so the handler can simply return.
func ParseAndValidate(w http.ResponseWriter, r *http.Request, dst any, validate *validator.Validate) bool {

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {

		if errors.Is(err, io.EOF) {
			response.Error(w, apperrors.BadRequestError("Request body is required"))
			return false
		}

		response.Error(w, apperrors.BadRequestError("Invalid request body").WithError(err))

		return false
	}

	if err := validate.Struct(dst); err != nil {

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, apperrors.ValidationError("Validation failed").WithError(err))

		return false
	}

	return true
}
