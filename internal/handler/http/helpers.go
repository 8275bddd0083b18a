package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/address"
	"github.com/GabrielMhv/D-Market-sub000/internal/cart"
	"github.com/GabrielMhv/D-Market-sub000/internal/checkout"
	"github.com/GabrielMhv/D-Market-sub000/internal/media"
	"github.com/GabrielMhv/D-Market-sub000/internal/order"
	"github.com/GabrielMhv/D-Market-sub000/internal/payment"
	"github.com/GabrielMhv/D-Market-sub000/internal/product"
	"github.com/GabrielMhv/D-Market-sub000/internal/settings"
	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

var (
	errUnauthorized = errors.New("authentication required")
	errForbidden    = errors.New("admin role required")
	errBadRequest   = errors.New("bad request")
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondValidation(w http.ResponseWriter, details map[string]string) {
	respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
		Error:   "Validation failed",
		Details: details,
	})
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func formatValidationErrors(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "This field is required"
		case "email":
			details[fe.Field()] = "Invalid email format"
		case "min":
			details[fe.Field()] = fmt.Sprintf("Must be at least %s", fe.Param())
		case "max":
			details[fe.Field()] = fmt.Sprintf("Must be at most %s", fe.Param())
		case "gt":
			details[fe.Field()] = fmt.Sprintf("Must be greater than %s", fe.Param())
		case "gte":
			details[fe.Field()] = fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
		case "oneof":
			details[fe.Field()] = fmt.Sprintf("Must be one of: %s", fe.Param())
		case "uuid4", "uuid":
			details[fe.Field()] = "Must be a valid UUID"
		default:
			details[fe.Field()] = fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
		}
	}
	return details
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		return err
	}
	return nil
}

// decodeAndValidate reads a JSON body into dst and runs struct validation,
// writing the 400 response itself when either step fails.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst interface{}) bool {
	if err := decodeJSON(r, dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			respondValidation(w, formatValidationErrors(validationErrors))
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}
	return true
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrInvalidDetails),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidOrder),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, address.ErrInvalidAddress),
		errors.Is(err, settings.ErrInvalidSettings),
		errors.Is(err, product.ErrInvalidProduct),
		errors.Is(err, user.ErrInvalidUser),
		errors.Is(err, media.ErrNotImage),
		errors.Is(err, media.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnauthorized),
		errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, user.ErrInvalidToken),
		errors.Is(err, user.ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, errForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, address.ErrAddressNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, address.ErrDefaultAddressInUse),
		errors.Is(err, order.ErrInvalidStatusTransition),
		errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrSubmitInProgress):
		return http.StatusConflict
	case errors.Is(err, payment.ErrGateway),
		errors.Is(err, checkout.ErrPaymentFailed):
		return http.StatusBadGateway
	case errors.Is(err, media.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError answers client errors with the error text and
// server-side failures with fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", code).Msg(fallback)
		respondWithError(w, code, fallback)
		return
	}
	respondWithError(w, code, err.Error())
}
