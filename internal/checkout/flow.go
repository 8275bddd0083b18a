package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/GabrielMhv/D-Market-sub000/internal/order"
)

type Step string

const (
	StepDeliveryDetails     Step = "delivery_details"
	StepPaymentConfirmation Step = "payment_confirmation"
)

var ErrInvalidDetails = errors.New("invalid delivery details")

// Details is the delivery form of the first step.
type Details struct {
	Name    string `json:"name" validate:"notblank"`
	Phone   string `json:"phone" validate:"phone"`
	Address string `json:"address" validate:"notblank"`
	City    string `json:"city" validate:"notblank"`
	Country string `json:"country,omitempty"`
}

func (d Details) DeliveryAddress() order.DeliveryAddress {
	return order.DeliveryAddress{
		Name:    strings.TrimSpace(d.Name),
		Phone:   strings.Join(strings.Fields(d.Phone), ""),
		Address: strings.TrimSpace(d.Address),
		City:    strings.TrimSpace(d.City),
		Country: strings.TrimSpace(d.Country),
	}
}

// ValidationError carries one message per invalid field, keyed by JSON name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid delivery details: %s", strings.Join(names, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDetails
}

var fieldMessages = map[string]string{
	"name":    "Name is required",
	"phone":   "Phone must contain at least 8 digits",
	"address": "Address is required",
	"city":    "City is required",
}

const minPhoneDigits = 8

// validPhone accepts digits only, at least minPhoneDigits of them once
// whitespace is removed.
func validPhone(fl validator.FieldLevel) bool {
	digits := 0
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsSpace(r):
		case r >= '0' && r <= '9':
			digits++
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

// notBlank rejects empty and whitespace-only input.
func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
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
	_ = v.RegisterValidation("phone", validPhone)
	_ = v.RegisterValidation("notblank", notBlank)
	return v
}

var detailsValidator = newValidator()

// Validate checks every field and reports all failures at once.
func (d Details) Validate() error {
	err := detailsValidator.Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidDetails, err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
		}
		fields[fe.Field()] = msg
	}
	return &ValidationError{Fields: fields}
}

// Flow is the two-step checkout state of one session.
type Flow struct {
	Step    Step    `json:"step"`
	Details Details `json:"details"`
}

func NewFlow() *Flow {
	return &Flow{Step: StepDeliveryDetails}
}

// SubmitDetails moves to payment confirmation when d is valid. An invalid
// form leaves the flow untouched.
func (f *Flow) SubmitDetails(d Details) error {
	if f.Step != StepDeliveryDetails {
		return ErrWrongStep
	}
	if err := d.Validate(); err != nil {
		return err
	}
	f.Details = d
	f.Step = StepPaymentConfirmation
	return nil
}

// Back returns to the details step, keeping what was entered.
func (f *Flow) Back() error {
	if f.Step != StepPaymentConfirmation {
		return ErrWrongStep
	}
	f.Step = StepDeliveryDetails
	return nil
}

func (f *Flow) Reset() {
	f.Step = StepDeliveryDetails
	f.Details = Details{}
}
