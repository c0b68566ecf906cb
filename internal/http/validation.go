package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"fxdesk/internal/core"
	"fxdesk/internal/report"
)

// Validator checks request DTOs and reports failures per JSON field.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the decimal and timestamp tags.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
		_, err := core.ParseStrictDecimal(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
		d, err := core.ParseStrictDecimal(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("timestamp", func(fl validator.FieldLevel) bool {
		_, ok := report.ParseTimestamp(fl.Field().String(), time.UTC)
		return ok
	})
	return &Validator{validate: v}
}

// Struct returns field -> message for every failed rule, or nil.
func (v *Validator) Struct(i any) map[string]string {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_global": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = message(e)
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return fmt.Sprintf("Must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", e.Param())
	case "oneof":
		return "Must be one of: " + e.Param()
	case "decimal":
		return "Must be a decimal number"
	case "positive_decimal":
		return "Must be a decimal number greater than zero"
	case "timestamp":
		return "Must be an RFC 3339 timestamp"
	default:
		return fmt.Sprintf("failed validation on '%s'", e.Tag())
	}
}

type transactionRequest struct {
	CreatedAt           string         `json:"created_at" validate:"omitempty,timestamp"`
	CurrencyCode        string         `json:"currency_code" validate:"required,max=10"`
	CurrencyName        string         `json:"currency_name" validate:"max=100"`
	Rate                string         `json:"rate" validate:"required,positive_decimal"`
	Amount              string         `json:"amount" validate:"required,positive_decimal"`
	TotalBase           string         `json:"total_base" validate:"omitempty,decimal"`
	BranchID            string         `json:"branch_id" validate:"max=64"`
	Type                core.Direction `json:"transaction_type" validate:"required,oneof=Buying Selling"`
	CustomerPassportNo  string         `json:"customer_passport_no" validate:"max=64"`
	CustomerNationality string         `json:"customer_nationality" validate:"max=64"`
	CustomerName        string         `json:"customer_name" validate:"max=200"`
}

func (r transactionRequest) toCore() core.Transaction {
	return core.Transaction{
		CreatedAt:           r.CreatedAt,
		CurrencyCode:        r.CurrencyCode,
		CurrencyName:        r.CurrencyName,
		Rate:                r.Rate,
		Amount:              r.Amount,
		TotalBase:           r.TotalBase,
		BranchID:            r.BranchID,
		Type:                r.Type,
		CustomerPassportNo:  r.CustomerPassportNo,
		CustomerNationality: r.CustomerNationality,
		CustomerName:        r.CustomerName,
	}
}

type transactionPatchRequest struct {
	CurrencyCode        *string         `json:"currency_code" validate:"omitempty,min=1,max=10"`
	CurrencyName        *string         `json:"currency_name" validate:"omitempty,max=100"`
	Rate                *string         `json:"rate" validate:"omitempty,positive_decimal"`
	Amount              *string         `json:"amount" validate:"omitempty,positive_decimal"`
	TotalBase           *string         `json:"total_base" validate:"omitempty,decimal"`
	BranchID            *string         `json:"branch_id" validate:"omitempty,max=64"`
	Type                *core.Direction `json:"transaction_type" validate:"omitempty,oneof=Buying Selling"`
	CustomerPassportNo  *string         `json:"customer_passport_no" validate:"omitempty,max=64"`
	CustomerNationality *string         `json:"customer_nationality" validate:"omitempty,max=64"`
	CustomerName        *string         `json:"customer_name" validate:"omitempty,max=200"`
}

func (r transactionPatchRequest) toCore() core.TransactionPatch {
	return core.TransactionPatch{
		CurrencyCode:        r.CurrencyCode,
		CurrencyName:        r.CurrencyName,
		Rate:                r.Rate,
		Amount:              r.Amount,
		TotalBase:           r.TotalBase,
		BranchID:            r.BranchID,
		Type:                r.Type,
		CustomerPassportNo:  r.CustomerPassportNo,
		CustomerNationality: r.CustomerNationality,
		CustomerName:        r.CustomerName,
	}
}

type quoteRequest struct {
	Rate   string `json:"rate" validate:"required,positive_decimal"`
	Amount string `json:"amount" validate:"required,positive_decimal"`
}

type quoteResponse struct {
	Rate   string `json:"rate"`
	Amount string `json:"amount"`
	Total  string `json:"total"`
}
