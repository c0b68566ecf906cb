package core

import (
	"errors"
	"strings"
)

const (
	Buying  Direction = "Buying"
	Selling Direction = "Selling"
)

// UnknownKey replaces an absent branch id or currency code in every summary.
const UnknownKey = "Unknown"

type (
	// Direction tells whether the desk bought foreign currency from a customer
	// or sold it to one.
	Direction string

	// Transaction is a single exchange record as stored and served by the API.
	// Numeric fields stay in their textual form; parsing happens once, at the
	// reporting boundary.
	Transaction struct {
		ID                  int64     `json:"id,omitempty"`
		CreatedAt           string    `json:"created_at,omitempty"`
		CurrencyName        string    `json:"currency_name"`
		CurrencyCode        string    `json:"currency_code"`
		Rate                string    `json:"rate"`
		Amount              string    `json:"amount"`
		TotalBase           string    `json:"total_base"`
		BranchID            string    `json:"branch_id,omitempty"`
		Type                Direction `json:"transaction_type"`
		CustomerPassportNo  string    `json:"customer_passport_no,omitempty"`
		CustomerNationality string    `json:"customer_nationality,omitempty"`
		CustomerName        string    `json:"customer_name,omitempty"`
	}

	// TransactionPatch carries a partial update; nil fields are left untouched.
	TransactionPatch struct {
		CurrencyName        *string    `json:"currency_name,omitempty"`
		CurrencyCode        *string    `json:"currency_code,omitempty"`
		Rate                *string    `json:"rate,omitempty"`
		Amount              *string    `json:"amount,omitempty"`
		TotalBase           *string    `json:"total_base,omitempty"`
		BranchID            *string    `json:"branch_id,omitempty"`
		Type                *Direction `json:"transaction_type,omitempty"`
		CustomerPassportNo  *string    `json:"customer_passport_no,omitempty"`
		CustomerNationality *string    `json:"customer_nationality,omitempty"`
		CustomerName        *string    `json:"customer_name,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("invalid rate")
	ErrInvalidTotal     = errors.New("invalid total")
	ErrInvalidDirection = errors.New("invalid transaction type")
	ErrEmptyCurrency    = errors.New("empty currency code")
	ErrNotFound         = errors.New("transaction not found")
	ErrEmptyPatch       = errors.New("nothing to update")
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == Buying || d == Selling
}

// IsBuying is true only for Buying; anything else lands in the selling bucket.
func (d Direction) IsBuying() bool {
	return d == Buying
}

// Validate checks a transaction before it is written. Reports never call it:
// stored records are summarized as they are.
func (t Transaction) Validate() error {
	code := strings.TrimSpace(t.CurrencyCode)
	if code == "" {
		return ErrEmptyCurrency
	}
	if len(code) > 10 {
		return errors.New("currency code too long (max 10 characters)")
	}
	if len(t.CurrencyName) > 100 {
		return errors.New("currency name too long (max 100 characters)")
	}
	if !t.Type.Valid() {
		return ErrInvalidDirection
	}
	if rate, err := ParseStrictDecimal(t.Rate); err != nil || !rate.IsPositive() {
		return ErrInvalidRate
	}
	if amount, err := ParseStrictDecimal(t.Amount); err != nil || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.TotalBase) != "" {
		if _, err := ParseStrictDecimal(t.TotalBase); err != nil {
			return ErrInvalidTotal
		}
	}
	if len(t.BranchID) > 64 {
		return errors.New("branch id too long (max 64 characters)")
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (p TransactionPatch) Empty() bool {
	return p.CurrencyName == nil && p.CurrencyCode == nil && p.Rate == nil &&
		p.Amount == nil && p.TotalBase == nil && p.BranchID == nil && p.Type == nil &&
		p.CustomerPassportNo == nil && p.CustomerNationality == nil && p.CustomerName == nil
}

// Apply returns a copy of t with the patch fields written over it.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.CurrencyName, p.CurrencyName)
	set(&t.CurrencyCode, p.CurrencyCode)
	set(&t.Rate, p.Rate)
	set(&t.Amount, p.Amount)
	set(&t.TotalBase, p.TotalBase)
	set(&t.BranchID, p.BranchID)
	set(&t.CustomerPassportNo, p.CustomerPassportNo)
	set(&t.CustomerNationality, p.CustomerNationality)
	set(&t.CustomerName, p.CustomerName)
	if p.Type != nil {
		t.Type = *p.Type
	}
	return t
}
