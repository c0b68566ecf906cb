package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTransaction() Transaction {
	return Transaction{
		CurrencyName: "US Dollar",
		CurrencyCode: "USD",
		Rate:         "35.5",
		Amount:       "100",
		TotalBase:    "3550",
		BranchID:     "A",
		Type:         Buying,
	}
}

func TestTransactionValidate(t *testing.T) {
	require.NoError(t, validTransaction().Validate())

	noTotal := validTransaction()
	noTotal.TotalBase = ""
	assert.NoError(t, noTotal.Validate())

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty currency", func(tx *Transaction) { tx.CurrencyCode = "  " }, ErrEmptyCurrency},
		{"bad direction", func(tx *Transaction) { tx.Type = "Swap" }, ErrInvalidDirection},
		{"zero rate", func(tx *Transaction) { tx.Rate = "0" }, ErrInvalidRate},
		{"text rate", func(tx *Transaction) { tx.Rate = "abc" }, ErrInvalidRate},
		{"negative amount", func(tx *Transaction) { tx.Amount = "-5" }, ErrInvalidAmount},
		{"bad total", func(tx *Transaction) { tx.TotalBase = "x" }, ErrInvalidTotal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := validTransaction()
			tc.mutate(&tx)
			assert.ErrorIs(t, tx.Validate(), tc.want)
		})
	}
}

func TestDirection(t *testing.T) {
	assert.True(t, Buying.Valid())
	assert.True(t, Selling.Valid())
	assert.False(t, Direction("buying").Valid())
	assert.True(t, Buying.IsBuying())
	assert.False(t, Direction("").IsBuying())
}

func TestTransactionPatchApply(t *testing.T) {
	assert.True(t, TransactionPatch{}.Empty())

	rate := "36"
	dir := Selling
	patch := TransactionPatch{Rate: &rate, Type: &dir}
	assert.False(t, patch.Empty())

	got := patch.Apply(validTransaction())
	assert.Equal(t, "36", got.Rate)
	assert.Equal(t, Selling, got.Type)
	assert.Equal(t, "100", got.Amount)
	assert.Equal(t, "USD", got.CurrencyCode)
}
