package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosalbertonunes2035/menusummo-checkout/internal/domain/pricing"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLedger_Add(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	l := NewLedger()
	l.now = func() time.Time { return fixedNow }

	require.NoError(t, l.Add(MethodCash, dec("50.00")))
	require.NoError(t, l.Add(MethodCard, dec("25.50")))

	require.ErrorIs(t, l.Add(MethodCash, dec("0")), ErrNonPositiveAmount)
	require.ErrorIs(t, l.Add(MethodCash, dec("-5")), ErrNonPositiveAmount)

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, MethodCash, txs[0].Method)
	assert.Equal(t, fixedNow, txs[0].At)
	assert.True(t, dec("75.50").Equal(l.TotalPaid()))
}

func TestLedger_Remove(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(MethodCash, dec("10")))
	require.NoError(t, l.Add(MethodCard, dec("20")))
	require.NoError(t, l.Add(MethodPix, dec("30")))

	require.NoError(t, l.Remove(1))

	txs := l.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, MethodCash, txs[0].Method)
	assert.Equal(t, MethodPix, txs[1].Method)
	assert.True(t, dec("40").Equal(l.TotalPaid()))

	require.ErrorIs(t, l.Remove(5), ErrIndexOutOfRange)
	require.ErrorIs(t, l.Remove(-1), ErrIndexOutOfRange)
}

func TestLedger_Clamping(t *testing.T) {
	tests := []struct {
		name          string
		paid          string
		total         string
		wantRemaining string
		wantChange    string
	}{
		{"underpaid", "60", "100", "40", "0"},
		{"settled exactly", "100", "100", "0", "0"},
		{"overpaid", "150", "100", "0", "50"},
		{"nothing paid", "0", "100", "100", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			if tt.paid != "0" {
				require.NoError(t, l.Add(MethodCash, dec(tt.paid)))
			}
			total := dec(tt.total)

			assert.True(t, dec(tt.wantRemaining).Equal(l.RemainingDue(total)),
				"remaining: expected %s, got %s", tt.wantRemaining, l.RemainingDue(total))
			assert.True(t, dec(tt.wantChange).Equal(l.ChangeDue(total)),
				"change: expected %s, got %s", tt.wantChange, l.ChangeDue(total))
		})
	}
}

func TestLedger_CanFinalize(t *testing.T) {
	total := dec("100.00")

	t.Run("dine-in blocks while unsettled", func(t *testing.T) {
		l := NewLedger()
		require.NoError(t, l.Add(MethodCash, dec("50")))

		assert.False(t, l.CanFinalize(pricing.FulfillmentDineIn, total))
	})

	t.Run("dine-in allows within the settle tolerance", func(t *testing.T) {
		l := NewLedger()
		require.NoError(t, l.Add(MethodCash, dec("99.99")))

		assert.True(t, l.CanFinalize(pricing.FulfillmentDineIn, total))
	})

	t.Run("delivery may finalize with an open tab balance", func(t *testing.T) {
		l := NewLedger()
		require.NoError(t, l.Add(MethodTab, dec("10")))

		assert.True(t, l.CanFinalize(pricing.FulfillmentDelivery, total))
	})

	t.Run("takeout may finalize unpaid", func(t *testing.T) {
		l := NewLedger()
		assert.True(t, l.CanFinalize(pricing.FulfillmentTakeout, total))
	})
}
