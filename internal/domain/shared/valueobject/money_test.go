package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_Format(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "₦0"},
		{100, "₦100"},
		{1000, "₦1,000"},
		{2500000, "₦2,500,000"},
		{-500, "-₦500"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, NGN.Format(tt.amount))
		})
	}
}

func TestCurrency_FormatDecimal(t *testing.T) {
	assert.Equal(t, "₦1,500", NGN.FormatDecimal(decimal.NewFromInt(1500)))
	assert.Equal(t, "₦1,500.50", NGN.FormatDecimal(decimal.RequireFromString("1500.5")))
}

func TestNewCurrency(t *testing.T) {
	c, err := NewCurrency("usd", "$", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "USD", c.Code)
	assert.Equal(t, "$1,234", c.Format(1234))

	_, err = NewCurrency("", "₦", "en-NG")
	assert.Error(t, err)

	_, err = NewCurrency("NGN", "₦", "not a locale!")
	assert.Error(t, err)

	c, err = NewCurrency("ngn", "", "")
	require.NoError(t, err)
	assert.Equal(t, "NGN 10", c.Format(10))
}

func TestAmountRange(t *testing.T) {
	r := NewAmountRange(100, 500000)
	assert.True(t, r.Contains(decimal.NewFromInt(100)))
	assert.True(t, r.Contains(decimal.NewFromInt(500000)))
	assert.False(t, r.Contains(decimal.NewFromInt(99)))
	assert.False(t, r.Contains(decimal.NewFromInt(500001)))

	open := NewAmountRange(50, 0)
	assert.True(t, open.Contains(decimal.NewFromInt(1000000)))
	assert.Equal(t, "at least ₦50", open.Describe(NGN))

	narrowed := r.Intersect(NewAmountRange(1000, 20000))
	assert.True(t, narrowed.Min.Equal(decimal.NewFromInt(1000)))
	assert.True(t, narrowed.Max.Equal(decimal.NewFromInt(20000)))
	assert.Equal(t, "between ₦1,000 and ₦20,000", narrowed.Describe(NGN))
}
