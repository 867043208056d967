package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCurrency(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"$", USD, true},
		{"USD", USD, true},
		{"руб", RUB, true},
		{"рублей", RUB, true},
		{"₽", RUB, true},
		{"Руб.", RUB, true},
		{"грн", UAH, true},
		{"тенге", KZT, true},
		{"лари", GEL, true},
		{"драм", AMD, true},
		{"сом", KGS, true},
		{"€", EUR, true},
		{"kofe", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := ResolveCurrency(tt.token)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Run("dot separator", func(t *testing.T) {
		d, err := ParseAmount("4.5")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("4.5")))
	})

	t.Run("comma separator", func(t *testing.T) {
		d, err := ParseAmount("4,5")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.RequireFromString("4.5")))
	})

	t.Run("no drift on long decimals", func(t *testing.T) {
		d, err := ParseAmount("199.99")
		require.NoError(t, err)
		assert.Equal(t, "199.99", d.String())
	})

	t.Run("spaces stripped", func(t *testing.T) {
		d, err := ParseAmount("25 000")
		require.NoError(t, err)
		assert.True(t, d.Equal(decimal.NewFromInt(25000)))
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseAmount("abc")
		assert.Error(t, err)
	})
}

func TestValidRange(t *testing.T) {
	assert.True(t, ValidRange(decimal.NewFromInt(200)))
	assert.True(t, ValidRange(decimal.RequireFromString("0.01")))
	assert.False(t, ValidRange(decimal.Zero))
	assert.False(t, ValidRange(decimal.NewFromInt(-5)))
	assert.False(t, ValidRange(decimal.New(1, 9)))
	assert.False(t, ValidRange(decimal.New(2, 9)))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$12.50", Display(decimal.RequireFromString("12.5"), "USD"))
	assert.NotEmpty(t, Display(decimal.NewFromInt(200), "RUB"))
	// Unknown code degrades to a plain suffix form.
	assert.Equal(t, "7 ZZZ", Display(decimal.NewFromInt(7), "zzz"))
}
