package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimal_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"json number", `50000000.12345678`, "50000000.12345678"},
		{"quoted string", `"50000000.12345678"`, "50000000.12345678"},
		{"integer", `42`, "42"},
		{"negative", `"-0.00000001"`, "-0.00000001"},
		{"zero", `0`, "0"},
		{"null", `null`, "0"},
		{"empty string", `""`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Decimal
			err := d.UnmarshalJSON([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDecimal_UnmarshalJSON_Invalid(t *testing.T) {
	var d Decimal
	err := d.UnmarshalJSON([]byte(`"not a number"`))
	assert.Error(t, err)
}

func TestDecimal_RoundTrip(t *testing.T) {
	// Values that lose precision through float64 must survive unchanged.
	inputs := []string{
		"50000000.12345678",
		"0.00000001",
		"99999999999999999999.999999999999",
		"123456789.987654321",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			var d Decimal
			require.NoError(t, d.UnmarshalJSON([]byte(`"`+input+`"`)))

			out, err := d.MarshalJSON()
			require.NoError(t, err)
			assert.Equal(t, `"`+input+`"`, string(out))
		})
	}
}

func TestDecimal_InStruct(t *testing.T) {
	type payload struct {
		Price  Decimal `json:"price"`
		Volume Decimal `json:"volume"`
	}

	var p payload
	raw := `{"price":161800000.0,"volume":"0.00061657"}`
	require.NoError(t, sonic.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "161800000.0", p.Price.String())
	assert.Equal(t, "0.00061657", p.Volume.String())
}

func TestNewDecimal(t *testing.T) {
	d, err := NewDecimal("1234.5678")
	require.NoError(t, err)
	assert.Equal(t, "1234.5678", d.String())

	_, err = NewDecimal("bogus")
	assert.Error(t, err)
}

func TestMustDecimal_Panics(t *testing.T) {
	assert.Panics(t, func() { MustDecimal("bogus") })
}
