package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"integer", `50000`, "50000"},
		{"fraction", `12.5`, "12.5"},
		{"numeric string", `"1200"`, "1200"},
		{"grouped string", `"1,20,000"`, "120000"},
		{"blank string", `""`, "0"},
		{"garbage string", `"abc"`, "0"},
		{"null", `null`, "0"},
		{"boolean", `true`, "0"},
		{"object", `{"a":1}`, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lenient([]byte(tt.raw)).String())
		})
	}
}

func TestMoney_UnmarshalJSON(t *testing.T) {
	// given
	var doc struct {
		Amount Money `json:"amount"`
		Target Money `json:"target"`
		Absent Money `json:"absent"`
	}

	// when
	err := json.Unmarshal([]byte(`{"amount":"250","target":"n/a"}`), &doc)

	// then
	require.NoError(t, err)
	assert.Equal(t, "250", doc.Amount.String())
	assert.True(t, doc.Target.IsZero())
	assert.True(t, doc.Absent.IsZero())
}

func TestMoney_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Money{"a": FromInt(27500), "b": Zero, "c": Parse("10.50")})

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":27500,"b":0,"c":10.5}`, string(data))
}

func TestMoney_Round(t *testing.T) {
	assert.Equal(t, "3", Parse("2.5").Round().String())
	assert.Equal(t, "2", Parse("2.49").Round().String())
	assert.Equal(t, "-2", Parse("-2.5").Round().String())
	assert.Equal(t, "7", FromInt(7).Round().String())
}

func TestMoney_MulPercent(t *testing.T) {
	income := FromInt(50000)

	assert.Equal(t, "27500", income.MulPercent(55).Round().String())
	assert.Equal(t, "20000", income.MulPercent(40).Round().String())
	assert.Equal(t, "2500", income.MulPercent(5).Round().String())
	assert.Equal(t, "333", FromInt(1000).MulPercent(33.3).Round().String())
}

func TestMoney_PercentOf(t *testing.T) {
	t.Run("zero base never divides", func(t *testing.T) {
		assert.Equal(t, int64(0), FromInt(100).PercentOf(Zero))
		assert.Equal(t, 0.0, FromInt(100).Ratio(Zero))
	})

	t.Run("rounds to nearest whole percent", func(t *testing.T) {
		assert.Equal(t, int64(20), FromInt(1000).PercentOf(FromInt(5000)))
		assert.Equal(t, int64(33), FromInt(1).PercentOf(FromInt(3)))
		assert.Equal(t, int64(67), FromInt(2).PercentOf(FromInt(3)))
		assert.Equal(t, int64(150), FromInt(3).PercentOf(FromInt(2)))
	})
}

func TestSum(t *testing.T) {
	assert.True(t, Sum().IsZero())
	assert.Equal(t, "0.3", Sum(Parse("0.1"), Parse("0.2")).String())
	assert.Equal(t, "-5", Sum(FromInt(10), FromInt(-15)).String())
}

func TestFromFloat_NotANumber(t *testing.T) {
	nan := 0.0
	assert.True(t, FromFloat(nan/nan).IsZero())
	assert.Equal(t, "12.25", FromFloat(12.25).String())
}
