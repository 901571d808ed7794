package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParams_Encode_Sorted(t *testing.T) {
	params := NewParams().
		Set("market", "KRW-BTC").
		Set("count", 10).
		Set("isDetails", true)

	// Keys come out alphabetically regardless of insertion order.
	assert.Equal(t, "count=10&isDetails=true&market=KRW-BTC", params.Encode())
}

func TestParams_Encode_Empty(t *testing.T) {
	assert.Equal(t, "", NewParams().Encode())
}

func TestParams_Encode_RepeatedKeys(t *testing.T) {
	params := NewParams().SetList("uuids[]", []string{"a", "b", "c"})

	assert.Equal(t, "uuids%5B%5D=a&uuids%5B%5D=b&uuids%5B%5D=c", params.Encode())
}

func TestParams_SetList_CommaJoin(t *testing.T) {
	params := NewParams().SetList("markets", []string{"KRW-BTC", "KRW-ETH"})

	assert.Equal(t, "markets=KRW-BTC%2CKRW-ETH", params.Encode())
}

func TestParams_Set_DropsNil(t *testing.T) {
	params := NewParams().Set("market", "KRW-BTC").Set("cursor", nil)

	_, ok := params["cursor"]
	assert.False(t, ok)
}

func TestParams_ValueFormats(t *testing.T) {
	ts := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	price := MustDecimal("50000000.5")

	params := NewParams().
		Set("count", int64(200)).
		Set("price", price).
		Set("to", ts)

	values := params.Values()
	assert.Equal(t, "200", values.Get("count"))
	assert.Equal(t, "50000000.5", values.Get("price"))
	assert.Equal(t, "2023-01-01T12:00:00Z", values.Get("to"))
}

func TestParams_EncodeMatchesValues(t *testing.T) {
	// The signed digest and the request URL must canonicalize identically.
	params := NewParams().
		Set("market", "KRW-BTC").
		SetList("states[]", []string{"wait", "done"})

	assert.Equal(t, params.Values().Encode(), params.Encode())
}
