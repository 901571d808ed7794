package upbit

import (
	"strings"

	"github.com/cockroachdb/apd/v3"

	"upbit/pkg/core"
)

// krwTicks maps KRW price floors to their tick sizes, highest floor first.
var krwTicks = []struct {
	floor string
	tick  string
}{
	{"2000000", "1000"},
	{"1000000", "500"},
	{"500000", "100"},
	{"100000", "50"},
	{"10000", "10"},
	{"1000", "5"},
	{"100", "1"},
}

// usdtTicks maps USDT price floors to their tick sizes, highest floor first.
var usdtTicks = []struct {
	floor string
	tick  string
}{
	{"1000", "1"},
	{"100", "0.1"},
	{"10", "0.01"},
	{"1", "0.001"},
}

// TickSize returns the minimum price increment the exchange accepts for a
// limit order on the given market at the given price. Markets quoted in an
// unrecognized currency get a zero tick, meaning no constraint is known.
func TickSize(market string, price core.Decimal) core.Decimal {
	quote, _, _ := strings.Cut(market, "-")

	switch quote {
	case "KRW":
		for _, rule := range krwTicks {
			floor := core.MustDecimal(rule.floor)
			if price.Cmp(&floor.Decimal) >= 0 {
				return core.MustDecimal(rule.tick)
			}
		}
		return core.MustDecimal("0.1")
	case "BTC":
		return core.MustDecimal("0.00000001")
	case "USDT":
		for _, rule := range usdtTicks {
			floor := core.MustDecimal(rule.floor)
			if price.Cmp(&floor.Decimal) >= 0 {
				return core.MustDecimal(rule.tick)
			}
		}
		return core.MustDecimal("0.0001")
	}
	return core.Decimal{}
}

// ValidTick reports whether price lands on the market's price grid.
func ValidTick(market string, price core.Decimal) bool {
	tick := TickSize(market, price)
	if tick.IsZero() {
		return true
	}

	var rem apd.Decimal
	if _, err := apd.BaseContext.Rem(&rem, &price.Decimal, &tick.Decimal); err != nil {
		return false
	}
	return rem.IsZero()
}
