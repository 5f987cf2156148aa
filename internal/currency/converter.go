// Package currency converts display prices across the CNY/USD boundary.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/commodex/commodex/internal/numeric"
)

// Currency names a supported quote denomination.
type Currency string

const (
	// CNY is the renminbi denomination.
	CNY Currency = "CNY"
	// USD is the US dollar denomination.
	USD Currency = "USD"
)

// ParseCurrency normalises a target-currency setting; anything that is not
// USD resolves to CNY.
func ParseCurrency(s string) Currency {
	if strings.EqualFold(strings.TrimSpace(s), string(USD)) {
		return USD
	}
	return CNY
}

// Converter decides a quote's source currency by sniffing its unit string
// and converts across the boundary at most once. It is applied only at the
// display edge of the pipeline, so a price can never be converted twice by
// passing through two call sites.
type Converter struct {
	cnyMarkers []string
}

// NewConverter builds a converter over the closed CNY marker set.
func NewConverter(cnyMarkers []string) *Converter {
	return &Converter{cnyMarkers: append([]string(nil), cnyMarkers...)}
}

// SourceCurrency sniffs the unit string: any CNY marker implies the quote is
// already denominated in CNY; absence implies USD.
func (c *Converter) SourceCurrency(unit string) Currency {
	for _, marker := range c.cnyMarkers {
		if marker != "" && strings.Contains(unit, marker) {
			return CNY
		}
	}
	return USD
}

// Convert moves price into the target currency. Same-currency conversion is a
// no-op; USD to CNY multiplies by rate, CNY to USD divides. A non-positive
// rate leaves the price unconverted rather than producing garbage.
func (c *Converter) Convert(price decimal.Decimal, unit string, target Currency, rate decimal.Decimal) decimal.Decimal {
	source := c.SourceCurrency(unit)
	if source == target {
		return price
	}
	if rate.Sign() <= 0 {
		return price
	}
	if source == USD && target == CNY {
		return price.Mul(rate)
	}
	return price.Div(rate)
}

// Format converts the price and renders it with magnitude-tiered precision.
func (c *Converter) Format(price decimal.Decimal, unit string, target Currency, rate decimal.Decimal) string {
	return numeric.FormatPrice(c.Convert(price, unit, target, rate))
}
