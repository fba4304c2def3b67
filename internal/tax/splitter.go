// Package tax backs VAT out of VAT-inclusive prices.
//
// Prices are stored gross. A discount on the order total is spread over every
// line in proportion to its gross amount, VATable or not, before the VAT
// share is extracted with amount * rate / (1 + rate).
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/go-cafeteria-pos/internal/pos"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

type Line struct {
	Gross   decimal.Decimal
	VATable bool
}

// LineOf prices qty units of p.
func LineOf(p pos.Purchasable, qty int) Line {
	return Line{Gross: p.UnitPrice().Mul(decimal.NewFromInt(int64(qty))), VATable: p.VATable()}
}

type Split struct {
	GrossTotal        decimal.Decimal
	VATableGrossTotal decimal.Decimal
	Discount          decimal.Decimal
	DiscountRatio     decimal.Decimal
	AdjustedVATable   decimal.Decimal
	VAT               decimal.Decimal // order VAT rounded to 2dp
	VatableSales      decimal.Decimal // AdjustedVATable net of VAT
	VatExemptSales    decimal.Decimal
	Total             decimal.Decimal // GrossTotal - Discount
	Lines             []LineSplit
}

type LineSplit struct {
	VAT      decimal.Decimal // rounded independently
	Discount decimal.Decimal // the line's share of the order discount
}

type Splitter struct {
	Rate decimal.Decimal // e.g. 0.12
}

func New(rate decimal.Decimal) Splitter { return Splitter{Rate: rate} }

// Split computes order and per-line VAT for lines after applying discount to
// the gross order total.
func (s Splitter) Split(lines []Line, discount decimal.Decimal) Split {
	gross, vatable := zero, zero
	for _, l := range lines {
		gross = gross.Add(l.Gross)
		if l.VATable {
			vatable = vatable.Add(l.Gross)
		}
	}

	payable := gross.Sub(discount)
	ratio := one
	if gross.IsPositive() {
		ratio = payable.Div(gross)
	}

	// Multiply before dividing so exact cases (112 at 12%) stay exact.
	adjusted := vatable
	if gross.IsPositive() {
		adjusted = vatable.Mul(payable).Div(gross)
	}
	orderVAT := s.extract(adjusted)

	out := Split{
		GrossTotal:        gross,
		VATableGrossTotal: vatable,
		Discount:          discount,
		DiscountRatio:     ratio,
		AdjustedVATable:   adjusted,
		VAT:               orderVAT.Round(2),
		VatableSales:      adjusted.Sub(orderVAT).Round(2),
		Total:             payable,
		Lines:             make([]LineSplit, len(lines)),
	}
	out.VatExemptSales = payable.Sub(adjusted).Round(2)

	for i, l := range lines {
		lineAdjusted := l.Gross
		if gross.IsPositive() {
			lineAdjusted = l.Gross.Mul(payable).Div(gross)
		}
		ls := LineSplit{
			VAT:      zero,
			Discount: l.Gross.Sub(lineAdjusted).Round(2),
		}
		if l.VATable {
			ls.VAT = s.extract(lineAdjusted).Round(2)
		}
		out.Lines[i] = ls
	}
	return out
}

// VATOf returns the VAT contained in a single gross amount, rounded to 2dp.
func (s Splitter) VATOf(gross decimal.Decimal) decimal.Decimal {
	return s.extract(gross).Round(2)
}

func (s Splitter) extract(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(s.Rate).Div(one.Add(s.Rate))
}
