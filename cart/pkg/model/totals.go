package model

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	TotalQuantity int             `json:"totalQuantity"`
	TotalMRP      decimal.Decimal `json:"totalMRP"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// ComputeTotals derives every total from items; totals are never mutated on their own.
func ComputeTotals(items []LineItem) Totals {
	totals := Totals{
		TotalMRP:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalAmount:   decimal.Zero,
	}
	for _, item := range items {
		quantity := decimal.NewFromInt(int64(item.Quantity))
		mrp := item.MRPUnitPrice().Mul(quantity)
		discount := mrp.
			Mul(decimal.NewFromInt32(item.DiscountPercentage())).
			Div(hundred).
			Round(0)

		totals.TotalQuantity += item.Quantity
		totals.TotalMRP = totals.TotalMRP.Add(mrp)
		totals.TotalDiscount = totals.TotalDiscount.Add(discount)
		totals.TotalAmount = totals.TotalAmount.Add(item.UnitPrice().Mul(quantity))
	}
	return totals
}

// Equal compares totals by value; decimals with different scales still match.
func (t Totals) Equal(other Totals) bool {
	return t.TotalQuantity == other.TotalQuantity &&
		t.TotalMRP.Equal(other.TotalMRP) &&
		t.TotalDiscount.Equal(other.TotalDiscount) &&
		t.TotalAmount.Equal(other.TotalAmount)
}
