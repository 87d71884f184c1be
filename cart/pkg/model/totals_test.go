package model

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ptrDecimal(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func ptrInt32(v int32) *int32 {
	return &v
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []LineItem
		expected Totals
	}{
		{
			name:  "given empty collection should return zero totals",
			items: nil,
			expected: Totals{
				TotalMRP:      decimal.Zero,
				TotalDiscount: decimal.Zero,
				TotalAmount:   decimal.Zero,
			},
		},
		{
			name: "given item without original price should use unit price as mrp",
			items: []LineItem{
				NewLineItem(Product{ID: "P1", Price: decimal.NewFromInt(100)}, 2),
			},
			expected: Totals{
				TotalQuantity: 2,
				TotalMRP:      decimal.NewFromInt(200),
				TotalDiscount: decimal.Zero,
				TotalAmount:   decimal.NewFromInt(200),
			},
		},
		{
			name: "given discounted items should round each item discount",
			items: []LineItem{
				NewLineItem(Product{
					ID:                 "P1",
					Price:              decimal.NewFromInt(300),
					OriginalPrice:      ptrDecimal(333),
					DiscountPercentage: ptrInt32(10),
				}, 1),
				NewLineItem(Product{
					ID:                 "P2",
					Price:              decimal.NewFromInt(90),
					OriginalPrice:      ptrDecimal(105),
					DiscountPercentage: ptrInt32(15),
				}, 3),
			},
			// 333*10/100 = 33.3 -> 33, 315*15/100 = 47.25 -> 47
			expected: Totals{
				TotalQuantity: 4,
				TotalMRP:      decimal.NewFromInt(648),
				TotalDiscount: decimal.NewFromInt(80),
				TotalAmount:   decimal.NewFromInt(570),
			},
		},
		{
			name: "given half discount should round away from zero",
			items: []LineItem{
				NewLineItem(Product{
					ID:                 "P1",
					Price:              decimal.NewFromInt(4),
					OriginalPrice:      ptrDecimal(5),
					DiscountPercentage: ptrInt32(10),
				}, 1),
			},
			expected: Totals{
				TotalQuantity: 1,
				TotalMRP:      decimal.NewFromInt(5),
				TotalDiscount: decimal.NewFromInt(1),
				TotalAmount:   decimal.NewFromInt(4),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := ComputeTotals(tt.items)
			assert.Equal(t, tt.expected.TotalQuantity, actual.TotalQuantity)
			assert.True(t, tt.expected.TotalMRP.Equal(actual.TotalMRP), "mrp %s != %s", tt.expected.TotalMRP, actual.TotalMRP)
			assert.True(t, tt.expected.TotalDiscount.Equal(actual.TotalDiscount), "discount %s != %s", tt.expected.TotalDiscount, actual.TotalDiscount)
			assert.True(t, tt.expected.TotalAmount.Equal(actual.TotalAmount), "amount %s != %s", tt.expected.TotalAmount, actual.TotalAmount)
		})
	}
}

func TestComputeTotalsMatchesDirectSummation(t *testing.T) {
	items := []LineItem{}
	expectedAmount := int64(0)
	expectedQuantity := 0
	for i := 1; i <= 25; i++ {
		price := int64(i * 37 % 500)
		items = append(items, NewLineItem(Product{ID: fmt.Sprintf("P%d", i), Price: decimal.NewFromInt(price)}, i))
		expectedAmount += price * int64(i)
		expectedQuantity += i
	}

	totals := ComputeTotals(items)
	assert.Equal(t, expectedQuantity, totals.TotalQuantity)
	assert.True(t, decimal.NewFromInt(expectedAmount).Equal(totals.TotalAmount))
}
