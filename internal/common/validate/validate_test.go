package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type priced struct {
	ID    string          `validate:"required"`
	Price decimal.Decimal `validate:"gte=0"`
}

func TestDecimalValue(t *testing.T) {
	tests := []struct {
		name    string
		input   priced
		wantErr bool
	}{
		{name: "given positive price should pass", input: priced{ID: "P1", Price: decimal.NewFromInt(100)}},
		{name: "given zero price should pass", input: priced{ID: "P1", Price: decimal.Zero}},
		{name: "given negative price should fail", input: priced{ID: "P1", Price: decimal.NewFromInt(-1)}, wantErr: true},
		{name: "given missing id should fail", input: priced{Price: decimal.NewFromInt(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New().Struct(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
