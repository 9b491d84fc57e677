package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRegisterStoreFields(t *testing.T) {
	tests := []struct {
		name                               string
		storeName, category, market, phone string
		expectedField                      string
	}{
		{"valid", "김밥천국", "FOOD", "mkt_1", "010", ""},
		{"missing name", "", "FOOD", "mkt_1", "010", "store_name"},
		{"blank name", "   ", "FOOD", "mkt_1", "010", "store_name"},
		{"missing category", "김밥천국", "", "mkt_1", "010", "category"},
		{"missing market", "김밥천국", "FOOD", "", "010", "market_id"},
		{"missing phone", "김밥천국", "FOOD", "mkt_1", "", "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			field, msg := ValidateRegisterStoreFields(tt.storeName, tt.category, tt.market, tt.phone)
			assert.Equal(t, tt.expectedField, field)
			if tt.expectedField == "" {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, tt.expectedField)
			}
		})
	}
}

func TestValidateCreateProductFields(t *testing.T) {
	field, _ := ValidateCreateProductFields("", "김밥")
	assert.Equal(t, "store_id", field)

	field, _ = ValidateCreateProductFields("str_1", " ")
	assert.Equal(t, "product_name", field)

	field, _ = ValidateCreateProductFields("str_1", "김밥")
	assert.Empty(t, field)
}

func TestValidateCreateTimeSaleFields(t *testing.T) {
	field, _ := ValidateCreateTimeSaleFields("", "Closing sale")
	assert.Equal(t, "store_id", field)

	field, msg := ValidateCreateTimeSaleFields("str_1", "   ")
	assert.Equal(t, "title", field)
	assert.Equal(t, "title is required", msg)

	field, _ = ValidateCreateTimeSaleFields("str_1", "Closing sale")
	assert.Empty(t, field)
}

func TestValidateCreateFavoriteFields(t *testing.T) {
	field, _ := ValidateCreateFavoriteFields("")
	assert.Equal(t, "store_id", field)

	field, _ = ValidateCreateFavoriteFields("str_1")
	assert.Empty(t, field)
}

func TestValidateCreateMarketFields(t *testing.T) {
	field, _ := ValidateCreateMarketFields("", "mangwon")
	assert.Equal(t, "market_name", field)

	field, _ = ValidateCreateMarketFields("망원시장", "")
	assert.Equal(t, "subdomain_prefix", field)

	field, _ = ValidateCreateMarketFields("망원시장", "mangwon")
	assert.Empty(t, field)
}
