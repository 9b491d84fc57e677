package validation

import "strings"

// ValidateRegisterStoreFields validates required fields for store registration.
// Returns the field name and error message if validation fails.
// Returns empty strings if all fields are present.
func ValidateRegisterStoreFields(storeName, category, marketID, phone string) (field, message string) {
	if strings.TrimSpace(storeName) == "" {
		return "store_name", "store_name is required"
	}
	if category == "" {
		return "category", "category is required"
	}
	if marketID == "" {
		return "market_id", "market_id is required"
	}
	if strings.TrimSpace(phone) == "" {
		return "phone", "phone is required"
	}
	return "", ""
}

// ValidateCreateProductFields validates required fields for product creation.
func ValidateCreateProductFields(storeID, productName string) (field, message string) {
	if storeID == "" {
		return "store_id", "store_id is required"
	}
	if strings.TrimSpace(productName) == "" {
		return "product_name", "product_name is required"
	}
	return "", ""
}

// ValidateCreateTimeSaleFields validates required fields for starting a time sale.
func ValidateCreateTimeSaleFields(storeID, title string) (field, message string) {
	if storeID == "" {
		return "store_id", "store_id is required"
	}
	if strings.TrimSpace(title) == "" {
		return "title", "title is required"
	}
	return "", ""
}

// ValidateCreateFavoriteFields validates required fields for adding a favorite.
func ValidateCreateFavoriteFields(storeID string) (field, message string) {
	if storeID == "" {
		return "store_id", "store_id is required"
	}
	return "", ""
}

// ValidateCreateMarketFields validates required fields for market creation.
func ValidateCreateMarketFields(name, prefix string) (field, message string) {
	if strings.TrimSpace(name) == "" {
		return "market_name", "market_name is required"
	}
	if prefix == "" {
		return "subdomain_prefix", "subdomain_prefix is required"
	}
	return "", ""
}
