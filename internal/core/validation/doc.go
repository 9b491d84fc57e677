// Package validation provides pure validation functions for API handlers.
//
// These checks only look for missing required fields, so handlers can answer
// 400 before touching the store. Business rules live in the domain
// constructors.
//
// # Functions
//
//   - ValidateRegisterStoreFields: required fields for store registration
//   - ValidateCreateProductFields: required fields for product creation
//   - ValidateCreateFavoriteFields: required fields for adding a favorite
//   - ValidateCreateMarketFields: required fields for market creation
//
// # Usage
//
//	if field, msg := validation.ValidateRegisterStoreFields(name, category, marketID, phone); field != "" {
//	    // Return 400 Bad Request with msg
//	}
package validation
