package dto

import "github.com/SscSPs/aid_budget_ledger/internal/core/domain"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error" example:"insufficient_funds"`
	Message string `json:"message"`
}

// ToResponse shapes a dispatched command's result for the API.
func ToResponse(result any) any {
	switch v := result.(type) {
	case *domain.BudgetPool:
		return ToPoolResponse(v)
	case *domain.AidRequest:
		return ToAidRequestResponse(v)
	}
	return result
}
