package responses

import "storefront-api/models"

// OrderResponse is the JSON envelope every order endpoint returns. Callers
// branch on Success; Message is always human readable.
type OrderResponse struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message,omitempty"`
	Order            *models.Order  `json:"order,omitempty"`
	Orders           []models.Order `json:"orders,omitempty"`
	AuthorizationURL string         `json:"authorization_url,omitempty"`
}

func OK(message string) OrderResponse {
	return OrderResponse{Success: true, Message: message}
}

func Fail(message string) OrderResponse {
	return OrderResponse{Success: false, Message: message}
}
