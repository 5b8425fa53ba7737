package orders

// PlaceInput carries the checkout form fields.
type PlaceInput struct {
	ShippingAddress string `json:"shippingAddress" validate:"max=500"`
	BillingAddress  string `json:"billingAddress" validate:"max=500"`
	PaymentMethod   string `json:"paymentMethod" validate:"max=50"`
}

// UpdateInput is an admin's partial update; the total is never editable.
type UpdateInput struct {
	Status          *Status `json:"status" validate:"omitempty,oneof=pending processing shipped delivered cancelled"`
	ShippingAddress *string `json:"shippingAddress" validate:"omitempty,max=500"`
	BillingAddress  *string `json:"billingAddress" validate:"omitempty,max=500"`
	PaymentMethod   *string `json:"paymentMethod" validate:"omitempty,max=50"`
}
