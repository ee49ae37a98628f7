package domain

// CreationRequest is the message placed on the creation queue by the HTTP
// edge (or any other producer). The creation consumer turns it into a
// persisted Order.
type CreationRequest struct {
	OrderID        string            `json:"orderId" validate:"required"`
	TenantID       string            `json:"tenantId" validate:"required"`
	CustomerEmail  string            `json:"customerEmail" validate:"required,email"`
	CustomerName   string            `json:"customerName,omitempty"`
	CustomerPhone  string            `json:"customerPhone,omitempty"`
	CartID         string            `json:"cartId" validate:"required"`
	CampaignCode   string            `json:"campaignCode,omitempty"`
	Campaign       *CampaignSnapshot `json:"campaign,omitempty"`
	BillingAddress *Address          `json:"billingAddress" validate:"required"`
	PaymentMethod  string            `json:"paymentMethod,omitempty"`
	RequestedBy    string            `json:"requestedBy,omitempty"`
}

// Validate checks the creation request at the consumer boundary. A failure
// here is permanent: the message will never become processable.
func (r *CreationRequest) Validate() error {
	return ValidateStruct("creation_request.validate", r)
}

// CreatedEvent is the derived event the creation consumer publishes once the
// canonical Order is persisted. Every fan-out consumer receives it
// independently and at least once.
type CreatedEvent struct {
	OrderID  string `json:"orderId" validate:"required"`
	TenantID string `json:"tenantId" validate:"required"`
}

// Validate checks the fan-out event at the consumer boundary.
func (e *CreatedEvent) Validate() error {
	return ValidateStruct("created_event.validate", e)
}
