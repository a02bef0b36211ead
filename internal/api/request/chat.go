package request

// Chat is one question for the assistant, over HTTP or the chat websocket.
type Chat struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// Sync asks for a billing sync of one connected account.
type Sync struct {
	StripeAccountID string `json:"stripeAccountId" validate:"required,max=255"`
	Scope           string `json:"scope" validate:"omitempty,oneof=all customers subscriptions"`
}
