package dto

// CreateRequest represents the JSON body expected in a notification creation request.
//
// Destination is required for email and sms; in_app notifications are delivered
// to the user's own feed and carry no external address.
type CreateRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Channel     string `json:"channel" validate:"required,oneof=email sms in_app"`
	Message     string `json:"message" validate:"required"`
	Destination string `json:"destination" validate:"required_unless=Channel in_app"`
}
