package models

// ConfirmationPayload is the queued task payload for a best-effort
// booking confirmation push.
type ConfirmationPayload struct {
	BookingID   string `json:"bookingId"`
	UserID      string `json:"userId,omitempty"`
	GuestEmail  string `json:"guestEmail,omitempty"`
	DeviceToken string `json:"deviceToken,omitempty"`
	ServiceName string `json:"serviceName"`
	Date        string `json:"date"`
	Start       int    `json:"start"`
	TotalCents  int64  `json:"totalCents"`
}
