package model

// WhatsAppStatus is the REST view of the WhatsApp session.
type WhatsAppStatus struct {
	Connected bool   `json:"connected"`
	QR        string `json:"qr,omitempty"`
	Phone     string `json:"phone,omitempty"`
}
