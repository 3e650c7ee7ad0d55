package models

// InboundMessage transport-neutral chat envelope
type InboundMessage struct {
	ID      string `json:"id,omitempty"`
	From    string `json:"from"`
	Text    string `json:"text,omitempty"`
	Caption string `json:"caption,omitempty"`
	Image   []byte `json:"image,omitempty"`
	FromMe  bool   `json:"fromMe,omitempty"`
}

// HasImage reports whether an image payload is attached
func (m *InboundMessage) HasImage() bool {
	return len(m.Image) > 0
}

// OutboundReply the single reply produced for an inbound message
type OutboundReply struct {
	ID    string `json:"id"`
	To    string `json:"to"`
	Reply string `json:"reply"`
}
