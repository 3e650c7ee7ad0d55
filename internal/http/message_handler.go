package httpapi

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"catat-worker/internal/models"
)

// maxBodyBytes base64 photos dominate the payload
const maxBodyBytes = 16 << 20

var errEmptyBody = errors.New("empty request body")

// Processor the message router behind every transport
type Processor interface {
	Handle(ctx context.Context, msg models.InboundMessage) (models.OutboundReply, bool)
}

// MessageHandler POST /process-message
type MessageHandler struct {
	processor Processor
	logger    *zap.Logger
}

func NewMessageHandler(p Processor, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{processor: p, logger: logger}
}

// waMessage the subset of a WhatsApp Web message the bot reads
type waMessage struct {
	Key struct {
		RemoteJID string `json:"remoteJid"`
		FromMe    bool   `json:"fromMe"`
		ID        string `json:"id"`
	} `json:"key"`
	Message *struct {
		Conversation        string `json:"conversation"`
		ExtendedTextMessage *struct {
			Text string `json:"text"`
		} `json:"extendedTextMessage"`
		ImageMessage *struct {
			Caption string `json:"caption"`
		} `json:"imageMessage"`
	} `json:"message"`
}

type processRequest struct {
	Message           waMessage `json:"message"`
	ImageBufferBase64 string    `json:"imageBufferBase64"`
}

type processResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *MessageHandler) ProcessMessage(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	msg, err := req.toInbound()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	reply, ok := h.processor.Handle(r.Context(), msg)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Reply: reply.Reply})
}

func (req processRequest) toInbound() (models.InboundMessage, error) {
	k := req.Message.Key
	from := senderPhone(k.RemoteJID)
	if from == "" {
		return models.InboundMessage{}, errors.New("message.key.remoteJid is required")
	}
	msg := models.InboundMessage{ID: k.ID, From: from, FromMe: k.FromMe}

	if m := req.Message.Message; m != nil {
		msg.Text = m.Conversation
		if msg.Text == "" && m.ExtendedTextMessage != nil {
			msg.Text = m.ExtendedTextMessage.Text
		}
		if m.ImageMessage != nil {
			msg.Caption = m.ImageMessage.Caption
		}
	}
	if req.ImageBufferBase64 != "" {
		img, err := base64.StdEncoding.DecodeString(req.ImageBufferBase64)
		if err != nil {
			return models.InboundMessage{}, errors.New("imageBufferBase64 is not valid base64")
		}
		msg.Image = img
	}
	return msg, nil
}

// senderPhone strips the WhatsApp address domain from a JID
func senderPhone(jid string) string {
	jid = strings.TrimSpace(jid)
	if i := strings.IndexByte(jid, '@'); i >= 0 {
		jid = jid[:i]
	}
	// device suffix: 6281234567890:12@s.whatsapp.net
	if i := strings.IndexByte(jid, ':'); i >= 0 {
		jid = jid[:i]
	}
	return jid
}
