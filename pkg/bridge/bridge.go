// Package bridge validates and dispatches messages exchanged with the
// embedded purchase frame. Inbound messages are accepted only from the
// trusted partner origin; accepted messages update the frame geometry,
// close the modal, or renew the token.
package bridge

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ctbkit/ctbkit/pkg/logx"
)

// Inbound message discriminants.
const (
	TypeFrameWidth   = "frameWidth"
	TypeFrameHeight  = "frameHeight"
	TypeTokenRefresh = "tokenRefresh"
	// CloseSignal is sent as a bare string body, not an envelope.
	CloseSignal = "closeModal"
)

// TypeGetFrameHeight is the outbound request posted into the frame after a
// width update, asking the frame to report its height back.
const TypeGetFrameHeight = "getFrameHeight"

// Message is a raw inbound cross-frame message tagged with its origin.
type Message struct {
	Origin string
	Body   []byte
}

// HeightRequest is the outbound getFrameHeight message.
type HeightRequest struct {
	Type string `json:"type"`
}

type envelope struct {
	Type   string      `json:"type"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Data   renewalData `json:"data"`
}

type renewalData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// ModalController is the slice of the session coordinator the bridge drives.
type ModalController interface {
	SetFrameWidth(px int)
	SetFrameHeight(px int)
	PostToFrame(message any) error
	Close()
}

// TokenRenewer applies in-band token renewals.
type TokenRenewer interface {
	ApplyRenewal(ctx context.Context, accessToken, refreshToken string) error
}

// Bridge is the single inbound message handler.
type Bridge struct {
	trustedHost string
	modal       ModalController
	tokens      TokenRenewer
	log         *logrus.Entry
}

// New creates a bridge trusting origins that contain trustedHost.
func New(trustedHost string, modal ModalController, tokens TokenRenewer) *Bridge {
	return &Bridge{
		trustedHost: trustedHost,
		modal:       modal,
		tokens:      tokens,
		log:         logx.WithComponent("bridge"),
	}
}

// Handle processes one inbound message. Messages from untrusted origins and
// unrecognized shapes are dropped silently.
func (b *Bridge) Handle(ctx context.Context, msg Message) {
	if !strings.Contains(msg.Origin, b.trustedHost) {
		return
	}

	body := strings.TrimSpace(string(msg.Body))

	// The close signal arrives as a bare string, possibly JSON-quoted
	// depending on the transport.
	if body == CloseSignal || body == `"`+CloseSignal+`"` {
		b.modal.Close()
		return
	}

	var env envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		return
	}

	switch env.Type {
	case TypeFrameWidth:
		b.modal.SetFrameWidth(env.Width)
		// Round trip: a width change invalidates the frame's height, so
		// ask the frame to report it.
		if err := b.modal.PostToFrame(HeightRequest{Type: TypeGetFrameHeight}); err != nil {
			b.log.WithError(err).Debug("failed to request frame height")
		}
	case TypeFrameHeight:
		b.modal.SetFrameHeight(env.Height)
	case TypeTokenRefresh:
		if err := b.tokens.ApplyRenewal(ctx, env.Data.AccessToken, env.Data.RefreshToken); err != nil {
			b.log.WithError(err).Warn("failed to apply token renewal")
		}
	}
}
