package events

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

const (
	TypePreinscriptionCreated   = "preinscription.created"
	TypePreinscriptionValidated = "preinscription.validated"
	TypePreinscriptionRefused   = "preinscription.refused"
	TypeReinscriptionRequested  = "reinscription.requested"
	TypeReinscriptionValidated  = "reinscription.validated"
	TypeReinscriptionRefused    = "reinscription.refused"
	TypeJustificatifRefused     = "justificatif.refused"
	TypeInvoiceSent             = "invoice.sent"
	TypeRentreeReminder         = "rentree.reminder"
)

// Event is a notification emitted after a state change. Delivery is
// best-effort: consumers turn events into emails, which this service does not send.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    datatypes.JSONMap `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
