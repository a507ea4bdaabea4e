// Package notify forwards escalations to a human support queue.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Support-Router/agent/contract"
)

type Config struct {
	Enabled     bool   `split_words:"true" default:"false"`
	Destination string `split_words:"true" validate:"required_if=Enabled true"`
}

// Publisher is the subset of the QStash client the notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, destination string, body any) (string, error)
}

var _ contractx.EscalationNotifier = (*QueueNotifier)(nil)

type QueueNotifier struct {
	publisher   Publisher
	destination string
}

func NewQueueNotifier(publisher Publisher, destination string) (*QueueNotifier, error) {
	if publisher == nil {
		return nil, errors.New("escalation publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("escalation destination is required")
	}
	return &QueueNotifier{publisher: publisher, destination: destination}, nil
}

func (n *QueueNotifier) NotifyEscalation(ctx context.Context, e contractx.Escalation) error {
	id, err := n.publisher.PublishJSON(ctx, n.destination, e)
	if err != nil {
		return fmt.Errorf("notify escalation: %w", err)
	}
	log.Info().Str("message_id", id).Str("session_id", e.SessionID).Msg("escalation_published")
	return nil
}

// Noop drops escalations. It is used when no queue is configured.
type Noop struct{}

func (Noop) NotifyEscalation(context.Context, contractx.Escalation) error { return nil }
