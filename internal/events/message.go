// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/vitrine/internal/models"
)

// TopicInteractions is the subject every recorded interaction is published on.
const TopicInteractions = "vitrine.interactions"

// NewInteractionMessage encodes ev as a Watermill message whose UUID is the
// event ID.
func NewInteractionMessage(ev *models.InteractionEvent) (*message.Message, error) {
	if ev.ID == "" {
		return nil, fmt.Errorf("interaction event has no ID")
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal interaction: %w", err)
	}
	msg := message.NewMessage(ev.ID, data)
	msg.Metadata.Set("user_id", ev.UserID)
	msg.Metadata.Set("event_type", string(ev.Kind))
	return msg, nil
}

// DecodeInteraction decodes and validates a message payload.
func DecodeInteraction(msg *message.Message) (models.InteractionEvent, error) {
	var ev models.InteractionEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return models.InteractionEvent{}, fmt.Errorf("unmarshal interaction %s: %w", msg.UUID, err)
	}
	if err := ev.Validate(); err != nil {
		return models.InteractionEvent{}, fmt.Errorf("interaction %s: %w", msg.UUID, err)
	}
	return ev, nil
}
