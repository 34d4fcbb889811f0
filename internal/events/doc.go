// Vitrine - Hybrid Product Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitrine

/*
Package events carries recorded interactions from the write path to the
components that react to them.

Every accepted interaction is published on the interactions topic after it
is durably stored. A Consumer subscribes to that topic and feeds click
events into the popularity tracker's pending counts, and invalidates the
cached profile of the user involved so that every instance sharing the bus
sees the new event on its next ranking.

# Transports

Two transports implement the same Bus:

  - In-process: a Watermill gochannel pub/sub. Used when NATS is disabled
    and in tests. Messages published while no consumer is subscribed are
    dropped.
  - NATS JetStream: watermill-nats publisher and durable queue-group
    subscriber, optionally backed by an embedded nats-server. Requires the
    nats build tag.

# Resilience

Publishing goes through a gobreaker circuit breaker. When the broker keeps
failing the breaker opens and publishes fail fast; the interaction itself
is already durable, so callers only log the failure.

The consumer router uses Watermill's Recoverer and Retry middleware and a
ttlcache-backed deduplicator keyed by event ID, so a redelivered event is
observed once.

# Wire Format

Message UUID is the interaction event ID. The payload is the JSON encoding
of models.InteractionEvent; metadata carries user_id and event_type.
*/
package events
