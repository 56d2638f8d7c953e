/*
Package events provides an in-memory broker for CrewSync's pub/sub messaging.

The events package implements a lightweight channel-addressed message bus for
broadcasting sync notifications to interested consumers. Delivery is
best-effort and non-blocking: a slow subscriber never stalls the publisher or
its siblings.

# Architecture

	┌──────────────────── EVENT BROKER ────────────────────────┐
	│                                                           │
	│  Publisher ──► Message Channel (buffer: 100)              │
	│                      │                                    │
	│                Broadcast Loop                             │
	│                      │                                    │
	│        ┌─────────────┼─────────────┐                      │
	│        ▼             ▼             ▼                      │
	│  Subscription  Subscription  Subscription                 │
	│  (buffer: 50)  (buffer: 50)  (buffer: 50)                 │
	│                                                           │
	└───────────────────────────────────────────────────────────┘

Subscriptions are scoped to a named channel; every subscriber of a channel
receives every message sent on it and filters locally. A subscriber whose
buffer is full misses the message — the broker counts but does not retry
drops.

The Transport interface is the seam the sync engine publishes through: the
in-process Broker serves a single instance, and a networked transport can
implement the same two methods.

# Lifecycle

A Subscription's Done channel closes when it stops receiving, whether from an
explicit Unsubscribe or broker shutdown. Consumers that need continuity watch
Done and resubscribe.
*/
package events
