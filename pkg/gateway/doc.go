/*
Package gateway exposes the sync engine's broadcasts to remote consumers.

Consumers (summary views, scoped sub-views, mobile apps) connect over
WebSocket at /ws, identifying their type and optional scope via query
parameters. Each connection registers in the connection registry, receives
every broadcast on the sync channel as a JSON envelope, and filters by its
own scope locally. Inbound frames count as activity pings; disconnecting
unregisters the session.

Delivery inherits the broker's best-effort semantics: a consumer that falls
behind misses frames and catches up on its next fetch or force refresh.
*/
package gateway
