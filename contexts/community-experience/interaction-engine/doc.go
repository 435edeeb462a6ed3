// Package interactionengine implements the content-interaction engine inside
// the community-experience context.
//
// The module owns per-actor post votes and study group memberships over a
// shared item collection, and derives each session's ordered view of it.
// Mutations emit change notifications into an outbox; the worker relays them
// to the event bus and projects them back into durable storage.
package interactionengine
