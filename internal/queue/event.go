// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published after a successful registration. It
// carries enough for downstream consumers (welcome mail, analytics) to act
// without querying the primary database. The password hash is deliberately
// absent.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Role         string `json:"role"`
	RegisteredAt string `json:"registered_at"`
}

// UserRegisteredQueue is the durable queue the event is published to.
const UserRegisteredQueue = "user.registered"
