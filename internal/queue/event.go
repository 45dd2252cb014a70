// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/google/uuid"
)

// UserRegisteredQueue is the durable queue carrying registration events.
const UserRegisteredQueue = "user.registered"

// UserRegisteredEvent is published when an account is successfully
// created.  It contains enough information for downstream consumers to
// write audit entries or trigger welcome notifications without querying
// the primary database.  Passwords and token material never appear here.
type UserRegisteredEvent struct {
    EventID      string `json:"event_id"`
    UserID       uint64 `json:"user_id"`
    FullName     string `json:"full_name"`
    Email        string `json:"email"`
    Role         string `json:"role"`
    RegisteredAt string `json:"registered_at"`
}

// NewUserRegisteredEvent stamps a fresh event with a unique id and the
// current UTC time.
func NewUserRegisteredEvent(userID uint64, fullName, email, role string) UserRegisteredEvent {
    return UserRegisteredEvent{
        EventID:      uuid.NewString(),
        UserID:       userID,
        FullName:     fullName,
        Email:        email,
        Role:         role,
        RegisteredAt: time.Now().UTC().Format(time.RFC3339),
    }
}
