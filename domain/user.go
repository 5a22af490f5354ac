// Package domain contains core concepts of the chat relay.
// No runtime, network, or UI logic should be added here.
package domain

import "strings"

// ConnID is the opaque identity the transport assigns to a live connection.
// It is stable for the connection's lifetime and never reused while open.
type ConnID string

// AdminSender tags system notices (welcome, joined, left) in message events.
const AdminSender = "Admin"

// User links a live connection to its display name and room.
// Both fields hold normalized values. A User exists only between a
// successful join and the disconnect of its connection.
type User struct {
	ID          ConnID
	DisplayName string
	Room        string
}

// Normalize cleans a client-provided name or room for storage and for
// case-insensitive uniqueness comparisons.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
