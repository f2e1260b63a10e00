package models

import "github.com/google/uuid"

// Identity is the authenticated principal supplied by the hosted auth service.
// It is read-only to this system.
type Identity struct {
	ID    uuid.UUID
	Email string
}
