// Package uuid wraps id generation behind an interface so tests can
// supply deterministic values.
package uuid

import (
	"github.com/google/uuid"
)

// Generator produces opaque string identifiers.
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements Generator using Google's UUID package.
type GoogleUUIDGenerator struct{}

// New generates a new UUID string.
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator.
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}
