// Package uuid implements run ID generation on top of UUID version 7.
package uuid

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/redresslabs/redress/internal/rights"
)

// Generator mints time-ordered UUID v7 strings. Because v7 embeds a
// millisecond timestamp, run summary files named after these IDs list in
// chronological order without a secondary sort key.
type Generator struct{}

var _ rights.IDGenerator = Generator{}

// NewUUIDGenerator creates a new Generator.
func NewUUIDGenerator() *Generator {
	return &Generator{}
}

// NewID returns a fresh v7 UUID in canonical string form.
func (Generator) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("mint run id: %w", err)
	}
	return id.String(), nil
}
