package personas

import "errors"

// ErrNotFound is returned when no chunks are stored for a persona.
var ErrNotFound = errors.New("persona not found")

// Persona summarizes one persona's footprint in the row store.
type Persona struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}
