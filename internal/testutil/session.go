package testutil

// FixedSessionGenerator generates the same session ID every time.
//
// This enables deterministic journal rows and golden comparisons: the same
// run with the same generator writes byte-identical session columns.
//
// Thread-safety: FixedSessionGenerator is stateless and safe for concurrent use.
type FixedSessionGenerator struct {
	id string
}

// NewFixedSessionGenerator creates a fixed session ID generator.
// If id is empty, Generate() returns "test-session-default".
func NewFixedSessionGenerator(id string) *FixedSessionGenerator {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSessionGenerator{id: id}
}

// Generate returns the fixed session ID.
//
// Implements store.IDGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.id
}
