package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator generates dialog flow tokens "<prefix>-1", "<prefix>-2", ...
//
// This enables deterministic test execution and golden snapshot comparison.
// Unlike dialog.FixedGenerator it never runs out of tokens.
//
// Thread-safety: SequenceGenerator is safe for concurrent use via internal mutex.
type SequenceGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGenerator creates a generator. If prefix is empty, tokens are
// prefixed with "test-flow".
func NewSequenceGenerator(prefix string) *SequenceGenerator {
	if prefix == "" {
		prefix = "test-flow"
	}
	return &SequenceGenerator{prefix: prefix}
}

// Generate returns the next token.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
