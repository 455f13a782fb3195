package dialog

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator issues the token a flow is resumed by.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator issues UUIDv7 flow tokens. A v7 token starts with its
// creation time, so flows listed by token come back in the order they began.
// The zero value is ready and may be shared between services.
type UUIDv7Generator struct{}

// Generate implements TokenGenerator.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a scripted list of flow tokens, for tests that
// assert on tokens. Flows begun after the list runs out panic.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	issued int
}

// NewFixedGenerator scripts the tokens of the next len(tokens) flows.
//
//	gen := NewFixedGenerator("flow-1", "flow-2")
//	gen.Generate() // "flow-1"
//	gen.Generate() // "flow-2"
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// Generate implements TokenGenerator.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.issued == len(g.tokens) {
		panic(fmt.Sprintf("dialog: flow %d begun but only %d token(s) scripted", g.issued+1, len(g.tokens)))
	}
	token := g.tokens[g.issued]
	g.issued++
	return token
}
