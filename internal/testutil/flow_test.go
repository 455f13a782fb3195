package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("flow")
	assert.Equal(t, "flow-1", gen.Generate())
	assert.Equal(t, "flow-2", gen.Generate())
}

func TestSequenceGenerator_DefaultPrefix(t *testing.T) {
	gen := NewSequenceGenerator("")
	assert.Equal(t, "test-flow-1", gen.Generate())
}

func TestSequenceGenerator_Concurrent(t *testing.T) {
	gen := NewSequenceGenerator("c")
	const n = 200

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			tok := gen.Generate()
			mu.Lock()
			seen[tok] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}
