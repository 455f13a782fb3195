package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares got against testdata/golden/<name>.golden relative
// to the calling package. Run the test with -update to rewrite the file.
func AssertGolden(t *testing.T, name string, got []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}
