//go:build property

package compiler

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestNormalizeTextProperties checks whitespace normalization over random
// literal parts.
func TestNormalizeTextProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	parameters.Rng.Seed(1234)

	properties := gopter.NewProperties(parameters)

	pieces := []string{"a", "b", " ", "\n", "\t", "  ", "\r\n", "é"}
	text := gen.SliceOf(gen.IntRange(0, len(pieces)-1)).Map(func(idx []int) string {
		var b strings.Builder
		for _, i := range idx {
			b.WriteString(pieces[i])
		}
		return b.String()
	})

	properties.Property("normalization is idempotent", prop.ForAll(
		func(s string, first, last bool) bool {
			once := normalizeText(s, first, last)
			return normalizeText(once, first, last) == once
		},
		text, gen.Bool(), gen.Bool(),
	))

	properties.Property("no whitespace runs survive", prop.ForAll(
		func(s string, first, last bool) bool {
			out := normalizeText(s, first, last)
			return !strings.Contains(out, "  ") && !strings.ContainsAny(out, "\n\t\r")
		},
		text, gen.Bool(), gen.Bool(),
	))

	properties.Property("trimmed edges carry no whitespace", prop.ForAll(
		func(s string) bool {
			out := normalizeText(s, true, true)
			return out == strings.TrimSpace(out)
		},
		text,
	))

	properties.Property("split parts rejoin to the input", prop.ForAll(
		func(s string) bool {
			return strings.Join(splitInterpolation(s), "") == s
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
