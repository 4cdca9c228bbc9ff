package errtracker

import (
	"strings"
	"testing"

	"github.com/iulianpascalau/client-observability/services/engine/common"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestComputeFingerprint(t *testing.T) {
	t.Parallel()

	stack := "TypeError: x is undefined\n  at render (app.js:10:5)\n  at update (app.js:20:1)\n  at loop (app.js:30:2)"

	t.Run("identical inputs should produce the same fingerprint", func(t *testing.T) {
		first := ComputeFingerprint(common.SourceJavaScript, "x is undefined", stack)
		second := ComputeFingerprint(common.SourceJavaScript, "x is undefined", stack)

		assert.Equal(t, first, second)
		assert.Len(t, first, fingerprintLength)
	})
	t.Run("only the first 3 stack lines should count", func(t *testing.T) {
		other := "TypeError: x is undefined\n  at render (app.js:10:5)\n  at update (app.js:20:1)\n  at other (lib.js:1:1)"

		assert.Equal(t,
			ComputeFingerprint(common.SourceJavaScript, "x is undefined", stack),
			ComputeFingerprint(common.SourceJavaScript, "x is undefined", other),
		)
	})
	t.Run("different stacks should produce different fingerprints", func(t *testing.T) {
		other := "TypeError: x is undefined\n  at paint (app.js:11:5)"

		assert.NotEqual(t,
			ComputeFingerprint(common.SourceJavaScript, "x is undefined", stack),
			ComputeFingerprint(common.SourceJavaScript, "x is undefined", other),
		)
	})
	t.Run("source and message should count", func(t *testing.T) {
		base := ComputeFingerprint(common.SourceJavaScript, "x is undefined", stack)

		assert.NotEqual(t, base, ComputeFingerprint(common.SourceAPI, "x is undefined", stack))
		assert.NotEqual(t, base, ComputeFingerprint(common.SourceJavaScript, "y is undefined", stack))
	})
}

func TestFirstStackLines(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", firstStackLines("", 3))
	assert.Equal(t, "a", firstStackLines("  a  ", 3))
	assert.Equal(t, "a\nb\nc", firstStackLines("a\n b\r\nc\nd", 3))
}

func TestComputeFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	sources := []common.ErrorSource{
		common.SourceJavaScript,
		common.SourceAPI,
		common.SourceDatabase,
		common.SourceUserAction,
		common.SourceSystem,
	}

	rapid.Check(t, func(rt *rapid.T) {
		source := rapid.SampledFrom(sources).Draw(rt, "source")
		message := rapid.String().Draw(rt, "message")
		lines := rapid.SliceOfN(rapid.StringMatching(`[a-z ():.0-9]{0,20}`), 0, 6).Draw(rt, "lines")
		stack := strings.Join(lines, "\n")

		first := ComputeFingerprint(source, message, stack)
		second := ComputeFingerprint(source, message, stack)
		if first != second {
			rt.Fatalf("fingerprint is not deterministic: %s != %s", first, second)
		}

		extended := stack + "\nat extra (extra.js:1:1)"
		if len(lines) >= numFingerprintStackLines && ComputeFingerprint(source, message, extended) != first {
			rt.Fatalf("lines after the first %d changed the fingerprint", numFingerprintStackLines)
		}
	})
}
