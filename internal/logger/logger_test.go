package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioBanners(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)

	TestBegin(l, "Search for playwright")
	TestEnd(l, "Search for playwright", "passed")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[0], strings.Repeat("-", 120))
	assert.Contains(t, lines[1], "SCENARIO: SEARCH FOR PLAYWRIGHT - STARTED")
	assert.Contains(t, lines[2], strings.Repeat("-", 120))
	assert.Contains(t, lines[4], "SCENARIO: SEARCH FOR PLAYWRIGHT - PASSED")
	for _, line := range lines {
		assert.Contains(t, line, "INF")
	}
}

func TestConsoleTimestampLayout(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, true)
	l.Info().Str("comp", "lifecycle").Msg("ready")

	out := buf.String()
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} `, out)
	assert.Contains(t, out, "comp=lifecycle")
	assert.Contains(t, out, "ready")
}
