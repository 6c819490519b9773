package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polzovatel/uibdd/internal/browser/browsertest"
)

func TestCollectRanksTargetableElements(t *testing.T) {
	page := browsertest.NewPage()
	page.PageTitle = "Search"
	page.EvalResult = map[string]any{
		"text": "  Results \n\n for   playwright ",
		"elements": []any{
			map[string]any{"role": "div", "text": "wrapper", "selector": ""},
			map[string]any{"role": "generic", "text": "", "selector": `span:has-text("x")`},
			map[string]any{"role": "input", "text": "", "selector": `input[name="q"]`},
			map[string]any{"role": "button", "text": "Search", "selector": "#submit"},
		},
	}

	s, err := Collect(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", s.URL)
	assert.Equal(t, "Search", s.Title)
	assert.Equal(t, "Results for playwright", s.Visible)
	require.Len(t, s.Elements, 3)
	assert.Equal(t, "#submit", s.Elements[0].Selector)
	assert.Equal(t, `input[name="q"]`, s.Elements[1].Selector)

	out := s.String()
	assert.Contains(t, out, "TITLE: Search")
	assert.Contains(t, out, `1) button "Search" -> #submit`)
}

func TestCollectKeepsURLWhenScriptFails(t *testing.T) {
	page := browsertest.NewPage()
	page.EvalErr = errors.New("execution context was destroyed")

	s, err := Collect(context.Background(), page)
	assert.Error(t, err)
	assert.Equal(t, "about:blank", s.URL)
}

func TestCollectHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, browsertest.NewPage())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncateRespectsRunes(t *testing.T) {
	s := strings.Repeat("é", 400)
	got := truncate(s, 601)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, 600, len(strings.TrimSuffix(got, "…")))
	assert.Equal(t, "short", truncate("short", 10))
}

func TestRankLimit(t *testing.T) {
	var elems []Element
	for i := 0; i < maxElements+10; i++ {
		elems = append(elems, Element{Role: "a", Selector: "a"})
	}
	assert.Len(t, rank(elems, maxElements), maxElements)
}
