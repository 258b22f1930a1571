package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

func sampleDocs() (resultstore.OperationResults, resultstore.SearchResults) {
	ops := resultstore.OperationResults{
		domain.StrategyView: {
			domain.EntityMake: {
				domain.OperationInsert: {1: 2.5, 100: 40},
				domain.OperationDelete: {100: 30},
			},
		},
		domain.StrategyTrigger: {
			domain.EntityMake: {
				domain.OperationInsert: {1: 3, 100: 35},
				domain.OperationDelete: {100: 30},
			},
		},
	}
	search := resultstore.SearchResults{
		domain.StrategyView: {
			"general":  {TimeMs: 9, FoundResult: true},
			"specific": {TimeMs: 4, FoundResult: false},
			"100":      {TimeMs: 120, FoundResult: true, Probes: 100, Matched: 60},
			"scenario": {TimeMs: 30, FoundResult: true, Probes: 22, Matched: 22},
		},
		domain.StrategyTrigger: {
			"general":  {TimeMs: 1.25, FoundResult: true},
			"specific": {TimeMs: 5, FoundResult: true},
			"100":      {TimeMs: 80, FoundResult: true, Probes: 100, Matched: 60},
			"scenario": {TimeMs: 12, FoundResult: false, Probes: 9, Matched: 8},
		},
	}
	return ops, search
}

// lineWith returns the first line whose leading fields are fields.
func lineWith(t *testing.T, out string, fields ...string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		got := strings.Fields(line)
		if len(got) < len(fields) {
			continue
		}
		match := true
		for i, f := range fields {
			if got[i] != f {
				match = false
				break
			}
		}
		if match {
			return line
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", fields, out)
	return ""
}

func TestRender_Plain(t *testing.T) {
	t.Parallel()

	ops, search := sampleDocs()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ops, search, Options{Color: ColorNever}))
	out := buf.String()

	assert.NotContains(t, out, "\x1b[")
	assert.Contains(t, out, "SEARCH")
	assert.Contains(t, out, "OPERATIONS")

	general := lineWith(t, out, "general")
	assert.Contains(t, general, "1.25ms*")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(general), "trigger"), general)

	specific := lineWith(t, out, "specific")
	assert.Contains(t, specific, "(no result)")

	load := lineWith(t, out, "100", "concurrent")
	assert.Contains(t, load, "(60/100 found)")

	scenario := lineWith(t, out, "scenario")
	assert.Contains(t, scenario, "(22/22 passed)")
	assert.Contains(t, scenario, "(8/9 passed) FAILED")

	assert.Contains(t, lineWith(t, out, "insert", "1", "view"), "2.50ms*")
	assert.Contains(t, lineWith(t, out, "insert", "100", "trigger"), "35.00ms*")

	// Ties are not ranked.
	deleteView := lineWith(t, out, "delete", "100", "view")
	assert.NotContains(t, deleteView, "*")
	// No model or trim timings were recorded.
	assert.Contains(t, deleteView, "-")
}

func TestRender_OrdersSearchKinds(t *testing.T) {
	t.Parallel()

	search := resultstore.SearchResults{
		domain.StrategyView: {
			"1000":         {TimeMs: 1, FoundResult: true},
			"specific":     {TimeMs: 1, FoundResult: true},
			"100":          {TimeMs: 1, FoundResult: true},
			"general":      {TimeMs: 1, FoundResult: true},
			"verification": {TimeMs: 1, FoundResult: true},
			"scenario":     {TimeMs: 1, FoundResult: true},
		},
	}
	assert.Equal(t, []string{"general", "specific", "100", "1000", "scenario", "verification"}, searchKinds(search))
}

func TestRender_Color(t *testing.T) {
	t.Parallel()

	ops, search := sampleDocs()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ops, search, Options{Color: ColorAlways}))
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestRender_EmptyDocuments(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, nil, Options{}))
	assert.Contains(t, buf.String(), "no search results recorded")
	assert.Contains(t, buf.String(), "no operation results recorded")
}

func TestFastest(t *testing.T) {
	t.Parallel()

	best, ranked := fastest(map[domain.Strategy]float64{domain.StrategyView: 2, domain.StrategyTrigger: 1})
	assert.True(t, ranked)
	assert.Equal(t, domain.StrategyTrigger, best)

	_, ranked = fastest(map[domain.Strategy]float64{domain.StrategyView: 2})
	assert.False(t, ranked)

	_, ranked = fastest(map[domain.Strategy]float64{domain.StrategyView: 2, domain.StrategyTrigger: 2})
	assert.False(t, ranked)
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	m, err := ParseColorMode("Always")
	require.NoError(t, err)
	assert.Equal(t, ColorAlways, m)

	m, err = ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, m)

	_, err = ParseColorMode("sometimes")
	assert.Error(t, err)
}
