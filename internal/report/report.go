// Package report renders persisted result documents as terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/ansiterm"

	"github.com/Overland-East-Bay/vehicle-search-bench/internal/domain"
	"github.com/Overland-East-Bay/vehicle-search-bench/internal/ports/out/resultstore"
)

var (
	fasterColor   = ansiterm.Foreground(ansiterm.Green)
	slowerColor   = ansiterm.Foreground(ansiterm.Red)
	noResultColor = &ansiterm.Context{
		Foreground: ansiterm.Black,
		Background: ansiterm.Yellow,
	}
	headerColor = ansiterm.Foreground(ansiterm.BrightBlue)
)

// ColorMode selects when ANSI escapes are written.
type ColorMode int

const (
	// ColorAuto colors output only when it goes to a terminal.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode accepts auto, always or never.
func ParseColorMode(v string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("unknown color mode %q (expected auto|always|never)", v)
	}
}

// Options controls rendering.
type Options struct {
	Color ColorMode
	// Strategies sets the column order; it defaults to every strategy.
	Strategies []domain.Strategy
}

// Render writes the search table followed by the operations table. Either
// document may be nil, in which case its table says so.
func Render(out io.Writer, ops resultstore.OperationResults, search resultstore.SearchResults, opts Options) error {
	if len(opts.Strategies) == 0 {
		opts.Strategies = domain.Strategies
	}
	w := ansiterm.NewTabWriter(out, 0, 8, 2, ' ', 0)
	switch opts.Color {
	case ColorAlways:
		w.SetColorCapable(true)
	case ColorNever:
		w.SetColorCapable(false)
	}

	renderSearch(w, search, opts.Strategies)
	fmt.Fprintln(w)
	renderOperations(w, ops, opts.Strategies)
	fmt.Fprintln(w, "* faster strategy")
	return w.Flush()
}

func renderSearch(w *ansiterm.TabWriter, doc resultstore.SearchResults, strategies []domain.Strategy) {
	headerColor.Fprintf(w, "SEARCH")
	fmt.Fprintln(w)
	if len(doc) == 0 {
		fmt.Fprintln(w, "no search results recorded")
		return
	}

	fmt.Fprint(w, "QUERY")
	for _, s := range strategies {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(string(s)))
	}
	fmt.Fprintln(w, "\tFASTER")

	for _, kind := range searchKinds(doc) {
		fmt.Fprint(w, kindLabel(kind))
		times := make(map[domain.Strategy]float64, len(strategies))
		for _, s := range strategies {
			if p, ok := doc[s][kind]; ok {
				times[s] = p.TimeMs
			}
		}
		best, ranked := fastest(times)
		for _, s := range strategies {
			fmt.Fprint(w, "\t")
			p, ok := doc[s][kind]
			if !ok {
				fmt.Fprint(w, "-")
				continue
			}
			cell := formatMs(p.TimeMs)
			if ranked && s == best {
				cell += "*"
			}
			check := isCheckKind(kind)
			if p.Probes > 0 {
				verb := "found"
				if check {
					verb = "passed"
				}
				cell += fmt.Sprintf(" (%d/%d %s)", p.Matched, p.Probes, verb)
			}
			switch {
			case !p.FoundResult && check:
				noResultColor.Fprintf(w, "%s FAILED", cell)
			case !p.FoundResult:
				noResultColor.Fprintf(w, "%s (no result)", cell)
			case !ranked:
				fmt.Fprint(w, cell)
			case s == best:
				fasterColor.Fprintf(w, "%s", cell)
			default:
				slowerColor.Fprintf(w, "%s", cell)
			}
		}
		fmt.Fprintf(w, "\t%s\n", bestLabel(best, ranked))
	}
}

func renderOperations(w *ansiterm.TabWriter, doc resultstore.OperationResults, strategies []domain.Strategy) {
	headerColor.Fprintf(w, "OPERATIONS")
	fmt.Fprintln(w)
	if len(doc) == 0 {
		fmt.Fprintln(w, "no operation results recorded")
		return
	}

	fmt.Fprint(w, "OPERATION\tSIZE\tSTRATEGY")
	for _, kind := range domain.EntityKinds {
		fmt.Fprintf(w, "\t%s", strings.ToUpper(string(kind)))
	}
	fmt.Fprintln(w)

	for _, op := range domain.Operations {
		for _, size := range batchSizes(doc, op) {
			best := make(map[domain.EntityKind]domain.Strategy, len(domain.EntityKinds))
			ranked := make(map[domain.EntityKind]bool, len(domain.EntityKinds))
			for _, kind := range domain.EntityKinds {
				times := make(map[domain.Strategy]float64, len(strategies))
				for _, s := range strategies {
					if ms, ok := doc[s][kind][op][size]; ok {
						times[s] = ms
					}
				}
				best[kind], ranked[kind] = fastest(times)
			}

			for _, s := range strategies {
				fmt.Fprintf(w, "%s\t%d\t%s", op, size, s)
				for _, kind := range domain.EntityKinds {
					fmt.Fprint(w, "\t")
					ms, ok := doc[s][kind][op][size]
					switch {
					case !ok:
						fmt.Fprint(w, "-")
					case !ranked[kind]:
						fmt.Fprint(w, formatMs(ms))
					case best[kind] == s:
						fasterColor.Fprintf(w, "%s*", formatMs(ms))
					default:
						slowerColor.Fprintf(w, "%s", formatMs(ms))
					}
				}
				fmt.Fprintln(w)
			}
		}
	}
}

// fastest returns the strategy with the lowest time. ranked is false when
// fewer than two strategies can be compared or they tie.
func fastest(times map[domain.Strategy]float64) (best domain.Strategy, ranked bool) {
	if len(times) < 2 {
		return "", false
	}
	first := true
	tie := false
	var bestMs float64
	for _, s := range domain.Strategies {
		ms, ok := times[s]
		if !ok {
			continue
		}
		switch {
		case first || ms < bestMs:
			best, bestMs, tie = s, ms, false
			first = false
		case ms == bestMs:
			tie = true
		}
	}
	return best, !tie
}

func bestLabel(s domain.Strategy, ranked bool) string {
	if !ranked {
		return "-"
	}
	return string(s)
}

func formatMs(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 2, 64) + "ms"
}

// searchKinds orders the single probes first and the loads by size.
func searchKinds(doc resultstore.SearchResults) []string {
	seen := map[string]struct{}{}
	for _, byKind := range doc {
		for kind := range byKind {
			seen[kind] = struct{}{}
		}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		ri, ni := kindRank(kinds[i])
		rj, nj := kindRank(kinds[j])
		if ri != rj {
			return ri < rj
		}
		if ni != nj {
			return ni < nj
		}
		return kinds[i] < kinds[j]
	})
	return kinds
}

func kindRank(kind string) (rank, n int) {
	switch kind {
	case "general":
		return 0, 0
	case "specific":
		return 1, 0
	case "scenario":
		return 3, 0
	case "verification":
		return 4, 0
	}
	if n, err := strconv.Atoi(kind); err == nil {
		return 2, n
	}
	return 5, 0
}

// isCheckKind reports whether kind summarizes consistency checks rather than
// a timed search.
func isCheckKind(kind string) bool {
	return kind == "scenario" || kind == "verification"
}

func kindLabel(kind string) string {
	if _, err := strconv.Atoi(kind); err == nil {
		return kind + " concurrent"
	}
	return kind
}

func batchSizes(doc resultstore.OperationResults, op domain.Operation) []int {
	seen := map[int]struct{}{}
	for _, byKind := range doc {
		for _, byOp := range byKind {
			for size := range byOp[op] {
				seen[size] = struct{}{}
			}
		}
	}
	sizes := make([]int, 0, len(seen))
	for size := range seen {
		sizes = append(sizes, size)
	}
	sort.Ints(sizes)
	return sizes
}
