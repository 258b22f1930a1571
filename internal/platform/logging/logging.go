// Package logging configures the process-wide loggo writer and levels.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/loggo/v2"
)

// DefaultSpec logs INFO and above from every module.
const DefaultSpec = "<root>=INFO"

// Setup routes all loggers to w and applies spec, e.g.
// "<root>=INFO;vsbench.app.oracle=DEBUG". An empty spec means DefaultSpec.
func Setup(w io.Writer, spec string) error {
	if spec == "" {
		spec = DefaultSpec
	}
	if _, err := loggo.ReplaceDefaultWriter(loggo.NewSimpleWriter(w, formatEntry)); err != nil {
		return fmt.Errorf("replace log writer: %w", err)
	}
	if err := loggo.ConfigureLoggers(spec); err != nil {
		return fmt.Errorf("log level %q: %w", spec, err)
	}
	return nil
}

func formatEntry(entry loggo.Entry) string {
	ts := entry.Timestamp.In(time.UTC).Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("%s %-5s %s %s", ts, entry.Level.String(), entry.Module, entry.Message)
}
