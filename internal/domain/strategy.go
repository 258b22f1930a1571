package domain

import (
	"fmt"
	"strings"
)

// Strategy selects the schema that maintains the search representation.
// The value doubles as the Postgres schema name.
type Strategy string

const (
	// StrategyTrigger keeps a denormalized tsvector table current through triggers.
	StrategyTrigger Strategy = "trigger"
	// StrategyView derives documents by joining the source tables at read time.
	StrategyView Strategy = "view"
)

// Strategies lists every known strategy in run order.
var Strategies = []Strategy{StrategyView, StrategyTrigger}

func (s Strategy) Valid() bool {
	return s == StrategyTrigger || s == StrategyView
}

// Schema returns the schema name the strategy's tables live in.
func (s Strategy) Schema() string { return string(s) }

// ParseStrategy validates a user-provided strategy name.
func ParseStrategy(v string) (Strategy, error) {
	s := Strategy(strings.ToLower(NormalizeHumanName(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown strategy %q (expected trigger|view)", v)
	}
	return s, nil
}
