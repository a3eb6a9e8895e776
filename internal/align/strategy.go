package align

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStrategy is returned when a strategy name cannot be parsed
var ErrUnknownStrategy = errors.New("unknown alignment strategy")

// Strategy controls how non-overlapping spans are attributed to nearby turns
type Strategy int

const (
	// StrategyStrict only credits temporal overlap.
	StrategyStrict Strategy = iota
	// StrategySmart credits overlap first and near misses within a few seconds.
	StrategySmart
	// StrategyAggressive tolerates up to five seconds of drift.
	StrategyAggressive
)

var strategyNames = map[Strategy]string{
	StrategyStrict:     "strict",
	StrategySmart:      "smart",
	StrategyAggressive: "aggressive",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy maps a strategy name (case-insensitive) to a Strategy
func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// MarshalText implements encoding.TextMarshaler
func (s Strategy) MarshalText() ([]byte, error) {
	if _, ok := strategyNames[s]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
