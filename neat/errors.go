package neat

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPopulation is returned by NextGeneration when no species earns
	// any offspring, which happens only when every adjusted fitness is zero
	// or negative.
	ErrEmptyPopulation = errors.New("empty population: total offspring quota is zero")

	// ErrUnknownGenomeType is returned by NewGenomeManager for an unsupported encoding.
	ErrUnknownGenomeType = errors.New("unknown genome type")
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s %s", e.Field, e.Reason)
}

// VerifyError lists every invariant violation found by a Verify call.
type VerifyError struct {
	Problems []string
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("verify failed (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *VerifyError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

func (e *VerifyError) errOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
