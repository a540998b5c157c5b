package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode reports a mode name or menu digit no driver answers to.
var ErrUnknownMode = errors.New("unknown processing mode")

// Mode selects the run driver.
type Mode string

// Processing modes, in menu order.
const (
	ModeSequential Mode = "sequential"
	ModePool       Mode = "pool"
	ModeStream     Mode = "stream"
)

// Modes lists every mode in menu order.
func Modes() []Mode {
	return []Mode{ModeSequential, ModePool, ModeStream}
}

// ParseMode resolves a mode from its name or its menu digit (1, 2, 3).
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", string(ModeSequential):
		return ModeSequential, nil
	case "2", string(ModePool):
		return ModePool, nil
	case "3", string(ModeStream):
		return ModeStream, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
	}
}
