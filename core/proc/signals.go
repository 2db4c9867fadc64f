package proc

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"syscall"
)

// ErrBadSignal is returned for signal specifications that name no signal.
var ErrBadSignal = errors.New("invalid signal specification")

// SignalInfo pairs a signal number with its name, without the SIG prefix.
type SignalInfo struct {
	Name   string
	Number syscall.Signal
}

// Signals returns the known signals ordered by number.
func Signals() []SignalInfo {
	out := append([]SignalInfo(nil), signalTable...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Number < out[j].Number
	})
	return out
}

// SignalName returns the name of sig without the SIG prefix.
func SignalName(sig syscall.Signal) (string, bool) {
	for _, info := range signalTable {
		if info.Number == sig {
			return info.Name, true
		}
	}
	return "", false
}

// ParseSignal resolves a signal given by number or by name. Names are case
// insensitive and may carry a SIG prefix. The number 0 is accepted for
// existence checks.
func ParseSignal(spec string) (syscall.Signal, error) {
	if spec == "" {
		return 0, fmt.Errorf("%q: %w", spec, ErrBadSignal)
	}
	if num, err := strconv.Atoi(spec); err == nil {
		if num == 0 {
			return 0, nil
		}
		if _, ok := SignalName(syscall.Signal(num)); ok {
			return syscall.Signal(num), nil
		}
		return 0, fmt.Errorf("%s: %w", spec, ErrBadSignal)
	}

	name := strings.TrimPrefix(strings.ToUpper(spec), "SIG")
	for _, info := range signalTable {
		if info.Name == name {
			return info.Number, nil
		}
	}
	return 0, fmt.Errorf("%s: %w", spec, ErrBadSignal)
}
