package logger

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
)

// Entry is a single decoded event from a JSON lines log.
type Entry struct {
	Level     string   `json:"level"`
	Timestamp string   `json:"ts"`
	Event     string   `json:"event"`
	SessionID string   `json:"session_id"`
	Path      string   `json:"path,omitempty"`
	Argv      []string `json:"argv,omitempty"`
	Pid       int      `json:"pid,omitempty"`
	Code      int      `json:"code,omitempty"`
	Error     string   `json:"error,omitempty"`
	Signal    string   `json:"signal,omitempty"`
	Action    string   `json:"action,omitempty"`
	Name      string   `json:"name,omitempty"`
}

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(e *Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var entry Entry
		if err := decoder.Decode(&entry); err != nil {
			return err
		}
		handler(&entry)
	}
	return nil
}

// StrCounter counts occurrences of strings.
type StrCounter map[string]int

func (s *StrCounter) Increment(key string) {
	if *s == nil {
		*s = make(StrCounter)
	}
	(*s)[key]++
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Events     StrCounter `json:"events"`
	Sessions   StrCounter `json:"sessions"`

	Commands          StrCounter `json:"commands"`
	UnknownCommands   StrCounter `json:"unknown_commands"`
	InvalidInvocation StrCounter `json:"invalid_invocations"`
	ExitCodes         StrCounter `json:"exit_codes"`
	Signals           StrCounter `json:"signals"`
	Traps             StrCounter `json:"traps"`
	Coprocs           StrCounter `json:"coprocs"`
	Watches           StrCounter `json:"watches"`
}

func argv0(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return argv[0]
}

// Update adds an entry to the report.
func (r *Report) Update(e *Entry) {
	r.LogEntries++
	r.Events.Increment(e.Event)
	if e.SessionID != "" {
		r.Sessions.Increment(e.SessionID)
	}

	switch e.Event {
	case eventRunCommand:
		r.Commands.Increment(e.Path)
	case eventUnknownCommand:
		r.UnknownCommands.Increment(argv0(e.Argv))
	case eventInvalidInvocation:
		r.InvalidInvocation.Increment(strings.Join(e.Argv, " ") + ": " + e.Error)
	case eventProcessExit:
		r.ExitCodes.Increment(strconv.Itoa(e.Code))
	case eventSignalSent:
		r.Signals.Increment(e.Signal)
	case eventTrapFired:
		r.Traps.Increment(e.Signal)
	case eventCoprocStarted:
		r.Coprocs.Increment(e.Name)
	case eventWatchTriggered:
		r.Watches.Increment(e.Path)
	}
}
