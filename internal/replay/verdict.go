package replay

import "fmt"

// Verdict classifies one transcript record.
type Verdict uint8

const (
	Legal Verdict = iota
	Illegal
	NotAMove
	Skipped
)

var verdictNames = [...]string{
	Legal:    "legal",
	Illegal:  "illegal",
	NotAMove: "not-a-move",
	Skipped:  "skipped",
}

func (v Verdict) String() string {
	if int(v) < len(verdictNames) {
		return verdictNames[v]
	}
	return fmt.Sprintf("verdict(%d)", uint8(v))
}

// MarshalText encodes the verdict as its lowercase name.
func (v Verdict) MarshalText() ([]byte, error) {
	if int(v) >= len(verdictNames) {
		return nil, fmt.Errorf("unknown verdict %d", uint8(v))
	}
	return []byte(verdictNames[v]), nil
}

// UnmarshalText decodes a verdict name.
func (v *Verdict) UnmarshalText(b []byte) error {
	for i, name := range verdictNames {
		if name == string(b) {
			*v = Verdict(i)
			return nil
		}
	}
	return fmt.Errorf("unknown verdict %q", b)
}

// State is the lifecycle of a validated game.
type State uint8

const (
	InProgress State = iota
	Checkmate
	Stalemate
	RoundLimitDraw
	Aborted
)

var stateNames = [...]string{
	InProgress:     "in-progress",
	Checkmate:      "checkmate",
	Stalemate:      "stalemate",
	RoundLimitDraw: "round-limit-draw",
	Aborted:        "aborted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Terminal reports whether no further move may be played.
func (s State) Terminal() bool {
	return s != InProgress
}

// MarshalText encodes the state as its lowercase name.
func (s State) MarshalText() ([]byte, error) {
	if int(s) >= len(stateNames) {
		return nil, fmt.Errorf("unknown state %d", uint8(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}
