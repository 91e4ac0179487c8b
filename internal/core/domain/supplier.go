package domain

import (
	"encoding/json"
	"fmt"
)

type MatchStatus int

const (
	NotAttempted MatchStatus = iota
	NoMatch
	Matched
)

func (s MatchStatus) String() string {
	switch s {
	case NoMatch:
		return "no_match"
	case Matched:
		return "matched"
	default:
		return "not_attempted"
	}
}

func (s MatchStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *MatchStatus) UnmarshalText(b []byte) error {
	switch string(b) {
	case "matched":
		*s = Matched
	case "no_match":
		*s = NoMatch
	case "not_attempted", "":
		*s = NotAttempted
	default:
		return fmt.Errorf("unknown match status %q", b)
	}
	return nil
}

// FailureKind records why a match ended in NoMatch. Users see both kinds
// the same way; the distinction is kept for logs and exports.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureNoResults
	FailureTransport
)

func (f FailureKind) String() string {
	switch f {
	case FailureNoResults:
		return "no_results"
	case FailureTransport:
		return "transport"
	default:
		return ""
	}
}

func (f FailureKind) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *FailureKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "no_results":
		*f = FailureNoResults
	case "transport":
		*f = FailureTransport
	case "":
		*f = FailureNone
	default:
		return fmt.Errorf("unknown failure kind %q", b)
	}
	return nil
}

type MatchState struct {
	Status     MatchStatus    `json:"status"`
	Record     *CompanyRecord `json:"record,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Failure    FailureKind    `json:"failure,omitempty"`
}

func MatchedState(rec *CompanyRecord, confidence float64) MatchState {
	return MatchState{Status: Matched, Record: rec, Confidence: confidence}
}

func NoMatchState(kind FailureKind) MatchState {
	return MatchState{Status: NoMatch, Failure: kind}
}

// CanRetry reports whether a manual retry is offered for the state.
func (m MatchState) CanRetry() bool {
	return m.Status == NotAttempted || m.Status == NoMatch
}

// MarshalJSON adds canRetry so clients know when to offer a retry.
func (m MatchState) MarshalJSON() ([]byte, error) {
	type state MatchState
	return json.Marshal(struct {
		state
		CanRetry bool `json:"canRetry"`
	}{state(m), m.CanRetry()})
}

// SupplierRecord is one row of the uploaded supplier list.
type SupplierRecord struct {
	ID           string            `json:"id"`
	OriginalName string            `json:"originalName"`
	SourceID     string            `json:"sourceId"`
	SourceStatus string            `json:"sourceStatus"`
	Columns      map[string]string `json:"columns,omitempty"` // passthrough CSV columns
	Match        MatchState        `json:"match"`
}

// Clone returns a copy that can be handed out without aliasing the original.
func (s SupplierRecord) Clone() SupplierRecord {
	out := s
	if s.Columns != nil {
		out.Columns = make(map[string]string, len(s.Columns))
		for k, v := range s.Columns {
			out.Columns[k] = v
		}
	}
	out.Match.Record = s.Match.Record.Clone()
	return out
}

// SupplierSchema remembers the uploaded header row and which columns were
// recognised, so exports can reproduce the original column order.
type SupplierSchema struct {
	Headers      []string
	NameColumn   string
	IDColumn     string
	StatusColumn string
}

// Value returns the cell of rec that belongs under header.
func (s SupplierSchema) Value(rec SupplierRecord, header string) string {
	switch header {
	case "":
		return ""
	case s.NameColumn:
		return rec.OriginalName
	case s.IDColumn:
		return rec.SourceID
	case s.StatusColumn:
		return rec.SourceStatus
	}
	return rec.Columns[header]
}
