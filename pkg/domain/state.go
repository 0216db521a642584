package domain

import "time"

// Phase is the discriminator of the RequestState union.
type Phase string

const (
	PhaseIdle       Phase = "idle"       // No request has been submitted yet
	PhaseValidating Phase = "validating" // Subject accepted, credential being checked
	PhaseInFlight   Phase = "in_flight"  // Waiting for the generation backend
	PhaseSucceeded  Phase = "succeeded"  // Memo received and rendered
	PhaseFailed     Phase = "failed"     // Request ended with an ErrorKind
)

// IsTerminal reports whether the phase ends a request.
// Terminal phases last only until the next submission.
func (p Phase) IsTerminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// RequestState is the snapshot of the single observable request.
// Which fields are meaningful depends on Phase:
//
//	Idle        -> none
//	Validating  -> Subject
//	InFlight    -> Subject
//	Succeeded   -> Subject, RawText, Blocks
//	Failed      -> Subject, ErrorKind, Message
type RequestState struct {
	Phase Phase `json:"phase"`

	// Ticket is the request-generation counter captured at submission.
	Ticket uint64 `json:"ticket"`

	// RequestID correlates logs and events for one submission.
	RequestID string `json:"request_id,omitempty"`

	Subject   Subject        `json:"subject,omitempty"`
	RawText   string         `json:"raw_text,omitempty"`
	Blocks    []ContentBlock `json:"blocks,omitempty"`
	ErrorKind ErrorKind      `json:"error_kind,omitempty"`
	Message   string         `json:"message,omitempty"`

	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// IdleState is the state at application start.
func IdleState() RequestState {
	return RequestState{Phase: PhaseIdle}
}

// ValidatingState is entered as soon as a non-empty subject is submitted.
func ValidatingState(ticket uint64, requestID string, subject Subject, at time.Time) RequestState {
	return RequestState{
		Phase:     PhaseValidating,
		Ticket:    ticket,
		RequestID: requestID,
		Subject:   subject,
		StartedAt: at,
	}
}

// InFlight derives the in-flight state from a validating one.
func (s RequestState) InFlight() RequestState {
	next := s.base()
	next.Phase = PhaseInFlight
	return next
}

// Succeeded derives the success state carrying the raw text and its rendered blocks.
func (s RequestState) Succeeded(rawText string, blocks []ContentBlock, at time.Time) RequestState {
	next := s.base()
	next.Phase = PhaseSucceeded
	next.RawText = rawText
	next.Blocks = blocks
	next.FinishedAt = at
	return next
}

// Failed derives the failure state.
func (s RequestState) Failed(kind ErrorKind, message string, at time.Time) RequestState {
	next := s.base()
	next.Phase = PhaseFailed
	next.ErrorKind = kind
	next.Message = message
	next.FinishedAt = at
	return next
}

func (s RequestState) base() RequestState {
	return RequestState{
		Ticket:    s.Ticket,
		RequestID: s.RequestID,
		Subject:   s.Subject,
		StartedAt: s.StartedAt,
	}
}

// Snapshot returns a deep copy so callers cannot mutate the owner's blocks.
func (s RequestState) Snapshot() RequestState {
	out := s
	out.Blocks = CloneBlocks(s.Blocks)
	return out
}

// Duration is the wall time between submission and completion, zero while running.
func (s RequestState) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
