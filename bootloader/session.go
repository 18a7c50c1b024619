package bootloader

import (
	"time"

	"github.com/google/uuid"
)

// Phase is a state of the upload state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHandshaking
	PhaseErasing
	PhaseTransferring
	PhaseFinalizing
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseHandshaking:  "handshaking",
	PhaseErasing:      "erasing",
	PhaseTransferring: "transferring",
	PhaseFinalizing:   "finalizing",
	PhaseDone:         "done",
	PhaseAborted:      "aborted",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen from p.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseAborted
}

// session is the per-call state of one upload. It is created by Flash and
// dropped when Flash returns.
type session struct {
	id      uuid.UUID
	phase   Phase
	cursor  int
	total   int
	started time.Time
}

func newSession(total int) *session {
	return &session{
		id:      uuid.New(),
		phase:   PhaseIdle,
		total:   total,
		started: time.Now(),
	}
}

// advance moves the cursor forward by n bytes. The cursor never passes total.
func (s *session) advance(n int) {
	if n < 0 {
		return
	}
	s.cursor += n
	if s.cursor > s.total {
		s.cursor = s.total
	}
}

func (s *session) percentage() float64 {
	if s.total == 0 {
		return 100
	}
	return 100 * float64(s.cursor) / float64(s.total)
}

func (s *session) elapsed() time.Duration {
	return time.Since(s.started)
}
