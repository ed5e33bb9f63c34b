package sandbox

import (
	"errors"
	"fmt"
	"log/slog"

	"hopm/internal/logging"
)

const (
	// BroadPromises is the union of operation categories used during startup
	// and by the running daemon.
	BroadPromises = "stdio rpath wpath cpath flock inet dns proc exec unveil"
	// RuntimePromises is the operation set kept after Finalize.
	RuntimePromises = "stdio inet dns exec"

	// PledgeBackend names the backend that enforces the promises. Once it
	// has narrowed to RuntimePromises, no file can be created or renamed.
	PledgeBackend = "pledge"
)

// Rights are unveil-style access rights for a single path.
type Rights string

const (
	RightsNone        Rights = ""
	RightsRead        Rights = "r"
	RightsReadWrite   Rights = "rw"
	RightsWriteCreate Rights = "wc"
	RightsExecute     Rights = "x"
)

func (r Rights) String() string {
	if r == RightsNone {
		return "none"
	}
	return string(r)
}

var (
	// ErrNotStarted is returned when a grant or finalize precedes RequestBroad.
	ErrNotStarted = errors.New("sandbox: broad stage not requested")
	// ErrFinalized is returned for any widening attempted after Finalize.
	ErrFinalized = errors.New("sandbox: finalized")
)

// Backend applies restrictions to the running process.
type Backend interface {
	Name() string
	Restrict(promises string) error
	Reveal(path string, rights Rights) error
}

type stage int

const (
	stageInitial stage = iota
	stageBroad
	stageFinal
)

// EventKind identifies an entry in the stager trace.
type EventKind int

const (
	EventBroad EventKind = iota
	EventGrant
	EventFinal
)

func (k EventKind) String() string {
	switch k {
	case EventBroad:
		return "broad"
	case EventGrant:
		return "grant"
	case EventFinal:
		return "final"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Grant is one filesystem visibility grant.
type Grant struct {
	Label  string
	Path   string
	Rights Rights
}

// Event records a successful stager transition.
type Event struct {
	Kind     EventKind
	Promises string
	Grant    Grant
}

// Stager sequences the one-way narrowing. It is owned by the bootstrap
// goroutine and is not safe for concurrent use.
type Stager struct {
	backend Backend
	logger  *slog.Logger
	stage   stage
	trace   []Event
}

// New returns a stager in the initial stage.
func New(backend Backend, logger *slog.Logger) *Stager {
	if backend == nil {
		backend = DefaultBackend()
	}
	return &Stager{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "sandbox"),
	}
}

// RequestBroad enters the broad stage. It must run before any file is opened.
func (s *Stager) RequestBroad() error {
	switch s.stage {
	case stageBroad:
		return errors.New("sandbox: broad stage already requested")
	case stageFinal:
		return ErrFinalized
	}
	if err := s.backend.Restrict(BroadPromises); err != nil {
		return fmt.Errorf("pledge: %w", err)
	}
	if err := s.backend.Reveal("/", RightsNone); err != nil {
		return fmt.Errorf("unveil /: %w", err)
	}
	s.stage = stageBroad
	s.trace = append(s.trace, Event{Kind: EventBroad, Promises: BroadPromises})
	s.logger.Debug("broad sandbox requested", "backend", s.backend.Name(), "promises", BroadPromises)
	return nil
}

// Grant makes path visible with rights. Grants are additive.
func (s *Stager) Grant(label, path string, rights Rights) error {
	switch s.stage {
	case stageInitial:
		return ErrNotStarted
	case stageFinal:
		return fmt.Errorf("unveil %s: %w", path, ErrFinalized)
	}
	if path == "" {
		return fmt.Errorf("unveil %s: path is empty", label)
	}
	if err := s.backend.Reveal(path, rights); err != nil {
		return fmt.Errorf("unveil %s: %w", path, err)
	}
	grant := Grant{Label: label, Path: path, Rights: rights}
	s.trace = append(s.trace, Event{Kind: EventGrant, Grant: grant})
	s.logger.Debug("path granted", "label", label, "path", path, "rights", rights.String())
	return nil
}

// Finalize narrows to RuntimePromises. It is irreversible and may run once.
func (s *Stager) Finalize() error {
	switch s.stage {
	case stageInitial:
		return ErrNotStarted
	case stageFinal:
		return ErrFinalized
	}
	if err := s.backend.Restrict(RuntimePromises); err != nil {
		return fmt.Errorf("pledge: %w", err)
	}
	s.stage = stageFinal
	s.trace = append(s.trace, Event{Kind: EventFinal, Promises: RuntimePromises})
	s.logger.Debug("sandbox finalized", "promises", RuntimePromises)
	return nil
}

// Confined reports whether the backend enforces RuntimePromises, so that
// no file can be created after Finalize.
func (s *Stager) Confined() bool {
	return s.backend.Name() == PledgeBackend
}

// Finalized reports whether Finalize has completed.
func (s *Stager) Finalized() bool {
	return s.stage == stageFinal
}

// Trace returns a copy of the recorded transitions in call order.
func (s *Stager) Trace() []Event {
	out := make([]Event, len(s.trace))
	copy(out, s.trace)
	return out
}

// Grants returns the grant events of the trace in call order.
func (s *Stager) Grants() []Grant {
	var out []Grant
	for _, evt := range s.trace {
		if evt.Kind == EventGrant {
			out = append(out, evt.Grant)
		}
	}
	return out
}
