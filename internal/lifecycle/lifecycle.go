// Package lifecycle gates option writes by stage phase.
//
// A stage moves PreInit -> Init -> PostInit -> (PreCall -> Call -> PostCall)*
// -> (PreRun -> Run -> PostRun). Parameter-like options are writable on a
// fresh stage until its run begins; result-like options only during run.
// While the constructor runs, a forbidden write is dropped instead of failing
// so that a loaded stage can replay its constructor without touching stored
// values.
package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrStateViolation reports a write or transition the current phase forbids.
	ErrStateViolation = errors.New("state violation")
	// ErrInvalidTransition reports an out-of-order lifecycle call.
	ErrInvalidTransition = fmt.Errorf("%w: invalid transition", ErrStateViolation)
)

// Phase is a lifecycle state.
type Phase int

const (
	PreInit Phase = iota
	Init
	PostInit
	PreCall
	Call
	PostCall
	PreRun
	Run
	PostRun
)

var phaseNames = [...]string{"pre-init", "init", "post-init", "pre-call", "call", "post-call", "pre-run", "run", "post-run"}

func (p Phase) String() string {
	if int(p) < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Lifecycle holds the write-protection flags of one stage instance.
type Lifecycle struct {
	phase             Phase
	loaded            bool
	allowParamChange  bool
	allowResultChange bool
	isInit            bool
}

// New returns a lifecycle in PreInit. A loaded stage never accepts parameter writes.
func New(load bool) *Lifecycle {
	return &Lifecycle{
		phase:            PreInit,
		loaded:           load,
		allowParamChange: !load,
		isInit:           true,
	}
}

func (l *Lifecycle) Phase() Phase { return l.phase }
func (l *Lifecycle) Loaded() bool { return l.loaded }
func (l *Lifecycle) IsInit() bool { return l.isInit }
func (l *Lifecycle) AllowParamChange() bool { return l.allowParamChange }
func (l *Lifecycle) AllowResultChange() bool { return l.allowResultChange }

func (l *Lifecycle) transition(to Phase, from ...Phase) error {
	for _, f := range from {
		if l.phase == f {
			l.phase = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.phase, to)
}

// BeginInit enters Init.
func (l *Lifecycle) BeginInit() error {
	return l.transition(Init, PreInit)
}

// EndInit enters PostInit and ends the constructor grace period.
func (l *Lifecycle) EndInit() error {
	if err := l.transition(PostInit, Init); err != nil {
		return err
	}
	l.isInit = false
	return nil
}

// BeginCall enters Call through PreCall.
func (l *Lifecycle) BeginCall() error {
	if err := l.transition(PreCall, PostInit, PostCall); err != nil {
		return err
	}
	l.phase = Call
	return nil
}

// EndCall enters PostCall.
func (l *Lifecycle) EndCall() error {
	return l.transition(PostCall, Call)
}

// BeginRun enters Run through PreRun, unlocking results and locking parameters.
func (l *Lifecycle) BeginRun() error {
	if err := l.transition(PreRun, PostInit, PostCall); err != nil {
		return err
	}
	l.allowResultChange = true
	l.allowParamChange = false
	l.phase = Run
	return nil
}

// EndRun enters PostRun and relocks results.
func (l *Lifecycle) EndRun() error {
	if err := l.transition(PostRun, Run); err != nil {
		return err
	}
	l.allowResultChange = false
	return nil
}

// CheckParamWrite reports whether a parameter-like write should be persisted.
func (l *Lifecycle) CheckParamWrite() (bool, error) {
	if l.allowParamChange {
		return true, nil
	}
	if l.isInit {
		return false, nil
	}
	if l.loaded {
		return false, fmt.Errorf("%w: stage is loaded, parameters can not be set", ErrStateViolation)
	}
	return false, fmt.Errorf("%w: parameters can not be set during %s", ErrStateViolation, l.phase)
}

// CheckResultWrite reports whether a result-like write should be persisted.
func (l *Lifecycle) CheckResultWrite() (bool, error) {
	if l.allowResultChange {
		return true, nil
	}
	if l.isInit {
		return false, nil
	}
	return false, fmt.Errorf("%w: results can only be changed within run", ErrStateViolation)
}
