package wallet

import (
	"time"
)

// Phase of the reconnection state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMonitoring
	PhaseReconnecting
	PhaseLoggedOut
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseMonitoring:
		return "monitoring"
	case PhaseReconnecting:
		return "reconnecting"
	case PhaseLoggedOut:
		return "logged_out"
	}
	return "unknown"
}

// State is the reconnection state of one session. Values are never
// mutated in place; reduce returns a new copy.
type State struct {
	Phase          Phase
	Attempts       int
	LastWalletName string
	MaxRetries     int
	RetryInterval  time.Duration

	// wallet is the name used for the current reconnection cycle.
	wallet string
	// inFlight is set while a connect call is outstanding.
	inFlight bool
	// gen invalidates results and timers that belong to an abandoned cycle.
	gen uint64
}

// Reconnecting reports whether a reconnection cycle is running.
func (s State) Reconnecting() bool {
	return s.Phase == PhaseReconnecting
}

// event is an input to the reducer.
type event interface{ isEvent() }

type observedEvent struct {
	signal       Signal
	monitor      bool
	storedWallet string
}

type attemptDoneEvent struct {
	gen uint64
	err error
}

type retryDueEvent struct {
	gen uint64
}

type manualReconnectEvent struct {
	storedWallet string
}

type logoutRequestedEvent struct{}

func (observedEvent) isEvent()        {}
func (attemptDoneEvent) isEvent()     {}
func (retryDueEvent) isEvent()        {}
func (manualReconnectEvent) isEvent() {}
func (logoutRequestedEvent) isEvent() {}

// command is a side effect requested by the reducer.
type command interface{ isCommand() }

type connectCommand struct {
	wallet  string
	attempt int
	gen     uint64
}

type scheduleRetryCommand struct {
	delay time.Duration
	gen   uint64
}

type cancelRetryCommand struct{}

type notifyLoadingCommand struct{}

type notifySuccessCommand struct{}

type dismissCommand struct{}

type logoutCommand struct {
	// cause is the last connect error when the retry budget ran out.
	cause    error
	attempts int
}

type rejectCommand struct {
	err error
}

func (connectCommand) isCommand()       {}
func (scheduleRetryCommand) isCommand() {}
func (cancelRetryCommand) isCommand()   {}
func (notifyLoadingCommand) isCommand() {}
func (notifySuccessCommand) isCommand() {}
func (dismissCommand) isCommand()       {}
func (logoutCommand) isCommand()        {}
func (rejectCommand) isCommand()        {}

// reduce is the pure function (State, event) -> (State, commands).
func reduce(s State, ev event) (State, []command) {
	if s.Phase == PhaseLoggedOut {
		if _, ok := ev.(manualReconnectEvent); ok {
			return s, []command{rejectCommand{err: ErrLoggedOut}}
		}
		return s, nil
	}

	switch e := ev.(type) {
	case observedEvent:
		return reduceObserved(s, e)

	case attemptDoneEvent:
		if e.gen != s.gen || !s.inFlight {
			return s, nil
		}
		s.inFlight = false
		if e.err == nil {
			s.Phase = PhaseMonitoring
			s.Attempts = 0
			return s, []command{dismissCommand{}, notifySuccessCommand{}}
		}
		if s.Attempts < s.MaxRetries {
			return s, []command{scheduleRetryCommand{delay: s.RetryInterval, gen: s.gen}}
		}
		attempts := s.Attempts
		s.Phase = PhaseLoggedOut
		s.gen++
		return s, []command{cancelRetryCommand{}, dismissCommand{}, logoutCommand{cause: e.err, attempts: attempts}}

	case retryDueEvent:
		if e.gen != s.gen || s.Phase != PhaseReconnecting || s.inFlight {
			return s, nil
		}
		return startAttempt(s)

	case manualReconnectEvent:
		if s.inFlight {
			return s, []command{rejectCommand{err: ErrAttemptInFlight}}
		}
		name := firstNonEmpty(e.storedWallet, s.LastWalletName, s.wallet)
		if name == "" {
			return s, []command{rejectCommand{err: ErrNoWallet}}
		}
		s.Phase = PhaseReconnecting
		s.Attempts = 0
		s.wallet = name
		s.gen++
		next, cmds := startAttempt(s)
		return next, append([]command{cancelRetryCommand{}, notifyLoadingCommand{}}, cmds...)

	case logoutRequestedEvent:
		cmds := []command{cancelRetryCommand{}}
		if s.Phase == PhaseReconnecting {
			cmds = append(cmds, dismissCommand{})
		}
		s.Phase = PhaseLoggedOut
		s.inFlight = false
		s.gen++
		return s, append(cmds, logoutCommand{})
	}
	return s, nil
}

func reduceObserved(s State, e observedEvent) (State, []command) {
	if !e.monitor {
		if s.Phase == PhaseIdle {
			return s, nil
		}
		var cmds []command
		if s.Phase == PhaseReconnecting {
			cmds = append(cmds, dismissCommand{})
		}
		s.Phase = PhaseIdle
		s.Attempts = 0
		s.inFlight = false
		s.gen++
		return s, append(cmds, cancelRetryCommand{})
	}

	sig := e.signal
	if sig.Connected && sig.WalletName != "" {
		s.LastWalletName = sig.WalletName
	}
	if s.Phase == PhaseIdle {
		s.Phase = PhaseMonitoring
	}

	switch {
	case sig.Connected && sig.HasAccount && s.Phase == PhaseReconnecting && !s.inFlight:
		// The wallet came back on its own while a retry was pending.
		s.Phase = PhaseMonitoring
		s.Attempts = 0
		s.gen++
		return s, []command{cancelRetryCommand{}, dismissCommand{}}

	case !sig.Connected && s.Phase == PhaseMonitoring:
		name := firstNonEmpty(e.storedWallet, s.LastWalletName)
		if name == "" {
			return s, nil
		}
		s.Phase = PhaseReconnecting
		s.Attempts = 0
		s.wallet = name
		next, cmds := startAttempt(s)
		return next, append([]command{notifyLoadingCommand{}}, cmds...)
	}
	return s, nil
}

func startAttempt(s State) (State, []command) {
	s.inFlight = true
	s.Attempts++
	return s, []command{connectCommand{wallet: s.wallet, attempt: s.Attempts, gen: s.gen}}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
