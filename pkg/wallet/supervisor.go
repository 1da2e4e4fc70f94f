// Package wallet keeps a logged-in session's wallet connected. Unexpected
// disconnects are retried a bounded number of times before the session is
// logged out.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/movelearn/tutor/pkg/config"
	"github.com/movelearn/tutor/pkg/types"
)

var (
	ErrReconnectionExhausted = errors.New("wallet reconnection attempts exhausted")
	ErrAttemptInFlight       = errors.New("wallet reconnection already in progress")
	ErrNoWallet              = errors.New("no wallet to reconnect to")
	ErrLoggedOut             = errors.New("session already logged out")
	ErrClosed                = errors.New("supervisor closed")
)

// NotificationID keys the reconnection progress notification.
const NotificationID = "wallet-reconnect"

// LoginRoute is where a logged out session is sent.
const LoginRoute = "/login"

const (
	msgReconnecting = "检测到钱包断开，正在尝试重连..."
	msgReconnected  = "钱包重连成功"
	msgLoggedOut    = "钱包连接已断开，已自动退出登录"
)

// Signal is what the host reports each time wallet or session state changes.
type Signal struct {
	Connected     bool
	HasAccount    bool
	WalletName    string
	LoggedIn      bool
	WalletAddress string
	// View is the route currently shown.
	View string
}

// CurrentSignal reads the adapter and the auth record into a Signal.
func CurrentSignal(a Adapter, auth types.AuthRecord, view string) Signal {
	return Signal{
		Connected:     a.Connected(),
		HasAccount:    a.Account() != nil,
		WalletName:    a.WalletName(),
		LoggedIn:      auth.IsLoggedIn,
		WalletAddress: auth.WalletAddress,
		View:          view,
	}
}

// Status is a read-only view of the supervisor state.
type Status struct {
	Phase          Phase
	Reconnecting   bool
	Attempts       int
	LastWalletName string
	MaxRetries     int
	RetryInterval  time.Duration
	CanRetry       bool
}

// Config tunes reconnection.
type Config struct {
	MaxRetries    int
	RetryInterval time.Duration
	// DisabledViews are routes on which the wallet is not monitored.
	DisabledViews []string
}

// ConfigFrom maps the wallet section of the configuration file.
func ConfigFrom(c config.WalletConfig) Config {
	return Config{
		MaxRetries:    c.MaxRetries,
		RetryInterval: c.RetryInterval,
		DisabledViews: slices.Clone(c.DisabledViews),
	}
}

// Options wires the collaborators. Adapter is required.
type Options struct {
	Adapter   Adapter
	Auth      AuthStore
	Notifier  Notifier
	Navigator Navigator
	Scheduler Scheduler
	Logger    *slog.Logger
}

// Supervisor watches the wallet of one logged-in session. Create a new one
// after every login; LoggedOut is terminal.
type Supervisor struct {
	cfg       Config
	adapter   Adapter
	auth      AuthStore
	notifier  Notifier
	navigator Navigator
	sched     Scheduler
	log       *slog.Logger

	// ctx scopes retries fired by timers; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	timer  Timer
	closed bool
}

// NewSupervisor creates an idle supervisor.
func NewSupervisor(cfg Config, opts Options) *Supervisor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}
	if cfg.DisabledViews == nil {
		cfg.DisabledViews = []string{"/login", "/"}
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Navigator == nil {
		opts.Navigator = nopNavigator{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		cfg:       cfg,
		adapter:   opts.Adapter,
		auth:      opts.Auth,
		notifier:  opts.Notifier,
		navigator: opts.Navigator,
		sched:     opts.Scheduler,
		log:       opts.Logger,
		ctx:       ctx,
		cancel:    cancel,
		state: State{
			Phase:         PhaseIdle,
			MaxRetries:    cfg.MaxRetries,
			RetryInterval: cfg.RetryInterval,
		},
	}
}

// Observe feeds the current wallet and session state. A disconnect while
// monitored starts a reconnection attempt that runs on the caller's
// goroutine; ErrReconnectionExhausted is returned when it ends the session.
func (s *Supervisor) Observe(ctx context.Context, sig Signal) error {
	monitor := sig.LoggedIn && sig.WalletAddress != "" && !slices.Contains(s.cfg.DisabledViews, sig.View)
	ev := observedEvent{signal: sig, monitor: monitor}
	if monitor && !sig.Connected {
		ev.storedWallet = s.storedWallet(ctx)
	}
	return s.apply(ctx, ev)
}

// ManualReconnect starts a fresh reconnection cycle with a full retry budget.
func (s *Supervisor) ManualReconnect(ctx context.Context) error {
	return s.apply(ctx, manualReconnectEvent{storedWallet: s.storedWallet(ctx)})
}

// ForceLogout disconnects the wallet, clears the persisted login and
// redirects to the login view.
func (s *Supervisor) ForceLogout(ctx context.Context) error {
	return s.apply(ctx, logoutRequestedEvent{})
}

// Snapshot returns the current state.
func (s *Supervisor) Snapshot() Status {
	s.mu.Lock()
	st := s.state
	s.mu.Unlock()
	return Status{
		Phase:          st.Phase,
		Reconnecting:   st.Reconnecting(),
		Attempts:       st.Attempts,
		LastWalletName: st.LastWalletName,
		MaxRetries:     st.MaxRetries,
		RetryInterval:  st.RetryInterval,
		CanRetry:       st.Attempts < st.MaxRetries,
	}
}

// Close cancels pending retries and any connect started by one. Nothing
// changes the state after Close returns.
func (s *Supervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.cancel()
}

func (s *Supervisor) storedWallet(ctx context.Context) string {
	if s.auth == nil {
		return ""
	}
	rec, err := s.auth.LoadAuth(ctx)
	if err != nil {
		s.log.Warn("failed to load auth record", "error", err)
		return ""
	}
	return rec.WalletType
}

// apply runs the reducer under the lock, then executes the resulting
// commands. Timer commands run under the lock so a stale callback can never
// be left scheduled.
func (s *Supervisor) apply(ctx context.Context, ev event) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	prev := s.state.Phase
	next, cmds := reduce(s.state, ev)
	s.state = next
	if prev != next.Phase {
		s.log.Debug("wallet supervisor transition", "from", prev, "to", next.Phase, "attempts", next.Attempts)
	}

	var deferred []command
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case cancelRetryCommand:
			s.stopTimerLocked()
		case scheduleRetryCommand:
			s.stopTimerLocked()
			gen := c.gen
			s.timer = s.sched.AfterFunc(c.delay, func() {
				if err := s.apply(s.ctx, retryDueEvent{gen: gen}); err != nil && !errors.Is(err, ErrClosed) {
					s.log.Error("scheduled wallet reconnection failed", "error", err)
				}
			})
		default:
			deferred = append(deferred, cmd)
		}
	}
	s.mu.Unlock()

	return s.dispatch(ctx, deferred)
}

func (s *Supervisor) dispatch(ctx context.Context, cmds []command) error {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case notifyLoadingCommand:
			s.notifier.Loading(NotificationID, msgReconnecting)
		case notifySuccessCommand:
			s.log.Info("wallet reconnected")
			s.notifier.Success(msgReconnected)
		case dismissCommand:
			s.notifier.Dismiss(NotificationID)
		case rejectCommand:
			return c.err
		case connectCommand:
			return s.executeConnect(ctx, c)
		case logoutCommand:
			s.executeLogout(ctx)
			if c.cause != nil {
				err := fmt.Errorf("%w after %d attempts: %w", ErrReconnectionExhausted, c.attempts, c.cause)
				s.log.Error("wallet reconnection exhausted, logged out", "error", err)
				return err
			}
		}
	}
	return nil
}

func (s *Supervisor) executeConnect(ctx context.Context, c connectCommand) error {
	s.log.Info("reconnecting wallet", "wallet", c.wallet, "attempt", c.attempt, "max", s.cfg.MaxRetries)
	err := s.adapter.Connect(ctx, c.wallet)
	if err != nil {
		s.log.Warn("wallet reconnection attempt failed", "wallet", c.wallet, "attempt", c.attempt, "error", err)
	}
	return s.apply(ctx, attemptDoneEvent{gen: c.gen, err: err})
}

// executeLogout ends the session. Auth is cleared and the host redirected
// even when disconnecting fails.
func (s *Supervisor) executeLogout(ctx context.Context) {
	if err := s.adapter.Disconnect(ctx); err != nil {
		s.log.Error("wallet disconnect failed during logout", "error", err)
		s.clearAuth(ctx)
		s.navigator.Navigate(LoginRoute)
		return
	}
	s.clearAuth(ctx)
	s.notifier.Error(msgLoggedOut)
	s.navigator.Navigate(LoginRoute)
}

func (s *Supervisor) clearAuth(ctx context.Context) {
	if s.auth == nil {
		return
	}
	if err := s.auth.ClearAuth(ctx); err != nil {
		s.log.Error("failed to clear auth record", "error", err)
	}
}

func (s *Supervisor) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
