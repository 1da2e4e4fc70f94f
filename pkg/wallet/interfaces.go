package wallet

import (
	"context"
	"time"

	"github.com/movelearn/tutor/pkg/types"
)

// Account is the on-chain account exposed by a connected wallet.
type Account struct {
	Address string
}

// Adapter is the wallet capability set the supervisor drives.
type Adapter interface {
	Connect(ctx context.Context, walletName string) error
	Disconnect(ctx context.Context) error
	Connected() bool
	Account() *Account
	WalletName() string
}

// AuthStore gives access to the persisted login state.
type AuthStore interface {
	LoadAuth(ctx context.Context) (types.AuthRecord, error)
	ClearAuth(ctx context.Context) error
}

// Notifier shows user-facing notifications. Loading notifications are keyed
// by id so they can be dismissed later.
type Notifier interface {
	Loading(id, message string)
	Success(message string)
	Error(message string)
	Dismiss(id string)
}

// Navigator moves the host to another view.
type Navigator interface {
	Navigate(route string)
}

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler schedules with time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

type nopNotifier struct{}

func (nopNotifier) Loading(string, string) {}
func (nopNotifier) Success(string)         {}
func (nopNotifier) Error(string)           {}
func (nopNotifier) Dismiss(string)         {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}
