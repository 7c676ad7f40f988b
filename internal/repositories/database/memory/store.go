// Package memory provides an in-process implementation of the ledger store, used by tests
// and by single-process development setups.
//
// Each unit of work runs against a private copy of the committed state. Write units are
// serialized: a unit waits for the previous one to finish, up to the configured lock
// timeout, so running total rows are always mutated by one writer at a time. On commit the
// same deferred checks a relational store would run are evaluated (per-currency zero sum of
// every touched transaction, full code uniqueness) and the copy replaces the committed
// state in a single pointer swap. Readers never observe a partially applied unit.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
)

const defaultLockTimeout = 5 * time.Second

// Store is an in-memory ledger store.
type Store struct {
	mu          sync.RWMutex
	committed   *state
	writer      chan struct{}
	sequence    atomic.Int64
	lockTimeout time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a unit of work waits for the writer slot.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		committed:   newState(),
		writer:      make(chan struct{}, 1),
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portsrepo.Store = (*Store)(nil)

func (s *Store) Close() error {
	return nil
}

// view returns the committed state. Published states are never mutated.
func (s *Store) view() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}

// WithTx runs fn against a private copy of the committed state and publishes it if fn
// succeeds and the commit checks pass.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repo portsrepo.Repository) error) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: timed out after %s waiting for writer slot", apperrors.ErrConcurrentModification, s.lockTimeout)
	}
	defer func() { <-s.writer }()

	tx := &txState{
		state:   s.view().clone(),
		store:   s,
		touched: make(map[string]struct{}),
		locked:  make(map[totalKey]struct{}),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tx.checkCommit(); err != nil {
		return err
	}

	s.mu.Lock()
	s.committed = tx.state
	s.mu.Unlock()
	return nil
}

func (s *Store) nextSequence() int64 {
	return s.sequence.Add(1)
}

type totalKey struct {
	accountID string
	currency  string
}

// state is one consistent version of the ledger.
type state struct {
	accounts     map[string]domain.Account
	currencies   map[string]domain.Currency
	transactions map[string]domain.Transaction
	legs         map[string]domain.Leg
	totals       map[totalKey]domain.RunningTotal
}

func newState() *state {
	return &state{
		accounts:     make(map[string]domain.Account),
		currencies:   make(map[string]domain.Currency),
		transactions: make(map[string]domain.Transaction),
		legs:         make(map[string]domain.Leg),
		totals:       make(map[totalKey]domain.RunningTotal),
	}
}

// clone copies the maps. Values are shared; writers replace values instead of mutating them.
func (st *state) clone() *state {
	out := &state{
		accounts:     make(map[string]domain.Account, len(st.accounts)),
		currencies:   make(map[string]domain.Currency, len(st.currencies)),
		transactions: make(map[string]domain.Transaction, len(st.transactions)),
		legs:         make(map[string]domain.Leg, len(st.legs)),
		totals:       make(map[totalKey]domain.RunningTotal, len(st.totals)),
	}
	for k, v := range st.accounts {
		out.accounts[k] = v
	}
	for k, v := range st.currencies {
		out.currencies[k] = v
	}
	for k, v := range st.transactions {
		out.transactions[k] = v
	}
	for k, v := range st.legs {
		out.legs[k] = v
	}
	for k, v := range st.totals {
		out.totals[k] = v
	}
	return out
}

// txState is the Repository handed to a unit of work.
type txState struct {
	*state
	store   *Store
	touched map[string]struct{}
	locked  map[totalKey]struct{}
}

var _ portsrepo.Repository = (*txState)(nil)

func (tx *txState) touch(transactionID string) {
	tx.touched[transactionID] = struct{}{}
}

// checkCommit evaluates the deferred constraints.
func (tx *txState) checkCommit() error {
	for id := range tx.touched {
		if _, ok := tx.transactions[id]; !ok {
			continue
		}
		if err := tx.checkTransactionBalanced(id); err != nil {
			return err
		}
	}
	seen := make(map[string]string, len(tx.accounts))
	for id, acc := range tx.accounts {
		if acc.FullCode == "" {
			continue
		}
		if other, dup := seen[acc.FullCode]; dup {
			return fmt.Errorf("%w: full code %q used by accounts %s and %s", apperrors.ErrDuplicate, acc.FullCode, other, id)
		}
		seen[acc.FullCode] = id
	}
	return nil
}
