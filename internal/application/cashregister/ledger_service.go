package cashregister

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultDayCloseCeiling is the largest counted amount a day close accepts
var DefaultDayCloseCeiling = decimal.NewFromInt(10_000_000)

var (
	// ErrDayAlreadyClosed is returned by a second drawer close on the same calendar date
	ErrDayAlreadyClosed = shared.NewDomainError("DAY_ALREADY_CLOSED", "The cash register was already closed today")
	// ErrDayAlreadyStarted is returned by a second drawer opening on the same calendar date
	ErrDayAlreadyStarted = shared.NewDomainError("DAY_ALREADY_STARTED", "The cash register was already opened today")
)

// EntryInput describes one ledger entry appended by a money-flow operation
type EntryInput struct {
	Type        cashregister.EntryType
	Amount      decimal.Decimal
	Description string
	User        string
	ReferenceID *uuid.UUID
}

// AppendEntry appends an entry after the latest one inside an open
// transaction. Checkout, returns and storno call it with their own
// transaction's repositories.
func AppendEntry(ctx context.Context, repos txn.TransactionalRepositories, in EntryInput, at time.Time) (*cashregister.Entry, error) {
	previous, err := latestEntry(ctx, repos)
	if err != nil {
		return nil, err
	}
	entry, err := cashregister.NewEntry(previous, in.Type, in.Amount, in.Description, in.User, at)
	if err != nil {
		return nil, err
	}
	entry.ReferenceID = in.ReferenceID
	if err := repos.CashEntryRepo().Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func latestEntry(ctx context.Context, repos txn.TransactionalRepositories) (*cashregister.Entry, error) {
	latest, err := repos.CashEntryRepo().FindLatest(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return latest, nil
}

// LedgerService maintains the till balance
type LedgerService struct {
	scope     txn.TransactionScope
	settings  settings.Store
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     shared.Clock
	ceiling   decimal.Decimal
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope txn.TransactionScope, store settings.Store, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:    scope,
		settings: store,
		logger:   logger,
		clock:    shared.SystemClock,
		ceiling:  DefaultDayCloseCeiling,
	}
}

// SetEventPublisher sets the publisher notified after each committed entry
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *LedgerService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetDayCloseCeiling changes the sanity limit of PerformDayClose
func (s *LedgerService) SetDayCloseCeiling(ceiling decimal.Decimal) {
	if ceiling.IsPositive() {
		s.ceiling = ceiling
	}
}

// RecordEntry books a manual deposit, withdrawal or reconciliation
func (s *LedgerService) RecordEntry(ctx context.Context, req RecordEntryRequest, actor shared.Actor) (*EntryResponse, error) {
	entryType := cashregister.EntryType(req.Type)
	if !entryType.IsManual() {
		return nil, shared.NewValidationError("INVALID_ENTRY_TYPE", "Only deposits, withdrawals and reconciliations can be booked manually").
			WithDetail("type", req.Type)
	}
	if req.Amount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Amount cannot be negative")
	}

	var entry *cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		previous, err := latestEntry(ctx, repos)
		if err != nil {
			return err
		}
		balance := decimal.Zero
		if previous != nil {
			balance = previous.Balance
		}
		if entryType.Effect() == cashregister.EffectSubtract && req.Amount.GreaterThan(balance) {
			return shared.ErrInsufficientBalance.
				WithDetail("requested", req.Amount.StringFixed(2)).
				WithDetail("balance", balance.StringFixed(2))
		}
		entry, err = AppendEntry(ctx, repos, EntryInput{
			Type:        entryType,
			Amount:      req.Amount,
			Description: req.Description,
			User:        actor.Name,
		}, s.clock())
		return err
	})
	if err != nil {
		return nil, s.fail("Failed to record cash register entry", err, zap.String("type", req.Type))
	}
	return s.committed(ctx, entry), nil
}

// GetCurrentBalance returns the balance stored on the latest entry
func (s *LedgerService) GetCurrentBalance(ctx context.Context) (*BalanceResponse, error) {
	var latest *cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		latest, err = latestEntry(ctx, repos)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	if latest == nil {
		return &BalanceResponse{Balance: decimal.Zero}, nil
	}
	at := latest.Timestamp
	return &BalanceResponse{Balance: latest.Balance, LastSequence: latest.Sequence, AsOf: &at}, nil
}

// VerifyLedger replays the whole ledger and reports the first entry whose
// stored balance disagrees with its predecessor and sign rule
func (s *LedgerService) VerifyLedger(ctx context.Context) (*LedgerVerification, error) {
	var entries []cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		entries, err = repos.CashEntryRepo().FindAll(ctx)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}

	replayed, divergence := cashregister.Replay(entries)
	result := &LedgerVerification{
		EntryCount:      len(entries),
		StoredBalance:   decimal.Zero,
		ReplayedBalance: replayed,
		Consistent:      divergence == nil,
	}
	if len(entries) > 0 {
		result.StoredBalance = entries[len(entries)-1].Balance
	}
	if divergence != nil {
		id, expected := divergence.Entry.ID, divergence.Expected
		result.DivergentEntryID = &id
		result.DivergentSeq = divergence.Entry.Sequence
		result.ExpectedBalance = &expected
		s.logger.Warn("Cash register ledger diverges from replay",
			zap.Int64("sequence", divergence.Entry.Sequence),
			zap.String("stored", divergence.Entry.Balance.StringFixed(2)),
			zap.String("expected", expected.StringFixed(2)))
	}
	return result, nil
}

// StartDay opens the drawer: the balance is set to the counted float and
// the calendar date becomes the session date of the business day
func (s *LedgerService) StartDay(ctx context.Context, req StartDayRequest, actor shared.Actor) (*EntryResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Opening amount cannot be negative")
	}
	now := s.clock()
	today := shared.DayRange(now)

	var entry *cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		started, err := repos.CashEntryRepo().ExistsOfType(ctx, cashregister.EntryTypeDayStart, today)
		if err != nil {
			return err
		}
		if started {
			return ErrDayAlreadyStarted.WithDetail("date", now.Format(time.DateOnly))
		}
		entry, err = AppendEntry(ctx, repos, EntryInput{
			Type:        cashregister.EntryTypeDayStart,
			Amount:      req.OpeningAmount,
			Description: "Day start",
			User:        actor.Name,
		}, now)
		return err
	})
	if err != nil {
		return nil, s.fail("Failed to start day", err)
	}

	if s.settings != nil {
		if err := s.settings.SetSessionStartDate(closing.BusinessDate(now)); err != nil {
			s.logger.Warn("Failed to store session start date", zap.Error(err))
		}
	}
	s.logger.Info("Cash register opened",
		zap.String("opening_amount", entry.Amount.StringFixed(2)),
		zap.String("operator", actor.Name))
	return s.committed(ctx, entry), nil
}

// PerformDayClose closes the drawer with the counted cash. The DAY_CLOSE
// entry's Amount is the counted amount, which also becomes the balance.
// Difference holds counted minus the system balance, so a shortfall is
// negative; the description repeats all three figures.
func (s *LedgerService) PerformDayClose(ctx context.Context, req DayCloseRequest, actor shared.Actor) (*EntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash_register", "day_close",
		telemetry.SpanAttrAmount, req.CountedAmount.String(),
		telemetry.SpanAttrOperator, actor.Name)
	resp, err := s.performDayClose(ctx, req, actor)
	if resp != nil {
		telemetry.SetAttributes(span, "difference", resp.Difference.String())
	}
	telemetry.End(span, err)
	return resp, err
}

func (s *LedgerService) performDayClose(ctx context.Context, req DayCloseRequest, actor shared.Actor) (*EntryResponse, error) {
	if req.CountedAmount.IsNegative() {
		return nil, shared.NewValidationError("INVALID_AMOUNT", "Counted amount cannot be negative")
	}
	if req.CountedAmount.GreaterThan(s.ceiling) {
		return nil, shared.NewValidationError("AMOUNT_TOO_LARGE", "Counted amount exceeds the allowed maximum").
			WithDetail("max", s.ceiling.StringFixed(2))
	}
	now := s.clock()
	today := shared.DayRange(now)

	var entry *cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		closed, err := repos.CashEntryRepo().ExistsOfType(ctx, cashregister.EntryTypeDayClose, today)
		if err != nil {
			return err
		}
		if closed {
			return ErrDayAlreadyClosed.WithDetail("date", now.Format(time.DateOnly))
		}
		previous, err := latestEntry(ctx, repos)
		if err != nil {
			return err
		}
		system := decimal.Zero
		if previous != nil {
			system = previous.Balance
		}
		difference := req.CountedAmount.Sub(system)

		entry, err = cashregister.NewEntry(previous, cashregister.EntryTypeDayClose, req.CountedAmount,
			fmt.Sprintf("Day close: counted %s, system %s, difference %s",
				req.CountedAmount.StringFixed(2), system.StringFixed(2), difference.StringFixed(2)),
			actor.Name, now)
		if err != nil {
			return err
		}
		entry.Difference = difference
		return repos.CashEntryRepo().Create(ctx, entry)
	})
	if err != nil {
		return nil, s.fail("Failed to close the cash register", err)
	}

	s.logger.Info("Cash register closed",
		zap.String("counted", entry.Amount.StringFixed(2)),
		zap.String("difference", entry.Difference.StringFixed(2)),
		zap.String("operator", actor.Name))
	return s.committed(ctx, entry), nil
}

// ListEntries lists entries booked within [from, to); zero bounds are open
func (s *LedgerService) ListEntries(ctx context.Context, from, to time.Time) ([]EntryResponse, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "End of range precedes its start")
	}
	var entries []cashregister.Entry
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		entries, err = repos.CashEntryRepo().FindByDateRange(ctx, shared.DateRange{From: from, To: to})
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]EntryResponse, len(entries))
	for i := range entries {
		out[i] = ToEntryResponse(&entries[i])
	}
	return out, nil
}

func (s *LedgerService) committed(ctx context.Context, entry *cashregister.Entry) *EntryResponse {
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, []shared.DomainEvent{cashregister.NewUpdatedEvent(entry)})
	resp := ToEntryResponse(entry)
	return &resp
}

func (s *LedgerService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
