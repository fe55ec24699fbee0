package cashregister

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/persistence"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var operator = shared.Actor{Name: "Jana"}

type fixture struct {
	ctx       context.Context
	db        *gorm.DB
	svc       *LedgerService
	store     *settings.MemoryStore
	clock     *testutil.StepClock
	publisher *testutil.MockEventPublisher
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.Models()...)
	core, logs := observer.New(zapcore.InfoLevel)
	store := settings.NewMemoryStore(settings.ShopIdentity{Name: "Drogerie", Currency: "CZK"})
	clock := testutil.NewStepClock(testutil.Date(2025, 3, 3, 8, 0), time.Minute)
	publisher := testutil.NewMockEventPublisher()

	svc := NewLedgerService(persistence.NewGormTransactionScope(db), store, zap.New(core))
	svc.SetClock(clock.Now)
	svc.SetEventPublisher(publisher)
	return &fixture{
		ctx:       context.Background(),
		db:        db,
		svc:       svc,
		store:     store,
		clock:     clock,
		publisher: publisher,
		logs:      logs,
	}
}

func (f *fixture) record(t *testing.T, entryType cashregister.EntryType, amount string) *EntryResponse {
	t.Helper()
	entry, err := f.svc.RecordEntry(f.ctx, RecordEntryRequest{Type: string(entryType), Amount: dec(amount)}, operator)
	require.NoError(t, err)
	return entry
}

func TestLedgerService_RecordEntry(t *testing.T) {
	f := newFixture(t)

	balance, err := f.svc.GetCurrentBalance(f.ctx)
	require.NoError(t, err)
	assert.True(t, balance.Balance.IsZero())
	assert.Nil(t, balance.AsOf)

	first := f.record(t, cashregister.EntryTypeInitialDeposit, "5000")
	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, "Jana", first.UserName)

	f.record(t, cashregister.EntryTypeDeposit, "250.50")
	last := f.record(t, cashregister.EntryTypeWithdrawal, "1000")
	assert.True(t, last.Balance.Equal(dec("4250.50")))
	assert.Equal(t, int64(3), last.Sequence)

	balance, err = f.svc.GetCurrentBalance(f.ctx)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("4250.50")))
	assert.Equal(t, int64(3), balance.LastSequence)
	require.NotNil(t, balance.AsOf)

	types := f.publisher.Types()
	require.Len(t, types, 3)
	for _, typ := range types {
		assert.Equal(t, cashregister.EventTypeCashRegisterUpdated, typ)
	}
}

func TestLedgerService_RecordEntry_Rejected(t *testing.T) {
	f := newFixture(t)
	f.record(t, cashregister.EntryTypeDeposit, "100")

	t.Run("withdrawal above balance", func(t *testing.T) {
		_, err := f.svc.RecordEntry(f.ctx, RecordEntryRequest{Type: "WITHDRAWAL", Amount: dec("100.01")}, operator)
		require.True(t, errors.Is(err, shared.ErrInsufficientBalance))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "100.01", de.Details["requested"])
		assert.Equal(t, "100.00", de.Details["balance"])
	})

	t.Run("reconciliation above balance", func(t *testing.T) {
		_, err := f.svc.RecordEntry(f.ctx, RecordEntryRequest{Type: "DAILY_RECONCILIATION", Amount: dec("500")}, operator)
		assert.True(t, errors.Is(err, shared.ErrInsufficientBalance))
	})

	for _, typ := range []string{"SALE", "RETURN", "DAY_START", "DAY_CLOSE", "BOGUS"} {
		t.Run("manual "+typ, func(t *testing.T) {
			_, err := f.svc.RecordEntry(f.ctx, RecordEntryRequest{Type: typ, Amount: dec("1")}, operator)
			var de *shared.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, "INVALID_ENTRY_TYPE", de.Code)
		})
	}

	t.Run("negative amount", func(t *testing.T) {
		_, err := f.svc.RecordEntry(f.ctx, RecordEntryRequest{Type: "DEPOSIT", Amount: dec("-5")}, operator)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_AMOUNT", de.Code)
	})

	balance, err := f.svc.GetCurrentBalance(f.ctx)
	require.NoError(t, err)
	assert.True(t, balance.Balance.Equal(dec("100")))
	assert.Equal(t, int64(1), balance.LastSequence)
}

func TestLedgerService_StartDay(t *testing.T) {
	f := newFixture(t)
	f.record(t, cashregister.EntryTypeDeposit, "800")

	entry, err := f.svc.StartDay(f.ctx, StartDayRequest{OpeningAmount: dec("2000")}, operator)
	require.NoError(t, err)
	assert.Equal(t, "DAY_START", entry.Type)
	assert.True(t, entry.Balance.Equal(dec("2000")), "opening float replaces the balance")

	session, ok := f.store.SessionStartDate()
	require.True(t, ok)
	assert.Equal(t, testutil.Date(2025, 3, 3, 0, 0), session)

	_, err = f.svc.StartDay(f.ctx, StartDayRequest{OpeningAmount: dec("2000")}, operator)
	assert.True(t, errors.Is(err, ErrDayAlreadyStarted))

	f.clock.Set(testutil.Date(2025, 3, 4, 7, 30))
	_, err = f.svc.StartDay(f.ctx, StartDayRequest{OpeningAmount: dec("1500")}, operator)
	require.NoError(t, err)
	session, _ = f.store.SessionStartDate()
	assert.Equal(t, testutil.Date(2025, 3, 4, 0, 0), session)

	_, err = f.svc.StartDay(f.ctx, StartDayRequest{OpeningAmount: dec("-1")}, operator)
	require.Error(t, err)
}

func TestLedgerService_PerformDayClose(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartDay(f.ctx, StartDayRequest{OpeningAmount: dec("1000")}, operator)
	require.NoError(t, err)
	f.record(t, cashregister.EntryTypeDeposit, "523.40")

	t.Run("shortfall is kept on the entry", func(t *testing.T) {
		entry, err := f.svc.PerformDayClose(f.ctx, DayCloseRequest{CountedAmount: dec("1500")}, operator)
		require.NoError(t, err)
		assert.Equal(t, "DAY_CLOSE", entry.Type)
		assert.True(t, entry.Amount.Equal(dec("1500")), "amount is the counted cash, not the difference")
		assert.True(t, entry.Balance.Equal(dec("1500")))
		assert.True(t, entry.Difference.Equal(dec("-23.40")), "difference is counted minus system")
		assert.Contains(t, entry.Description, "counted 1500.00, system 1523.40, difference -23.40")

		report, err := f.svc.VerifyLedger(f.ctx)
		require.NoError(t, err)
		assert.True(t, report.Consistent)
	})

	t.Run("second close on the same date", func(t *testing.T) {
		_, err := f.svc.PerformDayClose(f.ctx, DayCloseRequest{CountedAmount: dec("1500")}, operator)
		assert.True(t, errors.Is(err, ErrDayAlreadyClosed))
	})

	t.Run("counted amount above ceiling", func(t *testing.T) {
		f.svc.SetDayCloseCeiling(dec("1000"))
		f.clock.Set(testutil.Date(2025, 3, 4, 18, 0))
		_, err := f.svc.PerformDayClose(f.ctx, DayCloseRequest{CountedAmount: dec("1000.01")}, operator)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "AMOUNT_TOO_LARGE", de.Code)
	})

	t.Run("next day closes again", func(t *testing.T) {
		entry, err := f.svc.PerformDayClose(f.ctx, DayCloseRequest{CountedAmount: dec("1000")}, operator)
		require.NoError(t, err)
		assert.True(t, entry.Difference.Equal(dec("-500")))
	})
}

func TestLedgerService_VerifyLedger(t *testing.T) {
	f := newFixture(t)
	f.record(t, cashregister.EntryTypeDeposit, "1000")
	second := f.record(t, cashregister.EntryTypeWithdrawal, "300")
	f.record(t, cashregister.EntryTypeDeposit, "50")

	result, err := f.svc.VerifyLedger(f.ctx)
	require.NoError(t, err)
	assert.True(t, result.Consistent)
	assert.Equal(t, 3, result.EntryCount)
	assert.True(t, result.StoredBalance.Equal(dec("750")))
	assert.True(t, result.ReplayedBalance.Equal(dec("750")))

	require.NoError(t, f.db.Model(&cashregister.Entry{}).
		Where("id = ?", second.ID).
		Update("balance", dec("650")).Error)

	result, err = f.svc.VerifyLedger(f.ctx)
	require.NoError(t, err)
	assert.False(t, result.Consistent)
	require.NotNil(t, result.DivergentEntryID)
	assert.Equal(t, second.ID, *result.DivergentEntryID)
	assert.Equal(t, int64(2), result.DivergentSeq)
	assert.True(t, result.ExpectedBalance.Equal(dec("700")))

	warnings := f.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("Cash register ledger diverges from replay").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(2), warnings[0].ContextMap()["sequence"])
}

func TestLedgerService_ListEntries(t *testing.T) {
	f := newFixture(t)
	f.record(t, cashregister.EntryTypeDeposit, "100")
	f.clock.Set(testutil.Date(2025, 3, 5, 12, 0))
	f.record(t, cashregister.EntryTypeDeposit, "200")

	all, err := f.svc.ListEntries(f.ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day := shared.DayRange(testutil.Date(2025, 3, 5, 0, 0))
	only, err := f.svc.ListEntries(f.ctx, day.From, day.To)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.True(t, only[0].Amount.Equal(dec("200")))

	_, err = f.svc.ListEntries(f.ctx, day.To, day.From)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_DATE_RANGE", de.Code)
}
