package event

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestJournal(t *testing.T) *GormJournal {
	t.Helper()
	db := testutil.NewSQLiteDB(t, &JournalEntry{})
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)
	journal := NewGormJournal(db, serializer)
	journal.now = func() time.Time { return testutil.Date(2025, 6, 10, 20, 0) }
	return journal
}

func dayClosed(date time.Time) *closing.DayClosedEvent {
	dc := &closing.DailyClose{BusinessDate: date, TotalSales: decimal.NewFromInt(1500), SellerName: "Jana"}
	dc.ID = uuid.New()
	return closing.NewDayClosedEvent(dc)
}

func TestJournalHandler_ThroughBus(t *testing.T) {
	journal := newTestJournal(t)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewJournalHandler(journal, zap.NewNop()))

	ctx := logger.WithOperator(context.Background(), "Jana")
	ctx, _ = logger.WithRequestID(ctx, zap.NewNop(), "req-42")

	closed := dayClosed(testutil.Date(2025, 6, 10, 0, 0))
	cancelled := trade.NewReceiptCancelledEvent(&trade.Receipt{ReceiptNumber: "U0003/2025"})
	require.NoError(t, bus.Publish(ctx, closed, cancelled))

	entries, err := journal.Find(context.Background(), JournalQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byType := map[string]JournalEntry{}
	for _, e := range entries {
		byType[e.EventType] = e
	}
	stored := byType[closing.EventTypeDayClosed]
	assert.Equal(t, closed.EventID(), stored.ID)
	assert.Equal(t, "Jana", stored.Operator)
	assert.Equal(t, "req-42", stored.RequestID)
	assert.Equal(t, "DailyClose", stored.AggregateType)
	assert.Equal(t, testutil.Date(2025, 6, 10, 20, 0), stored.RecordedAt.UTC())

	loaded, err := journal.Load(stored)
	require.NoError(t, err)
	event, ok := loaded.(*closing.DayClosedEvent)
	require.True(t, ok)
	assert.True(t, event.TotalSales.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, "Jana", event.SellerName)
}

func TestGormJournal_AppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	journal := newTestJournal(t)
	event := dayClosed(testutil.Date(2025, 6, 9, 0, 0))

	require.NoError(t, journal.Append(ctx, event))
	require.NoError(t, journal.Append(ctx, event))

	entries, err := journal.Find(ctx, JournalQuery{EventType: closing.EventTypeDayClosed})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestGormJournal_Find(t *testing.T) {
	ctx := context.Background()
	journal := newTestJournal(t)

	events := []*closing.DayClosedEvent{
		dayClosed(testutil.Date(2025, 6, 1, 0, 0)),
		dayClosed(testutil.Date(2025, 6, 2, 0, 0)),
		dayClosed(testutil.Date(2025, 6, 3, 0, 0)),
	}
	for i, e := range events {
		e.Timestamp = testutil.Date(2025, 6, 1+i, 21, 0)
		require.NoError(t, journal.Append(ctx, e))
	}

	newest, err := journal.Find(ctx, JournalQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, events[2].EventID(), newest[0].ID)

	window, err := journal.Find(ctx, JournalQuery{From: testutil.Date(2025, 6, 2, 0, 0), To: testutil.Date(2025, 6, 3, 0, 0)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, events[1].EventID(), window[0].ID)

	one, err := journal.Find(ctx, JournalQuery{AggregateID: events[0].AggregateID()})
	require.NoError(t, err)
	require.Len(t, one, 1)

	_, err = journal.Load(JournalEntry{ID: uuid.New(), EventType: "Unknown", Payload: "{}"})
	assert.ErrorContains(t, err, "unknown event type")
}
