package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultJournalLimit caps Find when the query sets no limit
const DefaultJournalLimit = 200

// JournalEntry is one committed domain event kept for audit. The row id is
// the event id, so a redelivered event is stored once.
type JournalEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EventType     string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	AggregateType string    `gorm:"type:varchar(100);not null" json:"aggregate_type"`
	AggregateID   uuid.UUID `gorm:"type:uuid;not null;index" json:"aggregate_id"`
	OccurredAt    time.Time `gorm:"not null;index" json:"occurred_at"`
	RecordedAt    time.Time `gorm:"not null" json:"recorded_at"`
	Operator      string    `gorm:"type:varchar(100)" json:"operator,omitempty"`
	RequestID     string    `gorm:"type:varchar(64)" json:"request_id,omitempty"`
	Payload       string    `gorm:"type:text;not null" json:"payload"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "event_journal"
}

// JournalQuery filters journal listings; zero fields are ignored
type JournalQuery struct {
	EventType   string
	AggregateID uuid.UUID
	From        time.Time
	To          time.Time
	Limit       int
}

// GormJournal stores journal entries
type GormJournal struct {
	db         *gorm.DB
	serializer *EventSerializer
	now        func() time.Time
}

// NewGormJournal creates a journal over db. The serializer must know every
// event type that Load is asked to decode.
func NewGormJournal(db *gorm.DB, serializer *EventSerializer) *GormJournal {
	return &GormJournal{db: db, serializer: serializer, now: time.Now}
}

// Append records an event; duplicates by event id are ignored
func (j *GormJournal) Append(ctx context.Context, event shared.DomainEvent) error {
	payload, err := j.serializer.Serialize(event)
	if err != nil {
		return err
	}
	entry := &JournalEntry{
		ID:            event.EventID(),
		EventType:     event.EventType(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		OccurredAt:    event.OccurredAt().UTC(),
		RecordedAt:    j.now().UTC(),
		Operator:      logger.GetOperator(ctx),
		RequestID:     logger.GetRequestID(ctx),
		Payload:       string(payload),
	}
	return j.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

// Find lists entries newest first
func (j *GormJournal) Find(ctx context.Context, query JournalQuery) ([]JournalEntry, error) {
	q := j.db.WithContext(ctx).Model(&JournalEntry{})
	if query.EventType != "" {
		q = q.Where("event_type = ?", query.EventType)
	}
	if query.AggregateID != uuid.Nil {
		q = q.Where("aggregate_id = ?", query.AggregateID)
	}
	if !query.From.IsZero() {
		q = q.Where("occurred_at >= ?", query.From.UTC())
	}
	if !query.To.IsZero() {
		q = q.Where("occurred_at < ?", query.To.UTC())
	}
	limit := query.Limit
	if limit <= 0 {
		limit = DefaultJournalLimit
	}

	var entries []JournalEntry
	if err := q.Order("occurred_at DESC").Order("id").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Load decodes the stored payload back into its domain event
func (j *GormJournal) Load(entry JournalEntry) (shared.DomainEvent, error) {
	event, err := j.serializer.Deserialize(entry.EventType, []byte(entry.Payload))
	if err != nil {
		return nil, fmt.Errorf("journal entry %s: %w", entry.ID, err)
	}
	return event, nil
}

// JournalHandler is a wildcard bus handler that appends every delivered
// event to the journal
type JournalHandler struct {
	journal *GormJournal
	logger  *zap.Logger
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal *GormJournal, logger *zap.Logger) *JournalHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalHandler{journal: journal, logger: logger}
}

// EventTypes returns nil: the journal receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

// Handle appends the event
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if err := h.journal.Append(ctx, event); err != nil {
		return fmt.Errorf("append %s to journal: %w", event.EventType(), err)
	}
	logger.WithLogger(ctx, h.logger).Debug("Event journaled",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()))
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
