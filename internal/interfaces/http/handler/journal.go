package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/event"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JournalHandler exposes the audit journal of committed domain events
type JournalHandler struct {
	BaseHandler
	journal *event.GormJournal
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journal *event.GormJournal) *JournalHandler {
	return &JournalHandler{journal: journal}
}

// JournalListQuery filters the journal
type JournalListQuery struct {
	DateRangeQuery
	Type        string `form:"type" binding:"max=100"`
	AggregateID string `form:"aggregate_id" binding:"omitempty,uuid"`
	Limit       int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// JournalEntryResponse is a journal row with its payload inlined
type JournalEntryResponse struct {
	ID            uuid.UUID       `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Operator      string          `json:"operator,omitempty"`
	RequestID     string          `json:"request_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// List godoc
//
//	@Summary	List committed domain events, newest first
//	@Tags		events
//	@Router		/events [get]
func (h *JournalHandler) List(c *gin.Context) {
	var q JournalListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	query := event.JournalQuery{EventType: q.Type, Limit: q.Limit}
	query.From, query.To = q.Bounds()
	if q.AggregateID != "" {
		query.AggregateID = uuid.MustParse(q.AggregateID)
	}

	entries, err := h.journal.Find(c.Request.Context(), query)
	if err != nil {
		logger.GetGinLogger(c).Error("Failed to read event journal", zap.Error(err))
		h.HandleError(c, shared.NewPersistenceError(err))
		return
	}

	out := make([]JournalEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = JournalEntryResponse{
			ID:            e.ID,
			EventType:     e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID,
			OccurredAt:    e.OccurredAt,
			Operator:      e.Operator,
			RequestID:     e.RequestID,
			Payload:       json.RawMessage(e.Payload),
		}
	}
	h.Success(c, out)
}
