package giftcard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/infrastructure/persistence"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T) (*GiftCardService, *testutil.StepClock, *testutil.MockEventPublisher) {
	t.Helper()
	db := testutil.NewSQLiteDB(t, persistence.Models()...)
	clock := testutil.NewStepClock(testutil.Date(2025, 4, 1, 9, 0), time.Minute)
	publisher := testutil.NewMockEventPublisher()
	svc := NewGiftCardService(persistence.NewGormTransactionScope(db), zap.NewNop())
	svc.SetClock(clock.Now)
	svc.SetEventPublisher(publisher)
	return svc, clock, publisher
}

func TestGiftCardService_AddGiftCard(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	card, err := svc.AddGiftCard(ctx, AddGiftCardRequest{Code: " GC-001 ", Value: dec("500"), Note: "spring batch"})
	require.NoError(t, err)
	assert.Equal(t, "GC-001", card.Code)
	assert.Equal(t, "NOT_ISSUED", card.Status)

	_, err = svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-001", Value: dec("500")})
	assert.True(t, errors.Is(err, shared.ErrDuplicateCode))

	_, err = svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-002", Value: dec("0")})
	require.Error(t, err)

	past := testutil.Date(2025, 3, 1, 0, 0)
	_, err = svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-003", Value: dec("100"), ExpirationDate: &past})
	var de *shared.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "INVALID_EXPIRATION", de.Code)
}

func TestGiftCardService_SellTwice(t *testing.T) {
	ctx := context.Background()
	svc, _, publisher := newTestService(t)
	_, err := svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-10", Value: dec("1000")})
	require.NoError(t, err)

	receiptID := uuid.New()
	sold, err := svc.Sell(ctx, "GC-10", TransitionRequest{ReceiptID: receiptID}, shared.Actor{Name: "Jana"})
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", sold.Status)
	require.NotNil(t, sold.IssuedOnID)
	assert.Equal(t, receiptID, *sold.IssuedOnID)
	assert.Equal(t, []string{giftcard.EventTypeGiftCardStatusChanged}, publisher.Types())

	_, err = svc.Sell(ctx, "GC-10", TransitionRequest{ReceiptID: uuid.New()}, shared.Actor{Name: "Jana"})
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	loaded, err := svc.Get(ctx, "GC-10")
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", loaded.Status)
	assert.Equal(t, receiptID, *loaded.IssuedOnID)
	assert.Len(t, publisher.Events(), 1)
}

func TestGiftCardService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)
	actor := shared.Actor{Name: "Jana"}
	_, err := svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-20", Value: dec("300")})
	require.NoError(t, err)
	_, err = svc.Sell(ctx, "GC-20", TransitionRequest{ReceiptID: uuid.New()}, actor)
	require.NoError(t, err)

	used, err := svc.Redeem(ctx, "GC-20", TransitionRequest{ReceiptID: uuid.New()}, actor)
	require.NoError(t, err)
	assert.Equal(t, "USED", used.Status)

	_, err = svc.Redeem(ctx, "GC-20", TransitionRequest{ReceiptID: uuid.New()}, actor)
	assert.True(t, errors.Is(err, giftcard.ErrInvalidGiftCard))

	_, err = svc.MarkCancelled(ctx, "GC-20", CancelRequest{Reason: "lost"})
	assert.True(t, errors.Is(err, shared.ErrInvalidState), "used cards cannot be cancelled")

	back, err := svc.CancelRedemption(ctx, "GC-20")
	require.NoError(t, err)
	assert.Equal(t, "ISSUED", back.Status)
	assert.Nil(t, back.UsedOnID)

	unsold, err := svc.CancelSale(ctx, "GC-20")
	require.NoError(t, err)
	assert.Equal(t, "NOT_ISSUED", unsold.Status)

	cancelled, err := svc.MarkCancelled(ctx, "GC-20", CancelRequest{Reason: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "damaged", cancelled.CancelReason)

	_, err = svc.Sell(ctx, "GC-20", TransitionRequest{ReceiptID: uuid.New()}, actor)
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	_, err = svc.CancelSale(ctx, "missing")
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestGiftCardService_Expiry(t *testing.T) {
	ctx := context.Background()
	svc, clock, _ := newTestService(t)
	actor := shared.Actor{Name: "Jana"}

	expires := testutil.Date(2025, 4, 30, 0, 0)
	_, err := svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-30", Value: dec("200"), ExpirationDate: &expires})
	require.NoError(t, err)
	_, err = svc.Sell(ctx, "GC-30", TransitionRequest{ReceiptID: uuid.New()}, actor)
	require.NoError(t, err)

	t.Run("expiration can be moved while issued", func(t *testing.T) {
		later := testutil.Date(2025, 5, 15, 0, 0)
		card, err := svc.SetExpiration(ctx, "GC-30", SetExpirationRequest{ExpirationDate: &later})
		require.NoError(t, err)
		assert.Equal(t, later, card.ExpirationDate.UTC())

		past := testutil.Date(2025, 1, 1, 0, 0)
		_, err = svc.SetExpiration(ctx, "GC-30", SetExpirationRequest{ExpirationDate: &past})
		require.Error(t, err)
	})

	clock.Set(testutil.Date(2025, 6, 1, 9, 0))

	t.Run("redeeming after the date stores EXPIRED", func(t *testing.T) {
		_, err := svc.Redeem(ctx, "GC-30", TransitionRequest{ReceiptID: uuid.New()}, actor)
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, giftcard.ErrInvalidGiftCard.Code, de.Code)
		assert.Equal(t, string(giftcard.StatusExpired), de.Details["status"])

		expired, err := svc.List(ctx, "expired")
		require.NoError(t, err)
		require.Len(t, expired, 1)
		assert.Equal(t, "GC-30", expired[0].Code)
	})
}

func TestGiftCardService_GetStoresExpiry(t *testing.T) {
	ctx := context.Background()
	svc, clock, publisher := newTestService(t)

	expires := testutil.Date(2025, 4, 2, 0, 0)
	_, err := svc.AddGiftCard(ctx, AddGiftCardRequest{Code: "GC-40", Value: dec("50"), ExpirationDate: &expires})
	require.NoError(t, err)
	_, err = svc.Sell(ctx, "GC-40", TransitionRequest{ReceiptID: uuid.New()}, shared.Actor{Name: "Jana"})
	require.NoError(t, err)
	publisher.Reset()

	clock.Set(testutil.Date(2025, 4, 3, 0, 0))
	card, err := svc.Get(ctx, "GC-40")
	require.NoError(t, err)
	assert.Equal(t, "EXPIRED", card.Status)
	assert.Equal(t, []string{giftcard.EventTypeGiftCardStatusChanged}, publisher.Types())

	issued, err := svc.List(ctx, "ISSUED")
	require.NoError(t, err)
	assert.Empty(t, issued)
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
