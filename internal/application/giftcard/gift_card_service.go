package giftcard

import (
	"context"
	"strings"

	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// GiftCardService runs single gift card transitions, each in its own
// transaction. Checkout and storno apply the same transitions inside
// their own transactions.
type GiftCardService struct {
	scope     txn.TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     shared.Clock
}

// NewGiftCardService creates a new GiftCardService
func NewGiftCardService(scope txn.TransactionScope, logger *zap.Logger) *GiftCardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GiftCardService{
		scope:  scope,
		logger: logger,
		clock:  shared.SystemClock,
	}
}

// SetEventPublisher sets the publisher notified after committed transitions
func (s *GiftCardService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *GiftCardService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// AddGiftCard registers a card in NOT_ISSUED state
func (s *GiftCardService) AddGiftCard(ctx context.Context, req AddGiftCardRequest) (*GiftCardResponse, error) {
	now := s.clock()
	if req.ExpirationDate != nil && req.ExpirationDate.Before(now) {
		return nil, shared.NewValidationError("INVALID_EXPIRATION", "Expiration date cannot be in the past")
	}
	card, err := giftcard.NewGiftCard(req.Code, req.Value, req.ExpirationDate, req.Note)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		return repos.GiftCardRepo().Create(ctx, card)
	})
	if err != nil {
		return nil, s.fail("Failed to add gift card", err, zap.String("code", card.Code))
	}
	s.logger.Info("Gift card added", zap.String("code", card.Code), zap.String("value", card.Value.StringFixed(2)))
	resp := ToGiftCardResponse(card)
	return &resp, nil
}

// Get returns a card. An issued card past its expiration date is moved to
// EXPIRED and saved before it is returned.
func (s *GiftCardService) Get(ctx context.Context, code string) (*GiftCardResponse, error) {
	now := s.clock()
	var card *giftcard.GiftCard
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		card, err = repos.GiftCardRepo().FindByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if card.RefreshExpiry(now) {
			return repos.GiftCardRepo().Save(ctx, card)
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("Failed to load gift card", err, zap.String("code", code))
	}
	return s.committed(ctx, card), nil
}

// List lists cards, optionally only one status
func (s *GiftCardService) List(ctx context.Context, status string) ([]GiftCardResponse, error) {
	var cards []giftcard.GiftCard
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		cards, err = repos.GiftCardRepo().FindAll(ctx, giftcard.Status(strings.ToUpper(strings.TrimSpace(status))))
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]GiftCardResponse, len(cards))
	for i := range cards {
		out[i] = ToGiftCardResponse(&cards[i])
	}
	return out, nil
}

// Sell issues a card on a receipt
func (s *GiftCardService) Sell(ctx context.Context, code string, req TransitionRequest, actor shared.Actor) (*GiftCardResponse, error) {
	return s.transition(ctx, code, "sell", func(card *giftcard.GiftCard) error {
		return card.Sell(req.ReceiptID, actor.Name, s.clock())
	})
}

// Redeem uses a card as payment on a receipt. A card found expired is
// saved as EXPIRED even though the redemption fails.
func (s *GiftCardService) Redeem(ctx context.Context, code string, req TransitionRequest, actor shared.Actor) (*GiftCardResponse, error) {
	now := s.clock()
	var (
		card      *giftcard.GiftCard
		redeemErr error
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		card, err = repos.GiftCardRepo().FindByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		before := card.Status
		if redeemErr = card.Redeem(req.ReceiptID, actor.Name, now); redeemErr != nil {
			if card.Status != before {
				return repos.GiftCardRepo().Save(ctx, card)
			}
			return redeemErr
		}
		return repos.GiftCardRepo().Save(ctx, card)
	})
	if err != nil {
		return nil, s.fail("Failed to redeem gift card", err, zap.String("code", code))
	}
	if redeemErr != nil {
		s.committed(ctx, card)
		return nil, redeemErr
	}
	s.logger.Info("Gift card redeemed", zap.String("code", card.Code), zap.String("receipt_id", req.ReceiptID.String()))
	return s.committed(ctx, card), nil
}

// CancelSale reverts a card sale
func (s *GiftCardService) CancelSale(ctx context.Context, code string) (*GiftCardResponse, error) {
	return s.transition(ctx, code, "cancel_sale", func(card *giftcard.GiftCard) error {
		return card.CancelSale(s.clock())
	})
}

// CancelRedemption reverts a card redemption
func (s *GiftCardService) CancelRedemption(ctx context.Context, code string) (*GiftCardResponse, error) {
	return s.transition(ctx, code, "cancel_redemption", func(card *giftcard.GiftCard) error {
		return card.CancelRedemption(s.clock())
	})
}

// MarkCancelled withdraws a card permanently
func (s *GiftCardService) MarkCancelled(ctx context.Context, code string, req CancelRequest) (*GiftCardResponse, error) {
	return s.transition(ctx, code, "cancel", func(card *giftcard.GiftCard) error {
		return card.MarkCancelled(req.Reason, s.clock())
	})
}

// SetExpiration sets or clears a card's expiration date
func (s *GiftCardService) SetExpiration(ctx context.Context, code string, req SetExpirationRequest) (*GiftCardResponse, error) {
	return s.transition(ctx, code, "set_expiration", func(card *giftcard.GiftCard) error {
		return card.SetExpiration(req.ExpirationDate, s.clock())
	})
}

func (s *GiftCardService) transition(ctx context.Context, code, op string, apply func(*giftcard.GiftCard) error) (*GiftCardResponse, error) {
	var card *giftcard.GiftCard
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		card, err = repos.GiftCardRepo().FindByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if err := apply(card); err != nil {
			return err
		}
		return repos.GiftCardRepo().Save(ctx, card)
	})
	if err != nil {
		return nil, s.fail("Failed to change gift card", err, zap.String("code", code), zap.String("operation", op))
	}
	s.logger.Info("Gift card changed",
		zap.String("code", card.Code),
		zap.String("operation", op),
		zap.String("status", card.Status.String()))
	return s.committed(ctx, card), nil
}

func (s *GiftCardService) committed(ctx context.Context, card *giftcard.GiftCard) *GiftCardResponse {
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, card.TakeEvents())
	resp := ToGiftCardResponse(card)
	return &resp
}

func (s *GiftCardService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
