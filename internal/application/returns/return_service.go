package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	appcash "github.com/sklad/pos/internal/application/cashregister"
	appinventory "github.com/sklad/pos/internal/application/inventory"
	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReturnService refunds products sold on a receipt. Refunds are paid out of
// the till whatever the original payment method was.
type ReturnService struct {
	scope     txn.TransactionScope
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     shared.Clock
}

// NewReturnService creates a new ReturnService
func NewReturnService(scope txn.TransactionScope, logger *zap.Logger) *ReturnService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnService{
		scope:  scope,
		logger: logger,
		clock:  shared.SystemClock,
	}
}

// SetEventPublisher sets the publisher notified after commit
func (s *ReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *ReturnService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// GetReturnable lists what can still be returned from a receipt
func (s *ReturnService) GetReturnable(ctx context.Context, receiptID uuid.UUID) (*ReturnableResponse, error) {
	var (
		receipt  *trade.Receipt
		returned map[uuid.UUID]int
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		receipt, err = repos.ReceiptRepo().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		returned, err = repos.ReturnRepo().ReturnedQuantities(ctx, receiptID)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}

	resp := &ReturnableResponse{ReceiptID: receipt.ID, ReceiptNumber: receipt.ReceiptNumber, Lines: []ReturnableLineResponse{}}
	if receipt.IsStorno {
		return resp, nil
	}
	for _, r := range trade.ReturnableLines(receipt, returned) {
		resp.Lines = append(resp.Lines, ReturnableLineResponse{
			ReceiptItemID: r.Item.ID,
			ProductEAN:    r.Item.ProductEAN,
			ProductName:   r.Item.ProductName,
			Quantity:      r.Item.Quantity,
			Returned:      r.Returned,
			Remaining:     r.Remaining,
			UnitPrice:     r.Item.UnitPrice,
			VatRate:       r.Item.VatRate,
		})
	}
	return resp, nil
}

// ProcessReturn refunds the requested quantities. Stock comes back with one
// RETURN movement per product, the refund leaves the till as a RETURN entry
// and the member's purchase total shrinks by the refunded amount.
func (s *ReturnService) ProcessReturn(ctx context.Context, receiptID uuid.UUID, req ProcessReturnRequest, actor shared.Actor) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "returns", "process",
		"receipt_id", receiptID.String(),
		telemetry.SpanAttrLineCount, len(req.Lines),
		telemetry.SpanAttrOperator, actor.Name)
	resp, err := s.processReturn(ctx, receiptID, req, actor)
	if resp != nil {
		telemetry.SetAttributes(span,
			telemetry.SpanAttrReturnNumber, resp.ReturnNumber,
			telemetry.SpanAttrReceiptNumber, resp.OriginalReceiptNumber,
			telemetry.SpanAttrAmount, resp.FinalRefundRounded.String())
	}
	telemetry.End(span, err)
	return resp, err
}

func (s *ReturnService) processReturn(ctx context.Context, receiptID uuid.UUID, req ProcessReturnRequest, actor shared.Actor) (*ReturnResponse, error) {
	if strings.TrimSpace(actor.Name) == "" {
		return nil, shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}
	lines := make([]trade.ReturnLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, trade.ReturnLine{EAN: strings.TrimSpace(l.EAN), Quantity: l.Quantity})
	}
	now := s.clock()

	var (
		ret    *trade.SalesReturn
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		events = nil
		receipt, err := repos.ReceiptRepo().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if !receipt.IsStorno {
			if _, err := repos.ReceiptRepo().FindStornoOf(ctx, receipt.ID); err == nil {
				return shared.ErrInvalidState.
					WithDetail("receipt", receipt.ReceiptNumber).
					WithDetail("reason", "receipt has been cancelled")
			} else if !isNotFound(err) {
				return err
			}
		}
		returned, err := repos.ReturnRepo().ReturnedQuantities(ctx, receipt.ID)
		if err != nil {
			return err
		}
		seq, err := repos.ReturnRepo().NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		ret, err = trade.NewSalesReturn(receipt, returned, lines, seq, now.Year(), actor.Name, req.Reason, now)
		if err != nil {
			return err
		}
		ref := ret.ID

		seen := make(map[string]bool)
		for _, item := range ret.Items {
			if seen[item.ProductEAN] {
				continue
			}
			seen[item.ProductEAN] = true
			if _, err := appinventory.ApplyMovement(ctx, repos, appinventory.MovementInput{
				EAN:         item.ProductEAN,
				Type:        inventory.MovementTypeReturn,
				Delta:       ret.QuantityFor(item.ProductEAN),
				User:        actor.Name,
				Note:        fmt.Sprintf("Return %s of %s", ret.ReturnNumber, receipt.ReceiptNumber),
				ReferenceID: &ref,
			}, now); err != nil {
				return err
			}
		}

		if err := repos.ReturnRepo().Create(ctx, ret); err != nil {
			return err
		}

		if !ret.FinalRefundRounded.IsZero() {
			entry, err := appcash.AppendEntry(ctx, repos, appcash.EntryInput{
				Type:        cashregister.EntryTypeReturn,
				Amount:      ret.FinalRefundRounded,
				Description: fmt.Sprintf("Return %s of %s", ret.ReturnNumber, receipt.ReceiptNumber),
				User:        actor.Name,
				ReferenceID: &ref,
			}, now)
			if err != nil {
				return err
			}
			if entry.Balance.IsNegative() {
				s.logger.Warn("Refund exceeds the till balance",
					zap.String("return_number", ret.ReturnNumber),
					zap.String("balance", entry.Balance.StringFixed(2)))
			}
			events = append(events, cashregister.NewUpdatedEvent(entry))
		}

		if receipt.LoyaltyCustomerID != nil {
			customer, err := repos.CustomerRepo().FindByID(ctx, *receipt.LoyaltyCustomerID)
			if err != nil {
				return err
			}
			customer.AccruePurchase(ret.AmountToRefund.Neg())
			if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("Return failed", err, zap.String("receipt_id", receiptID.String()))
	}

	s.logger.Info("Return completed",
		zap.String("return_number", ret.ReturnNumber),
		zap.String("receipt_number", ret.OriginalReceiptNumber),
		zap.String("refund", ret.FinalRefundRounded.StringFixed(2)),
		zap.String("seller", ret.SellerName))
	events = append([]shared.DomainEvent{trade.NewReturnCompletedEvent(ret)}, events...)
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, events)

	resp := ToReturnResponse(ret)
	return &resp, nil
}

// GetReturn returns a return by ID
func (s *ReturnService) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnResponse, error) {
	var ret *trade.SalesReturn
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		ret, err = repos.ReturnRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToReturnResponse(ret)
	return &resp, nil
}

// ListReturns lists the returns booked against a receipt
func (s *ReturnService) ListReturns(ctx context.Context, receiptID uuid.UUID) ([]ReturnResponse, error) {
	var list []trade.SalesReturn
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		list, err = repos.ReturnRepo().FindByReceipt(ctx, receiptID)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]ReturnResponse, len(list))
	for i := range list {
		out[i] = ToReturnResponse(&list[i])
	}
	return out, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

func (s *ReturnService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
