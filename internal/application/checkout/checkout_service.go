package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appcash "github.com/sklad/pos/internal/application/cashregister"
	appinventory "github.com/sklad/pos/internal/application/inventory"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/sklad/pos/internal/domain/partner"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrAlreadyCancelled is returned when a receipt already has a storno
var ErrAlreadyCancelled = shared.NewDomainError("ALREADY_CANCELLED", "Receipt has already been cancelled")

// CheckoutService turns carts into receipts and cancels receipts by storno.
// A checkout either lands completely (stock, receipt, gift cards, loyalty,
// till) or not at all.
type CheckoutService struct {
	scope     txn.TransactionScope
	settings  settings.Store
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     shared.Clock
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(scope txn.TransactionScope, store settings.Store, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		scope:    scope,
		settings: store,
		logger:   logger,
		clock:    shared.SystemClock,
	}
}

// SetEventPublisher sets the publisher notified after commit
func (s *CheckoutService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *CheckoutService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// draft is a priced receipt together with the aggregates it touches
type draft struct {
	receipt  *trade.Receipt
	quantity map[string]int
	eans     []string
	sold     []*giftcard.GiftCard
	redeemed []*giftcard.GiftCard
	customer *partner.LoyaltyCustomer
}

// Preview prices the cart exactly as Checkout would without writing
// anything. Abandoning a cart after a preview leaves no trace.
func (s *CheckoutService) Preview(ctx context.Context, req CheckoutRequest, actor shared.Actor) (*ReceiptResponse, error) {
	if err := validateRequest(req, actor); err != nil {
		return nil, err
	}
	now := s.clock()
	var d *draft
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		d, err = s.build(ctx, repos, req, actor, 1, now)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToReceiptResponse(d.receipt)
	resp.ReceiptNumber = ""
	return &resp, nil
}

// Checkout completes a sale. Stock is re-checked against the locked
// product rows inside the transaction, so a cart priced earlier can still
// fail with INSUFFICIENT_STOCK here.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest, actor shared.Actor) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "complete",
		telemetry.SpanAttrPaymentMethod, req.PaymentMethod,
		telemetry.SpanAttrLineCount, len(req.Lines),
		telemetry.SpanAttrOperator, actor.Name)
	resp, err := s.checkout(ctx, req, actor)
	if resp != nil {
		telemetry.SetAttributes(span,
			telemetry.SpanAttrReceiptNumber, resp.ReceiptNumber,
			telemetry.SpanAttrAmount, resp.FinalAmountRounded.String())
	}
	telemetry.End(span, err)
	return resp, err
}

func (s *CheckoutService) checkout(ctx context.Context, req CheckoutRequest, actor shared.Actor) (*ReceiptResponse, error) {
	if err := validateRequest(req, actor); err != nil {
		return nil, err
	}
	now := s.clock()

	var (
		d      *draft
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		events = nil
		seq, err := repos.ReceiptRepo().NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		d, err = s.build(ctx, repos, req, actor, seq, now)
		if err != nil {
			return err
		}
		receipt := d.receipt
		ref := receipt.ID

		for _, ean := range d.eans {
			if _, err := appinventory.ApplyMovement(ctx, repos, appinventory.MovementInput{
				EAN:         ean,
				Type:        inventory.MovementTypeSale,
				Delta:       -d.quantity[ean],
				User:        actor.Name,
				Note:        receipt.ReceiptNumber,
				ReferenceID: &ref,
			}, now); err != nil {
				return err
			}
		}

		for _, card := range d.sold {
			if err := card.Sell(receipt.ID, actor.Name, now); err != nil {
				return err
			}
		}
		for _, card := range append(d.sold, d.redeemed...) {
			if err := repos.GiftCardRepo().Save(ctx, card); err != nil {
				return err
			}
			events = append(events, card.TakeEvents()...)
		}

		if err := repos.ReceiptRepo().Create(ctx, receipt); err != nil {
			return err
		}

		if cash := receipt.CashAmount(); !cash.IsZero() {
			entry, err := appcash.AppendEntry(ctx, repos, appcash.EntryInput{
				Type:        cashregister.EntryTypeSale,
				Amount:      cash,
				Description: "Sale " + receipt.ReceiptNumber,
				User:        actor.Name,
				ReferenceID: &ref,
			}, now)
			if err != nil {
				return err
			}
			events = append(events, cashregister.NewUpdatedEvent(entry))
		}

		if d.customer != nil {
			d.customer.AccruePurchase(receipt.TotalAmount.Sub(receipt.LoyaltyDiscountAmount))
			if err := repos.CustomerRepo().Save(ctx, d.customer); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.persistExpiry(ctx, err)
		return nil, s.fail("Checkout failed", err, zap.String("payment_method", req.PaymentMethod))
	}

	receipt := d.receipt
	s.logger.Info("Receipt completed",
		zap.String("receipt_number", receipt.ReceiptNumber),
		zap.String("payment_method", string(receipt.PaymentMethod)),
		zap.String("total", receipt.TotalAmount.StringFixed(2)),
		zap.String("final_amount", receipt.FinalAmountRounded.StringFixed(2)),
		zap.String("seller", receipt.SellerName))
	events = append([]shared.DomainEvent{trade.NewReceiptCompletedEvent(receipt)}, events...)
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, events)

	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

func validateRequest(req CheckoutRequest, actor shared.Actor) error {
	if strings.TrimSpace(actor.Name) == "" {
		return shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}
	if !trade.PaymentMethod(req.PaymentMethod).IsValid() {
		return shared.NewValidationError("INVALID_PAYMENT_METHOD", "Payment method must be CASH or CARD")
	}
	if len(req.Lines) == 0 && len(req.GiftCardsToSell) == 0 {
		return shared.NewValidationError("EMPTY_RECEIPT", "Cart is empty")
	}
	for _, line := range req.Lines {
		if strings.TrimSpace(line.EAN) == "" {
			return shared.NewValidationError("INVALID_EAN", "EAN cannot be empty")
		}
		if line.Quantity < 1 {
			return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1").WithDetail("ean", line.EAN)
		}
		if line.ManualDiscountPercent != nil && !actor.IsAdmin {
			return shared.ErrForbidden.WithDetail("operation", "manual_discount").WithDetail("ean", line.EAN)
		}
	}
	if req.ReceivedAmount != nil && req.ReceivedAmount.IsNegative() {
		return shared.NewValidationError("INVALID_AMOUNT", "Received amount cannot be negative")
	}

	seen := make(map[string]bool)
	for _, code := range append(append([]string{}, req.GiftCardCodes...), req.GiftCardsToSell...) {
		code = strings.TrimSpace(code)
		if code == "" {
			return shared.NewValidationError("INVALID_CODE", "Gift card code cannot be empty")
		}
		if seen[code] {
			return shared.NewValidationError("DUPLICATE_GIFT_CARD", "Gift card appears more than once on the receipt").WithDetail("code", code)
		}
		seen[code] = true
	}
	return nil
}

// build prices the cart: line snapshots with product or manual discounts,
// gift card sale lines, loyalty, gift card redemptions, totals and payment.
// Loaded aggregates are modified in memory only.
func (s *CheckoutService) build(ctx context.Context, repos txn.TransactionalRepositories, req CheckoutRequest, actor shared.Actor, seq int, now time.Time) (*draft, error) {
	vatPayer := s.settings != nil && s.settings.IsVATPayer()
	receipt, err := trade.NewReceipt(seq, now.Year(), actor.Name, trade.PaymentMethod(req.PaymentMethod), now, vatPayer)
	if err != nil {
		return nil, err
	}
	d := &draft{receipt: receipt, quantity: make(map[string]int)}

	products := make(map[string]*catalog.Product)
	for _, line := range req.Lines {
		ean := strings.TrimSpace(line.EAN)
		product, ok := products[ean]
		if !ok {
			product, err = repos.ProductRepo().FindByEANForUpdate(ctx, ean)
			if err != nil {
				return nil, err
			}
			products[ean] = product
			d.eans = append(d.eans, ean)
		}

		discount, reason := decimal.Zero, ""
		if line.ManualDiscountPercent != nil {
			discount, reason = *line.ManualDiscountPercent, strings.TrimSpace(line.DiscountReason)
			if reason == "" {
				reason = "manual"
			}
		} else if pct, active := product.ActiveDiscount(now); active {
			discount, reason = pct, product.DiscountReason
		}

		productID := product.ID
		if _, err := receipt.AddLine(trade.LineInput{
			ProductID:       &productID,
			EAN:             product.EAN,
			Name:            product.Name,
			Quantity:        line.Quantity,
			UnitPrice:       product.SalePrice,
			VatRate:         product.VatRate,
			DiscountPercent: discount,
			DiscountReason:  reason,
		}); err != nil {
			return nil, err
		}
		d.quantity[ean] += line.Quantity
	}

	for _, ean := range d.eans {
		product := products[ean]
		if requested := d.quantity[ean]; !product.HasStock(requested) {
			return nil, shared.ErrInsufficientStock.
				WithDetail("ean", product.EAN).
				WithDetail("product", product.Name).
				WithDetail("requested", requested).
				WithDetail("available", product.StockQuantity)
		}
	}

	for _, code := range req.GiftCardsToSell {
		card, err := loadCard(ctx, repos, code)
		if err != nil {
			return nil, err
		}
		if card.Status != giftcard.StatusNotIssued {
			return nil, shared.ErrInvalidState.
				WithDetail("code", card.Code).
				WithDetail("status", card.Status.String()).
				WithDetail("operation", "sell")
		}
		if _, err := receipt.AddLine(trade.LineInput{
			EAN:        card.Code,
			Name:       fmt.Sprintf("Gift card %s", card.Code),
			Quantity:   1,
			UnitPrice:  card.Value,
			VatRate:    decimal.Zero,
			IsGiftCard: true,
		}); err != nil {
			return nil, err
		}
		d.sold = append(d.sold, card)
	}

	if req.LoyaltyCustomerID != nil {
		customer, err := repos.CustomerRepo().FindByID(ctx, *req.LoyaltyCustomerID)
		if err != nil {
			return nil, err
		}
		receipt.ApplyLoyalty(customer.ID, customer.DiscountPercent)
		d.customer = customer
	}

	for _, code := range req.GiftCardCodes {
		card, err := loadCard(ctx, repos, code)
		if err != nil {
			return nil, err
		}
		if err := card.Redeem(receipt.ID, actor.Name, now); err != nil {
			return nil, err
		}
		receipt.AddGiftCardRedemption(card.ID, card.Code, card.Value)
		d.redeemed = append(d.redeemed, card)
	}

	if err := receipt.Finalize(); err != nil {
		return nil, err
	}
	var received *decimal.Decimal
	if receipt.PaymentMethod == trade.PaymentMethodCash {
		received = req.ReceivedAmount
	}
	if err := receipt.Settle(received); err != nil {
		return nil, err
	}
	return d, nil
}

// loadCard reports an unknown code as an unusable gift card
func loadCard(ctx context.Context, repos txn.TransactionalRepositories, code string) (*giftcard.GiftCard, error) {
	code = strings.TrimSpace(code)
	card, err := repos.GiftCardRepo().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, giftcard.ErrInvalidGiftCard.WithDetail("code", code).WithDetail("reason", "not found")
		}
		return nil, err
	}
	return card, nil
}

// persistExpiry saves the EXPIRED state of a card whose redemption failed
// because it had expired. The checkout itself was rolled back.
func (s *CheckoutService) persistExpiry(ctx context.Context, err error) {
	var de *shared.DomainError
	if !errors.As(err, &de) || de.Code != giftcard.ErrInvalidGiftCard.Code || de.Details["status"] != string(giftcard.StatusExpired) {
		return
	}
	code, _ := de.Details["code"].(string)
	now := s.clock()
	var card *giftcard.GiftCard
	expireErr := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		card, err = repos.GiftCardRepo().FindByCode(ctx, code)
		if err != nil {
			return err
		}
		if !card.RefreshExpiry(now) {
			return nil
		}
		return repos.GiftCardRepo().Save(ctx, card)
	})
	if expireErr != nil {
		s.logger.Warn("Failed to store gift card expiry", zap.String("code", code), zap.Error(expireErr))
		return
	}
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, card.TakeEvents())
}

// Storno cancels a completed receipt with a new receipt carrying negated
// amounts. The original row is never changed; stock, gift cards, loyalty
// and the till are restored in the same transaction.
func (s *CheckoutService) Storno(ctx context.Context, receiptID uuid.UUID, req StornoRequest, actor shared.Actor) (*ReceiptResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "storno",
		"receipt_id", receiptID.String(),
		telemetry.SpanAttrOperator, actor.Name)
	resp, err := s.storno(ctx, receiptID, req, actor)
	if resp != nil {
		telemetry.SetAttributes(span, telemetry.SpanAttrReceiptNumber, resp.ReceiptNumber)
	}
	telemetry.End(span, err)
	return resp, err
}

func (s *CheckoutService) storno(ctx context.Context, receiptID uuid.UUID, req StornoRequest, actor shared.Actor) (*ReceiptResponse, error) {
	if strings.TrimSpace(actor.Name) == "" {
		return nil, shared.NewValidationError("INVALID_SELLER", "Seller name is required")
	}
	now := s.clock()

	var (
		storno *trade.Receipt
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		events = nil
		original, err := repos.ReceiptRepo().FindByID(ctx, receiptID)
		if err != nil {
			return err
		}
		if err := s.checkCancellable(ctx, repos, original); err != nil {
			return err
		}

		seq, err := repos.ReceiptRepo().NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		storno, err = original.NewStorno(seq, now.Year(), actor.Name, req.Reason, now)
		if err != nil {
			return err
		}
		ref := storno.ID

		restock, eans := make(map[string]int), make([]string, 0, len(original.Items))
		for _, item := range original.Items {
			if item.IsGiftCard {
				continue
			}
			if _, seen := restock[item.ProductEAN]; !seen {
				eans = append(eans, item.ProductEAN)
			}
			restock[item.ProductEAN] += item.Quantity
		}
		for _, ean := range eans {
			if _, err := appinventory.ApplyMovement(ctx, repos, appinventory.MovementInput{
				EAN:         ean,
				Type:        inventory.MovementTypeReturn,
				Delta:       restock[ean],
				User:        actor.Name,
				Note:        fmt.Sprintf("Storno %s of %s", storno.ReceiptNumber, original.ReceiptNumber),
				ReferenceID: &ref,
			}, now); err != nil {
				return err
			}
		}

		sold, err := repos.GiftCardRepo().FindIssuedOn(ctx, original.ID)
		if err != nil {
			return err
		}
		used, err := repos.GiftCardRepo().FindUsedOn(ctx, original.ID)
		if err != nil {
			return err
		}
		for i := range sold {
			if err := sold[i].CancelSale(now); err != nil {
				return err
			}
		}
		for i := range used {
			if err := used[i].CancelRedemption(now); err != nil {
				return err
			}
		}
		for _, card := range append(sold, used...) {
			if err := repos.GiftCardRepo().Save(ctx, &card); err != nil {
				return err
			}
			events = append(events, card.TakeEvents()...)
		}

		if original.LoyaltyCustomerID != nil {
			customer, err := repos.CustomerRepo().FindByID(ctx, *original.LoyaltyCustomerID)
			if err != nil {
				return err
			}
			customer.AccruePurchase(original.TotalAmount.Sub(original.LoyaltyDiscountAmount).Neg())
			if err := repos.CustomerRepo().Save(ctx, customer); err != nil {
				return err
			}
		}

		if err := repos.ReceiptRepo().Create(ctx, storno); err != nil {
			return err
		}

		if cash := original.CashAmount(); !cash.IsZero() {
			entry, err := appcash.AppendEntry(ctx, repos, appcash.EntryInput{
				Type:        cashregister.EntryTypeSale,
				Amount:      cash.Neg(),
				Description: fmt.Sprintf("Storno %s of %s", storno.ReceiptNumber, original.ReceiptNumber),
				User:        actor.Name,
				ReferenceID: &ref,
			}, now)
			if err != nil {
				return err
			}
			events = append(events, cashregister.NewUpdatedEvent(entry))
		}
		return nil
	})
	if err != nil {
		return nil, s.fail("Storno failed", err, zap.String("receipt_id", receiptID.String()))
	}

	s.logger.Info("Receipt cancelled",
		zap.String("storno_number", storno.ReceiptNumber),
		zap.String("receipt_id", receiptID.String()),
		zap.String("amount", storno.FinalAmountRounded.StringFixed(2)),
		zap.String("seller", actor.Name))
	events = append([]shared.DomainEvent{trade.NewReceiptCancelledEvent(storno)}, events...)
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, events)

	resp := ToReceiptResponse(storno)
	return &resp, nil
}

func (s *CheckoutService) checkCancellable(ctx context.Context, repos txn.TransactionalRepositories, original *trade.Receipt) error {
	if original.IsStorno {
		return shared.ErrInvalidState.
			WithDetail("receipt", original.ReceiptNumber).
			WithDetail("reason", "a storno receipt cannot be cancelled")
	}
	existing, err := repos.ReceiptRepo().FindStornoOf(ctx, original.ID)
	switch {
	case err == nil:
		return ErrAlreadyCancelled.
			WithDetail("receipt", original.ReceiptNumber).
			WithDetail("storno", existing.ReceiptNumber)
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}
	returns, err := repos.ReturnRepo().FindByReceipt(ctx, original.ID)
	if err != nil {
		return err
	}
	if len(returns) > 0 {
		return shared.ErrInvalidState.
			WithDetail("receipt", original.ReceiptNumber).
			WithDetail("reason", "receipt has returns")
	}
	return nil
}

// GetReceipt returns a receipt by ID
func (s *CheckoutService) GetReceipt(ctx context.Context, id uuid.UUID) (*ReceiptResponse, error) {
	return s.findReceipt(ctx, func(repo trade.ReceiptRepository) (*trade.Receipt, error) {
		return repo.FindByID(ctx, id)
	})
}

// GetReceiptByNumber returns a receipt by its printed number
func (s *CheckoutService) GetReceiptByNumber(ctx context.Context, number string) (*ReceiptResponse, error) {
	return s.findReceipt(ctx, func(repo trade.ReceiptRepository) (*trade.Receipt, error) {
		return repo.FindByNumber(ctx, strings.ToUpper(strings.TrimSpace(number)))
	})
}

// ListReceipts lists receipts sold within [from, to) in numbering order
func (s *CheckoutService) ListReceipts(ctx context.Context, from, to time.Time) ([]ReceiptResponse, error) {
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "End of range precedes its start")
	}
	var receipts []trade.Receipt
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		receipts, err = repos.ReceiptRepo().FindByDateRange(ctx, shared.DateRange{From: from, To: to})
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = ToReceiptResponse(&receipts[i])
	}
	return out, nil
}

func (s *CheckoutService) findReceipt(ctx context.Context, load func(trade.ReceiptRepository) (*trade.Receipt, error)) (*ReceiptResponse, error) {
	var receipt *trade.Receipt
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		receipt, err = load(repos.ReceiptRepo())
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToReceiptResponse(receipt)
	return &resp, nil
}

func (s *CheckoutService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
