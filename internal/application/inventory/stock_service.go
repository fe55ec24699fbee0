package inventory

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/sklad/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMovementPageSize is how many movements GetMovements loads per query
const DefaultMovementPageSize = 200

// StockService owns the product catalog and the stock ledger. Every change
// to a quantity on hand goes through RecordMovement or ApplyMovement.
type StockService struct {
	scope    txn.TransactionScope
	logger   *zap.Logger
	clock    shared.Clock
	pageSize int
}

// NewStockService creates a new StockService
func NewStockService(scope txn.TransactionScope, logger *zap.Logger) *StockService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockService{
		scope:    scope,
		logger:   logger,
		clock:    shared.SystemClock,
		pageSize: DefaultMovementPageSize,
	}
}

// SetClock replaces the time source
func (s *StockService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetPageSize changes the GetMovements page size
func (s *StockService) SetPageSize(size int) {
	if size > 0 {
		s.pageSize = size
	}
}

// ApplyMovement records one movement inside an open transaction: it locks
// the product, applies the delta, saves the product with its version check
// and appends the movement. Checkout, returns and storno call it with their
// own transaction's repositories.
func ApplyMovement(ctx context.Context, repos txn.TransactionalRepositories, in MovementInput, at time.Time) (*inventory.StockMovement, error) {
	product, err := repos.ProductRepo().FindByEANForUpdate(ctx, strings.TrimSpace(in.EAN))
	if err != nil {
		return nil, err
	}
	movement, err := inventory.Record(product, in.Type, in.Delta, in.User, in.Note, in.ReferenceID, at)
	if err != nil {
		return nil, err
	}
	if err := repos.ProductRepo().Save(ctx, product); err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// RecordMovement applies a single movement in its own transaction
func (s *StockService) RecordMovement(ctx context.Context, in MovementInput) (*MovementResponse, error) {
	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		movement, err = ApplyMovement(ctx, repos, in, s.clock())
		return err
	})
	if err != nil {
		return nil, s.fail("Failed to record stock movement", err, zap.String("ean", in.EAN), zap.String("type", in.Type.String()))
	}

	s.logger.Info("Stock movement recorded",
		zap.String("ean", movement.ProductEAN),
		zap.String("type", movement.Type.String()),
		zap.Int("change", movement.QuantityChange),
		zap.Int("stock_after", movement.StockAfter))
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// GetMovements lists movements newest first. Pages are loaded lazily as the
// caller ranges; stopping early stops loading. Each range re-runs the query.
func (s *StockService) GetMovements(ctx context.Context, query inventory.MovementQuery) iter.Seq2[inventory.StockMovement, error] {
	return func(yield func(inventory.StockMovement, error) bool) {
		if !query.From.IsZero() && !query.To.IsZero() && query.To.Before(query.From) {
			yield(inventory.StockMovement{}, shared.NewValidationError("INVALID_DATE_RANGE", "End of range precedes its start"))
			return
		}
		if query.Type != "" && !query.Type.IsValid() {
			yield(inventory.StockMovement{}, shared.NewValidationError("INVALID_MOVEMENT_TYPE", "Invalid stock movement type"))
			return
		}

		var cursor *inventory.MovementCursor
		for {
			var page []inventory.StockMovement
			err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
				var err error
				page, err = repos.MovementRepo().FindPage(ctx, query, cursor, s.pageSize)
				return err
			})
			if err != nil {
				yield(inventory.StockMovement{}, txn.Classify(err))
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &inventory.MovementCursor{CreatedAt: last.CreatedAt, ID: last.ID.String()}
		}
	}
}

// CreateProduct registers a product. Initial stock is booked as a
// PRODUCT_CREATED movement so the ledger replays to the stored quantity.
func (s *StockService) CreateProduct(ctx context.Context, req CreateProductRequest, actor shared.Actor) (*ProductResponse, error) {
	if req.InitialStock < 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Initial stock cannot be negative")
	}
	product, err := catalog.NewProduct(req.EAN, req.Name, req.Category, req.PurchasePrice, req.SalePrice, req.VatRate)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	err = s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		if err := repos.ProductRepo().Create(ctx, product); err != nil {
			return err
		}
		ref := product.ID
		movement, err := inventory.Record(product, inventory.MovementTypeProductCreated, req.InitialStock, actor.Name, "", &ref, now)
		if err != nil {
			return err
		}
		if req.InitialStock > 0 {
			if err := repos.ProductRepo().Save(ctx, product); err != nil {
				return err
			}
		}
		return repos.MovementRepo().Create(ctx, movement)
	})
	if err != nil {
		return nil, s.fail("Failed to create product", err, zap.String("ean", req.EAN))
	}

	s.logger.Info("Product created",
		zap.String("ean", product.EAN),
		zap.String("name", product.Name),
		zap.Int("initial_stock", product.StockQuantity))
	resp := ToProductResponse(product)
	return &resp, nil
}

// StockIn books received goods
func (s *StockService) StockIn(ctx context.Context, ean string, req StockChangeRequest, actor shared.Actor) (*MovementResponse, error) {
	if req.Quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	return s.RecordMovement(ctx, MovementInput{
		EAN:   ean,
		Type:  inventory.MovementTypeStockIn,
		Delta: req.Quantity,
		User:  actor.Name,
		Note:  req.Note,
	})
}

// WriteOff removes testers or damaged goods from stock
func (s *StockService) WriteOff(ctx context.Context, ean string, req WriteOffRequest, actor shared.Actor) (*MovementResponse, error) {
	if req.Quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	movementType := inventory.MovementTypeWriteOffTester
	if req.Damaged {
		movementType = inventory.MovementTypeWriteOffDamaged
	}
	return s.RecordMovement(ctx, MovementInput{
		EAN:   ean,
		Type:  movementType,
		Delta: -req.Quantity,
		User:  actor.Name,
		Note:  req.Note,
	})
}

// AdjustTo sets the quantity on hand to a counted value with an ADJUSTMENT
// movement for the difference
func (s *StockService) AdjustTo(ctx context.Context, ean string, req StockChangeRequest, actor shared.Actor) (*MovementResponse, error) {
	if req.Quantity < 0 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	var movement *inventory.StockMovement
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByEANForUpdate(ctx, strings.TrimSpace(ean))
		if err != nil {
			return err
		}
		delta := req.Quantity - product.StockQuantity
		if delta == 0 {
			return shared.NewValidationError("NO_CHANGE", "Counted quantity equals the stock on hand").
				WithDetail("ean", product.EAN).
				WithDetail("quantity", product.StockQuantity)
		}
		movement, err = ApplyMovement(ctx, repos, MovementInput{
			EAN:   product.EAN,
			Type:  inventory.MovementTypeAdjustment,
			Delta: delta,
			User:  actor.Name,
			Note:  req.Note,
		}, s.clock())
		return err
	})
	if err != nil {
		return nil, s.fail("Failed to adjust stock", err, zap.String("ean", ean))
	}
	resp := ToMovementResponse(movement)
	return &resp, nil
}

// UpdatePricing changes prices, VAT rate and the product discount window.
// Fields left nil keep their value; the markup is recomputed.
func (s *StockService) UpdatePricing(ctx context.Context, ean string, req UpdatePricingRequest) (*ProductResponse, error) {
	var product *catalog.Product
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByEANForUpdate(ctx, strings.TrimSpace(ean))
		if err != nil {
			return err
		}
		purchase, sale, vat := product.PurchasePrice, product.SalePrice, product.VatRate
		if req.PurchasePrice != nil {
			purchase = *req.PurchasePrice
		}
		if req.SalePrice != nil {
			sale = *req.SalePrice
		}
		if req.VatRate != nil {
			vat = *req.VatRate
		}
		if err := product.SetPricing(purchase, sale, vat); err != nil {
			return err
		}
		switch {
		case req.ClearDiscount:
			product.ClearDiscount()
		case req.DiscountPercent != nil:
			if err := product.SetDiscount(*req.DiscountPercent, req.DiscountFrom, req.DiscountTo, req.DiscountReason); err != nil {
				return err
			}
		}
		return repos.ProductRepo().Save(ctx, product)
	})
	if err != nil {
		return nil, s.fail("Failed to update pricing", err, zap.String("ean", ean))
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// GetProduct returns a product by EAN
func (s *StockService) GetProduct(ctx context.Context, ean string) (*ProductResponse, error) {
	var product *catalog.Product
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByEAN(ctx, strings.TrimSpace(ean))
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// ListProducts lists products matching the filter
func (s *StockService) ListProducts(ctx context.Context, filter catalog.ProductFilter) ([]ProductResponse, error) {
	var products []catalog.Product
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		products, err = repos.ProductRepo().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

// VerifyStock replays a product's movements and compares the result with
// the stored quantity on hand
func (s *StockService) VerifyStock(ctx context.Context, ean string) (*StockVerification, error) {
	var (
		product   *catalog.Product
		movements []inventory.StockMovement
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		product, err = repos.ProductRepo().FindByEAN(ctx, strings.TrimSpace(ean))
		if err != nil {
			return err
		}
		movements, err = repos.MovementRepo().FindByProductChronological(ctx, product.EAN)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}

	replayed, broken := inventory.Replay(movements)
	result := &StockVerification{
		EAN:              product.EAN,
		StoredQuantity:   product.StockQuantity,
		ReplayedQuantity: replayed,
		MovementCount:    len(movements),
		Consistent:       broken == nil && replayed == product.StockQuantity,
	}
	if broken != nil {
		id := broken.ID
		result.BrokenMovementID = &id
	}
	if !result.Consistent {
		s.logger.Warn("Stock ledger does not match product quantity",
			zap.String("ean", product.EAN),
			zap.Int("stored", product.StockQuantity),
			zap.Int("replayed", replayed))
	}
	return result, nil
}

func (s *StockService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
