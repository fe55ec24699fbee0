package txn

import (
	"context"
	"errors"

	"github.com/sklad/pos/internal/domain/cashregister"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/giftcard"
	"github.com/sklad/pos/internal/domain/inventory"
	"github.com/sklad/pos/internal/domain/partner"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
)

// TransactionScope provides transactional access to the POS repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Stock movements and cash-register entries are append-only ledgers; their
// repositories expose no update or delete.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	MovementRepo() inventory.StockMovementRepository
	GiftCardRepo() giftcard.GiftCardRepository
	CustomerRepo() partner.LoyaltyCustomerRepository
	ReceiptRepo() trade.ReceiptRepository
	ReturnRepo() trade.SalesReturnRepository
	CashEntryRepo() cashregister.EntryRepository
	DailyCloseRepo() closing.DailyCloseRepository
}

// Repositories is a plain holder of repository implementations.
// It satisfies TransactionalRepositories; the gorm scope builds one per
// transaction.
type Repositories struct {
	Products    catalog.ProductRepository
	Movements   inventory.StockMovementRepository
	GiftCards   giftcard.GiftCardRepository
	Customers   partner.LoyaltyCustomerRepository
	Receipts    trade.ReceiptRepository
	Returns     trade.SalesReturnRepository
	CashEntries cashregister.EntryRepository
	DailyCloses closing.DailyCloseRepository
}

func (r *Repositories) ProductRepo() catalog.ProductRepository {
	return r.Products
}

func (r *Repositories) MovementRepo() inventory.StockMovementRepository {
	return r.Movements
}

func (r *Repositories) GiftCardRepo() giftcard.GiftCardRepository {
	return r.GiftCards
}

func (r *Repositories) CustomerRepo() partner.LoyaltyCustomerRepository {
	return r.Customers
}

func (r *Repositories) ReceiptRepo() trade.ReceiptRepository {
	return r.Receipts
}

func (r *Repositories) ReturnRepo() trade.SalesReturnRepository {
	return r.Returns
}

func (r *Repositories) CashEntryRepo() cashregister.EntryRepository {
	return r.CashEntries
}

func (r *Repositories) DailyCloseRepo() closing.DailyCloseRepository {
	return r.DailyCloses
}

// Classify leaves domain errors untouched and turns anything else into a
// PERSISTENCE_FAILURE that keeps the original error as its cause.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.NewPersistenceError(err)
}

var _ TransactionalRepositories = (*Repositories)(nil)
