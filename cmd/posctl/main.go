package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	cashregisterapp "github.com/sklad/pos/internal/application/cashregister"
	inventoryapp "github.com/sklad/pos/internal/application/inventory"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/infrastructure/config"
	"github.com/sklad/pos/internal/infrastructure/event"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

func main() {
	var (
		command = flag.String("command", "", "Command: up, verify, verify-cash, verify-stock")
		ean     = flag.String("ean", "", "Verify a single product (verify-stock only)")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *command == "" {
		printUsage()
		os.Exit(0)
	}

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: logger.DefaultTimeFormat,
		Name:       "posctl",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	ctx := context.Background()
	scope := persistence.NewGormTransactionScope(db.DB)
	store := settings.NewMemoryStore(settings.ShopIdentity{
		Name:     cfg.Shop.Name,
		Currency: cfg.Shop.Currency,
		VatPayer: cfg.Shop.VatPayer,
	})

	ok := true
	switch *command {
	case "up":
		log.Info("Migrating schema", zap.String("driver", cfg.Database.Driver))
		if err := db.Migrate(&event.JournalEntry{}); err != nil {
			log.Fatal("Migration failed", zap.Error(err))
		}
		log.Info("Schema is up to date")
	case "verify":
		cashOK := verifyCash(ctx, cashregisterapp.NewLedgerService(scope, store, log), log)
		stockOK := verifyStock(ctx, inventoryapp.NewStockService(scope, log), *ean, log)
		ok = cashOK && stockOK
	case "verify-cash":
		ok = verifyCash(ctx, cashregisterapp.NewLedgerService(scope, store, log), log)
	case "verify-stock":
		ok = verifyStock(ctx, inventoryapp.NewStockService(scope, log), *ean, log)
	default:
		log.Error("Unknown command", zap.String("command", *command))
		printUsage()
		os.Exit(1)
	}

	if !ok {
		os.Exit(2)
	}
}

func verifyCash(ctx context.Context, svc *cashregisterapp.LedgerService, log *zap.Logger) bool {
	result, err := svc.VerifyLedger(ctx)
	if err != nil {
		log.Error("Cash ledger verification failed", zap.Error(err))
		return false
	}
	if result.Consistent {
		log.Info("Cash ledger is consistent",
			zap.Int("entries", result.EntryCount),
			zap.String("balance", result.StoredBalance.StringFixed(2)),
		)
		return true
	}

	fields := []zap.Field{
		zap.Int("entries", result.EntryCount),
		zap.String("stored_balance", result.StoredBalance.StringFixed(2)),
		zap.String("replayed_balance", result.ReplayedBalance.StringFixed(2)),
	}
	if result.DivergentEntryID != nil {
		fields = append(fields,
			zap.String("entry_id", result.DivergentEntryID.String()),
			zap.Int64("seq", result.DivergentSeq),
		)
	}
	if result.ExpectedBalance != nil {
		fields = append(fields, zap.String("expected_balance", result.ExpectedBalance.StringFixed(2)))
	}
	log.Warn("Cash ledger is inconsistent", fields...)
	return false
}

func verifyStock(ctx context.Context, svc *inventoryapp.StockService, ean string, log *zap.Logger) bool {
	eans := []string{ean}
	if ean == "" {
		products, err := svc.ListProducts(ctx, catalog.ProductFilter{})
		if err != nil {
			log.Error("Failed to list products", zap.Error(err))
			return false
		}
		eans = eans[:0]
		for _, p := range products {
			eans = append(eans, p.EAN)
		}
	}

	broken := 0
	for _, code := range eans {
		result, err := svc.VerifyStock(ctx, code)
		if err != nil {
			log.Error("Stock verification failed", zap.String("ean", code), zap.Error(err))
			return false
		}
		if result.Consistent {
			continue
		}
		broken++
		fields := []zap.Field{
			zap.String("ean", code),
			zap.Int("stored", result.StoredQuantity),
			zap.Int("replayed", result.ReplayedQuantity),
			zap.Int("movements", result.MovementCount),
		}
		if result.BrokenMovementID != nil {
			fields = append(fields, zap.String("movement_id", result.BrokenMovementID.String()))
		}
		log.Warn("Stock ledger is inconsistent", fields...)
	}

	log.Info("Stock verification finished", zap.Int("products", len(eans)), zap.Int("inconsistent", broken))
	return broken == 0
}

func printUsage() {
	fmt.Println(`POS Maintenance Tool

Usage:
  posctl -command=<command> [options]

Commands:
  up            Create or update the database schema
  verify        Replay the cash ledger and every stock ledger
  verify-cash   Replay the cash register ledger and compare balances
  verify-stock  Replay stock movements and compare quantities on hand

Options:
  -ean          Limit verify-stock to one product
  -help         Show this help message

Database settings are read from the same config file and SKLAD_* environment
variables as the server.

Examples:
  posctl -command=up
  posctl -command=verify
  posctl -command=verify-stock -ean=8594000000011`)
}
