package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/domain/shared"
	"go.uber.org/zap"
)

// ImportProductRow is one validated line of a product price list
type ImportProductRow struct {
	Line          int
	EAN           string
	Name          string
	Category      string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	VatRate       decimal.Decimal
	Quantity      int
}

// ImportFailure reports a row that could not be applied
type ImportFailure struct {
	Line    int    `json:"line"`
	EAN     string `json:"ean,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportResult summarizes a product import
type ImportResult struct {
	TotalRows int             `json:"total_rows"`
	Created   int             `json:"created"`
	Restocked int             `json:"restocked"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
	Failures  []ImportFailure `json:"failures,omitempty"`
}

// ImportProducts applies a price list row by row. Unknown EANs become new
// products with the row quantity as initial stock; known EANs receive the
// quantity as a STOCK_IN movement and keep their prices. Each row runs in
// its own transaction, so one bad row does not undo the others.
func (s *StockService) ImportProducts(ctx context.Context, rows []ImportProductRow, actor shared.Actor) (*ImportResult, error) {
	if len(rows) == 0 {
		return nil, shared.NewValidationError("EMPTY_IMPORT", "Import contains no rows")
	}
	result := &ImportResult{TotalRows: len(rows)}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcome, err := s.importRow(ctx, row, actor)
		if err != nil {
			var de *shared.DomainError
			if !errors.As(err, &de) || de.Kind == shared.KindPersistence {
				return nil, err
			}
			result.Failed++
			result.Failures = append(result.Failures, ImportFailure{
				Line:    row.Line,
				EAN:     row.EAN,
				Code:    de.Code,
				Message: de.Message,
			})
			continue
		}
		switch outcome {
		case importCreated:
			result.Created++
		case importRestocked:
			result.Restocked++
		default:
			result.Unchanged++
		}
	}

	s.logger.Info("Product import finished",
		zap.String("user", actor.Name),
		zap.Int("rows", result.TotalRows),
		zap.Int("created", result.Created),
		zap.Int("restocked", result.Restocked),
		zap.Int("failed", result.Failed))
	return result, nil
}

type importOutcome int

const (
	importUnchanged importOutcome = iota
	importCreated
	importRestocked
)

func (s *StockService) importRow(ctx context.Context, row ImportProductRow, actor shared.Actor) (importOutcome, error) {
	ean := strings.TrimSpace(row.EAN)
	_, err := s.GetProduct(ctx, ean)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		if _, err := s.CreateProduct(ctx, CreateProductRequest{
			EAN:           ean,
			Name:          row.Name,
			Category:      row.Category,
			PurchasePrice: row.PurchasePrice,
			SalePrice:     row.SalePrice,
			VatRate:       row.VatRate,
			InitialStock:  row.Quantity,
		}, actor); err != nil {
			return importUnchanged, err
		}
		return importCreated, nil
	case err != nil:
		return importUnchanged, err
	case row.Quantity > 0:
		if _, err := s.StockIn(ctx, ean, StockChangeRequest{Quantity: row.Quantity, Note: "import"}, actor); err != nil {
			return importUnchanged, err
		}
		return importRestocked, nil
	default:
		return importUnchanged, nil
	}
}
