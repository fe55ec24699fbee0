package closing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/application/txn"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/shared"
	"github.com/sklad/pos/internal/domain/trade"
	"github.com/sklad/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CloseService aggregates business days and freezes them into daily closes.
// The business day is the session date stored when the drawer was last
// opened, so a shop open past midnight still closes the day it started.
type CloseService struct {
	scope     txn.TransactionScope
	settings  settings.Store
	publisher shared.EventPublisher
	logger    *zap.Logger
	clock     shared.Clock
	pdf       PDFRenderer
}

// PDFRenderer converts a rendered HTML export into a PDF document
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html []byte, title string) ([]byte, error)
}

// ErrPDFUnavailable is returned when a PDF export is requested but no
// renderer is configured
var ErrPDFUnavailable = shared.NewDomainError("PDF_UNAVAILABLE", "PDF export is not available on this installation")

// NewCloseService creates a new CloseService
func NewCloseService(scope txn.TransactionScope, store settings.Store, logger *zap.Logger) *CloseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloseService{
		scope:    scope,
		settings: store,
		logger:   logger,
		clock:    shared.SystemClock,
	}
}

// SetEventPublisher sets the publisher notified after commit
func (s *CloseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock replaces the time source
func (s *CloseService) SetClock(clock shared.Clock) {
	s.clock = clock
}

// SetPDFRenderer enables PDF exports
func (s *CloseService) SetPDFRenderer(renderer PDFRenderer) {
	s.pdf = renderer
}

// BusinessDate returns the session date, or today when no session was opened
func (s *CloseService) BusinessDate() time.Time {
	if s.settings != nil {
		if date, ok := s.settings.SessionStartDate(); ok {
			return closing.BusinessDate(date)
		}
	}
	return closing.BusinessDate(s.clock())
}

// location is the shop's time zone, taken from the clock
func (s *CloseService) location() *time.Location {
	return s.clock().Location()
}

// summarize loads the receipts and returns dated on the business day. date
// is a business date key; its calendar day is read in loc.
func summarize(ctx context.Context, repos txn.TransactionalRepositories, date time.Time, loc *time.Location) (closing.SalesSummary, error) {
	day := shared.CalendarRange(date, date, loc)
	receipts, err := repos.ReceiptRepo().FindByDateRange(ctx, day)
	if err != nil {
		return closing.SalesSummary{}, err
	}
	returns, err := repos.ReturnRepo().FindByDateRange(ctx, day)
	if err != nil {
		return closing.SalesSummary{}, err
	}
	return closing.Summarize(date, receipts, returns), nil
}

// GetTodaySales returns the running totals of the business day
func (s *CloseService) GetTodaySales(ctx context.Context) (*SalesSummaryResponse, error) {
	date := s.BusinessDate()
	var (
		summary closing.SalesSummary
		closed  bool
	)
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		summary, err = summarize(ctx, repos, date, s.location())
		if err != nil {
			return err
		}
		_, err = repos.DailyCloseRepo().FindByDate(ctx, date)
		switch {
		case err == nil:
			closed = true
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	if s.settings == nil || !s.settings.IsVATPayer() {
		summary.VatTotal = decimal.Zero
	}
	resp := ToSalesSummaryResponse(summary, closed)
	return &resp, nil
}

// CloseDay stores the daily close of the business day. A day with no sale
// receipts cannot be closed and each day closes once.
func (s *CloseService) CloseDay(ctx context.Context, req CloseDayRequest, actor shared.Actor) (*DailyCloseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "closing", "close_day",
		telemetry.SpanAttrBusinessDate, s.BusinessDate().Format(time.DateOnly),
		telemetry.SpanAttrOperator, actor.Name)
	resp, err := s.closeDay(ctx, req, actor)
	telemetry.End(span, err)
	return resp, err
}

func (s *CloseService) closeDay(ctx context.Context, req CloseDayRequest, actor shared.Actor) (*DailyCloseResponse, error) {
	seller := strings.TrimSpace(req.SellerName)
	if seller == "" {
		seller = actor.Name
	}
	date := s.BusinessDate()
	now := s.clock()
	vatPayer := s.settings != nil && s.settings.IsVATPayer()

	var dc *closing.DailyClose
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		if _, err := repos.DailyCloseRepo().FindByDate(ctx, date); err == nil {
			return closing.ErrAlreadyClosed.WithDetail("business_date", date.Format(time.DateOnly))
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		summary, err := summarize(ctx, repos, date, s.location())
		if err != nil {
			return err
		}
		dc, err = closing.NewDailyClose(summary, seller, vatPayer, now)
		if err != nil {
			return err
		}
		return repos.DailyCloseRepo().Create(ctx, dc)
	})
	if err != nil {
		return nil, s.fail("Daily close failed", err, zap.String("business_date", date.Format(time.DateOnly)))
	}

	if s.settings != nil {
		if err := s.settings.SetLastCloseDate(date); err != nil {
			s.logger.Warn("Failed to store last close date", zap.Error(err))
		}
	}
	s.logger.Info("Business day closed",
		zap.String("business_date", date.Format(time.DateOnly)),
		zap.Int("receipts", dc.ReceiptCount),
		zap.String("total_sales", dc.TotalSales.StringFixed(2)),
		zap.String("seller", dc.SellerName))
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, []shared.DomainEvent{closing.NewDayClosedEvent(dc)})

	resp := ToDailyCloseResponse(dc)
	return &resp, nil
}

// GetDailyClose returns the close of a business date
func (s *CloseService) GetDailyClose(ctx context.Context, date time.Time) (*DailyCloseResponse, error) {
	var dc *closing.DailyClose
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		dc, err = repos.DailyCloseRepo().FindByDate(ctx, closing.BusinessDate(date))
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	resp := ToDailyCloseResponse(dc)
	return &resp, nil
}

// ListDailyCloses lists closes between two business dates, both inclusive
func (s *CloseService) ListDailyCloses(ctx context.Context, from, to time.Time) ([]DailyCloseResponse, error) {
	first, last := closing.BusinessDate(from), closing.BusinessDate(to)
	if last.Before(first) {
		return nil, shared.NewValidationError("INVALID_DATE_RANGE", "End of range precedes its start")
	}
	var closes []closing.DailyClose
	err := s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		closes, err = repos.DailyCloseRepo().FindBetween(ctx, first, last)
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}
	out := make([]DailyCloseResponse, len(closes))
	for i := range closes {
		out[i] = ToDailyCloseResponse(&closes[i])
	}
	return out, nil
}

// ExportDailyCloses renders every close of the calendar period containing
// ref, with the receipt and return number ranges of the period
func (s *CloseService) ExportDailyCloses(ctx context.Context, periodType string, ref time.Time) (*ExportDocument, error) {
	pt, err := closing.ParsePeriodType(periodType)
	if err != nil {
		return nil, err
	}
	period, err := closing.ResolvePeriod(pt, ref)
	if err != nil {
		return nil, err
	}

	var (
		closes  []closing.DailyClose
		returns []trade.SalesReturn
	)
	err = s.scope.Execute(ctx, func(repos txn.TransactionalRepositories) error {
		var err error
		closes, err = repos.DailyCloseRepo().FindBetween(ctx, period.First, period.Last)
		if err != nil {
			return err
		}
		if len(closes) == 0 {
			return closing.ErrNoDataForPeriod.
				WithDetail("period", string(pt)).
				WithDetail("first", period.First.Format(time.DateOnly)).
				WithDetail("last", period.Last.Format(time.DateOnly))
		}
		returns, err = repos.ReturnRepo().FindByDateRange(ctx, shared.CalendarRange(period.First, period.Last, s.location()))
		return err
	})
	if err != nil {
		return nil, txn.Classify(err)
	}

	var shop settings.ShopIdentity
	if s.settings != nil {
		shop = s.settings.Shop()
	}
	content, err := renderExport(shop, period, closes, returns, s.clock())
	if err != nil {
		s.logger.Error("Failed to render daily close export", zap.String("period", string(pt)), zap.Error(err))
		return nil, err
	}
	return &ExportDocument{
		PeriodType:  string(pt),
		First:       period.First.Format(time.DateOnly),
		Last:        period.Last.Format(time.DateOnly),
		CloseCount:  len(closes),
		Filename:    "daily-closes-" + strings.ToLower(string(pt)) + "-" + period.First.Format(time.DateOnly) + ".html",
		ContentType: "text/html; charset=utf-8",
		Content:     content,
	}, nil
}

// ExportDailyClosesPDF renders the same document as ExportDailyCloses to PDF
func (s *CloseService) ExportDailyClosesPDF(ctx context.Context, periodType string, ref time.Time) (*ExportDocument, error) {
	if s.pdf == nil {
		return nil, ErrPDFUnavailable
	}
	doc, err := s.ExportDailyCloses(ctx, periodType, ref)
	if err != nil {
		return nil, err
	}

	title := "Daily closes " + doc.First + " to " + doc.Last
	data, err := s.pdf.RenderPDF(ctx, doc.Content, title)
	if err != nil {
		s.logger.Error("Failed to render daily close PDF", zap.String("period", doc.PeriodType), zap.Error(err))
		return nil, fmt.Errorf("render daily close export: %w", err)
	}

	doc.Filename = strings.TrimSuffix(doc.Filename, ".html") + ".pdf"
	doc.ContentType = "application/pdf"
	doc.Content = data
	return doc, nil
}

func (s *CloseService) fail(msg string, err error, fields ...zap.Field) error {
	classified := txn.Classify(err)
	if shared.IsPersistence(classified) {
		s.logger.Error(msg, append(fields, zap.Error(err))...)
	}
	return classified
}
