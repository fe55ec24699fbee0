package router

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	cashregisterapp "github.com/sklad/pos/internal/application/cashregister"
	checkoutapp "github.com/sklad/pos/internal/application/checkout"
	closingapp "github.com/sklad/pos/internal/application/closing"
	giftcardapp "github.com/sklad/pos/internal/application/giftcard"
	inventoryapp "github.com/sklad/pos/internal/application/inventory"
	partnerapp "github.com/sklad/pos/internal/application/partner"
	returnsapp "github.com/sklad/pos/internal/application/returns"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/infrastructure/cache"
	"github.com/sklad/pos/internal/infrastructure/event"
	"github.com/sklad/pos/internal/infrastructure/persistence"
	"github.com/sklad/pos/internal/interfaces/http/handler"
	"github.com/sklad/pos/internal/interfaces/http/middleware"
	"github.com/sklad/pos/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	seller = map[string]string{middleware.OperatorNameHeader: "Jana"}
	admin  = map[string]string{middleware.OperatorNameHeader: "Petr", middleware.OperatorRoleHeader: "admin"}
)

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	log := zap.NewNop()
	db := testutil.NewSQLiteDB(t, append(persistence.Models(), &event.JournalEntry{})...)
	scope := persistence.NewGormTransactionScope(db)
	clock := testutil.NewStepClock(testutil.Date(2025, 6, 10, 9, 0), time.Second)
	store := settings.NewMemoryStore(settings.ShopIdentity{Name: "Drogerie", Currency: "CZK", Locale: "cs-CZ", VatPayer: true})

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	journal := event.NewGormJournal(db, serializer)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewJournalHandler(journal, log))

	stock := inventoryapp.NewStockService(scope, log)
	stock.SetClock(clock.Now)
	cards := giftcardapp.NewGiftCardService(scope, log)
	cards.SetClock(clock.Now)
	cards.SetEventPublisher(bus)
	checkout := checkoutapp.NewCheckoutService(scope, store, log)
	checkout.SetClock(clock.Now)
	checkout.SetEventPublisher(bus)
	returns := returnsapp.NewReturnService(scope, log)
	returns.SetClock(clock.Now)
	returns.SetEventPublisher(bus)
	ledger := cashregisterapp.NewLedgerService(scope, store, log)
	ledger.SetClock(clock.Now)
	ledger.SetEventPublisher(bus)
	closer := closingapp.NewCloseService(scope, store, log)
	closer.SetClock(clock.Now)
	closer.SetEventPublisher(bus)
	customers := partnerapp.NewCustomerService(scope, log)

	replays := cache.NewInMemoryReplayStore()
	t.Cleanup(func() { _ = replays.Close() })

	engine, err := NewEngine(log, EngineOptions{CORS: middleware.DefaultCORSConfig(), Replays: replays})
	require.NoError(t, err)
	Mount(engine, Handlers{
		System:       handler.NewSystemHandler("sklad", "test", pingOK{}),
		Product:      handler.NewProductHandler(stock),
		GiftCard:     handler.NewGiftCardHandler(cards),
		Receipt:      handler.NewReceiptHandler(checkout, returns),
		CashRegister: handler.NewCashRegisterHandler(ledger),
		DailyClose:   handler.NewDailyCloseHandler(closer),
		Customer:     handler.NewCustomerHandler(customers),
		Journal:      handler.NewJournalHandler(journal),
	})
	return engine
}

func createProduct(t *testing.T, engine *gin.Engine, ean string, stock int) {
	t.Helper()
	w := testutil.Perform(t, engine, testutil.Request{
		Method:  http.MethodPost,
		Path:    "/api/v1/products",
		Headers: admin,
		Body: map[string]any{
			"ean": ean, "name": "Krém " + ean, "category": "Kosmetika",
			"purchase_price": "60", "sale_price": "121", "vat_rate": "21", "initial_stock": stock,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestPOSFlow(t *testing.T) {
	engine := newTestEngine(t)
	createProduct(t, engine, "8594001", 5)

	w := testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/cash-register/day-start", Headers: seller,
		Body: map[string]any{"opening_amount": "1000"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	cart := map[string]any{
		"lines":           []map[string]any{{"ean": "8594001", "quantity": 2}},
		"payment_method":  "CASH",
		"received_amount": "300",
	}

	w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout/preview", Headers: seller, Body: cart})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "242", testutil.ResponseData(t, w)["total_amount"])

	w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: seller, Body: cart})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	receipt := testutil.ResponseData(t, w)
	assert.Equal(t, "U0001/2025", receipt["receipt_number"])
	assert.Equal(t, "58", receipt["change_amount"])
	receiptID := receipt["id"].(string)

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/receipts/lookup?number=U0001/2025"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, receiptID, testutil.ResponseData(t, w)["id"])

	w = testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/receipts/" + receiptID + "/returns", Headers: seller,
		Body: map[string]any{"lines": []map[string]any{{"ean": "8594001", "quantity": 1}}, "reason": "allergy"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "R0001/2025", testutil.ResponseData(t, w)["return_number"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/receipts/" + receiptID + "/returnable"})
	require.Equal(t, http.StatusOK, w.Code)
	lines := testutil.ResponseData(t, w)["lines"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 1, lines[0].(map[string]any)["remaining"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/cash-register/balance"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1121", testutil.ResponseData(t, w)["balance"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/stock-movements?ean=8594001"})
	require.Equal(t, http.StatusOK, w.Code)
	movements := testutil.JSONResponse(t, w)["data"].([]any)
	require.Len(t, movements, 3)
	assert.Equal(t, "RETURN", movements[0].(map[string]any)["type"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/products/8594001"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 4, testutil.ResponseData(t, w)["stock_quantity"])

	w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/daily-close", Headers: seller, Body: map[string]any{}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "2025-06-10", testutil.ResponseData(t, w)["business_date"])

	w = testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/daily-close", Headers: seller, Body: map[string]any{}})
	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "ALREADY_CLOSED")

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/exports/daily-closes?period=MONTH&date=2025-06-10"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "daily-closes-month-2025-06-01.html")
	assert.Contains(t, w.Body.String(), "U0001/2025")

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/events?type=ReceiptCompleted"})
	require.Equal(t, http.StatusOK, w.Code)
	events := testutil.JSONResponse(t, w)["data"].([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "Jana", events[0].(map[string]any)["operator"])
	assert.Equal(t, receiptID, events[0].(map[string]any)["aggregate_id"])
}

func TestCheckoutRetryIsReplayed(t *testing.T) {
	engine := newTestEngine(t)
	createProduct(t, engine, "8594009", 5)

	cart := map[string]any{
		"lines":          []map[string]any{{"ean": "8594009", "quantity": 2}},
		"payment_method": "CARD",
	}
	withKey := func(key string) map[string]string {
		return map[string]string{middleware.OperatorNameHeader: "Jana", middleware.IdempotencyKeyHeader: key}
	}

	first := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: withKey("till-1-7"), Body: cart})
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Equal(t, "U0001/2025", testutil.ResponseData(t, first)["receipt_number"])

	retry := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: withKey("till-1-7"), Body: cart})
	require.Equal(t, http.StatusCreated, retry.Code)
	assert.Equal(t, "true", retry.Header().Get(middleware.ReplayedHeader))
	assert.Equal(t, first.Body.String(), retry.Body.String())

	w := testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/products/8594009"})
	assert.EqualValues(t, 3, testutil.ResponseData(t, w)["stock_quantity"])

	next := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: withKey("till-1-8"), Body: cart})
	require.Equal(t, http.StatusCreated, next.Code, next.Body.String())
	assert.Equal(t, "U0002/2025", testutil.ResponseData(t, next)["receipt_number"])
}

func TestProductImport(t *testing.T) {
	engine := newTestEngine(t)
	createProduct(t, engine, "8594001", 2)

	csv := "EAN;Název;Kategorie;Prodejní cena;DPH;Množství\n" +
		"8594001;Krém 8594001;Kosmetika;121;21;4\n" +
		"8594100;Šampon;Vlasy;89,90;21;6\n" +
		"8594101;Mýdlo;Kosmetika;abc;21;1\n"

	t.Run("raw body", func(t *testing.T) {
		headers := map[string]string{middleware.OperatorNameHeader: "Jana", "Content-Type": "text/csv"}
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products/import", Headers: headers, Body: csv})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		data := testutil.ResponseData(t, w)
		assert.Equal(t, "utf-8", data["encoding"])
		assert.EqualValues(t, 3, data["total_rows"])
		assert.EqualValues(t, 1, data["created"])
		assert.EqualValues(t, 1, data["restocked"])
		assert.EqualValues(t, 1, data["failed"])
		rowErrors, ok := data["row_errors"].([]any)
		require.True(t, ok)
		require.Len(t, rowErrors, 1)
		assert.EqualValues(t, 4, rowErrors[0].(map[string]any)["row"])

		w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/products/8594001"})
		assert.EqualValues(t, 6, testutil.ResponseData(t, w)["stock_quantity"])
		w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/products/8594100"})
		product := testutil.ResponseData(t, w)
		assert.Equal(t, "Šampon", product["name"])
		assert.Equal(t, "89.9", product["sale_price"])
		assert.EqualValues(t, 6, product["stock_quantity"])
	})

	t.Run("multipart upload", func(t *testing.T) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		part, err := form.CreateFormFile("file", "cenik.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte("ean,name,sale_price,quantity\n8594200,Zubní pasta,49,10\n"))
		require.NoError(t, err)
		require.NoError(t, form.Close())

		headers := map[string]string{middleware.OperatorNameHeader: "Jana", "Content-Type": form.FormDataContentType()}
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products/import", Headers: headers, Body: buf.Bytes()})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.EqualValues(t, 1, testutil.ResponseData(t, w)["created"])
	})

	t.Run("multipart without file", func(t *testing.T) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		require.NoError(t, form.WriteField("note", "x"))
		require.NoError(t, form.Close())

		headers := map[string]string{middleware.OperatorNameHeader: "Jana", "Content-Type": form.FormDataContentType()}
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products/import", Headers: headers, Body: buf.Bytes()})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("missing columns", func(t *testing.T) {
		headers := map[string]string{middleware.OperatorNameHeader: "Jana", "Content-Type": "text/csv"}
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products/import", Headers: headers, Body: "ean;name\n1;x\n"})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("requires an operator", func(t *testing.T) {
		w := testutil.Perform(t, engine, testutil.Request{Method: http.MethodPost, Path: "/api/v1/products/import", Body: csv})
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, "OPERATOR_REQUIRED")
	})
}

func TestErrorMapping(t *testing.T) {
	engine := newTestEngine(t)
	createProduct(t, engine, "8594002", 3)

	tests := []struct {
		name   string
		req    testutil.Request
		status int
		code   string
	}{
		{
			name:   "missing operator",
			req:    testutil.Request{Method: http.MethodPost, Path: "/api/v1/products", Body: map[string]any{"ean": "1", "name": "x"}},
			status: http.StatusUnauthorized,
			code:   "OPERATOR_REQUIRED",
		},
		{
			name:   "binding failure",
			req:    testutil.Request{Method: http.MethodPost, Path: "/api/v1/products", Headers: admin, Body: map[string]any{"ean": "1"}},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name: "duplicate EAN",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/products", Headers: admin,
				Body: map[string]any{"ean": "8594002", "name": "Again", "sale_price": "1", "vat_rate": "21"}},
			status: http.StatusConflict,
			code:   "DUPLICATE_CODE",
		},
		{
			name: "insufficient stock",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: seller,
				Body: map[string]any{"lines": []map[string]any{{"ean": "8594002", "quantity": 4}}, "payment_method": "CARD"}},
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_STOCK",
		},
		{
			name: "manual discount needs admin",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/checkout", Headers: seller,
				Body: map[string]any{"lines": []map[string]any{{"ean": "8594002", "quantity": 1, "manual_discount_percent": "10"}}, "payment_method": "CARD"}},
			status: http.StatusForbidden,
			code:   "FORBIDDEN",
		},
		{
			name: "amount with three decimals",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/cash-register/entries", Headers: seller,
				Body: map[string]any{"type": "DEPOSIT", "amount": "10.005"}},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name: "withdrawal beyond balance",
			req: testutil.Request{Method: http.MethodPost, Path: "/api/v1/cash-register/entries", Headers: seller,
				Body: map[string]any{"type": "WITHDRAWAL", "amount": "5"}},
			status: http.StatusUnprocessableEntity,
			code:   "INSUFFICIENT_BALANCE",
		},
		{
			name:   "malformed receipt id",
			req:    testutil.Request{Path: "/api/v1/receipts/not-a-uuid"},
			status: http.StatusBadRequest,
			code:   "BAD_REQUEST",
		},
		{
			name:   "unknown receipt",
			req:    testutil.Request{Path: "/api/v1/receipts/" + testutil.NewTestUUID("missing").String()},
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "malformed receipt number",
			req:    testutil.Request{Path: "/api/v1/receipts/lookup?number=X12"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "unknown gift card",
			req:    testutil.Request{Path: "/api/v1/gift-cards/NOPE"},
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "unknown period",
			req:    testutil.Request{Path: "/api/v1/exports/daily-closes?period=DECADE"},
			status: http.StatusBadRequest,
			code:   "INVALID_PERIOD",
		},
		{
			name:   "pdf export without a renderer",
			req:    testutil.Request{Path: "/api/v1/exports/daily-closes?period=MONTH&format=pdf"},
			status: http.StatusNotImplemented,
			code:   "PDF_UNAVAILABLE",
		},
		{
			name:   "unknown export format",
			req:    testutil.Request{Path: "/api/v1/exports/daily-closes?period=MONTH&format=xlsx"},
			status: http.StatusBadRequest,
			code:   "VALIDATION_FAILED",
		},
		{
			name:   "unknown route",
			req:    testutil.Request{Path: "/api/v1/nowhere"},
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.Perform(t, engine, tt.req)
			testutil.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestInsufficientStockDetails(t *testing.T) {
	engine := newTestEngine(t)
	createProduct(t, engine, "8594003", 2)

	w := testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/checkout", Headers: seller,
		Body: map[string]any{"lines": []map[string]any{{"ean": "8594003", "quantity": 3}}, "payment_method": "CARD"},
	})

	testutil.AssertErrorResponse(t, w, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK")
	details := testutil.JSONResponse(t, w)["error"].(map[string]any)["details"].(map[string]any)
	assert.EqualValues(t, 2, details["available"])
	assert.EqualValues(t, 3, details["requested"])
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestGiftCardAndCustomerRoutes(t *testing.T) {
	engine := newTestEngine(t)

	w := testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/gift-cards", Headers: admin,
		Body: map[string]any{"code": "GC-500", "value": "500"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "NOT_ISSUED", testutil.ResponseData(t, w)["status"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/gift-cards?status=not_issued"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, testutil.JSONResponse(t, w)["data"].([]any), 1)

	w = testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/gift-cards/GC-500/cancel", Headers: admin,
		Body: map[string]any{"reason": "damaged"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CANCELLED", testutil.ResponseData(t, w)["status"])

	w = testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPost, Path: "/api/v1/customers", Headers: seller,
		Body: map[string]any{"first_name": "Eva", "last_name": "Malá", "card_code": "L-77", "discount_percent": "5"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customerID := testutil.ResponseData(t, w)["id"].(string)

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/customers/card/L-77"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, customerID, testutil.ResponseData(t, w)["id"])

	w = testutil.Perform(t, engine, testutil.Request{
		Method: http.MethodPut, Path: "/api/v1/customers/" + customerID + "/discount", Headers: admin,
		Body: map[string]any{"discount_percent": "10"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10", testutil.ResponseData(t, w)["discount_percent"])
}

func TestSystemRoutes(t *testing.T) {
	engine := newTestEngine(t)

	w := testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/health"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", testutil.ResponseData(t, w)["status"])

	w = testutil.Perform(t, engine, testutil.Request{Path: "/api/v1/system/info"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sklad", testutil.ResponseData(t, w)["name"])
}

func TestSwaggerDocs(t *testing.T) {
	engine := newTestEngine(t)

	w := testutil.Perform(t, engine, testutil.Request{Path: "/swagger/doc.json"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	doc := testutil.JSONResponse(t, w)
	assert.Equal(t, "/api/v1", doc["basePath"])
	paths := doc["paths"].(map[string]any)
	for _, p := range []string{"/checkout", "/receipts/{id}/returns", "/daily-close", "/exports/daily-closes", "/health"} {
		assert.Contains(t, paths, p)
	}

	w = testutil.Perform(t, engine, testutil.Request{Path: "/swagger/index.html"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "swagger")
}
