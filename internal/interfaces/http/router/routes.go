package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/sklad/pos/docs"
	"github.com/sklad/pos/internal/infrastructure/cache"
	"github.com/sklad/pos/internal/infrastructure/logger"
	"github.com/sklad/pos/internal/interfaces/http/dto"
	"github.com/sklad/pos/internal/interfaces/http/handler"
	"github.com/sklad/pos/internal/interfaces/http/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles every API handler the router mounts
type Handlers struct {
	System       *handler.SystemHandler
	Product      *handler.ProductHandler
	GiftCard     *handler.GiftCardHandler
	Receipt      *handler.ReceiptHandler
	CashRegister *handler.CashRegisterHandler
	DailyClose   *handler.DailyCloseHandler
	Customer     *handler.CustomerHandler
	Journal      *handler.JournalHandler
}

// EngineOptions configures the gin engine
type EngineOptions struct {
	TrustedProxies []string
	CORS           middleware.CORSConfig

	// Replays is optional; without it Idempotency-Key headers are ignored
	Replays   cache.ReplayStore
	ReplayTTL time.Duration

	// TracingService names the server spans; empty disables request tracing
	TracingService string
}

// NewEngine creates a gin engine with the shared middleware chain. The
// request ID and operator are resolved before the request logger so every
// log line carries them.
func NewEngine(log *zap.Logger, opts EngineOptions) (*gin.Engine, error) {
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(logger.Recovery(log))
	if opts.TracingService != "" {
		engine.Use(middleware.Tracing(opts.TracingService))
	}
	engine.Use(
		middleware.RequestID(),
		middleware.Operator(),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.CORS(opts.CORS),
	)
	if opts.TracingService != "" {
		engine.Use(middleware.SpanAttributes(), middleware.SpanErrorMarker())
	}
	if opts.Replays != nil {
		engine.Use(middleware.Idempotency(opts.Replays, opts.ReplayTTL))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("NOT_FOUND", "Route not found", middleware.GetRequestID(c)))
	})
	return engine, nil
}

// Mount registers the POS API on the engine under /api/v1 and the
// Swagger UI under /swagger
func Mount(engine *gin.Engine, h Handlers) {
	op := middleware.RequireOperator()

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	system := NewDomainGroup("system", "").
		GET("/health", h.System.Health).
		GET("/system/info", h.System.Info)

	products := NewDomainGroup("products", "/products").
		GET("", h.Product.List).
		POST("", op, h.Product.Create).
		POST("/import", op, h.Product.Import).
		GET("/:ean", h.Product.Get).
		PUT("/:ean/pricing", op, h.Product.UpdatePricing).
		POST("/:ean/stock-in", op, h.Product.StockIn).
		POST("/:ean/write-off", op, h.Product.WriteOff).
		POST("/:ean/adjust", op, h.Product.Adjust).
		GET("/:ean/verify", h.Product.Verify)

	movements := NewDomainGroup("stock-movements", "/stock-movements").
		GET("", h.Product.Movements)

	giftCards := NewDomainGroup("gift-cards", "/gift-cards").
		GET("", h.GiftCard.List).
		POST("", op, h.GiftCard.Create).
		GET("/:code", h.GiftCard.Get).
		POST("/:code/cancel", op, h.GiftCard.Cancel).
		PUT("/:code/expiration", op, h.GiftCard.SetExpiration)

	checkout := NewDomainGroup("checkout", "/checkout").
		Use(op).
		POST("", h.Receipt.Checkout).
		POST("/preview", h.Receipt.Preview)

	receipts := NewDomainGroup("receipts", "/receipts").
		GET("", h.Receipt.List).
		GET("/lookup", h.Receipt.Lookup).
		GET("/:id", h.Receipt.Get).
		POST("/:id/storno", op, h.Receipt.Storno).
		GET("/:id/returnable", h.Receipt.Returnable).
		GET("/:id/returns", h.Receipt.ListReturns).
		POST("/:id/returns", op, h.Receipt.ProcessReturn)

	returns := NewDomainGroup("returns", "/returns").
		GET("/:id", h.Receipt.GetReturn)

	cashRegister := NewDomainGroup("cash-register", "/cash-register").
		GET("/balance", h.CashRegister.Balance).
		GET("/entries", h.CashRegister.ListEntries).
		POST("/entries", op, h.CashRegister.RecordEntry).
		POST("/day-start", op, h.CashRegister.StartDay).
		POST("/day-close", op, h.CashRegister.DayClose).
		GET("/verify", h.CashRegister.Verify)

	dailyClose := NewDomainGroup("daily-close", "/daily-close").
		GET("/today", h.DailyClose.Today).
		POST("", op, h.DailyClose.Close)

	dailyCloses := NewDomainGroup("daily-closes", "/daily-closes").
		GET("", h.DailyClose.List).
		GET("/:date", h.DailyClose.Get)

	exports := NewDomainGroup("exports", "/exports").
		GET("/daily-closes", h.DailyClose.Export)

	customers := NewDomainGroup("customers", "/customers").
		GET("", h.Customer.List).
		POST("", op, h.Customer.Create).
		GET("/card/:code", h.Customer.GetByCard).
		GET("/:id", h.Customer.Get).
		PUT("/:id/discount", op, h.Customer.SetDiscount)

	events := NewDomainGroup("events", "/events").
		GET("", h.Journal.List)

	NewRouter(engine).
		Register(system, products, movements, giftCards, checkout, receipts, returns,
			cashRegister, dailyClose, dailyCloses, exports, customers, events).
		Setup()
}
