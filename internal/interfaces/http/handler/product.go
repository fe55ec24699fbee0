package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	inventoryapp "github.com/sklad/pos/internal/application/inventory"
	"github.com/sklad/pos/internal/domain/catalog"
	"github.com/sklad/pos/internal/domain/inventory"
	csvimport "github.com/sklad/pos/internal/infrastructure/import"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
	maxImportBytes       = 5 << 20
)

// ProductHandler handles product and stock ledger endpoints
type ProductHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(stockService *inventoryapp.StockService) *ProductHandler {
	return &ProductHandler{stockService: stockService}
}

// ListProductsQuery filters the product list
type ListProductsQuery struct {
	Category string `form:"category" binding:"max=100"`
	Search   string `form:"search" binding:"max=100"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset   int    `form:"offset" binding:"omitempty,min=0"`
}

// MovementsQuery filters the stock movement listing
type MovementsQuery struct {
	DateRangeQuery
	EAN   string `form:"ean" binding:"max=32"`
	Type  string `form:"type"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// List godoc
//
//	@Summary	List products
//	@Tags		products
//	@Router		/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	var q ListProductsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	products, err := h.stockService.ListProducts(c.Request.Context(), catalog.ProductFilter{
		Category: q.Category,
		Search:   q.Search,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

// Create godoc
//
//	@Summary	Create a product, booking initial stock as a movement
//	@Tags		products
//	@Router		/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.stockService.CreateProduct(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get godoc
//
//	@Summary	Get a product by EAN
//	@Tags		products
//	@Router		/products/{ean} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.stockService.GetProduct(c.Request.Context(), c.Param("ean"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UpdatePricing godoc
//
//	@Summary	Change prices, VAT rate or the discount window
//	@Tags		products
//	@Router		/products/{ean}/pricing [put]
func (h *ProductHandler) UpdatePricing(c *gin.Context) {
	var req inventoryapp.UpdatePricingRequest
	if !h.BindJSON(c, &req) {
		return
	}
	product, err := h.stockService.UpdatePricing(c.Request.Context(), c.Param("ean"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// StockIn godoc
//
//	@Summary	Receive goods
//	@Tags		stock
//	@Router		/products/{ean}/stock-in [post]
func (h *ProductHandler) StockIn(c *gin.Context) {
	var req inventoryapp.StockChangeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.stockService.StockIn(c.Request.Context(), c.Param("ean"), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// WriteOff godoc
//
//	@Summary	Write off testers or damaged goods
//	@Tags		stock
//	@Router		/products/{ean}/write-off [post]
func (h *ProductHandler) WriteOff(c *gin.Context) {
	var req inventoryapp.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.stockService.WriteOff(c.Request.Context(), c.Param("ean"), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Adjust godoc
//
//	@Summary	Set the quantity on hand to a counted value
//	@Tags		stock
//	@Router		/products/{ean}/adjust [post]
func (h *ProductHandler) Adjust(c *gin.Context) {
	var req inventoryapp.StockChangeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	movement, err := h.stockService.AdjustTo(c.Request.Context(), c.Param("ean"), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// Verify godoc
//
//	@Summary	Replay the stock ledger of a product
//	@Tags		stock
//	@Router		/products/{ean}/verify [get]
func (h *ProductHandler) Verify(c *gin.Context) {
	result, err := h.stockService.VerifyStock(c.Request.Context(), c.Param("ean"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Movements godoc
//
//	@Summary	List stock movements, newest first
//	@Tags		stock
//	@Router		/stock-movements [get]
func (h *ProductHandler) Movements(c *gin.Context) {
	var q MovementsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	limit := q.Limit
	if limit == 0 {
		limit = defaultMovementLimit
	}
	limit = min(limit, maxMovementLimit)

	from, to := q.Bounds()
	query := inventory.MovementQuery{
		From:       from,
		To:         to,
		ProductEAN: q.EAN,
		Type:       inventory.MovementType(q.Type),
	}

	out := make([]inventoryapp.MovementResponse, 0, limit)
	for m, err := range h.stockService.GetMovements(c.Request.Context(), query) {
		if err != nil {
			h.HandleError(c, err)
			return
		}
		out = append(out, inventoryapp.ToMovementResponse(&m))
		if len(out) == limit {
			break
		}
	}
	h.Success(c, out)
}

// ProductImportResponse combines the parse report with the applied result
type ProductImportResponse struct {
	*inventoryapp.ImportResult
	Encoding           string               `json:"encoding"`
	RowErrors          []csvimport.RowError `json:"row_errors,omitempty"`
	RowErrorsTruncated bool                 `json:"row_errors_truncated,omitempty"`
}

// Import godoc
//
//	@Summary	Import a product price list from CSV
//	@Description	Accepts a multipart "file" field or a raw text/csv body.
//	@Description	Unknown EANs are created, known EANs are restocked.
//	@Tags		products
//	@Accept		multipart/form-data,text/csv
//	@Router		/products/import [post]
func (h *ProductHandler) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	src, ok := h.importSource(c)
	if !ok {
		return
	}
	defer src.Close()

	file, err := csvimport.ReadProducts(src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.BadRequest(c, "Import file exceeds 5 MB")
			return
		}
		h.BadRequest(c, err.Error())
		return
	}

	result := &inventoryapp.ImportResult{}
	if len(file.Records) > 0 {
		rows := make([]inventoryapp.ImportProductRow, len(file.Records))
		for i, rec := range file.Records {
			rows[i] = inventoryapp.ImportProductRow{
				Line:          rec.Line,
				EAN:           rec.EAN,
				Name:          rec.Name,
				Category:      rec.Category,
				PurchasePrice: rec.PurchasePrice,
				SalePrice:     rec.SalePrice,
				VatRate:       rec.VatRate,
				Quantity:      rec.Quantity,
			}
		}
		result, err = h.stockService.ImportProducts(c.Request.Context(), rows, h.Actor(c))
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}
	result.TotalRows += file.ErrorRows
	result.Failed += file.ErrorRows

	h.Success(c, ProductImportResponse{
		ImportResult:       result,
		Encoding:           file.Encoding,
		RowErrors:          file.Errors,
		RowErrorsTruncated: file.Truncated,
	})
}

func (h *ProductHandler) importSource(c *gin.Context) (io.ReadCloser, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return c.Request.Body, true
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.BadRequest(c, "Import file exceeds 5 MB")
		} else {
			h.BadRequest(c, `Missing "file" field`)
		}
		return nil, false
	}
	src, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return src, true
}
