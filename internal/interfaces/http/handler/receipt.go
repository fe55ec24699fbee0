package handler

import (
	"github.com/gin-gonic/gin"
	checkoutapp "github.com/sklad/pos/internal/application/checkout"
	returnsapp "github.com/sklad/pos/internal/application/returns"
)

// ReceiptHandler handles checkout, storno and return endpoints
type ReceiptHandler struct {
	BaseHandler
	checkoutService *checkoutapp.CheckoutService
	returnService   *returnsapp.ReturnService
}

// NewReceiptHandler creates a new ReceiptHandler
func NewReceiptHandler(checkoutService *checkoutapp.CheckoutService, returnService *returnsapp.ReturnService) *ReceiptHandler {
	return &ReceiptHandler{
		checkoutService: checkoutService,
		returnService:   returnService,
	}
}

// ReceiptLookupQuery finds a receipt by its printed number
type ReceiptLookupQuery struct {
	Number string `form:"number" binding:"required,doc_number"`
}

// Preview godoc
//
//	@Summary	Price a cart without committing anything
//	@Tags		checkout
//	@Router		/checkout/preview [post]
func (h *ReceiptHandler) Preview(c *gin.Context) {
	var req checkoutapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	receipt, err := h.checkoutService.Preview(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Checkout godoc
//
//	@Summary	Pay a cart and issue a receipt
//	@Tags		checkout
//	@Router		/checkout [post]
func (h *ReceiptHandler) Checkout(c *gin.Context) {
	var req checkoutapp.CheckoutRequest
	if !h.BindJSON(c, &req) {
		return
	}
	receipt, err := h.checkoutService.Checkout(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, receipt)
}

// List godoc
//
//	@Summary	List receipts sold between two dates
//	@Tags		receipts
//	@Router		/receipts [get]
func (h *ReceiptHandler) List(c *gin.Context) {
	var q DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to := q.Bounds()
	receipts, err := h.checkoutService.ListReceipts(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipts)
}

// Lookup godoc
//
//	@Summary	Find a receipt by its number
//	@Tags		receipts
//	@Router		/receipts/lookup [get]
func (h *ReceiptHandler) Lookup(c *gin.Context) {
	var q ReceiptLookupQuery
	if !h.BindQuery(c, &q) {
		return
	}
	receipt, err := h.checkoutService.GetReceiptByNumber(c.Request.Context(), q.Number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Get godoc
//
//	@Summary	Get a receipt
//	@Tags		receipts
//	@Router		/receipts/{id} [get]
func (h *ReceiptHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	receipt, err := h.checkoutService.GetReceipt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, receipt)
}

// Storno godoc
//
//	@Summary	Cancel a receipt with a negating counter receipt
//	@Tags		receipts
//	@Router		/receipts/{id}/storno [post]
func (h *ReceiptHandler) Storno(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req checkoutapp.StornoRequest
	if !h.BindJSON(c, &req) {
		return
	}
	storno, err := h.checkoutService.Storno(c.Request.Context(), id, req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, storno)
}

// Returnable godoc
//
//	@Summary	Show what can still be returned from a receipt
//	@Tags		returns
//	@Router		/receipts/{id}/returnable [get]
func (h *ReceiptHandler) Returnable(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := h.returnService.GetReturnable(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ProcessReturn godoc
//
//	@Summary	Refund part of a receipt in cash
//	@Tags		returns
//	@Router		/receipts/{id}/returns [post]
func (h *ReceiptHandler) ProcessReturn(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req returnsapp.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ret, err := h.returnService.ProcessReturn(c.Request.Context(), id, req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, ret)
}

// ListReturns godoc
//
//	@Summary	List returns booked against a receipt
//	@Tags		returns
//	@Router		/receipts/{id}/returns [get]
func (h *ReceiptHandler) ListReturns(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	returns, err := h.returnService.ListReturns(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, returns)
}

// GetReturn godoc
//
//	@Summary	Get a return
//	@Tags		returns
//	@Router		/returns/{id} [get]
func (h *ReceiptHandler) GetReturn(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	ret, err := h.returnService.GetReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ret)
}
