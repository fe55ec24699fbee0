package handler

import (
	"github.com/gin-gonic/gin"
	cashregisterapp "github.com/sklad/pos/internal/application/cashregister"
)

// CashRegisterHandler handles cash drawer ledger endpoints
type CashRegisterHandler struct {
	BaseHandler
	ledgerService *cashregisterapp.LedgerService
}

// NewCashRegisterHandler creates a new CashRegisterHandler
func NewCashRegisterHandler(ledgerService *cashregisterapp.LedgerService) *CashRegisterHandler {
	return &CashRegisterHandler{ledgerService: ledgerService}
}

// Balance godoc
//
//	@Summary	Current drawer balance
//	@Tags		cash-register
//	@Router		/cash-register/balance [get]
func (h *CashRegisterHandler) Balance(c *gin.Context) {
	balance, err := h.ledgerService.GetCurrentBalance(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// RecordEntry godoc
//
//	@Summary	Book a deposit, withdrawal or reconciliation
//	@Tags		cash-register
//	@Router		/cash-register/entries [post]
func (h *CashRegisterHandler) RecordEntry(c *gin.Context) {
	var req cashregisterapp.RecordEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerService.RecordEntry(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// ListEntries godoc
//
//	@Summary	List ledger entries between two dates
//	@Tags		cash-register
//	@Router		/cash-register/entries [get]
func (h *CashRegisterHandler) ListEntries(c *gin.Context) {
	var q DateRangeQuery
	if !h.BindQuery(c, &q) {
		return
	}
	from, to := q.Bounds()
	entries, err := h.ledgerService.ListEntries(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// StartDay godoc
//
//	@Summary	Open the drawer with a counted float
//	@Tags		cash-register
//	@Router		/cash-register/day-start [post]
func (h *CashRegisterHandler) StartDay(c *gin.Context) {
	var req cashregisterapp.StartDayRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerService.StartDay(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// DayClose godoc
//
//	@Summary	Close the drawer with the counted cash
//	@Tags		cash-register
//	@Router		/cash-register/day-close [post]
func (h *CashRegisterHandler) DayClose(c *gin.Context) {
	var req cashregisterapp.DayCloseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.ledgerService.PerformDayClose(c.Request.Context(), req, h.Actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Verify godoc
//
//	@Summary	Replay the ledger and report the first divergence
//	@Tags		cash-register
//	@Router		/cash-register/verify [get]
func (h *CashRegisterHandler) Verify(c *gin.Context) {
	result, err := h.ledgerService.VerifyLedger(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
