package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/sklad/pos/internal/application/partner"
)

// CustomerHandler handles loyalty member endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *partnerapp.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partnerapp.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// ListCustomersQuery searches members by name, e-mail, phone or card
type ListCustomersQuery struct {
	Search string `form:"search" binding:"max=100"`
}

// List godoc
//
//	@Summary	List loyalty members
//	@Tags		customers
//	@Router		/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var q ListCustomersQuery
	if !h.BindQuery(c, &q) {
		return
	}
	customers, err := h.customerService.ListCustomers(c.Request.Context(), q.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// Create godoc
//
//	@Summary	Enrol a loyalty member
//	@Tags		customers
//	@Router		/customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req partnerapp.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// Get godoc
//
//	@Summary	Get a loyalty member
//	@Tags		customers
//	@Router		/customers/{id} [get]
func (h *CustomerHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customerService.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// GetByCard godoc
//
//	@Summary	Find a loyalty member by scanned card
//	@Tags		customers
//	@Router		/customers/card/{code} [get]
func (h *CustomerHandler) GetByCard(c *gin.Context) {
	customer, err := h.customerService.FindByCardCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// SetDiscount godoc
//
//	@Summary	Change a member's discount
//	@Tags		customers
//	@Router		/customers/{id}/discount [put]
func (h *CustomerHandler) SetDiscount(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.SetDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}
	customer, err := h.customerService.SetDiscount(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}
