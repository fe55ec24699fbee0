package handler

import (
	"github.com/gin-gonic/gin"
	giftcardapp "github.com/sklad/pos/internal/application/giftcard"
)

// GiftCardHandler handles gift card registry endpoints. Selling and
// redeeming happen through checkout.
type GiftCardHandler struct {
	BaseHandler
	giftCardService *giftcardapp.GiftCardService
}

// NewGiftCardHandler creates a new GiftCardHandler
func NewGiftCardHandler(giftCardService *giftcardapp.GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{giftCardService: giftCardService}
}

// ListGiftCardsQuery filters gift cards by status
type ListGiftCardsQuery struct {
	Status string `form:"status" binding:"max=20"`
}

// List godoc
//
//	@Summary	List gift cards
//	@Tags		gift-cards
//	@Router		/gift-cards [get]
func (h *GiftCardHandler) List(c *gin.Context) {
	var q ListGiftCardsQuery
	if !h.BindQuery(c, &q) {
		return
	}
	cards, err := h.giftCardService.List(c.Request.Context(), q.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cards)
}

// Create godoc
//
//	@Summary	Register a new, not yet sold gift card
//	@Tags		gift-cards
//	@Router		/gift-cards [post]
func (h *GiftCardHandler) Create(c *gin.Context) {
	var req giftcardapp.AddGiftCardRequest
	if !h.BindJSON(c, &req) {
		return
	}
	card, err := h.giftCardService.AddGiftCard(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, card)
}

// Get godoc
//
//	@Summary	Get a gift card by code
//	@Tags		gift-cards
//	@Router		/gift-cards/{code} [get]
func (h *GiftCardHandler) Get(c *gin.Context) {
	card, err := h.giftCardService.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}

// Cancel godoc
//
//	@Summary	Withdraw a gift card
//	@Tags		gift-cards
//	@Router		/gift-cards/{code}/cancel [post]
func (h *GiftCardHandler) Cancel(c *gin.Context) {
	var req giftcardapp.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	card, err := h.giftCardService.MarkCancelled(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}

// SetExpiration godoc
//
//	@Summary	Set or clear the expiration date
//	@Tags		gift-cards
//	@Router		/gift-cards/{code}/expiration [put]
func (h *GiftCardHandler) SetExpiration(c *gin.Context) {
	var req giftcardapp.SetExpirationRequest
	if !h.BindJSON(c, &req) {
		return
	}
	card, err := h.giftCardService.SetExpiration(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, card)
}
