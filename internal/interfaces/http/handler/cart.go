package handler

import (
	"github.com/gin-gonic/gin"
	cartapp "github.com/rotem1230/gal1/internal/application/cart"
)

// CartHandler serves the session cart
type CartHandler struct {
	BaseHandler
	cartService *cartapp.Service
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cartapp.Service) *CartHandler {
	return &CartHandler{cartService: cartService}
}

// View returns the aggregated cart with totals and the customer picker
// GET /cart
func (h *CartHandler) View(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	view, err := h.cartService.View(c.Request.Context(), session)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// AddItem appends a product to the cart
// POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req cartapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	agg, err := h.cartService.Add(c.Request.Context(), session, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agg)
}

// SetQuantity sets the quantity of a product line
// PUT /cart/items/:product_id
func (h *CartHandler) SetQuantity(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req cartapp.SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	agg, err := h.cartService.SetQuantity(c.Request.Context(), session, productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agg)
}

// RemoveItem drops every line of a product
// DELETE /cart/items/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}

	agg, err := h.cartService.Remove(c.Request.Context(), session, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, agg)
}

// Clear empties the cart
// DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.cartService.Clear(c.Request.Context(), session); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Finish checks the customer and empties the cart without creating an order
// POST /cart/finish
func (h *CartHandler) Finish(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req cartapp.FinishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if err := h.cartService.Finish(c.Request.Context(), session, req.CustomerID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
