package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/rotem1230/gal1/internal/application/trade"
)

// OrderHandler settles carts and serves the order history
type OrderHandler struct {
	BaseHandler
	settlementService *tradeapp.SettlementService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(settlementService *tradeapp.SettlementService) *OrderHandler {
	return &OrderHandler{settlementService: settlementService}
}

// Settle turns the session cart into an order and empties the cart
// POST /orders
func (h *OrderHandler) Settle(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req tradeapp.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	order, agg, err := h.settlementService.SettleNew(c.Request.Context(), session, req.CustomerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tradeapp.ToOrderResponse(order, agg))
}

// List returns the order history, newest first by default
// GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var filter tradeapp.HistoryFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.settlementService.History(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get reopens a stored order
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	snap, err := h.settlementService.Reopen(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, snap)
}

// Delete removes an order with its items
// DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.settlementService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
