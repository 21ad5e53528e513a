package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	printingapp "github.com/rotem1230/gal1/internal/application/printing"
)

// Response headers describing a rendered document
const (
	HeaderOrderID       = "X-Order-ID"
	HeaderDocumentPages = "X-Document-Pages"
)

// DocumentHandler serves order documents as PDF and HTML
type DocumentHandler struct {
	BaseHandler
	printService *printingapp.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(printService *printingapp.Service) *DocumentHandler {
	return &DocumentHandler{printService: printService}
}

// Cart settles the session cart for a customer and returns the new order's PDF
// GET /documents/cart?customer_id=&type=
func (h *DocumentHandler) Cart(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var query printingapp.CartDocumentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	customerID, err := query.Customer()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.printService.RenderCart(c.Request.Context(), session, customerID, query.Mode())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.sendDocument(c, doc)
}

// Order reprints a stored order
// GET /documents/orders/:id?type=
func (h *DocumentHandler) Order(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var query printingapp.DocumentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.printService.RenderOrder(c.Request.Context(), id, query.Mode())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.sendDocument(c, doc)
}

// Preview returns the document HTML of a stored order. It works without a
// PDF renderer.
// GET /documents/orders/:id/preview?type=
func (h *DocumentHandler) Preview(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var query printingapp.DocumentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}

	html, err := h.printService.Preview(c.Request.Context(), id, query.Mode())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (h *DocumentHandler) sendDocument(c *gin.Context, doc *printingapp.Document) {
	c.Header(HeaderOrderID, doc.OrderID.String())
	c.Header(HeaderDocumentPages, strconv.Itoa(doc.Pages))
	h.Attachment(c, doc.Filename, printingapp.ContentType, doc.Data)
}
