// Package printing turns an order document into a printable A4 PDF.
//
// The pipeline has three stages:
//
//	page := Layout(doc, ModeWarehouse)      // pure positioning in millimetres
//	html, err := engine.Render(page)        // RTL HTML with absolute boxes
//	result, err := renderer.Render(ctx, &RenderRequest{HTML: html})
//
// ChromedpRenderer prints through headless Chrome. FileSystemStorage keeps an
// optional copy of each document keyed by order id and mode.
package printing
