package printing

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotem1230/gal1/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// Mode selects the document variant
type Mode string

const (
	// ModeWarehouse prints prices, VAT columns and the totals summary
	ModeWarehouse Mode = "warehouse"
	// ModeCustomer prints product names and quantities only
	ModeCustomer Mode = "customer"
)

// ParseMode maps a query value to a mode. Empty means warehouse; any other
// value than warehouse yields the customer copy.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeWarehouse):
		return ModeWarehouse
	default:
		return ModeCustomer
	}
}

// Filename is the download name of the document
func (m Mode) Filename() string {
	if m == ModeWarehouse {
		return "warehouse_order.pdf"
	}
	return "customer_order.pdf"
}

// Page geometry in millimetres
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	MarginLeft   = 10.0
	MarginRight  = 10.0
	MarginTop    = 10.0
	BreakTrigger = PageHeight - 20.0

	LogoX     = 10.0
	LogoY     = 10.0
	LogoWidth = 50.0

	DateX     = 150.0
	DateY     = 10.0
	DateWidth = 50.0

	CustomerY = 40.0
	LineH     = 10.0
	HeaderH   = 8.0
	RowH      = 10.0

	SummaryX          = 120.0
	SummaryLabelWidth = 40.0
	SummaryValueWidth = 30.0
)

// Font sizes in points
const (
	FontBody     = 12.0
	FontCustomer = 14.0
	FontTitle    = 16.0
)

// Labels printed on the document
const (
	LabelDate      = "תאריך: "
	LabelTo        = "לכבוד: "
	LabelAddress   = "כתובת: "
	LabelPhone     = "טלפון: "
	LabelTitle     = "הזמנה"
	LabelNoVAT     = `סה"כ ללא מע"מ:`
	LabelVAT       = `מע"מ:`
	LabelTotalVAT  = `סה"כ כולל מע"מ:`
	CurrencySymbol = "₪"
)

var (
	warehouseWidths     = []float64{60, 25, 35, 35, 35}
	warehouseHeaders    = []string{"מוצר", "כמות", "מחיר ליח׳", "מחיר כולל", `סה"כ`}
	warehouseSubHeaders = []string{"", "", `ללא מע"מ`, `מע"מ`, ""}

	customerWidths  = []float64{150, 40}
	customerHeaders = []string{"מוצר", "כמות"}
)

// Customer is the addressee block
type Customer struct {
	Name    string
	Address string
	Phone   string
}

// Line is one product row
type Line struct {
	Name      string
	Quantity  int
	LineTotal pricing.Pair
}

// Document is everything printed on an order
type Document struct {
	Date     time.Time
	Customer Customer
	Lines    []Line
	Total    pricing.Pair
}

// Align is the horizontal text alignment inside a box
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Box is a positioned text cell
type Box struct {
	X, Y, W, H float64
	Text       string
	Align      Align
	FontSize   float64
	Border     bool
	Fill       bool
}

// Sheet is one physical A4 page
type Sheet struct {
	Logo  bool
	Boxes []Box
}

// Page is the positioned layout of a whole document
type Page struct {
	Mode   Mode
	Sheets []Sheet
}

type cursor struct {
	page *Page
	y    float64
}

func (c *cursor) sheet() *Sheet {
	return &c.page.Sheets[len(c.page.Sheets)-1]
}

// ensure starts a new sheet when a row of height h would cross the break line
func (c *cursor) ensure(h float64) {
	if c.y+h > BreakTrigger {
		c.page.Sheets = append(c.page.Sheets, Sheet{})
		c.y = MarginTop
	}
}

func (c *cursor) put(b Box) {
	b.Y = c.y
	c.sheet().Boxes = append(c.sheet().Boxes, b)
}

// Layout positions a document on A4 sheets. It performs no I/O.
func Layout(doc Document, mode Mode) Page {
	page := Page{Mode: mode, Sheets: []Sheet{{Logo: true}}}
	c := &cursor{page: &page}

	// header
	c.y = DateY
	c.put(Box{X: DateX, W: DateWidth, H: LineH, Text: LabelDate + doc.Date.Format("02/01/2006"), Align: AlignLeft, FontSize: FontBody})

	// customer block
	fullWidth := PageWidth - MarginLeft - MarginRight
	c.y = CustomerY
	customerLines := []string{LabelTo + doc.Customer.Name}
	if doc.Customer.Address != "" {
		customerLines = append(customerLines, LabelAddress+doc.Customer.Address)
	}
	if doc.Customer.Phone != "" {
		customerLines = append(customerLines, LabelPhone+doc.Customer.Phone)
	}
	for _, text := range customerLines {
		c.put(Box{X: MarginLeft, W: fullWidth, H: LineH, Text: text, Align: AlignRight, FontSize: FontCustomer})
		c.y += LineH
	}
	c.y += LineH

	// title
	c.put(Box{X: MarginLeft, W: fullWidth, H: LineH, Text: LabelTitle, Align: AlignCenter, FontSize: FontTitle})
	c.y += 2 * LineH

	// table
	widths, headers, subHeaders := customerWidths, customerHeaders, []string(nil)
	if mode == ModeWarehouse {
		widths, headers, subHeaders = warehouseWidths, warehouseHeaders, warehouseSubHeaders
	}
	xStart := PageWidth - sum(widths) - MarginRight

	row := func(cells []string, h float64, header bool) {
		c.ensure(h)
		x := xStart
		for i, text := range cells {
			c.put(Box{X: x, W: widths[i], H: h, Text: text, Align: AlignCenter, FontSize: FontBody, Border: true, Fill: header})
			x += widths[i]
		}
		c.y += h
	}

	row(headers, HeaderH, true)
	if subHeaders != nil {
		row(subHeaders, HeaderH, true)
	}
	for _, line := range doc.Lines {
		row(lineCells(line, mode), RowH, false)
	}

	// summary
	if mode == ModeWarehouse {
		c.y += LineH
		summary := []struct {
			label string
			value decimal.Decimal
			size  float64
		}{
			{LabelNoVAT, doc.Total.WithoutVAT, FontBody},
			{LabelVAT, doc.Total.VAT(), FontBody},
			{LabelTotalVAT, doc.Total.WithVAT, FontCustomer},
		}
		for _, s := range summary {
			c.ensure(LineH)
			c.put(Box{X: SummaryX, W: SummaryLabelWidth, H: LineH, Text: s.label, Align: AlignRight, FontSize: s.size})
			c.put(Box{X: SummaryX + SummaryLabelWidth, W: SummaryValueWidth, H: LineH, Text: Money(s.value), Align: AlignLeft, FontSize: s.size})
			c.y += LineH
		}
	}

	return page
}

func lineCells(line Line, mode Mode) []string {
	qty := strconv.Itoa(line.Quantity)
	if mode != ModeWarehouse {
		return []string{line.Name, qty}
	}
	unit := line.LineTotal.Div(line.Quantity)
	return []string{
		line.Name,
		qty,
		Money(unit.WithoutVAT),
		Money(unit.WithVAT),
		Money(line.LineTotal.WithVAT),
	}
}

// Money formats an amount as shekels with two decimals
func Money(d decimal.Decimal) string {
	return CurrencySymbol + d.StringFixed(2)
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
