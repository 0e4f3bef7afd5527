// internal/render/renderer.go
package render

import (
	"fmt"
	"strings"
	"time"

	"print-service/internal/model"
)

// placeholder stands in for optional fields with no value. Fields are
// never omitted so layouts keep a stable shape.
const placeholder = "-"

// listSeparator joins multi-value fields
const listSeparator = ", "

// Field is one labelled line of a rendered document
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Layout is the kind-specific intermediate form every transport renders
// from: an ordered field list with a title and footer.
type Layout struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
	Footer string  `json:"footer"`
}

// Renderer turns document payloads into layouts, device command streams
// and page markup. The clock is injected: a fixed clock yields
// byte-identical output for identical payloads.
type Renderer struct {
	paperWidth int
	now        func() time.Time
}

// NewRenderer creates a renderer. paperWidth is in characters; now may
// be nil for wall-clock time.
func NewRenderer(paperWidth int, now func() time.Time) *Renderer {
	if paperWidth <= 0 {
		paperWidth = 32
	}
	if now == nil {
		now = time.Now
	}
	return &Renderer{paperWidth: paperWidth, now: now}
}

// Layout builds the field list for a document. It never fails: unknown
// payloads fall back to a bare layout with the kind as title.
func (r *Renderer) Layout(doc model.Document) Layout {
	switch d := doc.(type) {
	case model.BagLabel:
		return r.bagLabelLayout(&d)
	case *model.BagLabel:
		return r.bagLabelLayout(d)
	case model.AssignmentReceipt:
		return r.assignmentLayout(&d)
	case *model.AssignmentReceipt:
		return r.assignmentLayout(d)
	case model.OrderRecordReceipt:
		return r.orderRecordLayout(&d)
	case *model.OrderRecordReceipt:
		return r.orderRecordLayout(d)
	default:
		return Layout{Title: string(doc.Kind()), Footer: r.footer()}
	}
}

func (r *Renderer) bagLabelLayout(d *model.BagLabel) Layout {
	return Layout{
		Title: "BAG LABEL",
		Fields: []Field{
			{Label: "Reference", Value: orPlaceholder(d.ReferenceNo)},
			{Label: "Customer", Value: orPlaceholder(d.Customer)},
			{Label: "Bag", Value: fmt.Sprintf("%d / %d", d.BagNumber, d.BagCount)},
			{Label: "Quantity", Value: fmt.Sprintf("%d", d.Quantity)},
			{Label: "Note", Value: orPlaceholder(d.Note)},
		},
		Footer: r.footer(),
	}
}

func (r *Renderer) assignmentLayout(d *model.AssignmentReceipt) Layout {
	return Layout{
		Title: "ASSIGNMENT",
		Fields: []Field{
			{Label: "Tracking No", Value: orPlaceholder(d.TrackingNo)},
			{Label: "Item", Value: orPlaceholder(d.Item)},
			{Label: "Wash Type", Value: orPlaceholder(d.WashType)},
			{Label: "Processes", Value: joinList(d.ProcessTypes)},
			{Label: "Assignee", Value: orPlaceholder(d.Assignee)},
			{Label: "Quantity", Value: fmt.Sprintf("%d", d.Quantity)},
			{Label: "Machine", Value: orPlaceholder(d.Machine)},
		},
		Footer: r.footer(),
	}
}

func (r *Renderer) orderRecordLayout(d *model.OrderRecordReceipt) Layout {
	received := placeholder
	if !d.ReceivedAt.IsZero() {
		received = d.ReceivedAt.Format("2006-01-02 15:04")
	}
	return Layout{
		Title: "ORDER RECEIPT",
		Fields: []Field{
			{Label: "Record No", Value: orPlaceholder(d.RecordNo)},
			{Label: "Customer", Value: orPlaceholder(d.Customer)},
			{Label: "Item", Value: orPlaceholder(d.Item)},
			{Label: "Wash Type", Value: orPlaceholder(d.WashType)},
			{Label: "Quantity", Value: fmt.Sprintf("%d", d.Quantity)},
			{Label: "Unit Price", Value: d.UnitPrice.StringFixed(2)},
			{Label: "Amount", Value: d.Amount.StringFixed(2)},
			{Label: "Payment", Value: orPlaceholder(d.PaymentStatus)},
			{Label: "Received", Value: received},
		},
		Footer: r.footer(),
	}
}

func (r *Renderer) footer() string {
	return "Printed " + r.now().Format("2006-01-02 15:04")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func joinList(values []string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return placeholder
	}
	return strings.Join(kept, listSeparator)
}
