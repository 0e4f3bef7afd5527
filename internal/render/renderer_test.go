package render

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"print-service/internal/model"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func sampleBagLabel() model.BagLabel {
	return model.BagLabel{
		ReferenceNo: "REF-1042",
		Customer:    "Hotel Meridian",
		BagNumber:   2,
		BagCount:    3,
		Quantity:    18,
	}
}

func TestLayoutBagLabel(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	layout := r.Layout(sampleBagLabel())

	assert.Equal(t, "BAG LABEL", layout.Title)
	require.Len(t, layout.Fields, 5)
	assert.Equal(t, Field{Label: "Reference", Value: "REF-1042"}, layout.Fields[0])
	assert.Equal(t, Field{Label: "Bag", Value: "2 / 3"}, layout.Fields[2])
	assert.Equal(t, "Printed 2026-03-14 09:30", layout.Footer)

	// optional note renders the placeholder, never disappears
	assert.Equal(t, Field{Label: "Note", Value: "-"}, layout.Fields[4])
}

func TestLayoutAssignmentReceiptJoinsProcesses(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	layout := r.Layout(model.AssignmentReceipt{
		TrackingNo:   "TRK-77",
		Item:         "Denim jacket",
		WashType:     "Stone wash",
		ProcessTypes: []string{"Enzyme", "Bleach", "Softener"},
		Assignee:     "Kemal",
		Quantity:     40,
	})

	var processes, machine string
	for _, f := range layout.Fields {
		switch f.Label {
		case "Processes":
			processes = f.Value
		case "Machine":
			machine = f.Value
		}
	}
	assert.Equal(t, "Enzyme, Bleach, Softener", processes)
	assert.Equal(t, "-", machine)
}

func TestLayoutAssignmentReceiptEmptyProcesses(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	layout := r.Layout(model.AssignmentReceipt{TrackingNo: "TRK-1"})
	for _, f := range layout.Fields {
		if f.Label == "Processes" {
			assert.Equal(t, "-", f.Value)
		}
	}
}

func TestLayoutOrderRecordReceipt(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	layout := r.Layout(model.OrderRecordReceipt{
		RecordNo:      "ORD-555",
		Customer:      "Aylin",
		Item:          "Curtains",
		WashType:      "Dry clean",
		Quantity:      4,
		UnitPrice:     decimal.NewFromFloat(12.5),
		Amount:        decimal.NewFromFloat(50),
		PaymentStatus: "PAID",
		ReceivedAt:    time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, "ORDER RECEIPT", layout.Title)
	values := map[string]string{}
	for _, f := range layout.Fields {
		values[f.Label] = f.Value
	}
	assert.Equal(t, "12.50", values["Unit Price"])
	assert.Equal(t, "50.00", values["Amount"])
	assert.Equal(t, "2026-03-10 14:00", values["Received"])
}

func TestRenderingIsDeterministic(t *testing.T) {
	r := NewRenderer(32, fixedClock)
	doc := sampleBagLabel()

	first := r.EncodeESCPOS(r.Layout(doc))
	second := r.EncodeESCPOS(r.Layout(doc))
	assert.Equal(t, first, second)

	assert.Equal(t, r.Page(doc), r.Page(doc))

	f1, name1, _ := r.File(doc)
	f2, name2, _ := r.File(doc)
	assert.Equal(t, f1, f2)
	assert.Equal(t, name1, name2)
}

func TestEncodeESCPOSStructure(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	data := r.EncodeESCPOS(r.Layout(sampleBagLabel()))

	// starts with initialize, ends with a full cut
	assert.Equal(t, []byte{0x1B, 0x40}, data[:2])
	assert.Equal(t, []byte{0x1D, 0x56, 0x00}, data[len(data)-3:])

	text := string(data)
	assert.Contains(t, text, "BAG LABEL")
	assert.Contains(t, text, "REF-1042")
	assert.Contains(t, text, strings.Repeat("-", 32))
}

func TestPageIsSelfContained(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	page := r.Page(sampleBagLabel())
	assert.Contains(t, page, "<!DOCTYPE html>")
	assert.Contains(t, page, "<style>")
	assert.Contains(t, page, "window.print()")
	assert.Contains(t, page, "Hotel Meridian")
	assert.NotContains(t, page, "src=")
	assert.NotContains(t, page, "href=")
}

func TestFileOutput(t *testing.T) {
	r := NewRenderer(32, fixedClock)

	data, name, contentType := r.File(sampleBagLabel())
	assert.Equal(t, "bag-label-ref-1042-2.html", name)
	assert.Equal(t, "text/html; charset=utf-8", contentType)
	assert.Contains(t, string(data), "REF-1042")

	// the downloadable file has no interactive controls
	assert.NotContains(t, string(data), "window.print()")
}
