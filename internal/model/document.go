// internal/model/document.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocumentKind represents the kind of printable document
type DocumentKind string

const (
	KindBagLabel           DocumentKind = "BAG_LABEL"
	KindAssignmentReceipt  DocumentKind = "ASSIGNMENT_RECEIPT"
	KindOrderRecordReceipt DocumentKind = "ORDER_RECORD_RECEIPT"
)

// Document is any payload the print core can render. Payloads arrive
// already validated from the dashboard; the core never re-validates
// business fields.
type Document interface {
	Kind() DocumentKind
}

// BagLabel is the label attached to a single garment bag
type BagLabel struct {
	ReferenceNo string `json:"reference_no"`
	Customer    string `json:"customer"`
	BagNumber   int    `json:"bag_number"`
	BagCount    int    `json:"bag_count"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note,omitempty"`
}

// Kind returns the document kind
func (BagLabel) Kind() DocumentKind { return KindBagLabel }

// AssignmentReceipt accompanies a machine assignment on the floor
type AssignmentReceipt struct {
	TrackingNo   string   `json:"tracking_no"`
	Item         string   `json:"item"`
	WashType     string   `json:"wash_type"`
	ProcessTypes []string `json:"process_types"`
	Assignee     string   `json:"assignee"`
	Quantity     int      `json:"quantity"`
	Machine      string   `json:"machine,omitempty"`
}

// Kind returns the document kind
func (AssignmentReceipt) Kind() DocumentKind { return KindAssignmentReceipt }

// OrderRecordReceipt is the customer-facing receipt for an order record
type OrderRecordReceipt struct {
	RecordNo      string          `json:"record_no"`
	Customer      string          `json:"customer"`
	Item          string          `json:"item"`
	WashType      string          `json:"wash_type"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"payment_status"`
	ReceivedAt    time.Time       `json:"received_at"`
}

// Kind returns the document kind
func (OrderRecordReceipt) Kind() DocumentKind { return KindOrderRecordReceipt }
