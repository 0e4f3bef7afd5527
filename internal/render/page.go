// internal/render/page.go
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"print-service/internal/model"
)

// pageTemplate is the operator-facing page for the visual transport:
// the browser's print dialog does the actual printing.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: "Courier New", monospace; margin: 0; padding: 16px; }
.doc { max-width: 320px; margin: 0 auto; border: 1px dashed #999; padding: 12px; }
.title { text-align: center; font-size: 1.3em; font-weight: bold; margin-bottom: 8px; }
.rule { border-top: 1px solid #333; margin: 6px 0; }
.row { display: flex; justify-content: space-between; padding: 2px 0; }
.label { font-weight: bold; padding-right: 12px; white-space: nowrap; }
.footer { text-align: center; font-size: 0.85em; color: #555; margin-top: 8px; }
.print-btn { display: block; margin: 16px auto 0; padding: 8px 24px; font-size: 1em; cursor: pointer; }
@media print { .print-btn { display: none; } body { padding: 0; } .doc { border: none; } }
</style>
</head>
<body>
<div class="doc">
<div class="title">{{.Title}}</div>
<div class="rule"></div>
{{range .Fields}}<div class="row"><span class="label">{{.Label}}</span><span>{{.Value}}</span></div>
{{end}}<div class="rule"></div>
<div class="footer">{{.Footer}}</div>
</div>
<button class="print-btn" onclick="window.print()">Print</button>
</body>
</html>
`))

// fileTemplate is the standalone downloadable document: no controls,
// print-sized, usable offline or forwarded as an attachment.
var fileTemplate = template.Must(template.New("file").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: 80mm auto; margin: 4mm; }
body { font-family: "Courier New", monospace; width: 72mm; margin: 0; }
.title { text-align: center; font-size: 1.2em; font-weight: bold; }
.rule { border-top: 1px solid #000; margin: 4px 0; }
.row { display: flex; justify-content: space-between; padding: 1px 0; }
.label { font-weight: bold; padding-right: 8px; white-space: nowrap; }
.footer { text-align: center; font-size: 0.8em; margin-top: 6px; }
</style>
</head>
<body>
<div class="title">{{.Title}}</div>
<div class="rule"></div>
{{range .Fields}}<div class="row"><span class="label">{{.Label}}</span><span>{{.Value}}</span></div>
{{end}}<div class="rule"></div>
<div class="footer">{{.Footer}}</div>
</body>
</html>
`))

// Page renders the visual-transport page markup for a document
func (r *Renderer) Page(doc model.Document) string {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, r.Layout(doc)); err != nil {
		// template and data are both static shapes; this cannot happen
		return ""
	}
	return buf.String()
}

// File renders the document-transport standalone file
func (r *Renderer) File(doc model.Document) (data []byte, filename, contentType string) {
	layout := r.Layout(doc)

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, layout); err != nil {
		return nil, "", ""
	}

	return buf.Bytes(), fileName(doc), "text/html; charset=utf-8"
}

// fileName derives a stable download name from the document's natural
// reference
func fileName(doc model.Document) string {
	ref := ""
	switch d := doc.(type) {
	case model.BagLabel:
		ref = fmt.Sprintf("%s-%d", d.ReferenceNo, d.BagNumber)
	case *model.BagLabel:
		ref = fmt.Sprintf("%s-%d", d.ReferenceNo, d.BagNumber)
	case model.AssignmentReceipt:
		ref = d.TrackingNo
	case *model.AssignmentReceipt:
		ref = d.TrackingNo
	case model.OrderRecordReceipt:
		ref = d.RecordNo
	case *model.OrderRecordReceipt:
		ref = d.RecordNo
	}

	kind := strings.ToLower(strings.ReplaceAll(string(doc.Kind()), "_", "-"))
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return kind + ".html"
	}
	return kind + "-" + ref + ".html"
}
