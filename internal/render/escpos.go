// internal/render/escpos.go
package render

import (
	"bytes"
	"strings"
)

// ESC/POS command sequences shared by thermal receipt printers
var (
	cmdInitialize       = []byte{0x1B, 0x40}       // ESC @
	cmdCharsetPC437     = []byte{0x1B, 0x74, 0x00} // ESC t 0
	cmdAlignLeft        = []byte{0x1B, 0x61, 0x00} // ESC a 0
	cmdAlignCenter      = []byte{0x1B, 0x61, 0x01} // ESC a 1
	cmdBoldOn           = []byte{0x1B, 0x45, 0x01} // ESC E 1
	cmdBoldOff          = []byte{0x1B, 0x45, 0x00} // ESC E 0
	cmdSizeDoubleHeight = []byte{0x1D, 0x21, 0x10} // GS ! 16
	cmdSizeNormal       = []byte{0x1D, 0x21, 0x00} // GS ! 0
	cmdFeedLines        = []byte{0x1B, 0x64}       // ESC d + n
	cmdCutFull          = []byte{0x1D, 0x56, 0x00} // GS V 0
)

// EncodeESCPOS turns a layout into a complete device command stream:
// init, charset, centered bold double-height title, rule, padded
// label/value lines, footer, feed and cut.
func (r *Renderer) EncodeESCPOS(layout Layout) []byte {
	var buf bytes.Buffer

	buf.Write(cmdInitialize)
	buf.Write(cmdCharsetPC437)

	// Title block
	buf.Write(cmdAlignCenter)
	buf.Write(cmdBoldOn)
	buf.Write(cmdSizeDoubleHeight)
	buf.WriteString(layout.Title)
	buf.WriteByte('\n')
	buf.Write(cmdSizeNormal)
	buf.Write(cmdBoldOff)

	buf.Write(cmdAlignLeft)
	buf.WriteString(r.rule())
	buf.WriteByte('\n')

	for _, f := range layout.Fields {
		buf.WriteString(r.fieldLine(f))
		buf.WriteByte('\n')
	}

	if layout.Footer != "" {
		buf.WriteString(r.rule())
		buf.WriteByte('\n')
		buf.Write(cmdAlignCenter)
		buf.WriteString(layout.Footer)
		buf.WriteByte('\n')
		buf.Write(cmdAlignLeft)
	}

	buf.Write(cmdFeedLines)
	buf.WriteByte(3)
	buf.Write(cmdCutFull)

	return buf.Bytes()
}

// fieldLine pads the label to a fixed column so values align
func (r *Renderer) fieldLine(f Field) string {
	labelWidth := 12
	if labelWidth > r.paperWidth/2 {
		labelWidth = r.paperWidth / 2
	}

	label := f.Label
	if len(label) > labelWidth {
		label = label[:labelWidth]
	}
	return label + strings.Repeat(" ", labelWidth-len(label)) + " " + f.Value
}

func (r *Renderer) rule() string {
	return strings.Repeat("-", r.paperWidth)
}
