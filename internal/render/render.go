// Package render turns a purchase order into the document attached to
// the vendor email and archived in object storage. Real PDF output
// needs a headless-browser renderer; that dependency isn't in reach
// here (see DESIGN.md), so Renderer produces the HTML document itself
// and callers store/send it as-is. The interface is kept narrow enough
// that swapping in a PDF-capable implementation later doesn't touch any
// caller.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/floorworks/commerce/internal/domain"
)

// Renderer produces the document bytes for a purchase order.
type Renderer interface {
	RenderPurchaseOrder(ctx context.Context, po *domain.PurchaseOrder, items []domain.PurchaseOrderItem) ([]byte, string, error)
}

const poTemplateSrc = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Purchase Order {{.PO.PONumber}}</title></head>
<body>
<h1>Purchase Order {{.PO.PONumber}}</h1>
<p>Revision: {{.PO.Revision}}</p>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>SKU</th><th>Description</th><th>Qty</th><th>Cost/Box</th><th>Subtotal</th></tr>
{{range .Items}}<tr><td>{{.ProductSKU}}</td><td>{{.Description}}</td><td>{{.Qty}}</td><td>{{.CostPerBox.String}}</td><td>{{.Subtotal.String}}</td></tr>
{{end}}
</table>
<p>Total: {{.PO.Subtotal.String}}</p>
</body>
</html>
`

// HTMLRenderer renders the order as a standalone HTML document via
// html/template, the way cmd/server/main.go loads web/templates/*.html
// for outbound email bodies elsewhere in this tree.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("purchase_order").Parse(poTemplateSrc)
	if err != nil {
		return nil, fmt.Errorf("render: parse purchase order template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

func (r *HTMLRenderer) RenderPurchaseOrder(ctx context.Context, po *domain.PurchaseOrder, items []domain.PurchaseOrderItem) ([]byte, string, error) {
	var buf bytes.Buffer
	data := struct {
		PO    *domain.PurchaseOrder
		Items []domain.PurchaseOrderItem
	}{PO: po, Items: items}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, "", fmt.Errorf("render: execute purchase order template: %w", err)
	}
	return buf.Bytes(), "text/html", nil
}
