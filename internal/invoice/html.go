package invoice

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dukerupert/vanir/internal/domain"
)

// HTMLRenderer renders invoices as self-contained HTML documents suitable
// for printing or downstream PDF conversion.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the built-in invoice template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money": formatMoney,
	}).Parse(invoiceTemplate)
	if err != nil {
		return nil, domain.Internal(err, "invoice.new_renderer", "failed to parse invoice template")
	}

	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render produces the invoice document for an order.
func (r *HTMLRenderer) Render(order *domain.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, order); err != nil {
		return nil, domain.Internal(err, "invoice.render", "failed to render invoice")
	}
	return buf.Bytes(), nil
}

// ContentType returns the MIME type of rendered invoices.
func (r *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func formatMoney(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Invoice {{.OrderNumber}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 2rem; }
h1 { font-size: 1.4rem; }
table { width: 100%; border-collapse: collapse; margin-top: 1rem; }
th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; }
td.amount, th.amount { text-align: right; }
tfoot td { border-bottom: none; }
tfoot tr.total td { font-weight: bold; border-top: 2px solid #1a1a1a; }
.meta { color: #555; font-size: 0.9rem; }
</style>
</head>
<body>
<h1>Invoice {{.OrderNumber}}</h1>
<p class="meta">
Order {{.ID}}<br>
Date: {{.DateCreated.Format "January 2, 2006"}}<br>
Status: {{.Status}}
</p>

<p>
{{.BillingAddress.FullName}}<br>
{{.BillingAddress.AddressLine1}}<br>
{{if .BillingAddress.AddressLine2}}{{.BillingAddress.AddressLine2}}<br>{{end}}
{{.BillingAddress.City}}, {{.BillingAddress.StateProvince}} {{.BillingAddress.PostalCode}}<br>
{{.BillingAddress.Country}}
</p>

<table>
<thead>
<tr><th>Item</th><th class="amount">Qty</th><th class="amount">Unit price</th><th class="amount">Subtotal</th></tr>
</thead>
<tbody>
{{range .Items}}
<tr>
<td>{{.ProductName}}</td>
<td class="amount">{{.Quantity}}</td>
<td class="amount">{{money .UnitPrice $.Currency}}</td>
<td class="amount">{{money .Subtotal $.Currency}}</td>
</tr>
{{end}}
</tbody>
<tfoot>
<tr><td colspan="3">Subtotal</td><td class="amount">{{money .Subtotal .Currency}}</td></tr>
<tr><td colspan="3">Tax</td><td class="amount">{{money .Tax .Currency}}</td></tr>
<tr><td colspan="3">Shipping</td><td class="amount">{{money .Shipping .Currency}}</td></tr>
{{if gt .Discount 0.0}}<tr><td colspan="3">Discount</td><td class="amount">-{{money .Discount .Currency}}</td></tr>{{end}}
<tr class="total"><td colspan="3">Total</td><td class="amount">{{money .Total .Currency}}</td></tr>
</tfoot>
</table>

{{if .Campaign}}
<p class="meta">Campaign {{.Campaign.Code}} applied{{if .Campaign.Description}}: {{.Campaign.Description}}{{end}}</p>
{{end}}
</body>
</html>
`
