package pdf

import (
	"bytes"
	"html/template"
	"time"

	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"money": func(v float64) string { return "$" + decimal.NewFromFloat(v).StringFixed(2) },
	"qty":   func(v float64) string { return decimal.NewFromFloat(v).String() },
	"date":  func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"inc":   func(i int) int { return i + 1 },
}

var quotationTemplate = template.Must(template.New("quotation").Funcs(funcs).Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Quotation {{.Q.QuotationNumber}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; margin: 40px; color: #222; }
h1 { text-align: center; font-size: 22px; }
h2 { font-size: 14px; border-bottom: 1px solid #999; padding-bottom: 2px; }
table { width: 100%; border-collapse: collapse; margin-top: 8px; }
th, td { text-align: left; padding: 4px 6px; }
th { border-bottom: 1px solid #333; }
.num { text-align: right; }
.totals td { border: none; }
.grand { font-weight: bold; font-size: 13px; }
.company { color: #555; }
</style>
</head>
<body>
{{with .Company}}<div class="company">{{if .Logo}}<img src="{{.Logo}}" height="48"><br>{{end}}<strong>{{.Name}}</strong>{{if .Address}}<br>{{.Address}}{{end}}{{if .Phone}}<br>{{.Phone}}{{end}}</div>{{end}}
<h1>QUOTATION</h1>
<p>
Quotation #: {{.Q.QuotationNumber}}<br>
Date: {{date .Q.Date}}<br>
Valid Until: {{date .Q.ValidUntil}}
</p>
<h2>Client Information</h2>
<p>
Name: {{.Q.Client.Name}}<br>
Company: {{.Q.Client.Company}}<br>
Email: {{.Q.Client.Email}}{{if .Q.Client.Address}}<br>
Address: {{.Q.Client.Address}}{{end}}
</p>
<h2>Items</h2>
<table>
<tr><th>Item</th><th>Description</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Amount</th></tr>
{{range $i, $it := .Q.Items}}<tr><td>{{inc $i}}</td><td>{{$it.Description}}</td><td class="num">{{qty $it.Quantity}}</td><td class="num">{{money $it.UnitPrice}}</td><td class="num">{{money $it.Amount}}</td></tr>
{{end}}</table>
<table class="totals">
<tr><td></td><td class="num">Subtotal:</td><td class="num">{{money .Q.Subtotal}}</td></tr>
<tr><td></td><td class="num">Tax:</td><td class="num">{{money .Q.Tax}}</td></tr>
<tr class="grand"><td></td><td class="num">Total:</td><td class="num">{{money .Q.Total}}</td></tr>
</table>
{{if .Q.Notes}}<h2>Notes</h2><p>{{.Q.Notes}}</p>{{end}}
{{if .Q.Terms}}<h2>Terms and Conditions</h2><p>{{.Q.Terms}}</p>{{end}}
</body>
</html>
`))

// RenderHTML writes the printable quotation document. company may be nil.
func RenderHTML(q *entity.Quotation, company *entity.Company) ([]byte, error) {
	var buf bytes.Buffer
	err := quotationTemplate.Execute(&buf, struct {
		Q       *entity.Quotation
		Company *entity.Company
	}{q, company})
	return buf.Bytes(), err
}
