package printing

const defaultQuoteLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Quote {{.Quote.Number}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; font-size: 12px; color: #222; }
h1 { font-size: 20px; margin: 0; }
table { width: 100%; border-collapse: collapse; margin-top: 12px; }
td, th { padding: 4px 6px; border-bottom: 1px solid #ddd; text-align: left; }
td.amount, th.amount { text-align: right; }
.totals td { border: none; }
.muted { color: #777; }
</style>
</head>
<body>
<header>
  <h1>{{if .Dealership}}{{.Dealership.Name}}{{else}}Quote{{end}}</h1>
  <p>Quote <strong>{{.Quote.Number}}</strong> &middot; {{title (printf "%s" .Quote.Status)}}</p>
  <p class="muted">Valid until {{date .Quote.ValidUntil}}{{if .PreparedBy}} &middot; Prepared by {{.PreparedBy.DisplayName}}{{end}}</p>
</header>
{{with .Customer}}
<section>
  <h2>Customer</h2>
  <p>{{.Name}}{{if .Email}}<br>{{.Email}}{{end}}{{if .Phone}}<br>{{.Phone}}{{end}}</p>
</section>
{{end}}
{{with .Unit}}
<section>
  <h2>Trailer</h2>
  <p>{{.Title}} &middot; Stock #{{.StockNumber}}{{if .VIN}} &middot; VIN {{.VIN}}{{end}}</p>
</section>
{{end}}
<table>
  <thead><tr><th>Description</th><th class="amount">Amount</th></tr></thead>
  <tbody>
  {{range .Quote.Lines}}<tr><td>{{.Description}}</td><td class="amount">{{money .Amount}}</td></tr>
  {{end}}
  </tbody>
</table>
<table class="totals">
  <tr><td>Subtotal</td><td class="amount">{{money .Quote.Subtotal}}</td></tr>
  {{if .Quote.Terms.DocFee.IsPositive}}<tr><td>Doc fee</td><td class="amount">{{money .Quote.Terms.DocFee}}</td></tr>{{end}}
  {{if .Quote.Tax.IsPositive}}<tr><td>Tax ({{percent .Quote.Terms.TaxRatePercent}})</td><td class="amount">{{money .Quote.Tax}}</td></tr>{{end}}
  <tr><td><strong>Total</strong></td><td class="amount"><strong>{{money .Quote.Total}}</strong></td></tr>
  {{if .Quote.Terms.DownPayment.IsPositive}}<tr><td>Down payment</td><td class="amount">{{money .Quote.Terms.DownPayment}}</td></tr>{{end}}
</table>
{{with .Quote.Estimate}}{{if isFinanced .}}
<section>
  <h2>{{method .Method}}</h2>
  <p>{{.TermMonths}} monthly payments of <strong>{{money .MonthlyPayment}}</strong>{{if .APRPercent.IsPositive}} at {{percent .APRPercent}} APR{{end}}.</p>
  <p class="muted">Amount financed {{money .AmountFinanced}} &middot; Total of payments {{money .TotalOfPayments}}</p>
</section>
{{end}}{{end}}
{{if .Quote.Notes}}<p>{{.Quote.Notes}}</p>{{end}}
</body>
</html>
`
