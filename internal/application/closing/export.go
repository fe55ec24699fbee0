package closing

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sklad/pos/internal/application/settings"
	"github.com/sklad/pos/internal/domain/closing"
	"github.com/sklad/pos/internal/domain/shared/valueobject"
	"github.com/sklad/pos/internal/domain/trade"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var periodLabels = map[closing.PeriodType]string{
	closing.PeriodWeek:     "weekly",
	closing.PeriodMonth:    "monthly",
	closing.PeriodQuarter:  "quarterly",
	closing.PeriodHalfYear: "half-yearly",
	closing.PeriodYear:     "yearly",
}

var exportTemplate = template.Must(template.New("daily-closes").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 2px 6px; }
td.num { text-align: right; }
tfoot td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Shop.Name}}{{if .Shop.Address}}, {{.Shop.Address}}{{end}}{{if .Shop.TaxID}}<br>ID: {{.Shop.TaxID}}{{end}}{{if .Shop.VatID}}, VAT ID: {{.Shop.VatID}}{{end}}</p>
<p>Period: {{.First}} to {{.Last}}<br>
Receipts: {{.FirstReceipt}} to {{.LastReceipt}}<br>
Returns: {{if .ReturnCount}}{{.FirstReturn}} to {{.LastReturn}} ({{.ReturnCount}}){{else}}none{{end}}</p>
<table>
<thead>
<tr><th>Date</th><th>Receipts</th><th>Count</th><th>Storno</th><th>Returns</th><th>Cash</th><th>Card</th><th>Refunds</th>{{if .ShowVat}}<th>VAT</th>{{end}}<th>Total</th><th>Closed by</th></tr>
</thead>
<tbody>
{{range .Rows}}<tr><td>{{.Date}}</td><td>{{.Receipts}}</td><td class="num">{{.ReceiptCount}}</td><td class="num">{{.StornoCount}}</td><td class="num">{{.ReturnCount}}</td><td class="num">{{.Cash}}</td><td class="num">{{.Card}}</td><td class="num">{{.Refunds}}</td>{{if $.ShowVat}}<td class="num">{{.Vat}}</td>{{end}}<td class="num">{{.Total}}</td><td>{{.Seller}}</td></tr>
{{end}}</tbody>
<tfoot>
<tr><td colspan="2">Total</td><td class="num">{{.Totals.ReceiptCount}}</td><td class="num">{{.Totals.StornoCount}}</td><td class="num">{{.Totals.ReturnCount}}</td><td class="num">{{.Totals.Cash}}</td><td class="num">{{.Totals.Card}}</td><td class="num">{{.Totals.Refunds}}</td>{{if .ShowVat}}<td class="num">{{.Totals.Vat}}</td>{{end}}<td class="num">{{.Totals.Total}}</td><td></td></tr>
</tfoot>
</table>
<p>Generated {{.Generated}}</p>
</body>
</html>
`))

type exportRow struct {
	Date         string
	Receipts     string
	ReceiptCount int
	StornoCount  int
	ReturnCount  int
	Cash         string
	Card         string
	Refunds      string
	Vat          string
	Total        string
	Seller       string
}

type exportView struct {
	Lang         string
	Title        string
	Shop         settings.ShopIdentity
	First        string
	Last         string
	FirstReceipt string
	LastReceipt  string
	FirstReturn  string
	LastReturn   string
	ReturnCount  int
	ShowVat      bool
	Rows         []exportRow
	Totals       exportRow
	Generated    string
}

// moneyFormat prints amounts with the shop locale's digit grouping. Only
// the whole part goes through the printer, as an integer; the fraction
// digits are copied from the decimal so no amount passes through a float.
type moneyFormat struct {
	printer  *message.Printer
	currency valueobject.Currency
	point    string
}

func newMoneyFormat(tag language.Tag, currency valueobject.Currency) moneyFormat {
	p := message.NewPrinter(tag)
	// the locale's decimal separator is what sits between the digits of 0.5
	half := p.Sprintf("%v", number.Decimal(0.5, number.Scale(1)))
	point := strings.TrimSuffix(strings.TrimPrefix(half, "0"), "5")
	if point == "" {
		point = "."
	}
	return moneyFormat{printer: p, currency: currency, point: point}
}

func (f moneyFormat) format(m valueobject.Money) string {
	rounded := m.Amount().Abs().Round(valueobject.MoneyPlaces)
	_, frac, _ := strings.Cut(rounded.StringFixed(valueobject.MoneyPlaces), ".")
	s := f.printer.Sprintf("%v", number.Decimal(rounded.IntPart())) + f.point + frac
	if m.Amount().IsNegative() && !rounded.IsZero() {
		s = "-" + s
	}
	return s + " " + string(m.Currency())
}

func (f moneyFormat) money(amount decimal.Decimal) valueobject.Money {
	m, err := valueobject.NewMoney(amount, f.currency)
	if err != nil {
		return valueobject.NewMoneyCZK(amount)
	}
	return m
}

// sum adds amount to total; both carry the shop currency
func (f moneyFormat) sum(total valueobject.Money, amount decimal.Decimal) valueobject.Money {
	next, err := total.Add(f.money(amount))
	if err != nil {
		return total
	}
	return next
}

func renderExport(shop settings.ShopIdentity, period closing.Period, closes []closing.DailyClose, returns []trade.SalesReturn, now time.Time) ([]byte, error) {
	tag := language.Czech
	if shop.Locale != "" {
		if parsed, err := language.Parse(shop.Locale); err == nil {
			tag = parsed
		}
	}
	currency := valueobject.Currency(shop.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	mf := newMoneyFormat(tag, currency)

	view := exportView{
		Lang:      tag.String(),
		Title:     cases.Title(tag).String(periodLabels[period.Type] + " daily close report"),
		Shop:      shop,
		First:     period.First.Format(time.DateOnly),
		Last:      period.Last.Format(time.DateOnly),
		Generated: now.Format("2006-01-02 15:04"),
	}

	cash, card, refunds, vat, total := mf.money(decimal.Zero), mf.money(decimal.Zero), mf.money(decimal.Zero), mf.money(decimal.Zero), mf.money(decimal.Zero)
	for _, dc := range closes {
		row := exportRow{
			Date:         dc.BusinessDate.Format(time.DateOnly),
			Receipts:     dc.FirstReceiptNumber + " to " + dc.LastReceiptNumber,
			ReceiptCount: dc.ReceiptCount,
			StornoCount:  dc.StornoCount,
			ReturnCount:  dc.ReturnCount,
			Cash:         mf.format(mf.money(dc.CashSales)),
			Card:         mf.format(mf.money(dc.CardSales)),
			Refunds:      mf.format(mf.money(dc.RefundTotal)),
			Total:        mf.format(mf.money(dc.TotalSales)),
			Seller:       dc.SellerName,
		}
		if dc.VatTotal != nil {
			view.ShowVat = true
			row.Vat = mf.format(mf.money(*dc.VatTotal))
			vat = mf.sum(vat, *dc.VatTotal)
		}
		view.Rows = append(view.Rows, row)

		view.Totals.ReceiptCount += dc.ReceiptCount
		view.Totals.StornoCount += dc.StornoCount
		view.Totals.ReturnCount += dc.ReturnCount
		cash = mf.sum(cash, dc.CashSales)
		card = mf.sum(card, dc.CardSales)
		refunds = mf.sum(refunds, dc.RefundTotal)
		total = mf.sum(total, dc.TotalSales)

		if view.FirstReceipt == "" {
			view.FirstReceipt = dc.FirstReceiptNumber
		}
		if dc.LastReceiptNumber != "" {
			view.LastReceipt = dc.LastReceiptNumber
		}
	}
	view.Totals.Cash = mf.format(cash)
	view.Totals.Card = mf.format(card)
	view.Totals.Refunds = mf.format(refunds)
	view.Totals.Vat = mf.format(vat)
	view.Totals.Total = mf.format(total)

	if len(returns) > 0 {
		view.ReturnCount = len(returns)
		view.FirstReturn = returns[0].ReturnNumber
		view.LastReturn = returns[len(returns)-1].ReturnNumber
	}

	var buf bytes.Buffer
	if err := exportTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
