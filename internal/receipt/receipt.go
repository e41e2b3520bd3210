// Package receipt renders a printable copy of a goods-receipt invoice.
package receipt

import (
	"fmt"
	"strings"
	"unicode"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/erazemk/trgovina/internal/model"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Options control the page header.
type Options struct {
	ShopName string
}

// Render returns the invoice as a PDF document.
func Render(inv *model.Invoice, opts Options) ([]byte, error) {
	if inv == nil {
		return nil, fmt.Errorf("rendering invoice: no invoice")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(12).WithRightMargin(12).
		WithTopMargin(12).WithBottomMargin(12).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Invoice "+inv.InvoiceNumber, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(inv, opts))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	m.AddRows(lineRows(inv.Lines)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(inv))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("rendering invoice %d: %w", inv.ID, err)
	}
	return doc.GetBytes(), nil
}

// Filename suggests a file name for the rendered invoice.
func Filename(inv *model.Invoice) string {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, inv.InvoiceNumber)
	if clean == "" {
		clean = fmt.Sprint(inv.ID)
	}
	return "invoice-" + clean + ".pdf"
}

func headerRow(inv *model.Invoice, opts Options) core.Row {
	shop := opts.ShopName
	if shop == "" {
		shop = "Goods receipt"
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(shop, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
		),
		col.New(5).Add(
			text.New("INVOICE", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(inv.InvoiceNumber, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Date: "+inv.Date.Format("2006-01-02"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Item", 4, align.Left),
		h("Qty", 1, align.Center),
		h("Unit price", 2, align.Right),
		h("Quality", 1, align.Center),
		h("Vehicle", 2, align.Center),
		h("Total", 2, align.Right),
	)
}

func lineRows(lines []model.InvoiceLine) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		name := l.Name
		if l.Category != "" {
			name += " (" + l.Category + ")"
		}
		rows = append(rows, row.New(7).Add(
			col.New(4).Add(text.New(name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(model.FormatQuantity(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.UnitPrice.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.Quality, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.VehicleNumber, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(l.Total.StringFixed(2), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

func totalsRow(inv *model.Invoice) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:"),
			text.New("Tax:", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 5}),
			text.New("Total:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 2, Top: 10, Color: colorPrimary}),
		),
		col.New(3).Add(
			text.New(inv.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right, Right: 1}),
			text.New(inv.Tax.StringFixed(2), props.Text{Size: 9, Align: align.Right, Right: 1, Top: 5}),
			text.New(inv.Total.StringFixed(2), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 10, Color: colorPrimary}),
		),
	)
}
