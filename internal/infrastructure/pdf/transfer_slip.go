// Package pdf genera la guía de traslado que acompaña la mercancía entre ubicaciones.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Guía de traslado + id    │  Estado + Fecha         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN → DESTINO                                           │
//	│  TABLA: Ítem | Descripción | Unidad | Solicitado | Recibido │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TRAZABILIDAD: solicitó / aprobó / recibió                  │
//	│  QR con el id del traslado + firmas                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	"github.com/jhoicas/inventory-movements/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var statusLabels = map[entity.TransferStatus]string{
	entity.TransferPending:   "PENDIENTE",
	entity.TransferInTransit: "EN TRÁNSITO",
	entity.TransferReceived:  "RECIBIDO",
	entity.TransferCancelled: "CANCELADO",
}

// TransferSlipGenerator genera la guía con Maroto v2.
type TransferSlipGenerator struct {
	company string
}

// NewTransferSlipGenerator construye el generador; company va en el encabezado.
func NewTransferSlipGenerator(company string) *TransferSlipGenerator {
	return &TransferSlipGenerator{company: company}
}

// GenerateTransferSlip genera el PDF y devuelve sus bytes. item puede ser nil.
func (g *TransferSlipGenerator) GenerateTransferSlip(_ context.Context, t *entity.Transfer, item *entity.Item) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Guía de traslado "+t.ID, true).
		WithAuthor(g.company, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(g.company, t))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(routeRow(t))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(tableHeaderRow())
	m.AddRows(itemRow(t, item))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(auditRows(t)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(t))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar guía de traslado: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(company string, t *entity.Transfer) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(nonEmpty(company, "Inventario"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("GUÍA DE TRASLADO ENTRE UBICACIONES", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(statusLabel(t.Status), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(t.ID, props.Text{Size: 7, Align: align.Right, Top: 8}),
			text.New("Solicitado: "+t.RequestedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func routeRow(t *entity.Transfer) core.Row {
	return row.New(12).Add(
		col.New(5).Add(
			text.New("ORIGEN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(t.SourceLocationID, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		),
		col.New(2).Add(text.New("→", props.Text{Size: 14, Align: align.Center, Top: 3})),
		col.New(5).Add(
			text.New("DESTINO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1, Align: align.Right}),
			text.New(t.DestinationLocationID, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6, Align: align.Right}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Ítem", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Unidad", 2, align.Center),
		h("Solicitado", 2, align.Right),
		h("Recibido", 2, align.Right),
	)
}

func itemRow(t *entity.Transfer, item *entity.Item) core.Row {
	name, unit := "—", "—"
	if item != nil {
		name = nonEmpty(item.Name, "—")
		unit = nonEmpty(item.Unit, "—")
	}
	received := "—"
	if t.QuantityReceived != nil {
		received = t.QuantityReceived.String()
	}
	cell := func(s string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
	}
	return row.New(7).Add(
		cell(t.ItemID, 2, align.Left),
		cell(name, 4, align.Left),
		cell(unit, 2, align.Center),
		cell(t.QuantityRequested.String(), 2, align.Right),
		cell(received, 2, align.Right),
	)
}

func auditRows(t *entity.Transfer) []core.Row {
	entry := func(label, who string, at *time.Time) core.Row {
		when := "—"
		if at != nil {
			when = at.Format("02/01/2006 15:04")
		}
		return row.New(5).Add(
			col.New(3).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1})),
			col.New(5).Add(text.New(nonEmpty(who, "—"), props.Text{Size: 8, Top: 1})),
			col.New(4).Add(text.New(when, props.Text{Size: 8, Top: 1, Align: align.Right, Color: colorGray})),
		)
	}
	requested := t.RequestedAt
	rows := []core.Row{
		entry("Solicitó:", t.RequestedBy, &requested),
		entry("Aprobó:", t.ApprovedBy, t.ApprovedAt),
		entry("Recibió:", t.ReceivedBy, t.ReceivedAt),
	}
	if t.Shortfall.IsPositive() {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New("Faltante registrado: "+t.Shortfall.String(), props.Text{
				Style: fontstyle.Bold, Size: 8, Top: 1, Color: colorPrimary,
			}),
		)))
	}
	if t.Notes != "" {
		rows = append(rows, row.New(10).Add(col.New(12).Add(
			text.New("Notas: "+t.Notes, props.Text{Size: 8, Top: 2, Color: colorGray}),
		)))
	}
	return rows
}

func footerRow(t *entity.Transfer) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(t.ID, props.Rect{Percent: 90, Center: true})),
		col.New(4).Add(
			text.New("_______________________", props.Text{Size: 9, Top: 26, Align: align.Center}),
			text.New("Entrega", props.Text{Size: 8, Top: 31, Align: align.Center, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("_______________________", props.Text{Size: 9, Top: 26, Align: align.Center}),
			text.New("Recibe", props.Text{Size: 8, Top: 31, Align: align.Center, Color: colorGray}),
		),
	)
}

func statusLabel(s entity.TransferStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
