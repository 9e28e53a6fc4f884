// Package table turns aggregated scoreboard rows into an abstract tabular
// document and its styled HTML markup. Header images are left as {{awardID}}
// placeholders; the image renderer substitutes the actual content, no image
// encoding happens here.
package table

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/victornm/kudos/internal/domain"
)

// NoDataMessage is the literal shown when the requested scope has no rows.
const NoDataMessage = "Sorry, nothing on the record yet"

// Column is one header cell. Exactly one of ImageKey and Label is set, except
// for the leading identity column which has neither.
type Column struct {
	// ImageKey is the award id whose image the renderer substitutes.
	ImageKey string
	// AltText describes the award image.
	AltText string
	// Label is the textual header, "Score" for the trailing column.
	Label string
}

// Row is one body row. Counts is aligned with the award columns; zero counts
// are already blanked for visual density.
type Row struct {
	Name   string
	Counts []string
	Total  string
}

// Document is the scoreboard table ready for visual rendering.
// Column count is always award count + 2: a leading identity column and a
// trailing score column. Every row has exactly one cell per column.
type Document struct {
	Columns []Column
	Rows    []Row
	// Empty marks the no-data state: a single merged-cell row is rendered
	// instead of body rows.
	Empty bool
}

// Build assembles the document from enriched awards (already in display
// order) and aggregated rows.
func Build(awards []domain.EnrichedAward, rows []domain.Row) *Document {
	doc := &Document{
		Columns: make([]Column, 0, len(awards)+2),
		Empty:   len(rows) == 0,
	}

	doc.Columns = append(doc.Columns, Column{})
	for _, a := range awards {
		doc.Columns = append(doc.Columns, Column{
			ImageKey: a.ID,
			AltText:  a.DisplayText,
		})
	}
	doc.Columns = append(doc.Columns, Column{Label: "Score"})

	for _, r := range rows {
		row := Row{
			Name:   r.DisplayName,
			Counts: make([]string, 0, len(r.Counts)),
			Total:  r.FormattedScore(),
		}

		for _, count := range r.Counts {
			// Zeros render blank to keep the grid readable.
			if count == 0 {
				row.Counts = append(row.Counts, "")
			} else {
				row.Counts = append(row.Counts, strconv.FormatInt(count, 10))
			}
		}

		doc.Rows = append(doc.Rows, row)
	}

	return doc
}

const style = `
.tg {border-collapse:collapse;border-spacing:0;}
.tg td{border-color:black;border-style:solid;border-width:2px;font-family:Arial, sans-serif;font-size:14px;overflow:hidden;padding:10px 5px;word-break:normal;}
.tg th{border-color:black;border-style:solid;border-width:2px;font-family:Arial, sans-serif;font-size:14px;font-weight:normal;overflow:hidden;padding:10px 5px;word-break:normal;}
.tg .tg-table-cell{text-align:center;vertical-align:center;}
.tg .tg-table-cell-no-data{text-align:center;vertical-align:center;font-weight:bold;}
.tg .tg-first-column{font-weight:bold;text-align:left;vertical-align:center;}
.tg .tg-total-column{font-weight:bold;text-align:right;vertical-align:center;}
.tg img{width:32px;height:32px;}
`

// HTML renders the document as a self-contained page. The table carries
// id="mainTable" so the screenshotting renderer can target it.
func (d *Document) HTML() string {
	var b strings.Builder

	b.WriteString("<html><head><style type=\"text/css\">")
	b.WriteString(style)
	b.WriteString("</style></head><body><table class=\"tg\" id=\"mainTable\"><thead><tr>")

	for i, col := range d.Columns {
		switch {
		case i == 0:
			// The empty state has no name column to stretch the table, so the
			// leading header is widened to match the trailing Score header.
			if d.Empty {
				b.WriteString(`<th class="tg-table-cell"><div style="width:39px;"></div></th>`)
			} else {
				b.WriteString(`<th class="tg-table-cell"></th>`)
			}
		case col.ImageKey != "":
			fmt.Fprintf(&b, `<th class="tg-table-cell"><img src="{{%s}}" alt="%s"/></th>`,
				col.ImageKey, html.EscapeString(col.AltText))
		default:
			fmt.Fprintf(&b, `<th class="tg-total-column">%s</th>`, html.EscapeString(col.Label))
		}
	}
	b.WriteString("</tr></thead><tbody>")

	if d.Empty {
		fmt.Fprintf(&b, `<tr><td class="tg-table-cell-no-data" colspan="%d">%s</td></tr>`,
			len(d.Columns), NoDataMessage)
	} else {
		for _, row := range d.Rows {
			b.WriteString("<tr>")
			fmt.Fprintf(&b, `<td class="tg-first-column">%s</td>`, html.EscapeString(row.Name))
			for _, count := range row.Counts {
				fmt.Fprintf(&b, `<td class="tg-table-cell">%s</td>`, count)
			}
			fmt.Fprintf(&b, `<td class="tg-total-column">%s</td>`, row.Total)
			b.WriteString("</tr>")
		}
	}

	b.WriteString("</tbody></table></body></html>")

	return b.String()
}
