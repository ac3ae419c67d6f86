// Package assemble serializes rendered card faces into per-page SVG
// documents and optionally combines them into a single PDF with an
// external converter.
//
// Pages are emitted in ascending page order. The interleaved ordering puts
// each page's front directly before its back (00001a.svg, 00001b.svg, ...)
// so a duplex print run comes out aligned; the grouped ordering emits all
// fronts first. Artifacts always land on disk before the converter runs, so
// a missing converter never costs a render.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/desertthunder/trackdeck/internal/layout"
	"github.com/desertthunder/trackdeck/internal/render"
	"github.com/desertthunder/trackdeck/internal/shared"
)

var commandContext = exec.CommandContext

// PageOrder controls how front and back pages interleave in the artifact
// sequence.
type PageOrder string

const (
	Interleaved PageOrder = "interleaved"
	Grouped     PageOrder = "grouped"
)

// ParsePageOrder validates a configured page order name.
func ParsePageOrder(s string) (PageOrder, error) {
	switch PageOrder(s) {
	case Interleaved, Grouped:
		return PageOrder(s), nil
	case "":
		return Interleaved, nil
	default:
		return "", fmt.Errorf("%w: unknown page order %q", shared.ErrConfiguration, s)
	}
}

// PageDocument is one assembled page side.
type PageDocument struct {
	Index    int
	Side     layout.Side
	Filename string
	SVG      []byte
}

// Assembler groups faces onto pages for a fixed geometry.
type Assembler struct {
	cfg   shared.LayoutConfig
	geo   layout.Geometry
	order PageOrder
}

// New creates an Assembler. The page order comes from the layout
// configuration and defaults to interleaved.
func New(cfg shared.LayoutConfig) (*Assembler, error) {
	order, err := ParsePageOrder(cfg.PageOrder)
	if err != nil {
		return nil, err
	}
	return &Assembler{cfg: cfg, geo: layout.NewGeometry(cfg), order: order}, nil
}

// Assemble groups the slots by (page, side) and draws one page document per
// group, placing each face at its cell origin. faces maps a slot to its
// rendered face; a missing face is a programming error surfaced as
// ErrConfiguration naming the track.
func (a *Assembler) Assemble(slots []layout.Slot, faces func(layout.Slot) (render.Face, bool)) ([]PageDocument, error) {
	groups := make(map[int]map[layout.Side][]layout.Slot)
	maxPage := -1
	for _, slot := range slots {
		if groups[slot.Page] == nil {
			groups[slot.Page] = make(map[layout.Side][]layout.Slot)
		}
		groups[slot.Page][slot.Side] = append(groups[slot.Page][slot.Side], slot)
		if slot.Page > maxPage {
			maxPage = slot.Page
		}
	}

	var pages []PageDocument
	appendPage := func(pageIdx int, side layout.Side) error {
		group := groups[pageIdx][side]
		if len(group) == 0 {
			return nil
		}
		doc, err := a.drawPage(pageIdx, side, group, faces)
		if err != nil {
			return err
		}
		pages = append(pages, doc)
		return nil
	}

	switch a.order {
	case Grouped:
		for _, side := range []layout.Side{layout.Front, layout.Back} {
			for p := 0; p <= maxPage; p++ {
				if err := appendPage(p, side); err != nil {
					return nil, err
				}
			}
		}
	default:
		for p := 0; p <= maxPage; p++ {
			for _, side := range []layout.Side{layout.Front, layout.Back} {
				if err := appendPage(p, side); err != nil {
					return nil, err
				}
			}
		}
	}

	return pages, nil
}

func (a *Assembler) drawPage(pageIdx int, side layout.Side, group []layout.Slot, faces func(layout.Slot) (render.Face, bool)) (PageDocument, error) {
	sort.Slice(group, func(i, j int) bool {
		if group[i].Row != group[j].Row {
			return group[i].Row < group[j].Row
		}
		return group[i].Col < group[j].Col
	})

	pageW, pageH := a.geo.PageSize()

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.StartviewUnit(int(pageW), int(pageH), "mm", 0, 0, tenths(pageW), tenths(pageH))

	if a.cfg.CropMarks {
		a.cropMarks(canvas, side, group)
	}

	for _, slot := range group {
		face, ok := faces(slot)
		if !ok {
			return PageDocument{}, fmt.Errorf("%w: no rendered face for track %s", shared.ErrConfiguration, slot.TrackID)
		}
		x, y := a.geo.CellOrigin(slot.Row, slot.Col, side)
		canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", tenths(x), tenths(y)))
		buf.Write(face.Body)
		canvas.Gend()
	}

	footer := fmt.Sprintf("%d%s", pageIdx+1, side.Suffix())
	canvas.Text(tenths(pageW-a.geo.Margin()), tenths(pageH-a.geo.Margin()),
		footer, fmt.Sprintf(`text-anchor="end" font-family=%q font-size="52"`, a.cfg.Font))

	canvas.End()

	return PageDocument{
		Index:    pageIdx,
		Side:     side,
		Filename: fmt.Sprintf("%05d%s.svg", pageIdx+1, side.Suffix()),
		SVG:      buf.Bytes(),
	}, nil
}

// cropMarks draws tick lines outside the table edges, but only along rows
// and columns that actually hold a card on this page.
func (a *Assembler) cropMarks(canvas *svg.SVG, side layout.Side, group []layout.Slot) {
	rows := make(map[int]bool)
	cols := make(map[int]bool)
	for _, slot := range group {
		col := slot.Col
		if side == layout.Back {
			col = a.geo.Grid().Cols - 1 - col
		}
		rows[slot.Row] = true
		cols[col] = true
	}

	margin := a.geo.Margin()
	card := a.geo.CardSize()
	style := "stroke:black;stroke-width:0.2mm"

	tableW := float64(a.geo.Grid().Cols) * card
	tableH := float64(a.geo.Grid().Rows) * card

	for col := range cols {
		for _, edge := range []float64{margin + float64(col)*card, margin + float64(col+1)*card} {
			canvas.Line(tenths(edge), tenths(margin-5), tenths(edge), tenths(margin-1), style)
			canvas.Line(tenths(edge), tenths(margin+tableH+1), tenths(edge), tenths(margin+tableH+5), style)
		}
	}
	for row := range rows {
		for _, edge := range []float64{margin + float64(row)*card, margin + float64(row+1)*card} {
			canvas.Line(tenths(margin-5), tenths(edge), tenths(margin-1), tenths(edge), style)
			canvas.Line(tenths(margin+tableW+1), tenths(edge), tenths(margin+tableW+5), tenths(edge), style)
		}
	}
}

func tenths(mm float64) int {
	return int(mm*10 + 0.5)
}

// WritePages writes every page document into dir, creating it if needed,
// and returns the written paths in page order.
func WritePages(pages []PageDocument, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, 0, len(pages))
	for _, page := range pages {
		path := filepath.Join(dir, page.Filename)
		if err := os.WriteFile(path, page.SVG, 0644); err != nil {
			return nil, fmt.Errorf("failed to write page %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// CombinePDF invokes the external converter over the full ordered artifact
// set to produce one combined document. A missing or failing converter is
// surfaced as ErrExternalTool with its output attached; the page artifacts
// stay on disk either way.
func CombinePDF(ctx context.Context, converter string, inputs []string, output string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no page artifacts to combine", shared.ErrConfiguration)
	}

	args := append([]string{"--format=pdf", "--output=" + output}, inputs...)
	cmd := commandContext(ctx, converter, args...)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s: %v: %s", shared.ErrExternalTool, converter, err, bytes.TrimSpace(out))
	}
	return nil
}
