// Package layout deterministically partitions an ordered track sequence
// into fixed-size grids of front and back card slots.
//
// Cards fill pages in row-major order. The mapping from source index to
// slot is a strict bijection: reading occupied slots back in (page, row,
// col) order reproduces the input order exactly. The last page may be
// partially filled; empty trailing cells simply get no slot, which is how
// downstream knows to draw borders and crop marks for occupied cells only.
package layout

import (
	"fmt"

	"github.com/desertthunder/trackdeck/internal/shared"
)

// Side distinguishes the two faces of a card.
type Side int

const (
	Front Side = iota
	Back
)

func (s Side) String() string {
	if s == Back {
		return "back"
	}
	return "front"
}

// Suffix is the artifact name suffix for pages of this side, following the
// 00001a.svg / 00001b.svg naming scheme.
func (s Side) Suffix() string {
	if s == Back {
		return "b"
	}
	return "a"
}

// Grid is the page cell arrangement.
type Grid struct {
	Rows int
	Cols int
}

// PerPage returns the number of cells per page.
func (g Grid) PerPage() int {
	return g.Rows * g.Cols
}

// Slot is one occupied cell on one side of a page. Index is the position of
// the slot's track in the source sequence.
type Slot struct {
	Page    int
	Row     int
	Col     int
	Side    Side
	Index   int
	TrackID string
}

// ValidateConfig rejects layout configurations that cannot produce a page.
// A hand-edited config file can carry zero or negative dimensions; cell
// assignment divides by the page capacity, so these must be caught before
// a grid is built.
func ValidateConfig(cfg shared.LayoutConfig) error {
	if cfg.Rows < 1 || cfg.Columns < 1 {
		return fmt.Errorf("%w: layout grid %dx%d, rows and columns must be positive", shared.ErrConfiguration, cfg.Rows, cfg.Columns)
	}
	if cfg.CardSizeMM <= 0 {
		return fmt.Errorf("%w: card size %.1fmm must be positive", shared.ErrConfiguration, cfg.CardSizeMM)
	}
	if cfg.PageWidthMM <= 0 || cfg.PageHeightMM <= 0 {
		return fmt.Errorf("%w: page size %.1fx%.1fmm must be positive", shared.ErrConfiguration, cfg.PageWidthMM, cfg.PageHeightMM)
	}
	if float64(cfg.Columns)*cfg.CardSizeMM > cfg.PageWidthMM || float64(cfg.Rows)*cfg.CardSizeMM > cfg.PageHeightMM {
		return fmt.Errorf("%w: %dx%d cards of %.1fmm do not fit on a %.1fx%.1fmm page",
			shared.ErrConfiguration, cfg.Rows, cfg.Columns, cfg.CardSizeMM, cfg.PageWidthMM, cfg.PageHeightMM)
	}
	return nil
}

// Paginate assigns the ordered track ids to grid cells, producing exactly
// one front and one back slot per track at the same (page, row, col).
func Paginate(ids []string, g Grid) []Slot {
	per := g.PerPage()
	slots := make([]Slot, 0, 2*len(ids))
	for i, id := range ids {
		cell := i % per
		slot := Slot{
			Page:    i / per,
			Row:     cell / g.Cols,
			Col:     cell % g.Cols,
			Index:   i,
			TrackID: id,
		}

		slot.Side = Front
		slots = append(slots, slot)
		slot.Side = Back
		slots = append(slots, slot)
	}
	return slots
}

// PageCount returns the number of pages needed for n tracks.
func PageCount(n int, g Grid) int {
	per := g.PerPage()
	return (n + per - 1) / per
}

// Geometry computes card cell positions on the page in millimeters.
//
// The card table is centered horizontally; the top margin equals the side
// margin so the extra space lands at the bottom of the page, where the page
// footer goes.
type Geometry struct {
	grid   Grid
	card   float64
	pageW  float64
	pageH  float64
	margin float64
}

// NewGeometry derives page geometry from the layout configuration.
func NewGeometry(cfg shared.LayoutConfig) Geometry {
	g := Grid{Rows: cfg.Rows, Cols: cfg.Columns}
	return Geometry{
		grid:   g,
		card:   cfg.CardSizeMM,
		pageW:  cfg.PageWidthMM,
		pageH:  cfg.PageHeightMM,
		margin: (cfg.PageWidthMM - float64(g.Cols)*cfg.CardSizeMM) / 2,
	}
}

// Grid returns the cell arrangement.
func (geo Geometry) Grid() Grid { return geo.grid }

// CardSize returns the card edge length in mm.
func (geo Geometry) CardSize() float64 { return geo.card }

// PageSize returns the page dimensions in mm.
func (geo Geometry) PageSize() (w, h float64) { return geo.pageW, geo.pageH }

// Margin returns the table margin in mm.
func (geo Geometry) Margin() float64 { return geo.margin }

// CellOrigin returns the top-left corner of a cell in mm. Back faces mirror
// the column so fronts and backs line up when the page stack is printed
// double-sided and cut.
func (geo Geometry) CellOrigin(row, col int, side Side) (x, y float64) {
	if side == Back {
		col = geo.grid.Cols - 1 - col
	}
	return geo.margin + float64(col)*geo.card, geo.margin + float64(row)*geo.card
}
