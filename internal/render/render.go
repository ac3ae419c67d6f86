// Package render draws individual card faces as standalone SVG fragments.
//
// A face is drawn at the local origin in tenths of a millimeter; the page
// assembler positions it with a translate transform. Front faces carry the
// track's text block, back faces carry the scannable code. Neither touches
// anything outside its own card bounds.
package render

import (
	"bytes"
	"fmt"

	svg "github.com/ajstarks/svgo"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/desertthunder/trackdeck/internal/layout"
	"github.com/desertthunder/trackdeck/internal/shared"
	"github.com/desertthunder/trackdeck/internal/tracklist"
)

// Face is one drawn card side, ready to be placed on a page.
type Face struct {
	Side    layout.Side
	TrackID string
	Body    []byte
}

// Renderer draws faces for a fixed layout configuration.
type Renderer struct {
	cfg  shared.LayoutConfig
	side int // card edge in tenths of mm
}

// New creates a Renderer for the given layout configuration.
func New(cfg shared.LayoutConfig) *Renderer {
	return &Renderer{cfg: cfg, side: tenths(cfg.CardSizeMM)}
}

// tenths converts mm to the integer drawing unit (0.1mm).
func tenths(mm float64) int {
	return int(mm*10 + 0.5)
}

// Front draws the text face: resolved title on top (largest), artist,
// album when present, release year, and the set label and set index in the
// bottom corners. Long text is broken across lines and shrunk so it never
// leaves the printable area.
func (r *Renderer) Front(t tracklist.Track) Face {
	var buf bytes.Buffer
	canvas := svg.New(&buf)

	s := r.side
	pad := int(float64(s) * printablePad)
	maxWidth := s - 2*pad
	center := s / 2

	r.cellborder(canvas)

	titleLines := BreakLines(t.Title)
	titleSize := fitSize(titleLines, s*9/100, maxWidth)
	y := pad + titleSize
	for _, line := range titleLines {
		canvas.Text(center, y, line, r.textAttrs(titleSize, `font-weight="bold"`))
		y += titleSize + s/50
	}

	artistLines := BreakLines(t.Artist)
	artistSize := fitSize(artistLines, s*8/100, maxWidth)
	y = s * 38 / 100
	for _, line := range artistLines {
		canvas.Text(center, y, line, r.textAttrs(artistSize, ""))
		y += artistSize + s/50
	}

	if t.Album != "" {
		albumLines := BreakLines(t.Album)
		albumSize := fitSize(albumLines, s*13/200, maxWidth)
		y = s * 64 / 100
		for _, line := range albumLines {
			canvas.Text(center, y, line, r.textAttrs(albumSize, `font-style="italic"`))
			y += albumSize + s/50
		}
	}

	yearSize := s * 9 / 100
	canvas.Text(center, s*88/100, fmt.Sprintf("%d", t.Year), r.textAttrs(yearSize, `font-weight="bold"`))

	r.captions(canvas, t)

	return Face{Side: layout.Front, TrackID: t.ID, Body: buf.Bytes()}
}

// Back draws the code face: a scannable code for the track URL centered on
// the card, with the set label and set index captions underneath.
func (r *Renderer) Back(t tracklist.Track) (Face, error) {
	code, err := qrcode.New(t.TrackURL, qrcode.Medium)
	if err != nil {
		return Face{}, fmt.Errorf("%w: code for track %s: %v", shared.ErrConfiguration, t.ID, err)
	}
	code.DisableBorder = true

	var buf bytes.Buffer
	canvas := svg.New(&buf)

	r.cellborder(canvas)

	bitmap := code.Bitmap()
	module := (r.side * 6 / 10) / len(bitmap)
	if module < 1 {
		module = 1
	}
	size := module * len(bitmap)
	origin := (r.side - size) / 2

	// One rect per run of dark modules keeps the documents small.
	for row := range bitmap {
		col := 0
		for col < len(bitmap[row]) {
			if !bitmap[row][col] {
				col++
				continue
			}
			run := 0
			for col+run < len(bitmap[row]) && bitmap[row][col+run] {
				run++
			}
			canvas.Rect(origin+col*module, origin+row*module, run*module, module, "fill:black")
			col += run
		}
	}

	r.captions(canvas, t)

	return Face{Side: layout.Back, TrackID: t.ID, Body: buf.Bytes()}, nil
}

func (r *Renderer) captions(canvas *svg.SVG, t tracklist.Track) {
	size := r.side * 4 / 100
	pad := r.side * 5 / 100
	y := r.side - pad

	if t.Set != "" {
		canvas.Text(pad, y, t.Set, r.captionAttrs(size, "start"))
	}
	canvas.Text(r.side-pad, y, fmt.Sprintf("%d", t.SetIndex), r.captionAttrs(size, "end"))
}

func (r *Renderer) cellborder(canvas *svg.SVG) {
	if r.cfg.Grid {
		canvas.Rect(0, 0, r.side, r.side, `fill="none" stroke="black" stroke-width="2" stroke-linejoin="miter"`)
	}
}

func (r *Renderer) textAttrs(size int, extra string) string {
	attrs := fmt.Sprintf(`text-anchor="middle" font-family=%q font-size="%d"`, r.cfg.Font, size)
	if extra != "" {
		attrs += " " + extra
	}
	return attrs
}

func (r *Renderer) captionAttrs(size int, anchor string) string {
	return fmt.Sprintf(`text-anchor=%q font-family=%q font-size="%d" font-weight="200"`, anchor, r.cfg.Font, size)
}
