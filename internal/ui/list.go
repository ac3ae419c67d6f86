package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/trackdeck/internal/store"
)

var _ list.Item = trackItem{}

// trackItem wraps a [store.Record] to implement [list.Item]. The list shows
// resolved fields so an existing override is what the browser displays.
type trackItem struct {
	id     string
	record *store.Record
}

func (i trackItem) FilterValue() string {
	return i.record.ResolvedTitle() + " " + i.record.ResolvedArtist()
}

func (i trackItem) Title() string {
	title := i.record.ResolvedTitle()
	if i.record.TitleOverride != "" || i.record.ArtistOverride != "" || i.record.AlbumOverride != "" {
		title = "* " + title
	}
	return title
}

func (i trackItem) Description() string {
	desc := i.record.ResolvedArtist()
	if album := i.record.ResolvedAlbum(); album != "" {
		desc = fmt.Sprintf("%s • %s", desc, album)
	}
	if year, err := i.record.ReleaseYear(); err == nil {
		desc = fmt.Sprintf("%s • %d", desc, year)
	}
	return desc
}
