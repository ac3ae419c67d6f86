package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/trackdeck/internal/store"
)

// ViewState represents the current view in the editor.
type ViewState int

const (
	TrackListView ViewState = iota
	EditView
)

// field indexes into Model.inputs.
const (
	fieldTitle = iota
	fieldArtist
	fieldAlbum
	fieldCount
)

// SaveFunc persists the database after an override edit.
type SaveFunc func(*store.Database) error

// Model represents the override editor state.
type Model struct {
	db   *store.Database
	save SaveFunc

	view     ViewState
	width    int
	height   int
	tracks   list.Model
	editing  string
	inputs   [fieldCount]textinput.Model
	focused  int
	status   string
	err      error
	help     help.Model
	keys     keyMap
	modified bool
}

type savedMsg struct {
	err error
}

// NewModel creates an editor over the given database. save is called after
// every accepted edit.
func NewModel(db *store.Database, save SaveFunc) *Model {
	items := make([]list.Item, 0, db.Len())
	for _, id := range db.IDs() {
		record, _ := db.Get(id)
		items = append(items, trackItem{id: id, record: record})
	}

	trackList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	trackList.Title = fmt.Sprintf("Tracks (%d)", db.Len())

	m := &Model{
		db:     db,
		save:   save,
		view:   TrackListView,
		tracks: trackList,
		help:   help.New(),
		keys:   newKeyMap(),
	}

	labels := [fieldCount]string{"Title override", "Artist override", "Album override"}
	for i := range m.inputs {
		input := textinput.New()
		input.Prompt = "> "
		input.Placeholder = labels[i]
		input.CharLimit = 200
		m.inputs[i] = input
	}

	return m
}

// Modified reports whether any edit was accepted during the session.
func (m *Model) Modified() bool { return m.modified }

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.tracks.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case TrackListView:
			return m.handleListKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		}

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.status = styles.ok.Render("saved")
		return m, nil
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}

	switch m.view {
	case EditView:
		return m.renderEdit()
	default:
		return m.renderList()
	}
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Filtering owns the keyboard while active.
	if m.tracks.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.tracks, cmd = m.tracks.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		selected := m.tracks.SelectedItem()
		if item, ok := selected.(trackItem); ok {
			m.openEditor(item.id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.tracks, cmd = m.tracks.Update(msg)
	return m, cmd
}

func (m *Model) openEditor(id string) {
	record, ok := m.db.Get(id)
	if !ok {
		return
	}

	m.editing = id
	m.status = ""
	m.inputs[fieldTitle].SetValue(record.TitleOverride)
	m.inputs[fieldArtist].SetValue(record.ArtistOverride)
	m.inputs[fieldAlbum].SetValue(record.AlbumOverride)
	m.setFocus(fieldTitle)
	m.view = EditView
}

func (m *Model) setFocus(i int) {
	m.focused = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.setFocus((m.focused + 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.enter):
		return m, m.applyEdit()
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

// applyEdit writes the input values onto the record and persists the
// database. An empty input clears the override so the cleaned value shows
// through again.
func (m *Model) applyEdit() tea.Cmd {
	record, ok := m.db.Get(m.editing)
	if !ok {
		m.view = TrackListView
		return nil
	}

	record.TitleOverride = m.inputs[fieldTitle].Value()
	record.ArtistOverride = m.inputs[fieldArtist].Value()
	record.AlbumOverride = m.inputs[fieldAlbum].Value()
	m.modified = true
	m.view = TrackListView

	return func() tea.Msg {
		return savedMsg{err: m.save(m.db)}
	}
}

func (m *Model) renderList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	footer := helpView
	if m.status != "" {
		footer = m.status + "  " + helpView
	}
	return fmt.Sprintf("%s\n\n%s", m.tracks.View(), footer)
}

func (m *Model) renderEdit() string {
	record, ok := m.db.Get(m.editing)
	if !ok {
		return styles.err.Render("track disappeared")
	}

	title := styles.title.Render(fmt.Sprintf("Editing %s", m.editing))
	current := fmt.Sprintf(
		"Title:  %s\nArtist: %s\nAlbum:  %s\n",
		record.ResolvedTitle(), record.ResolvedArtist(), record.ResolvedAlbum(),
	)

	var fields string
	for i := range m.inputs {
		fields += m.inputs[i].View() + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.enter, m.keys.back})
	hint := styles.help.Render("empty field clears the override")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s", title, current, fields, hint, helpView)
}
