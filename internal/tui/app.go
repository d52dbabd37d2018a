package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/user/mindhub/internal/db"
	"github.com/user/mindhub/internal/search"
	"github.com/user/mindhub/internal/syncer"
)

type Searcher interface {
	Search(ctx context.Context, req search.Request) (search.Result, error)
}

type BackgroundSyncer interface {
	Due() bool
	SyncOnce(ctx context.Context) (syncer.Report, error)
}

// Deps wires the TUI to the search service. Syncer is optional.
type Deps struct {
	Searcher Searcher
	Syncer   BackgroundSyncer
	Debounce time.Duration
	Log      zerolog.Logger
}

// typeKeys maps the number keys to content type toggles.
var typeKeys = []struct{ key, typ, label string }{
	{"1", db.TypeVideo, "[V]"},
	{"2", db.TypeArticle, "[A]"},
	{"3", db.TypeNote, "[N]"},
	{"4", db.TypeTweet, "[X]"},
	{"5", db.TypeRepo, "[G]"},
}

type model struct {
	deps        Deps
	tracker     *search.Tracker
	searchInput textinput.Model
	list        list.Model
	bookmarks   []db.Bookmark
	types       map[string]bool // Content type toggles
	query       string          // last query sent
	page        int
	debounceTag int
	last        search.Result
	searchErr   error
	syncing     bool
	width       int
	height      int
	searching   bool
	err         error
}

type bookmarkItem struct {
	bookmark db.Bookmark
}

func (b bookmarkItem) Title() string {
	icon := typeIcon(b.bookmark.VideoType)
	return fmt.Sprintf("%s %s", icon, b.bookmark.Title)
}

func (b bookmarkItem) Description() string {
	if b.bookmark.Summary != "" {
		summary := []rune(b.bookmark.Summary)
		if len(summary) > 80 {
			return string(summary[:80]) + "..."
		}
		return string(summary)
	}
	if b.bookmark.OriginalURL != "" {
		return b.bookmark.OriginalURL
	}
	return b.bookmark.UserNotes
}

func (b bookmarkItem) FilterValue() string {
	return b.bookmark.Title + " " + b.bookmark.Summary + " " + b.bookmark.Tags
}

func typeIcon(typ string) string {
	for _, k := range typeKeys {
		if k.typ == typ {
			return k.label
		}
	}
	return "[?]"
}

func initialModel(deps Deps) model {
	if deps.Debounce <= 0 {
		deps.Debounce = search.DefaultDebounce
	}

	ti := textinput.New()
	ti.Placeholder = "Search bookmarks... (site: name: type: tag: date: text: \"exact\")"
	ti.CharLimit = 256
	ti.Width = 50

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Mindhub"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)

	types := make(map[string]bool, len(typeKeys))
	for _, k := range typeKeys {
		types[k.typ] = true
	}

	m := model{
		deps:        deps,
		tracker:     &search.Tracker{},
		searchInput: ti,
		list:        l,
		types:       types,
	}
	if deps.Searcher == nil {
		m.err = errNoSearcher
	}
	return m
}

var errNoSearcher = errors.New("search not initialized")

type debounceMsg struct {
	tag int
}

type searchMsg struct {
	result search.Result
	err    error
	more   bool // result is a further page of the current query
}

type syncMsg struct {
	report syncer.Report
	err    error
}

func (m model) Init() tea.Cmd {
	if m.err != nil {
		return nil
	}
	cmds := []tea.Cmd{textinput.Blink, m.search("", 0, false)}
	if m.deps.Syncer != nil && m.deps.Syncer.Due() {
		cmds = append(cmds, m.backgroundSync())
	}
	return tea.Batch(cmds...)
}

// search issues a ticket and runs the query off the update loop.
func (m model) search(q string, page int, more bool) tea.Cmd {
	tk := m.tracker.Issue()
	s := m.deps.Searcher
	return func() tea.Msg {
		if s == nil {
			return searchMsg{result: search.Result{Ticket: tk}, err: errNoSearcher}
		}
		res, err := s.Search(context.Background(), search.Request{Ticket: tk, Query: q, Page: page})
		res.Ticket = tk
		return searchMsg{result: res, err: err, more: more}
	}
}

func (m model) backgroundSync() tea.Cmd {
	s := m.deps.Syncer
	return func() tea.Msg {
		rep, err := s.SyncOnce(context.Background())
		return syncMsg{report: rep, err: err}
	}
}

func (m model) debounce() (model, tea.Cmd) {
	m.debounceTag++
	tag := m.debounceTag
	return m, tea.Tick(m.deps.Debounce, func(time.Time) tea.Msg {
		return debounceMsg{tag: tag}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.err != nil {
			if k := msg.String(); k == "q" || k == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.searching {
				return m, tea.Quit
			}
		case "esc":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				return m, nil
			}
		case "/":
			if !m.searching {
				m.searching = true
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "enter":
			if m.searching {
				m.searching = false
				m.searchInput.Blur()
				// drop any pending debounce tick
				m.debounceTag++
				m.query = m.searchInput.Value()
				m.page = 0
				return m, m.search(m.query, 0, false)
			}
		case "j", "down":
			if !m.searching {
				m.list.CursorDown()
				return m, nil
			}
		case "k", "up":
			if !m.searching {
				m.list.CursorUp()
				return m, nil
			}
		case "g":
			if !m.searching {
				m.list.Select(0)
				return m, nil
			}
		case "G":
			if !m.searching {
				items := m.list.Items()
				if len(items) > 0 {
					m.list.Select(len(items) - 1)
				}
				return m, nil
			}
		case "o":
			if !m.searching {
				if item, ok := m.list.SelectedItem().(bookmarkItem); ok && item.bookmark.OriginalURL != "" {
					openBrowser(item.bookmark.OriginalURL)
				}
				return m, nil
			}
		case "n":
			if !m.searching {
				if m.last.HasMore {
					m.page++
					return m, m.search(m.query, m.page, true)
				}
				return m, nil
			}
		case "s":
			if !m.searching && m.deps.Syncer != nil && !m.syncing {
				m.syncing = true
				return m, m.backgroundSync()
			}
		case "1", "2", "3", "4", "5":
			if !m.searching {
				for _, k := range typeKeys {
					if k.key == msg.String() {
						m.types[k.typ] = !m.types[k.typ]
					}
				}
				m.list.SetItems(m.bookmarksToItems(m.bookmarks))
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-7)
		m.searchInput.Width = msg.Width - 30

	case debounceMsg:
		if msg.tag != m.debounceTag {
			return m, nil
		}
		m.query = m.searchInput.Value()
		m.page = 0
		return m, m.search(m.query, 0, false)

	case searchMsg:
		if !m.tracker.Latest(msg.result.Ticket) {
			return m, nil
		}
		if msg.err != nil {
			m.searchErr = msg.err
			if msg.more {
				m.page--
			}
			return m, nil
		}
		m.searchErr = nil
		m.last = msg.result
		if msg.more {
			m.bookmarks = append(m.bookmarks, msg.result.Bookmarks...)
		} else {
			m.bookmarks = msg.result.Bookmarks
		}
		m.list.SetItems(m.bookmarksToItems(m.bookmarks))
		return m, nil

	case syncMsg:
		m.syncing = false
		if msg.err != nil {
			m.deps.Log.Warn().Err(msg.err).Msg("background sync failed")
		}
		// refresh local answers with whatever the sync brought in
		if msg.report.Fetched > 0 && m.last.Source == search.SourceLocal {
			return m, m.search(m.query, 0, false)
		}
		return m, nil
	}

	if m.searching {
		before := m.searchInput.Value()
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		cmds = append(cmds, cmd)

		// Live search once typing pauses
		if m.searchInput.Value() != before {
			var tick tea.Cmd
			m, tick = m.debounce()
			cmds = append(cmds, tick)
		}
	} else {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m model) bookmarksToItems(bookmarks []db.Bookmark) []list.Item {
	items := make([]list.Item, 0, len(bookmarks))
	for _, b := range bookmarks {
		if enabled, known := m.types[b.VideoType]; !known || enabled {
			items = append(items, bookmarkItem{bookmark: b})
		}
	}
	return items
}

func (m model) statusLine() string {
	if m.searchErr != nil {
		return "search failed: " + m.searchErr.Error()
	}

	parts := []string{fmt.Sprintf("%d results", len(m.bookmarks))}
	if m.last.Source != "" {
		parts = append(parts, "from "+string(m.last.Source))
	}
	if m.last.HasMore {
		parts = append(parts, "[n] more")
	}
	if m.last.FilterErr != nil {
		parts = append(parts, m.last.FilterErr.Error())
	}
	if m.syncing {
		parts = append(parts, "syncing...")
	}
	return strings.Join(parts, " · ")
}

func (m model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	var b strings.Builder

	// Header with search and filters
	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1)

	filterStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	activeFilter := lipgloss.NewStyle().
		Foreground(lipgloss.Color("86")).
		Bold(true)

	inactiveFilter := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240"))

	filters := []string{}
	for _, k := range typeKeys {
		if m.types[k.typ] {
			filters = append(filters, activeFilter.Render(k.label))
		} else {
			filters = append(filters, inactiveFilter.Render(k.label))
		}
	}

	searchBox := searchStyle.Render(m.searchInput.View())
	filterBar := filterStyle.Render(strings.Join(filters, " "))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, searchBox, "  ", filterBar))
	b.WriteString("\n\n")

	// List
	b.WriteString(m.list.View())
	b.WriteString("\n")

	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	if m.searchErr != nil || m.last.FilterErr != nil {
		statusStyle = statusStyle.Foreground(lipgloss.Color("203"))
	}
	b.WriteString(statusStyle.Render(m.statusLine()))

	// Help
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		MarginTop(1)

	help := "[j/k]nav [g/G]top/end [/]search [o]pen [n]ext page [s]ync [1-5]types [q]uit"
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if cmd != nil {
		cmd.Start()
	}
}

// Run starts the TUI application
func Run(deps Deps) error {
	p := tea.NewProgram(initialModel(deps), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
