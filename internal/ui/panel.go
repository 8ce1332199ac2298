// Package ui implements the quest helper panel: an API key form, a
// "get help" action, and a scrollable result area. The panel enforces the
// single-in-flight rule by disabling the help action while a request runs;
// a request whose panel is closed mid-flight simply has its result dropped.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/questdeck/questdeck/internal/advisor"
	"github.com/questdeck/questdeck/internal/history"
)

// Backend is the plugin surface the panel drives. *plugin.Plugin satisfies
// it; tests substitute a fake.
type Backend interface {
	RequestHelp(ctx context.Context) advisor.Result
	SetKey(key string) bool
	Key() string
	Recent(limit int) ([]history.Record, error)
}

const (
	toastDuration = 4 * time.Second
	recentShown   = 3
)

type focusArea int

const (
	focusKey focusArea = iota
	focusHelp
)

type helpResultMsg struct {
	result advisor.Result
}

type recentMsg struct {
	records []history.Record
}

type toastExpiredMsg struct{}

// Model is the Bubble Tea model for the panel.
type Model struct {
	backend Backend

	keyInput textinput.Model
	result   viewport.Model
	spin     spinner.Model

	focus    focusArea
	hasKey   bool
	inFlight bool
	toast    string
	recent   []history.Record

	width  int
	height int
	ready  bool
}

// NewModel creates the panel over the given backend.
func NewModel(backend Backend) Model {
	ti := textinput.New()
	ti.Placeholder = "sk-..."
	ti.EchoMode = textinput.EchoPassword
	ti.CharLimit = 256
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		backend:  backend,
		keyInput: ti,
		spin:     sp,
		focus:    focusKey,
		hasKey:   backend.Key() != "",
	}
}

// Init starts cursor blinking and loads the request history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadRecent())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := msg.Height - 12
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.result = viewport.New(msg.Width-4, vpHeight)
			m.ready = true
		} else {
			m.result.Width = msg.Width - 4
			m.result.Height = vpHeight
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case helpResultMsg:
		m.inFlight = false
		if msg.result.Success {
			m.result.SetContent(m.renderMarkdown(msg.result.HelpText))
			m.result.GotoTop()
			return m, tea.Batch(m.showToast("Got quest guidance"), m.loadRecent())
		}
		m.result.SetContent(errorStyle.Render("Error: " + msg.result.Error))
		return m, tea.Batch(m.showToast(msg.result.Error), m.loadRecent())

	case recentMsg:
		m.recent = msg.records
		return m, nil

	case toastExpiredMsg:
		m.toast = ""
		return m, nil

	case spinner.TickMsg:
		if !m.inFlight {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m.updateFocused(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.focus == focusKey {
			m.focus = focusHelp
			m.keyInput.Blur()
		} else {
			m.focus = focusKey
			m.keyInput.Focus()
		}
		return m, nil
	case "enter":
		if m.focus == focusKey {
			return m.saveKey()
		}
		return m.requestHelp()
	case "q", "esc":
		if m.focus == focusHelp {
			return m, tea.Quit
		}
	case "g":
		if m.focus == focusHelp {
			return m.requestHelp()
		}
	}
	return m.updateFocused(msg)
}

// saveKey persists the trimmed input. Saving is a no-op while the input
// trims to empty, mirroring the disabled save button.
func (m Model) saveKey() (tea.Model, tea.Cmd) {
	key := strings.TrimSpace(m.keyInput.Value())
	if key == "" {
		return m, nil
	}
	if !m.backend.SetKey(key) {
		return m, m.showToast("Failed to save API key")
	}
	m.hasKey = true
	m.keyInput.Reset()
	return m, m.showToast("API key saved")
}

// requestHelp kicks off one help request. Disabled without a key or while a
// request is already in flight.
func (m Model) requestHelp() (tea.Model, tea.Cmd) {
	if !m.hasKey || m.inFlight {
		return m, nil
	}
	m.inFlight = true
	backend := m.backend
	return m, tea.Batch(
		m.spin.Tick,
		func() tea.Msg {
			return helpResultMsg{result: backend.RequestHelp(context.Background())}
		},
	)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == focusKey {
		m.keyInput, cmd = m.keyInput.Update(msg)
		return m, cmd
	}
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m Model) loadRecent() tea.Cmd {
	backend := m.backend
	return func() tea.Msg {
		records, err := backend.Recent(recentShown)
		if err != nil {
			return recentMsg{}
		}
		return recentMsg{records: records}
	}
}

// showToast mutates the model copy being returned, so it needs a pointer
// receiver even though the rest of the model flows by value.
func (m *Model) showToast(message string) tea.Cmd {
	m.toast = message
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

func (m Model) renderMarkdown(text string) string {
	width := m.result.Width
	if width <= 0 {
		width = 76
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Quest Helper"))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("OpenAI API key"))
	if m.hasKey {
		b.WriteString(successStyle.Render("  (saved)"))
	}
	b.WriteString("\n")
	b.WriteString(m.keyInput.View())
	b.WriteString("\n\n")

	switch {
	case m.inFlight:
		b.WriteString(m.spin.View() + " Asking for guidance...")
	case !m.hasKey:
		b.WriteString(hintStyle.Render("Save an API key to enable quest help"))
	default:
		b.WriteString(labelStyle.Render("Press enter or g to get quest help"))
	}
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(resultBorderStyle.Render(m.result.View()))
		b.WriteString("\n")
	}

	if len(m.recent) > 0 {
		b.WriteString(hintStyle.Render("Recent requests:"))
		b.WriteString("\n")
		for _, rec := range m.recent {
			status := successStyle.Render("ok")
			if !rec.Success {
				status = errorStyle.Render("failed")
			}
			line := fmt.Sprintf("  %s  %s  %s", rec.AskedAt.Format("15:04"), status, truncate(rec.Excerpt, 48))
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.toast != "" {
		b.WriteString("\n")
		b.WriteString(toastStyle.Render(m.toast))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hintStyle.Render("tab: switch focus • enter: save/ask • q: quit"))
	return b.String()
}

// truncate caps s at n bytes on a rune boundary so excerpts with non-ASCII
// text never render as mojibake.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}
