//go:build !gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/tomeapp/tome/internal/book"
	"github.com/tomeapp/tome/internal/lang"
	"github.com/tomeapp/tome/internal/narration"
	"github.com/tomeapp/tome/internal/position"
	"github.com/tomeapp/tome/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	narratingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	completeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

// chromeRows is how many terminal rows the header and footer consume.
const chromeRows = 5

const (
	minWPM  = 50
	maxWPM  = 600
	wpmStep = 25
)

type model struct {
	bk      *book.Book
	tracker *position.Tracker
	engine  narration.Engine
	store   state.Store
	bookID  string
	calc    cellBudgeter
	log     *zap.Logger

	bar      progress.Model
	tickRate time.Duration
	page     int
	events   <-chan narration.Event
	cancel   context.CancelFunc
	width    int
	height   int
	quitting bool
}

// cellBudgeter is the slice of the layout calculator the TUI needs.
type cellBudgeter interface {
	CellBudget(cols, rows, chromeRows int, class lang.Class) int
}

type (
	tickMsg         time.Time
	narrationMsg    narration.Event
	eventsClosedMsg struct{}
)

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(ch <-chan narration.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return narrationMsg(ev)
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case " ":
			if m.tracker.State() == position.Narrating {
				return m.stopNarration(), nil
			}
			return m.startNarration()

		case "n", "right":
			if m.page < len(m.bk.Pages) {
				m = m.jumpTo(m.bk.Page(m.page + 1).Start)
			}
			return m, nil

		case "p", "left":
			if m.page > 1 {
				m = m.jumpTo(m.bk.Page(m.page - 1).Start)
			}
			return m, nil

		case "]":
			if off, ok := m.nextChapterStart(); ok {
				m = m.jumpTo(off)
			}
			return m, nil

		case "[":
			if off, ok := m.prevChapterStart(); ok {
				m = m.jumpTo(off)
			}
			return m, nil

		case "+", "=", "up":
			if wpm := m.tracker.WPM(); wpm < maxWPM {
				m.tracker.SetWPM(wpm + wpmStep)
			}
			return m, nil

		case "-", "down":
			if wpm := m.tracker.WPM(); wpm > minWPM {
				m.tracker.SetWPM(wpm - wpmStep)
			}
			return m, nil

		case "r", "R":
			m = m.jumpTo(0)
			if m.store != nil && m.bookID != "" {
				if err := m.store.Delete(m.bookID); err != nil {
					m.log.Warn("clearing snapshot", zap.Error(err))
				}
			}
			return m, nil

		case "q", "Q", "ctrl+c":
			m = m.stopNarration()
			m.save()
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 4
		// A resize is a viewport change: rebuild the pages and land on
		// whichever page now holds the reading position.
		budget := m.calc.CellBudget(msg.Width, msg.Height, chromeRows, m.bk.Class)
		m.page = m.bk.Repaginate(budget, m.tracker.Offset())
		return m, nil

	case tickMsg:
		if m.tracker.State() != position.Narrating {
			return m, nil
		}
		m.tracker.Tick(time.Time(msg))
		m.page = m.bk.PageFor(m.tracker.Offset())
		return m, tick(m.tickRate)

	case narrationMsg:
		m.tracker.ApplyEvent(narration.Event(msg))
		m.page = m.bk.PageFor(m.tracker.Offset())
		if m.events != nil {
			return m, waitForEvent(m.events)
		}
		return m, nil

	case eventsClosedMsg:
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.events = nil
		return m, nil
	}

	return m, nil
}

func (m model) startNarration() (model, tea.Cmd) {
	tail := m.bk.Tail(m.tracker.Offset())
	units := lang.Count(tail).Units
	if !m.tracker.StartNarration(units, time.Now()) {
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.engine.Speak(ctx, tail, m.tracker.WPM(), m.bk.Class.Tag())
	if err != nil {
		cancel()
		m.tracker.FailNarration(err)
		return m, nil
	}
	m.cancel = cancel
	m.events = events
	return m, tea.Batch(waitForEvent(events), tick(m.tickRate))
}

func (m model) stopNarration() model {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.tracker.StopNarration()
	return m
}

// jumpTo is every manual navigation path: narration stops first, then
// the offset is set exactly.
func (m model) jumpTo(offset int) model {
	m = m.stopNarration()
	m.tracker.JumpTo(offset)
	m.page = m.bk.PageFor(m.tracker.Offset())
	return m
}

func (m model) nextChapterStart() (int, bool) {
	off := m.tracker.Offset()
	for _, ch := range m.bk.Chapters {
		if ch.StartOffset > off {
			return ch.StartOffset, true
		}
	}
	return 0, false
}

func (m model) prevChapterStart() (int, bool) {
	off := m.tracker.Offset()
	cur := m.bk.ChapterAt(off)
	if cur == nil {
		return 0, false
	}
	// Inside a chapter, [ goes to its start; at its start, to the one before.
	if off > cur.StartOffset {
		return cur.StartOffset, true
	}
	for i := len(m.bk.Chapters) - 1; i >= 0; i-- {
		if m.bk.Chapters[i].StartOffset < cur.StartOffset {
			return m.bk.Chapters[i].StartOffset, true
		}
	}
	return 0, false
}

func (m model) save() {
	if m.store == nil || m.bookID == "" {
		return
	}
	snap := &state.Snapshot{
		Title:           m.bk.Title,
		Author:          m.bk.Author,
		Content:         m.bk.Content,
		Pages:           m.bk.Pages,
		Chapters:        m.bk.Chapters,
		CharacterOffset: m.tracker.Offset(),
	}
	if err := m.store.Save(m.bookID, snap); err != nil {
		m.log.Warn("saving snapshot", zap.Error(err))
	}
}

func (m model) View() string {
	if m.quitting {
		if m.tracker.Progress() >= 1 {
			return completeStyle.Render("\n  Finished!\n")
		}
		return ""
	}

	offset := m.tracker.Offset()
	page := m.bk.Page(m.page)

	header := titleStyle.Render(m.bk.Title)
	if m.bk.Author != "" {
		header += chapterStyle.Render(" — " + m.bk.Author)
	}
	if ch := m.bk.ChapterAt(offset); ch != nil {
		header += chapterStyle.Render("  ·  " + ch.Title)
	}

	narrating := ""
	if m.tracker.State() == position.Narrating {
		narrating = narratingStyle.Render(" [NARRATING]")
	}
	status := statusStyle.Render(fmt.Sprintf("Page %d/%d | %.0f%% | %.0f WPM%s",
		m.page,
		len(m.bk.Pages),
		m.tracker.Progress()*100,
		m.tracker.WPM(),
		narrating,
	))

	controls := controlsStyle.Render("SPACE: narrate  n/p: page  [/]: chapter  +/-: speed  R: restart  Q: quit")

	avail := m.height - chromeRows
	if avail < 1 {
		avail = 1
	}
	lines := wrapText(page.Text, m.width)
	if len(lines) > avail {
		lines = lines[:avail]
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(lines, "\n"))
	for i := len(lines); i < avail; i++ {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(m.tracker.Progress()))
	sb.WriteString("\n")
	sb.WriteString(status)
	sb.WriteString("\n")
	sb.WriteString(controls)

	return sb.String()
}

// wrapText wraps to display cells, not runes, so wide CJK glyphs fill
// terminal lines correctly. Latin text breaks at the last space on the
// line when there is one.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		var b strings.Builder
		w := 0
		lastSpace := -1
		for _, r := range para {
			if r == ' ' && b.Len() == 0 {
				continue
			}
			rw := runewidth.RuneWidth(r)
			if w+rw > width {
				line := b.String()
				var carry string
				if r != ' ' && lastSpace > 0 {
					carry = line[lastSpace+1:]
					line = line[:lastSpace]
				}
				lines = append(lines, line)
				b.Reset()
				b.WriteString(carry)
				w = runewidth.StringWidth(carry)
				lastSpace = strings.LastIndexByte(carry, ' ')
				if r == ' ' {
					continue
				}
			}
			if r == ' ' {
				lastSpace = b.Len()
			}
			b.WriteRune(r)
			w += rw
		}
		lines = append(lines, b.String())
	}
	return lines
}

func main() {
	wpm := flag.Int("w", 0, "Words per minute (overrides config)")
	cfgPath := flag.String("c", "", "Path to config file")
	freshStart := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tome - Terminal Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tome [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tome book.epub            Read an EPUB, resuming where you left off\n")
		fmt.Fprintf(os.Stderr, "  tome -w 150 notes.md      Narrate a markdown file at 150 WPM\n")
		fmt.Fprintf(os.Stderr, "  tome -fresh book.epub     Start over from the beginning\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | tome       Read from stdin\n")
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  SPACE    Start/stop narration\n")
		fmt.Fprintf(os.Stderr, "  n/p ←/→  Next/previous page\n")
		fmt.Fprintf(os.Stderr, "  [/]      Previous/next chapter\n")
		fmt.Fprintf(os.Stderr, "  +/- ↑/↓  Narration speed by %d WPM\n", wpmStep)
		fmt.Fprintf(os.Stderr, "  R        Restart from the beginning\n")
		fmt.Fprintf(os.Stderr, "  Q        Quit (position is saved)\n")
	}
	flag.Parse()

	if *showVersion || *showVersionLong {
		fmt.Printf("tome %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := loadConfig(*cfgPath, *wpm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger()
	defer log.Sync()

	doc, bookID, err := readInput(flag.Args())
	if errors.Is(err, errNoInput) {
		fmt.Fprintln(os.Stderr, "Error: No input provided. Provide a file or pipe text to stdin.")
		fmt.Fprintln(os.Stderr, "Try: tome -h")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	calc := cfg.Calculator()
	budget := calc.CellBudget(80, 24, chromeRows, lang.Classify(doc.Content))
	bk, err := book.New(doc, budget, log)
	if errors.Is(err, book.ErrContentEmpty) {
		fmt.Fprintln(os.Stderr, "Error: No text to read.")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tracker := position.NewTracker(bk.Len(), cfg.Narration.WPM, log)

	store, err := openStore(cfg)
	if err != nil {
		log.Warn("opening snapshot store", zap.Error(err))
		store = nil
	}
	if store != nil && !*freshStart {
		if snap, err := store.Load(bookID); err == nil {
			tracker.JumpTo(snap.CharacterOffset)
		} else if !errors.Is(err, state.ErrNotFound) {
			log.Warn("loading snapshot", zap.Error(err))
		}
	}

	engine, err := narration.NewSimulator(log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := model{
		bk:       bk,
		tracker:  tracker,
		engine:   engine,
		store:    store,
		bookID:   bookID,
		calc:     calc,
		log:      log,
		bar:      progress.New(progress.WithDefaultGradient()),
		tickRate: time.Duration(cfg.Narration.TickIntervalMs) * time.Millisecond,
		page:     bk.PageFor(tracker.Offset()),
		width:    80,
		height:   24,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
