//go:build gui

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"github.com/tomeapp/tome/internal/book"
	"github.com/tomeapp/tome/internal/lang"
	"github.com/tomeapp/tome/internal/layout"
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

// chromePx approximates the window height taken by controls; it is
// subtracted from the canvas before the page budget is computed.
const chromePx = 160

type model struct {
	bk      *book.Book
	tracker *position.Tracker
	engine  narration.Engine
	store   state.Store
	bookID  string
	calc    layout.Calculator
	log     *zap.Logger

	fontSize float64
	page     int

	mu     sync.Mutex
	cancel context.CancelFunc
}

func (m *model) setCancel(cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancel = cancel
}

func (m *model) stopEngine() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *model) save() {
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

func main() {
	wpm := flag.Int("w", 0, "Words per minute (overrides config)")
	cfgPath := flag.String("c", "", "Path to config file")
	freshStart := flag.Bool("fresh", false, "Ignore saved reading position")
	showVersion := flag.Bool("v", false, "Show version information")
	showVersionLong := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Tome - GUI Book Reader\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  tome [options] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  tome book.epub            Read an EPUB, resuming where you left off\n")
		fmt.Fprintf(os.Stderr, "  tome -fresh book.epub     Start over from the beginning\n")
		fmt.Fprintf(os.Stderr, "  cat file.txt | tome       Read from stdin\n")
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
	budget := calc.Budget(cfg.FontSize, cfg.Vp(), lang.Classify(doc.Content))
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

	m := &model{
		bk:       bk,
		tracker:  tracker,
		engine:   engine,
		store:    store,
		bookID:   bookID,
		calc:     calc,
		log:      log,
		fontSize: cfg.FontSize,
		page:     bk.PageFor(tracker.Offset()),
	}

	a := app.New()
	w := a.NewWindow("tome - " + bk.Title)

	pageText := widget.NewLabel("")
	pageText.Wrapping = fyne.TextWrapWord

	statusLabel := widget.NewLabel("")
	statusLabel.Alignment = fyne.TextAlignCenter

	progressBar := widget.NewProgressBar()

	chapterTitles := make([]string, len(bk.Chapters))
	for i, ch := range bk.Chapters {
		chapterTitles[i] = ch.Title
	}

	done := make(chan bool)
	var closeOnce sync.Once

	var syncingSelect bool
	var chapterSelect *widget.Select
	var playButton *widget.Button

	updateDisplay := func() {
		offset := m.tracker.Offset()
		m.page = m.bk.PageFor(offset)
		pageText.SetText(m.bk.Page(m.page).Text)
		progressBar.SetValue(m.tracker.Progress())

		narrating := ""
		if m.tracker.State() == position.Narrating {
			narrating = " [NARRATING]"
			playButton.SetText("Stop")
		} else {
			playButton.SetText("Narrate")
		}
		statusLabel.SetText(fmt.Sprintf("Page %d/%d | %.0f%% | %.0f WPM | Font: %.0f%s",
			m.page, len(m.bk.Pages), m.tracker.Progress()*100,
			m.tracker.WPM(), m.fontSize, narrating))

		if ch := m.bk.ChapterAt(offset); ch != nil {
			syncingSelect = true
			chapterSelect.SetSelected(ch.Title)
			syncingSelect = false
		}
	}

	stopNarration := func() {
		m.stopEngine()
		m.tracker.StopNarration()
	}

	startNarration := func() {
		tail := m.bk.Tail(m.tracker.Offset())
		units := lang.Count(tail).Units
		if !m.tracker.StartNarration(units, time.Now()) {
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		events, err := m.engine.Speak(ctx, tail, m.tracker.WPM(), m.bk.Class.Tag())
		if err != nil {
			cancel()
			m.tracker.FailNarration(err)
			return
		}
		m.setCancel(cancel)
		go func() {
			for ev := range events {
				m.tracker.ApplyEvent(ev)
				select {
				case <-done:
					return
				default:
					fyne.Do(updateDisplay)
				}
			}
			m.stopEngine()
		}()
	}

	jumpTo := func(offset int) {
		stopNarration()
		m.tracker.JumpTo(offset)
		updateDisplay()
	}

	repaginate := func() {
		vp := layout.Viewport{
			Width:  float64(w.Canvas().Size().Width),
			Height: float64(w.Canvas().Size().Height),
			Chrome: chromePx,
		}
		if vp.Width <= 0 || vp.Height <= chromePx {
			vp = cfg.Vp()
		}
		budget := m.calc.Budget(m.fontSize, vp, m.bk.Class)
		m.page = m.bk.Repaginate(budget, m.tracker.Offset())
	}

	chapterSelect = widget.NewSelect(chapterTitles, func(title string) {
		if syncingSelect {
			return
		}
		for _, ch := range m.bk.Chapters {
			if ch.Title == title {
				jumpTo(ch.StartOffset)
				return
			}
		}
	})

	playButton = widget.NewButton("Narrate", func() {
		if m.tracker.State() == position.Narrating {
			stopNarration()
		} else {
			startNarration()
		}
		updateDisplay()
	})

	prevButton := widget.NewButton("< Prev", func() {
		if m.page > 1 {
			jumpTo(m.bk.Page(m.page - 1).Start)
		}
	})
	nextButton := widget.NewButton("Next >", func() {
		if m.page < len(m.bk.Pages) {
			jumpTo(m.bk.Page(m.page + 1).Start)
		}
	})

	fontSlider := widget.NewSlider(10, 32)
	fontSlider.Step = 1
	fontSlider.Value = m.fontSize
	fontSlider.OnChanged = func(v float64) {
		m.fontSize = v
		repaginate()
		updateDisplay()
	}

	controls := container.NewVBox(
		progressBar,
		container.NewHBox(prevButton, playButton, nextButton, chapterSelect, widget.NewLabel("Font:"), fontSlider),
		statusLabel,
	)

	content := container.NewBorder(nil, controls, nil, nil, container.NewScroll(pageText))

	ticker := time.NewTicker(time.Duration(cfg.Narration.TickIntervalMs) * time.Millisecond)
	go func() {
		for {
			select {
			case <-done:
				ticker.Stop()
				return
			case now := <-ticker.C:
				if m.tracker.State() == position.Narrating {
					m.tracker.Tick(now)
					fyne.Do(updateDisplay)
				}
			}
		}
	}()

	w.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		switch key.Name {
		case fyne.KeySpace:
			if m.tracker.State() == position.Narrating {
				stopNarration()
			} else {
				startNarration()
			}
			updateDisplay()

		case fyne.KeyLeft:
			if m.page > 1 {
				jumpTo(m.bk.Page(m.page - 1).Start)
			}

		case fyne.KeyRight:
			if m.page < len(m.bk.Pages) {
				jumpTo(m.bk.Page(m.page + 1).Start)
			}

		case fyne.KeyUp:
			if wpm := m.tracker.WPM(); wpm < 600 {
				m.tracker.SetWPM(wpm + 25)
				updateDisplay()
			}

		case fyne.KeyDown:
			if wpm := m.tracker.WPM(); wpm > 50 {
				m.tracker.SetWPM(wpm - 25)
				updateDisplay()
			}

		case fyne.KeyF:
			w.SetFullScreen(!w.FullScreen())

		case fyne.KeyQ:
			stopNarration()
			m.save()
			closeOnce.Do(func() {
				close(done)
			})
			a.Quit()
		}
	})

	w.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'r', 'R':
			jumpTo(0)
			if m.store != nil && m.bookID != "" {
				if err := m.store.Delete(m.bookID); err != nil {
					m.log.Warn("clearing snapshot", zap.Error(err))
				}
			}
		}
	})

	w.Resize(fyne.NewSize(800, 600))
	w.SetContent(content)

	w.SetOnClosed(func() {
		stopNarration()
		m.save()
		closeOnce.Do(func() {
			close(done)
		})
	})

	// Initial layout settles after the window shows; repaginate against
	// the real canvas then.
	go func() {
		time.Sleep(100 * time.Millisecond)
		fyne.Do(func() {
			repaginate()
			updateDisplay()
		})
	}()

	w.ShowAndRun()
}
