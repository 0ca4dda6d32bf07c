package narration

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/tomeapp/tome/internal/lang"
)

// cjkBreaks end a narration chunk in text without sentence-tokenizer
// support.
const cjkBreaks = "。！？；"

// Simulator is an Engine that paces through text at the requested rate,
// emitting a Boundary at the start of every sentence. It stands in for
// platform speech synthesis, which reports boundaries the same way.
type Simulator struct {
	tokenizer *sentences.DefaultSentenceTokenizer
	log       *zap.Logger
}

// NewSimulator builds a simulator with the English sentence tokenizer.
// Chinese and mixed text fall back to CJK punctuation chunking.
func NewSimulator(log *zap.Logger) (*Simulator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("loading sentence tokenizer: %w", err)
	}
	return &Simulator{tokenizer: tokenizer, log: log}, nil
}

type chunk struct {
	start int // rune offset relative to the spoken text
	units int
}

// Speak implements Engine.
func (s *Simulator) Speak(ctx context.Context, text string, rate float64, tag language.Tag) (<-chan Event, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("narration rate must be positive, got %v", rate)
	}

	chunks := s.chunks(text, tag)
	// Buffered to hold every possible event: sends never block, so an
	// abandoned receiver cannot leak the goroutine.
	events := make(chan Event, len(chunks)+1)

	go func() {
		defer close(events)
		for _, c := range chunks {
			if ctx.Err() != nil {
				events <- Event{Kind: Stopped}
				return
			}
			events <- Event{Kind: Boundary, CharIndex: c.start}

			d := time.Duration(float64(c.units) / rate * float64(time.Minute))
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				events <- Event{Kind: Stopped}
				return
			case <-timer.C:
			}
		}
		events <- Event{Kind: Done}
	}()

	return events, nil
}

// chunks splits text into sentence-sized pieces with rune offsets. The
// tokenizer path trusts cumulative sentence lengths for offsets, which
// keeps them approximately right even if the tokenizer trims anything —
// the position tracker only treats boundaries as a forward hint.
func (s *Simulator) chunks(text string, tag language.Tag) []chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if tag == language.English && s.tokenizer != nil {
		var out []chunk
		offset := 0
		for _, sentence := range s.tokenizer.Tokenize(text) {
			n := len([]rune(sentence.Text))
			if n == 0 {
				continue
			}
			out = append(out, chunk{start: offset, units: lang.Count(sentence.Text).Units})
			offset += n
		}
		if len(out) > 0 {
			return out
		}
		s.log.Debug("tokenizer produced no sentences, narrating as one chunk")
	}

	return cjkChunks(text)
}

// cjkChunks breaks after CJK sentence-ending punctuation, with exact
// offsets.
func cjkChunks(text string) []chunk {
	var out []chunk
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if strings.ContainsRune(cjkBreaks, r) && i+1 > start {
			piece := string(runes[start : i+1])
			out = append(out, chunk{start: start, units: lang.Count(piece).Units})
			start = i + 1
		}
	}
	if start < len(runes) {
		piece := string(runes[start:])
		if strings.TrimSpace(piece) != "" {
			out = append(out, chunk{start: start, units: lang.Count(piece).Units})
		}
	}
	return out
}
