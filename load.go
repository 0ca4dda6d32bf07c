package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomeapp/tome/internal/book"
	"github.com/tomeapp/tome/internal/config"
	"github.com/tomeapp/tome/internal/state"
)

var errNoInput = errors.New("no input provided")

// readInput decodes the book from the first argument, or from stdin when
// no file is given. The returned id is the content hash used as the
// snapshot key, so a renamed file keeps its reading position.
func readInput(args []string) (*book.Document, string, error) {
	if len(args) > 0 {
		path := args[0]
		doc, err := book.Decode(path)
		if err != nil {
			return nil, "", err
		}
		id, err := state.ComputeHash(path)
		if err != nil {
			return nil, "", err
		}
		return doc, id, nil
	}

	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, "", errNoInput
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, "", fmt.Errorf("reading stdin: %w", err)
	}
	text := string(data)
	return &book.Document{Title: "stdin", Content: text}, state.HashContent(text), nil
}

// openStore picks the snapshot backend from configuration.
func openStore(cfg *config.Config) (state.Store, error) {
	if cfg.State.Backend == "sqlite" {
		path := cfg.State.Path
		if path == "" {
			path = state.DefaultSQLitePath()
		}
		return state.NewSQLiteStore(path)
	}
	if cfg.State.Path != "" {
		return state.NewFileStoreAt(cfg.State.Path)
	}
	return state.NewFileStore()
}

// loadConfig resolves the effective configuration: defaults, then the
// optional config file, then command line overrides.
func loadConfig(path string, wpm int) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if wpm > 0 {
		cfg.Narration.WPM = float64(wpm)
	}
	return cfg, nil
}
