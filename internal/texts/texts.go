// internal/texts/texts.go
//
// Text corpus for races: the paragraphs players type against.
//
// Responsibilities:
//   - Load the corpus from an environment-provided JSON file or fall back
//     to the embedded default set.
//   - Pick a random text id for new games.
//   - Resolve a stored text id back to its paragraph.
//
// Corpus format: a JSON object mapping text id → paragraph, e.g.
//   {"fox": "The quick brown fox ..."}
//
// Environment variables:
//   TEXTS_FILE=/path/to/texts.json
//
// Initialization is run once (sync.Once). Entries with empty ids or
// bodies are dropped during load.

package texts

import (
	"crypto/rand"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"
	"sync"
)

//go:embed texts.json
var embeddedTexts []byte

var (
	initOnce   sync.Once
	corpus     map[string]string // text id → paragraph
	ids        []string          // sorted ids for random pick
	initialErr error
)

// ErrTextNotFound is returned when a stored text id has no corpus entry.
var ErrTextNotFound = errors.New("text not found")

// Init loads the corpus exactly once.
// Returns an error if the corpus ends up empty.
func Init() error {
	initOnce.Do(func() {
		raw := embeddedTexts
		if path := os.Getenv("TEXTS_FILE"); path != "" {
			b, err := os.ReadFile(path)
			if err != nil {
				initialErr = fmt.Errorf("read texts file: %w", err)
				return
			}
			raw = b
		}

		loaded, err := parseCorpus(raw)
		if err != nil {
			initialErr = err
			return
		}
		corpus = loaded
		ids = make([]string, 0, len(corpus))
		for id := range corpus {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		if len(corpus) == 0 {
			initialErr = errors.New("texts: corpus is empty")
		}
	})
	return initialErr
}

// parseCorpus decodes and sanitizes a JSON corpus document.
func parseCorpus(raw []byte) (map[string]string, error) {
	var doc map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse texts corpus: %w", err)
	}
	out := make(map[string]string, len(doc))
	for id, text := range doc {
		id = strings.TrimSpace(id)
		text = strings.TrimSpace(text)
		if id == "" || text == "" {
			continue
		}
		out[id] = text
	}
	return out, nil
}

// RandomID returns a cryptographically random text id from the corpus.
func RandomID() string {
	if len(ids) == 0 {
		return ""
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(ids))))
	return ids[nBig.Int64()]
}

// Get resolves a text id to its paragraph.
func Get(id string) (string, error) {
	if text, ok := corpus[id]; ok {
		return text, nil
	}
	return "", ErrTextNotFound
}

// Stats returns the number of loaded texts.
func Stats() int {
	return len(corpus)
}
