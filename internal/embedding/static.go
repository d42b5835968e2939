package embedding

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// maxLexiconWords caps how many entries are loaded per language lexicon.
// Shipped lexicons are trimmed to frequent words already; the cap guards
// against loading an untrimmed dump into memory.
const maxLexiconWords = 200_000

// Static is the fallback embedding source: per-language word-vector
// lexicons in the text .vec format (optional "count dim" header, then one
// "word v1 v2 ..." line per word). A sentence vector is the mean of its
// known word vectors.
type Static struct {
	dir string

	mu       sync.Mutex
	lexicons map[string]map[string][]float32 // canonical lang -> word -> vector
}

// NewStatic creates the static source over a lexicon directory containing
// one <lang>.vec file per language.
func NewStatic(dir string) *Static {
	return &Static{
		dir:      dir,
		lexicons: make(map[string]map[string][]float32),
	}
}

// Mode identifies this source as static.
func (s *Static) Mode() Mode { return ModeStatic }

// Ready reports whether the language's lexicon is loaded.
func (s *Static) Ready(lang string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lexicons[lang]
	return ok
}

// Prepare loads the language's lexicon file into memory.
func (s *Static) Prepare(_ context.Context, lang string) error {
	if s.Ready(lang) {
		return nil
	}

	path := filepath.Join(s.dir, lang+".vec")
	lexicon, err := loadLexicon(path)
	if err != nil {
		return fmt.Errorf("load lexicon %s: %w", path, err)
	}

	s.mu.Lock()
	s.lexicons[lang] = lexicon
	s.mu.Unlock()
	return nil
}

// Embed averages the vectors of the known words in the normalized text.
// Text containing no known words yields an error, not a zero vector.
func (s *Static) Embed(_ context.Context, lang, text string) ([]float32, error) {
	s.mu.Lock()
	lexicon, ok := s.lexicons[lang]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("language %s not prepared", lang)
	}

	var known [][]float32
	for _, word := range strings.Fields(text) {
		if v, ok := lexicon[word]; ok {
			known = append(known, v)
		}
	}
	if len(known) == 0 {
		return nil, fmt.Errorf("no lexicon coverage for %q", text)
	}
	return meanVectors(known)
}

// loadLexicon parses a text .vec file. The first line may be a "count dim"
// header; every other line is a word followed by its components.
func loadLexicon(path string) (map[string][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	lexicon := make(map[string][]float32)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	dim := 0
	first := true
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if first {
			first = false
			// Header line: exactly two integer fields.
			if len(fields) == 2 {
				if _, err := strconv.Atoi(fields[0]); err == nil {
					if d, err := strconv.Atoi(fields[1]); err == nil {
						dim = d
						continue
					}
				}
			}
		}

		if len(fields) < 2 {
			continue
		}
		word := strings.ToLower(fields[0])
		components := fields[1:]
		if dim == 0 {
			dim = len(components)
		}
		if len(components) != dim {
			return nil, fmt.Errorf("word %q has %d components, want %d", word, len(components), dim)
		}

		vector := make([]float32, dim)
		for i, c := range components {
			x, err := strconv.ParseFloat(c, 32)
			if err != nil {
				return nil, fmt.Errorf("word %q component %d: %w", word, i, err)
			}
			vector[i] = float32(x)
		}
		lexicon[word] = vector

		if len(lexicon) >= maxLexiconWords {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lexicon) == 0 {
		return nil, fmt.Errorf("empty lexicon")
	}
	return lexicon, nil
}
