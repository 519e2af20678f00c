package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"glyphcache/internal/logging"
)

// SourceDescriptor is a stable identifier for one renderable catalog item.
// Immutable once produced.
type SourceDescriptor struct {
	// Path is the absolute path of the rendered source image.
	Path string
	// Word is the logical group the image belongs to.
	Word string
	// Length is the number of beat glyphs in the word.
	Length int
}

var scanExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// Scanner walks the image library and produces descriptors.
type Scanner struct {
	root   string
	folder cases.Caser
	logger *slog.Logger
}

// NewScanner builds a scanner rooted at the library directory.
func NewScanner(root string, logger *slog.Logger) *Scanner {
	return &Scanner{
		root:   root,
		folder: cases.Fold(),
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
}

// Scan enumerates every source image under the library root. A failed walk is
// fatal: the batch pipeline cannot proceed without a catalog.
func (s *Scanner) Scan(ctx context.Context) ([]SourceDescriptor, error) {
	if strings.TrimSpace(s.root) == "" {
		return nil, fmt.Errorf("catalog: images directory is not configured")
	}
	if _, err := os.Stat(s.root); err != nil {
		return nil, fmt.Errorf("catalog: stat images directory: %w", err)
	}

	var descriptors []SourceDescriptor
	err := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := scanExtensions[ext]; !ok {
			return nil
		}

		word := s.wordFor(path, entry.Name())
		descriptors = append(descriptors, SourceDescriptor{
			Path:   path,
			Word:   word,
			Length: CountBeats(word),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: walk images directory: %w", err)
	}

	sort.Slice(descriptors, func(i, j int) bool {
		wi := s.folder.String(descriptors[i].Word)
		wj := s.folder.String(descriptors[j].Word)
		if wi != wj {
			return wi < wj
		}
		return descriptors[i].Path < descriptors[j].Path
	})

	s.logger.Debug("scanned image catalog",
		logging.Int("item_count", len(descriptors)),
		logging.String("root", s.root))
	return descriptors, nil
}

// wordFor derives the logical word: the immediate parent directory under the
// root, or the filename stem for flat files.
func (s *Scanner) wordFor(path, name string) string {
	rel, err := filepath.Rel(s.root, path)
	if err == nil {
		if dir := filepath.Dir(rel); dir != "." {
			parts := strings.Split(dir, string(filepath.Separator))
			return parts[0]
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// CountBeats returns the number of beat glyphs in a word. Hyphens separate
// repetitions and are not glyphs themselves; every other letter, digit, or
// symbol rune counts as one beat.
func CountBeats(word string) int {
	count := 0
	for _, r := range word {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		count++
	}
	return count
}

// FilterByLength keeps only descriptors whose word length matches.
func FilterByLength(descriptors []SourceDescriptor, length int) []SourceDescriptor {
	filtered := make([]SourceDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if d.Length == length {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// Words returns the distinct words in catalog order with their item counts.
func Words(descriptors []SourceDescriptor) []WordSummary {
	var summaries []WordSummary
	index := make(map[string]int)
	for _, d := range descriptors {
		if i, ok := index[d.Word]; ok {
			summaries[i].Items++
			continue
		}
		index[d.Word] = len(summaries)
		summaries = append(summaries, WordSummary{Word: d.Word, Length: d.Length, Items: 1})
	}
	return summaries
}

// WordSummary aggregates one word's catalog presence.
type WordSummary struct {
	Word   string
	Length int
	Items  int
}

// DisplayWord renders a word for table output with title casing applied to
// plain ASCII words; glyph words with mixed symbols pass through untouched.
func DisplayWord(word string) string {
	for _, r := range word {
		if !unicode.IsLetter(r) && r != '-' {
			return word
		}
	}
	return cases.Title(language.English, cases.NoLower).String(word)
}
