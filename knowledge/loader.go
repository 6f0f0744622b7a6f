package knowledge

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Document is one loaded policy page, normalized to markdown.
type Document struct {
	// Path is the file path relative to the sources directory.
	Path string

	// Category is the top-level subdirectory the file lives in, or
	// "general" for files at the root.
	Category string

	// Title is the document heading, falling back to the file name.
	Title string

	// Markdown is the normalized document body.
	Markdown string
}

// Loader reads policy documents from a sources directory. Markdown files
// are taken as-is; HTML files go through the converter.
type Loader struct {
	sourcesDir string
	converter  *Converter
	logger     *slog.Logger
}

// NewLoader creates a loader rooted at sourcesDir.
func NewLoader(sourcesDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		sourcesDir: sourcesDir,
		converter:  NewConverter(),
		logger:     logger,
	}
}

// Load scans the sources directory and returns all readable documents.
// Unreadable or malformed files are logged and skipped, not fatal.
func (l *Loader) Load() ([]*Document, error) {
	if _, err := os.Stat(l.sourcesDir); err != nil {
		return nil, fmt.Errorf("sources directory %s: %w", l.sourcesDir, err)
	}

	var paths []string
	// Use doublestar for ** support
	for _, pattern := range []string{"**/*.md", "**/*.html"} {
		matches, err := doublestar.FilepathGlob(filepath.Join(l.sourcesDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}

	var docs []*Document
	for _, path := range paths {
		doc, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("Skipping unreadable policy document",
				"path", path,
				"error", err)
			continue
		}
		docs = append(docs, doc)
	}

	l.logger.Info("Policy documents loaded",
		"sources_dir", l.sourcesDir,
		"count", len(docs))

	return docs, nil
}

// loadFile reads one file and normalizes it to a Document.
func (l *Loader) loadFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	relPath, err := filepath.Rel(l.sourcesDir, path)
	if err != nil {
		relPath = path
	}

	doc := &Document{
		Path:     relPath,
		Category: categoryFromPath(relPath),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html":
		result, err := l.converter.Convert(content, relPath)
		if err != nil {
			return nil, err
		}
		doc.Title = result.Title
		doc.Markdown = result.Markdown
	default:
		doc.Markdown = strings.TrimSpace(string(content))
		doc.Title = extractMarkdownTitle(doc.Markdown)
	}

	if doc.Title == "" {
		doc.Title = titleFromFilename(relPath)
	}

	return doc, nil
}

// categoryFromPath derives the category from the first path segment.
func categoryFromPath(relPath string) string {
	dir := filepath.Dir(relPath)
	if dir == "." || dir == "" {
		return "general"
	}
	parts := strings.Split(filepath.ToSlash(dir), "/")
	return parts[0]
}

// titleFromFilename turns "dress-code.md" into "Dress Code".
func titleFromFilename(relPath string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	words := strings.Fields(base)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
