// Package ledger maintains the rolling evaluation report: newest evaluation entries
// first, followed by a log of error lines, both trimmed to fixed maximums.
//
// The file is rewritten on every append via a temp file and rename so a crash never
// leaves a half-written report behind.
package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rewired-gh/dltcheck/internal/logger"
	"github.com/rewired-gh/dltcheck/internal/models"
	"github.com/rewired-gh/dltcheck/internal/textenc"
)

const (
	entriesMarker = "==== 评估记录 ===="
	errorsMarker  = "==== 错误日志 ===="
	timeLayout    = "2006-01-02 15:04:05"

	// DefaultMaxEntries is how many evaluation entries are kept.
	DefaultMaxEntries = 10
	// DefaultMaxErrors is how many error lines are kept.
	DefaultMaxErrors = 20
)

// separator sits on its own line between entries.
var separator = strings.Repeat("=", 20)

// Writer receives evaluation results and run errors.
type Writer interface {
	AppendEvaluation(e *models.Evaluation) error
	AppendError(msg string) error
}

// Document is the parsed content of the report, newest first.
type Document struct {
	Entries []string
	Errors  []string
}

// Ledger is the file-backed Writer.
type Ledger struct {
	path            string
	maxEntries      int
	maxErrors       int
	filePermissions os.FileMode
	dirPermissions  os.FileMode
	now             func() time.Time
	mu              sync.Mutex
}

// New creates a Ledger. Non-positive limits fall back to the defaults.
func New(path string, maxEntries, maxErrors int) *Ledger {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxErrors <= 0 {
		maxErrors = DefaultMaxErrors
	}
	return &Ledger{
		path:            path,
		maxEntries:      maxEntries,
		maxErrors:       maxErrors,
		filePermissions: 0o644,
		dirPermissions:  0o755,
		now:             time.Now,
	}
}

// AppendEvaluation prepends a formatted evaluation entry.
func (l *Ledger) AppendEvaluation(e *models.Evaluation) error {
	entry := FormatEvaluation(e)
	return l.update(func(doc *Document) {
		doc.Entries = append([]string{entry}, doc.Entries...)
	})
}

// AppendError prepends a timestamped error line. Newlines are flattened so the
// error section stays one line per error.
func (l *Ledger) AppendError(msg string) error {
	line := fmt.Sprintf("[%s] %s", l.now().Format(timeLayout), flatten(msg))
	return l.update(func(doc *Document) {
		doc.Errors = append([]string{line}, doc.Errors...)
	})
}

// Read loads the current document. A missing file is an empty document.
func (l *Ledger) Read() (Document, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

func (l *Ledger) read() (Document, error) {
	if _, err := os.Stat(l.path); errors.Is(err, os.ErrNotExist) {
		return Document{}, nil
	}
	content, err := textenc.ReadFile(l.path, nil)
	if err != nil {
		return Document{}, err
	}
	return ParseDocument(content), nil
}

func (l *Ledger) update(mutate func(doc *Document)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.read()
	if err != nil {
		// An unreadable report is replaced rather than blocking every future run.
		logger.Warn("Discarding unreadable report %s: %v", l.path, err)
		doc = Document{}
	}
	mutate(&doc)
	doc.Trim(l.maxEntries, l.maxErrors)
	return l.write(doc.Render())
}

func (l *Ledger) write(content string) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, l.dirPermissions); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tempPath := l.path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(content), l.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tempPath, l.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// ParseDocument splits report content into entries and error lines.
func ParseDocument(content string) Document {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	normal, errPart, _ := strings.Cut(content, errorsMarker)
	normal = strings.Replace(normal, entriesMarker, "", 1)

	var doc Document
	for _, block := range strings.Split(normal, "\n"+separator+"\n") {
		if block = strings.TrimSpace(block); block != "" {
			doc.Entries = append(doc.Entries, block)
		}
	}
	for _, line := range strings.Split(errPart, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			doc.Errors = append(doc.Errors, line)
		}
	}
	return doc
}

// Trim drops everything beyond the newest maxEntries entries and maxErrors errors.
func (d *Document) Trim(maxEntries, maxErrors int) {
	if len(d.Entries) > maxEntries {
		d.Entries = d.Entries[:maxEntries]
	}
	if len(d.Errors) > maxErrors {
		d.Errors = d.Errors[:maxErrors]
	}
}

// Render produces the file content.
func (d Document) Render() string {
	var b strings.Builder
	b.WriteString(entriesMarker + "\n")
	b.WriteString(strings.Join(d.Entries, "\n"+separator+"\n"))
	b.WriteString("\n\n" + errorsMarker + "\n")
	b.WriteString(strings.Join(d.Errors, "\n"))
	return b.String()
}

func flatten(msg string) string {
	lines := strings.Split(strings.TrimSpace(msg), "\n")
	parts := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " | ")
}
