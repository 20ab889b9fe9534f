package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/persona"
	"github.com/lorenzotomasdiez/debate-coach/internal/debate/reply"
)

const (
	maxSlugLen     = 50
	transcriptFile = "transcript.json"
	reportFile     = "report.md"
	logFile        = "session.log"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Export is the on-disk form of a finished session.
type Export struct {
	SessionID    string        `json:"session_id"`
	Topic        string        `json:"topic"`
	Mode         persona.Mode  `json:"mode"`
	AverageScore float64       `json:"average_score"`
	ExportedAt   time.Time     `json:"exported_at"`
	Turns        []debate.Turn `json:"turns"`
}

// NewExport captures a snapshot and its average score.
func NewExport(snap debate.Snapshot, average float64) *Export {
	return &Export{
		SessionID:    snap.ID,
		Topic:        snap.Topic,
		Mode:         snap.Mode,
		AverageScore: average,
		ExportedAt:   time.Now().UTC(),
		Turns:        snap.Turns,
	}
}

// GenerateSlug turns a topic into a lowercase, dash-separated name of at
// most 50 characters.
func GenerateSlug(topic string) string {
	slug := nonSlugChars.ReplaceAllString(strings.ToLower(topic), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "session"
	}
	return slug
}

// CreateOutputDir creates base/<slug>-<YYYYMMDD-HHMMSS>.
func CreateOutputDir(base, slug string) (string, error) {
	dir := filepath.Join(base, fmt.Sprintf("%s-%s", slug, time.Now().Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("output: creating %s: %w", dir, err)
	}
	return dir, nil
}

// Writer writes session artifacts into one directory.
type Writer struct {
	dir     string
	mu      sync.Mutex
	entries []string
}

// NewWriter creates a Writer for dir. The directory must exist.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Log records a timestamped line and appends it to session.log right away.
func (w *Writer) Log(msg string) {
	line := fmt.Sprintf("%s %s\n", time.Now().Format(time.RFC3339), msg)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, line)

	f, err := os.OpenFile(filepath.Join(w.dir, logFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	f.WriteString(line)
}

// WriteLog rewrites session.log from every entry logged so far.
func (w *Writer) WriteLog() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	data := strings.Join(w.entries, "")
	if err := os.WriteFile(filepath.Join(w.dir, logFile), []byte(data), 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", logFile, err)
	}
	return nil
}

// WriteJSON writes transcript.json.
func (w *Writer) WriteJSON(e *Export) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, transcriptFile), data, 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", transcriptFile, err)
	}
	return nil
}

// WriteMarkdown writes report.md.
func (w *Writer) WriteMarkdown(e *Export) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Debate: %s\n\n", e.Topic)
	fmt.Fprintf(&sb, "- **Session:** %s\n", e.SessionID)
	fmt.Fprintf(&sb, "- **Mode:** %s\n", e.Mode)
	fmt.Fprintf(&sb, "- **Average Score:** %.1f/10\n\n", e.AverageScore)
	sb.WriteString("## Transcript\n\n")

	exchange := 0
	for _, turn := range e.Turns {
		switch turn.Role {
		case debate.RoleSystem:
			fmt.Fprintf(&sb, "> %s\n\n", turn.Text)
		case debate.RoleUser:
			exchange++
			fmt.Fprintf(&sb, "### Exchange %d\n\n**You:** %s\n\n", exchange, turn.Text)
		case debate.RoleAssistant:
			fmt.Fprintf(&sb, "**%s:**\n\n%s\n\n", Speaker(turn.Role, e.Mode), turn.Text)
			if p := reply.Parse(turn.Text); p.HasScore() {
				fmt.Fprintf(&sb, "_Score: %g/10_\n\n", *p.Score)
			}
		}
	}

	if err := os.WriteFile(filepath.Join(w.dir, reportFile), []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("output: writing %s: %w", reportFile, err)
	}
	return nil
}

// ExportSession writes all artifacts for snap under a new directory in base
// and returns that directory.
func ExportSession(base string, snap debate.Snapshot, average float64) (string, error) {
	dir, err := CreateOutputDir(base, GenerateSlug(snap.Topic))
	if err != nil {
		return "", err
	}
	w := NewWriter(dir)
	export := NewExport(snap, average)

	w.Log(fmt.Sprintf("session %s exported: topic=%q mode=%s turns=%d average=%.1f",
		export.SessionID, export.Topic, export.Mode, len(export.Turns), export.AverageScore))
	for i, turn := range export.Turns {
		w.Log(fmt.Sprintf("turn %d %s: %d chars", i, turn.Role, len(turn.Text)))
	}

	if err := w.WriteJSON(export); err != nil {
		return "", err
	}
	if err := w.WriteMarkdown(export); err != nil {
		return "", err
	}
	if err := w.WriteLog(); err != nil {
		return "", err
	}
	return dir, nil
}
