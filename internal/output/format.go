// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"taskboard/internal/service"
)

// Format selects how task lists are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// record is the machine-readable shape of a task.
type record struct {
	ID          int64  `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	VideoURL    string `json:"video_url,omitempty" yaml:"video_url,omitempty"`
}

func toRecord(t service.Task) record {
	return record{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		ImageURL:    t.ImageURL,
		VideoURL:    t.VideoURL,
	}
}

// WriteTasks prints tasks in the given format. Text output of an empty
// list prints nothing; JSON and YAML print an empty list.
func WriteTasks(w io.Writer, tasks []service.Task, f Format) error {
	switch f {
	case FormatJSON:
		records := make([]record, 0, len(tasks))
		for _, t := range tasks {
			records = append(records, toRecord(t))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case FormatYAML:
		records := make([]record, 0, len(tasks))
		for _, t := range tasks {
			records = append(records, toRecord(t))
		}
		return WriteYAML(w, records)
	default:
		for _, t := range tasks {
			FormatTask(w, t)
		}
		return nil
	}
}

// WriteYAML encodes v as YAML with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// FormatTask formats one task for text output.
// Format: "{ID:>4}  {TITLE}\n" followed by the description and any
// attachments, each indented by six spaces.
func FormatTask(w io.Writer, task service.Task) {
	fmt.Fprintf(w, "%4d  %s\n", task.ID, normalizeTitle(task.Title))
	if desc := normalizeText(task.Description); desc != "" {
		fmt.Fprintf(w, "      %s\n", desc)
	}
	if task.ImageURL != "" {
		fmt.Fprintf(w, "      image: %s\n", task.ImageURL)
	}
	if task.VideoURL != "" {
		fmt.Fprintf(w, "      video: %s\n", task.VideoURL)
	}
}

// FormatEvent formats a change event line: "{TIME}  {ACTION}  {SUBJECT}".
func FormatEvent(w io.Writer, at time.Time, action string, taskID int64, subject string) {
	ref := "-"
	if taskID != 0 {
		ref = fmt.Sprintf("#%d", taskID)
	}
	fmt.Fprintf(w, "%s  %-8s  %-6s  %s\n", at.UTC().Format(time.RFC3339), action, ref, normalizeText(subject))
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = normalizeText(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
