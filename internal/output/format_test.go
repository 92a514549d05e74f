package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"taskboard/internal/service"
	"taskboard/internal/testutil"
)

func sampleTasks() []service.Task {
	return []service.Task{
		{
			ID:          12,
			Title:       "Walk the dog",
			Description: "around the\npark",
			CreatedAt:   time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC),
			VideoURL:    "https://example.com/videos/1.mp4",
		},
		{
			ID:          3,
			Title:       "Buy milk",
			Description: "2%",
			CreatedAt:   time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC),
			ImageURL:    "https://example.com/images/1.png",
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteTasks_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTasks(&buf, sampleTasks(), FormatText); err != nil {
		t.Fatal(err)
	}
	testutil.Golden(t, "tasks_text", buf.Bytes())
}

func TestWriteTasks_YAML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTasks(&buf, sampleTasks(), FormatYAML); err != nil {
		t.Fatal(err)
	}
	testutil.Golden(t, "tasks_yaml", buf.Bytes())
}

func TestWriteTasks_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTasks(&buf, sampleTasks(), FormatJSON); err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if len(got) != 2 || got[0]["id"] != float64(12) || got[0]["created_at"] != "2025-01-02T10:00:00Z" {
		t.Errorf("unexpected json: %v", got)
	}
	if _, ok := got[0]["image_url"]; ok {
		t.Error("expected empty image_url omitted")
	}
}

func TestWriteTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	_ = WriteTasks(&buf, nil, FormatText)
	if buf.Len() != 0 {
		t.Errorf("expected no text output, got %q", buf.String())
	}

	buf.Reset()
	_ = WriteTasks(&buf, nil, FormatJSON)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty json list, got %q", buf.String())
	}

	buf.Reset()
	_ = WriteTasks(&buf, nil, FormatYAML)
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("expected empty yaml list, got %q", buf.String())
	}
}

func TestFormatTask_Untitled(t *testing.T) {
	var buf bytes.Buffer
	FormatTask(&buf, service.Task{ID: 5, Title: " \n ", Description: "d"})
	if want := "   5  (untitled)\n      d\n"; buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatEvent(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)
	FormatEvent(&buf, at, "created", 7, "Buy milk")
	FormatEvent(&buf, at, "uploaded", 0, "images/1.png")
	want := "2025-01-02T10:00:00Z  created   #7      Buy milk\n" +
		"2025-01-02T10:00:00Z  uploaded  -       images/1.png\n"
	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}
}
