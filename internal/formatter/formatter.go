// package formatter renders assembled playlists to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
)

// Format names an output format accepted by --format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{Text, Markdown, CSV, JSON}
}

// ParseFormat resolves a format name. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q (expected text, markdown, csv or json)", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case CSV:
		return ".csv"
	case JSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Render converts result to the given format.
func Render(result *tasks.SessionResult, f Format) ([]byte, error) {
	switch f {
	case Markdown:
		return ExportToMarkdown(result)
	case CSV:
		return ExportToCSV(result)
	case JSON:
		return shared.MarshalJSON(result, true)
	default:
		return ExportToText(result)
	}
}

// ExportToCSV converts ranked tracks to CSV with columns: Position, Title, Artist, Popularity, URI, Source
func ExportToCSV(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artist", "Popularity", "URI", "Source"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range result.Ranked.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Name,
			track.Artist,
			strconv.Itoa(track.Popularity),
			track.URI,
			source(track.HintDistance),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a session result to Markdown with a link to the created playlist
func ExportToMarkdown(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", result.Name)

	if result.Description != "" {
		fmt.Fprintf(&buf, "**Description**: %s\n\n", result.Description)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n", result.Ranked.Len())
	fmt.Fprintf(&buf, "**Status**: %s\n", result.State)
	if result.Playlist != nil && result.Playlist.URL != "" {
		fmt.Fprintf(&buf, "**Spotify**: [%s](%s)\n", result.Playlist.Name, result.Playlist.URL)
	}

	buf.WriteString("\n## Tracks\n\n")
	for i, track := range result.Ranked.Tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%d]\n", i+1, track.Artist, track.Name, track.Popularity)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a session result to plain text format
func ExportToText(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", result.Name)
	if result.Description != "" {
		fmt.Fprintf(&buf, "Description: %s\n", result.Description)
	}
	if result.Playlist != nil && result.Playlist.URL != "" {
		fmt.Fprintf(&buf, "URL: %s\n", result.Playlist.URL)
	}
	fmt.Fprintf(&buf, "Tracks: %d (%d from hints, %d from genres)\n\n", result.Ranked.Len(), result.Collected, result.Supplemental)

	for i, track := range result.Ranked.Tracks {
		fmt.Fprintf(&buf, "%2d. %s - %s\n", i+1, track.Artist, track.Name)
	}

	return buf.Bytes(), nil
}

// WriteExport renders result and writes it to path.
//
// Defaults to {session id}{ext} as the filename.
func WriteExport(result *tasks.SessionResult, f Format, path string) (string, error) {
	if path == "" {
		path = result.SessionID + f.Extension()
	}

	data, err := Render(result, f)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

func source(hintDistance int) string {
	if hintDistance < 0 {
		return "genre"
	}
	return "hint"
}
