package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/desertthunder/weathertunes/internal/formatter"
	"github.com/desertthunder/weathertunes/internal/models"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
	"github.com/urfave/cli/v3"
)

// parseHint splits an "Artist - Title" hint on the first separator.
func parseHint(s string) (models.SongHint, error) {
	artist, title, ok := strings.Cut(s, " - ")
	artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
	if !ok || artist == "" || title == "" {
		return models.SongHint{}, fmt.Errorf("%w: hint %q must look like \"Artist - Title\"", shared.ErrInvalidFlag, s)
	}
	return models.SongHint{Artist: artist, Title: title}, nil
}

// readHints parses a hints file, skipping blank lines and # comments.
func readHints(path string) ([]models.SongHint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hints file: %w", err)
	}
	defer f.Close()

	var hints []models.SongHint
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		hint, err := parseHint(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		hints = append(hints, hint)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hints file: %w", err)
	}
	return hints, nil
}

// requestFromFlags builds the assembly request and context options described by [requestFlags].
func requestFromFlags(cmd *cli.Command) (tasks.AssemblyRequest, tasks.ContextOptions, error) {
	var hints []models.SongHint
	for _, raw := range cmd.StringSlice("hint") {
		hint, err := parseHint(raw)
		if err != nil {
			return tasks.AssemblyRequest{}, tasks.ContextOptions{}, err
		}
		hints = append(hints, hint)
	}
	if path := cmd.String("hints-file"); path != "" {
		fileHints, err := readHints(path)
		if err != nil {
			return tasks.AssemblyRequest{}, tasks.ContextOptions{}, err
		}
		hints = append(hints, fileHints...)
	}

	var genres []string
	for _, g := range cmd.StringSlice("genre") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}

	req := tasks.AssemblyRequest{
		Hints: hints,
		Mood: models.MoodContext{
			Type:       strings.TrimSpace(cmd.String("mood")),
			Suggestion: cmd.String("suggestion"),
			Genres:     genres,
		},
		Weather: models.WeatherContext{
			Location:  cmd.String("location"),
			Condition: cmd.String("condition"),
		},
		Language:    strings.ToLower(strings.TrimSpace(cmd.String("language"))),
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		DryRun:      cmd.Bool("dry-run"),
	}

	opts := tasks.ContextOptions{
		Location:  strings.TrimSpace(cmd.String("location")),
		Activity:  cmd.String("activity"),
		Discovery: cmd.Int("discovery"),
		AIHints:   cmd.Bool("ai"),
	}
	if opts.Discovery < 0 || opts.Discovery > 100 {
		return req, opts, fmt.Errorf("%w: --discovery must be between 0 and 100", shared.ErrInvalidFlag)
	}

	return req, opts, nil
}

// PlaylistCreate runs one assembly session and renders the result.
func (r *Runner) PlaylistCreate(ctx context.Context, cmd *cli.Command) error {
	req, opts, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if req.Language != "" && !slices.Contains(tasks.SupportedLanguages(), req.Language) {
		r.logger.Warn("unsupported language, searching without a language term", "language", req.Language)
	}

	if err := tasks.ResolveContext(ctx, r.context, &req, opts); err != nil {
		return r.sessionFailed(nil, err)
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase)
		}
	}()

	result, err := r.engine.Run(ctx, req, progress)
	close(progress)
	<-done

	if err != nil {
		return r.sessionFailed(result, err)
	}

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		written, err := formatter.WriteExport(result, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("result saved", "file", written, "format", format)
		return r.writePlain("✓ %s saved to %s\n", summary(result), written)
	}

	data, err := formatter.Render(result, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// sessionFailed reports a failed session, clearing credentials when the session expired.
func (r *Runner) sessionFailed(result *tasks.SessionResult, err error) error {
	if result != nil {
		r.logger.Error("session failed", "session", result.SessionID, "state", result.State, "reason", result.Reason)
	}

	if errors.Is(err, shared.ErrSessionExpired) {
		if cerr := r.clearCredentials(); cerr != nil {
			r.logger.Warn("failed to clear credentials", "error", cerr)
		}
		if werr := r.writePlain("✗ Your Spotify session has expired. Run `wtunes auth login` to sign in again.\n"); werr != nil {
			r.logger.Warn("failed to write session notice", "error", werr)
		}
	}
	return err
}

func summary(result *tasks.SessionResult) string {
	if result.Playlist != nil {
		return fmt.Sprintf("Created %q with %d tracks", result.Playlist.Name, result.Playlist.TrackCount)
	}
	return fmt.Sprintf("Preview of %q with %d tracks", result.Name, result.Ranked.Len())
}

// PlaylistLanguages lists the languages with a search term.
func (r *Runner) PlaylistLanguages(ctx context.Context, cmd *cli.Command) error {
	languages := tasks.SupportedLanguages()

	if cmd.Bool("json") {
		type language struct {
			Key  string `json:"key"`
			Name string `json:"name"`
			Term string `json:"term"`
		}
		out := make([]language, 0, len(languages))
		for _, l := range languages {
			out = append(out, language{Key: l, Name: tasks.LanguageName(l), Term: tasks.LanguageTerm(l)})
		}
		return r.writeJSON(out, true)
	}

	for _, l := range languages {
		term := tasks.LanguageTerm(l)
		if term == "" {
			term = "(none)"
		}
		r.writePlain("%-12s %-12s %s\n", l, tasks.LanguageName(l), term)
	}
	return nil
}
