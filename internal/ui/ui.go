package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/weathertunes/internal/shared"
	"github.com/desertthunder/weathertunes/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	ContextView
	ConfirmView
	AssembleView
	ResultView
)

// Options seeds the TUI from command line flags.
type Options struct {
	Request   tasks.AssemblyRequest
	Context   tasks.ContextOptions
	OnExpired func() error // called when a session ends in [shared.ErrSessionExpired]
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	cancel       context.CancelFunc
	view         ViewState
	engine       *tasks.PlaylistEngine
	source       tasks.ContextSource
	onExpired    func() error
	base         tasks.AssemblyRequest
	opts         tasks.ContextOptions
	request      tasks.AssemblyRequest
	languages    []string
	language     int
	input        textinput.Model
	spinner      spinner.Model
	bar          progress.Model
	trackList    list.Model
	progressChan chan tasks.ProgressUpdate
	doneChan     chan Msg
	steps        []tasks.ProgressUpdate
	result       *tasks.SessionResult
	err          error
	warning      string
	width        int
	height       int
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
//
// source may be nil when no context API is configured; the request must then carry
// hints or genres.
func NewModel(ctx context.Context, engine *tasks.PlaylistEngine, source tasks.ContextSource, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "Seattle, WA"
	ti.CharLimit = 100
	ti.Width = 40
	ti.SetValue(opts.Context.Location)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.accent

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	languages := tasks.SupportedLanguages()
	language := 0
	for i, l := range languages {
		if strings.EqualFold(l, opts.Request.Language) {
			language = i
		}
	}

	return &Model{
		ctx:       ctx,
		view:      InputView,
		engine:    engine,
		source:    source,
		onExpired: opts.OnExpired,
		base:      opts.Request,
		opts:      opts.Context,
		languages: languages,
		language:  language,
		input:     ti,
		spinner:   sp,
		bar:       bar,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init skips the input view when flags already describe a complete request.
func (m *Model) Init() tea.Cmd {
	switch {
	case m.opts.Location != "":
		return m.resolve()
	case m.ready(m.base) && !m.opts.AIHints:
		m.request = m.base
		m.view = ConfirmView
		return nil
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(20, min(msg.Width-20, 80))
		if m.view == ResultView {
			m.trackList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case ContextView, AssembleView:
			return m.handleBusyKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		if m.view != ContextView && m.view != AssembleView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateComponents(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgContextResolved:
		data := msg.data.(contextResolved)
		if data.err != nil {
			m.finish(nil, data.err)
			return m, nil
		}
		m.stop()
		m.request = data.request
		m.view = ConfirmView
		return m, nil

	case MsgProgressUpdate:
		update := msg.data.(tasks.ProgressUpdate)
		m.record(update)

		cmds := []tea.Cmd{m.waitForProgress()}
		if update.Phase == tasks.AddingTracks && update.Total > 0 {
			cmds = append(cmds, m.bar.SetPercent(float64(update.Step)/float64(update.Total)))
		}
		return m, tea.Batch(cmds...)

	case MsgAssemblyComplete:
		data := msg.data.(assemblyComplete)
		m.progressChan = nil
		m.doneChan = nil
		m.finish(data.result, data.err)
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("WeatherTunes"))
	b.WriteString("\n")

	switch m.view {
	case InputView:
		b.WriteString(m.renderInput())
	case ContextView:
		b.WriteString(m.renderContext())
	case ConfirmView:
		b.WriteString(m.renderConfirm())
	case AssembleView:
		b.WriteString(m.renderAssemble())
	case ResultView:
		b.WriteString(m.renderResult())
	}
	return b.String()
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "ctrl+c" || key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.language):
		m.language = (m.language + 1) % len(m.languages)
		return m, nil
	case key.Matches(msg, m.keys.dryRun):
		m.base.DryRun = !m.base.DryRun
		return m, nil
	case key.Matches(msg, m.keys.aiHints):
		m.opts.AIHints = !m.opts.AIHints
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.opts.Location = strings.TrimSpace(m.input.Value())
		m.base.Language = m.languages[m.language]
		if m.opts.Location == "" && !m.ready(m.base) {
			m.warning = "Enter a location to continue"
			return m, nil
		}
		m.warning = ""
		return m, m.resolve()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleBusyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.stop()
		return m, tea.Quit
	case "esc":
		m.stop()
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		return m, m.startAssembly()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = InputView
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.restart):
			m.reset()
			return m, textinput.Blink
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.input, cmd = m.input.Update(msg)
	case ResultView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

// ready reports whether req can be assembled without the context API.
func (m *Model) ready(req tasks.AssemblyRequest) bool {
	return req.Validate() == nil
}

func (m *Model) resolve() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.view = ContextView

	req, opts, source := m.base, m.opts, m.source
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		err := tasks.ResolveContext(ctx, source, &req, opts)
		return contextResolvedMsg(req, err)
	})
}

func (m *Model) startAssembly() tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.view = AssembleView
	m.steps = nil
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.doneChan = make(chan Msg, 1)

	progressChan, doneChan := m.progressChan, m.doneChan
	engine, req := m.engine, m.request
	go func() {
		result, err := engine.Run(ctx, req, progressChan)
		doneChan <- assemblyCompleteMsg(result, err)
		close(progressChan)
	}()

	return tea.Batch(m.spinner.Tick, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, doneChan := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progressChan == nil {
			return assemblyCompleteMsg(m.result, m.err)
		}

		update, ok := <-progressChan
		if !ok {
			return <-doneChan
		}
		return progressUpdateMsg(update)
	}
}

// record keeps the latest update for each phase, in the order phases were reached.
func (m *Model) record(update tasks.ProgressUpdate) {
	if n := len(m.steps); n > 0 && m.steps[n-1].Phase == update.Phase {
		m.steps[n-1] = update
		return
	}
	m.steps = append(m.steps, update)
}

func (m *Model) finish(result *tasks.SessionResult, err error) {
	m.result = result
	m.err = err
	m.view = ResultView
	m.stop()

	if errors.Is(err, shared.ErrSessionExpired) && m.onExpired != nil {
		if cerr := m.onExpired(); cerr != nil {
			m.warning = fmt.Sprintf("failed to clear credentials: %v", cerr)
		}
	}

	var items []list.Item
	if result != nil {
		items = trackItems(result.Ranked)
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = "Tracks"
	m.trackList.SetShowHelp(false)
	m.trackList.SetSize(max(m.width-4, 40), max(m.height-10, 10))
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Model) reset() {
	m.view = InputView
	m.request = tasks.AssemblyRequest{}
	m.result = nil
	m.err = nil
	m.warning = ""
	m.steps = nil
	m.input.Focus()
}

func (m *Model) renderInput() string {
	var b strings.Builder

	b.WriteString(styles.accent.Render("Where are you listening?"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  Language: %s\n", styles.ok.Render(tasks.LanguageName(m.languages[m.language])))
	fmt.Fprintf(&b, "  %s AI song hints\n", checkbox(m.opts.AIHints))
	fmt.Fprintf(&b, "  %s Dry run (preview only)\n", checkbox(m.base.DryRun))

	if m.warning != "" {
		b.WriteString("\n" + styles.warn.Render(m.warning) + "\n")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.language, m.keys.aiHints, m.keys.dryRun, m.keys.back}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderContext() string {
	location := m.opts.Location
	if location == "" {
		location = "your request"
	}
	return fmt.Sprintf("%s Checking the weather for %s...\n\n%s",
		m.spinner.View(), location, styles.help.Render("esc to cancel"))
}

func (m *Model) renderConfirm() string {
	req := m.request
	var b strings.Builder

	if req.Weather.Location != "" {
		fmt.Fprintf(&b, "Weather: %s in %s\n", req.Weather.Condition, req.Weather.Location)
	}
	if req.Mood.Type != "" {
		fmt.Fprintf(&b, "Mood: %s %s\n", tasks.MoodEmoji(req.Mood.Type), req.Mood.Type)
	}
	if req.Mood.Suggestion != "" {
		fmt.Fprintf(&b, "%s\n", styles.help.Render(req.Mood.Suggestion))
	}
	if len(req.Mood.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n", strings.Join(req.Mood.Genres, ", "))
	}
	fmt.Fprintf(&b, "Song hints: %d\n", len(req.Hints))
	fmt.Fprintf(&b, "Language: %s\n", tasks.LanguageName(req.Language))
	if req.DryRun {
		b.WriteString(styles.warn.Render("Dry run: no playlist will be created") + "\n")
	}

	name := req.Name
	if name == "" {
		name = tasks.PlaylistName(req.Weather, req.Mood, req.Language)
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s",
		styles.accent.Render(fmt.Sprintf("Build %q?", name)),
		styles.box.Render(strings.TrimRight(b.String(), "\n")),
		m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderAssemble() string {
	var b strings.Builder

	for i, step := range m.steps {
		marker := styles.ok.Render("✓")
		if i == len(m.steps)-1 {
			marker = m.spinner.View()
		}
		fmt.Fprintf(&b, "%s %s\n", marker, step.Message)
	}
	if len(m.steps) == 0 {
		fmt.Fprintf(&b, "%s Starting...\n", m.spinner.View())
	}

	if n := len(m.steps); n > 0 && m.steps[n-1].Phase == tasks.AddingTracks {
		b.WriteString("\n" + m.bar.View() + "\n")
	}

	b.WriteString("\n" + styles.help.Render("esc to cancel"))
	return b.String()
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil {
		msg := fmt.Sprintf("Failed (%s): %v", tasks.FailureReason(m.err), m.err)
		if errors.Is(m.err, shared.ErrSessionExpired) {
			msg += "\n\nRun `wtunes auth login` to sign in again."
		}
		if m.warning != "" {
			msg += "\n" + styles.warn.Render(m.warning)
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(msg), helpView)
	}

	if m.result == nil {
		return fmt.Sprintf("%s\n\n%s", styles.err.Render("No result available"), helpView)
	}

	var title string
	if m.result.Playlist != nil {
		title = styles.ok.Render(fmt.Sprintf("✓ Created %s", m.result.Playlist.Name))
		title += "\n" + styles.accent.Render(m.result.Playlist.URL)
	} else {
		title = styles.ok.Render(fmt.Sprintf("Preview of %s", m.result.Name))
	}

	summary := fmt.Sprintf("%d tracks • %d from hints • %d from genres",
		m.result.Ranked.Len(), m.result.Collected, m.result.Supplemental)

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", title, styles.help.Render(summary), m.trackList.View(), helpView)
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}
