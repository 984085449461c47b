// Package stepapp hosts the interactive Bubble Tea view of a provisioning
// run. It wires the steps.Manager, an observer, and a password prompt
// behind a small lifecycle API so the command can embed it.
package stepapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/BrianJOC/workstation-bootstrap/steps"
)

var (
	// ErrNoSteps indicates the selection is empty.
	ErrNoSteps = errors.New("stepapp: at least one step must be selected")
	// ErrProgramRunning reports that Start was invoked while the program is already running.
	ErrProgramRunning = errors.New("stepapp: program already running")
)

// Config controls how an App should be assembled.
type Config struct {
	Registry       *steps.Registry
	Selection      steps.Selection
	Env            *steps.Env
	ManagerOptions []steps.ManagerOption
	ProgramOptions []tea.ProgramOption
	// ExitOnFinish quits the program as soon as the run ends instead of
	// waiting for the operator.
	ExitOnFinish bool
}

// Option mutates Config during construction.
type Option func(*Config)

// WithRun sets the registry, selection and environment to execute.
func WithRun(reg *steps.Registry, sel steps.Selection, env *steps.Env) Option {
	return func(cfg *Config) {
		cfg.Registry = reg
		cfg.Selection = sel
		cfg.Env = env
	}
}

// WithManagerOptions appends custom manager options.
func WithManagerOptions(opts ...steps.ManagerOption) Option {
	return func(cfg *Config) {
		cfg.ManagerOptions = append(cfg.ManagerOptions, opts...)
	}
}

// WithProgramOptions appends tea.Program options.
func WithProgramOptions(opts ...tea.ProgramOption) Option {
	return func(cfg *Config) {
		cfg.ProgramOptions = append(cfg.ProgramOptions, opts...)
	}
}

// WithExitOnFinish closes the view once the run ends.
func WithExitOnFinish() Option {
	return func(cfg *Config) {
		cfg.ExitOnFinish = true
	}
}

// App hosts the Bubble Tea-driven step runner.
type App struct {
	cfg      Config
	mu       sync.Mutex
	program  *tea.Program
	inFlight bool
}

// New constructs an App from the provided options.
func New(opts ...Option) (*App, error) {
	cfg := Config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Registry == nil || cfg.Selection.Len() == 0 {
		return nil, ErrNoSteps
	}
	if cfg.Env == nil {
		return nil, steps.ValidationError{Reason: "execution environment is required"}
	}
	return &App{cfg: cfg}, nil
}

// Start runs the selection inside the TUI and blocks until the operator
// quits. It returns the manager's report and run error.
func (a *App) Start(ctx context.Context) (steps.Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newModel(a.cfg, runCtx, cancel)
	program := tea.NewProgram(m, a.cfg.ProgramOptions...)

	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return steps.Report{}, ErrProgramRunning
	}
	a.program = program
	a.inFlight = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.program = nil
		a.inFlight = false
		a.mu.Unlock()
	}()

	final, runErr := program.Run()
	if runErr != nil {
		return steps.Report{}, runErr
	}
	fm, ok := final.(*model)
	if !ok {
		return steps.Report{}, nil
	}
	if !fm.finished {
		return fm.report, fmt.Errorf("run interrupted: %w", context.Canceled)
	}
	return fm.report, fm.done
}

// Stop signals the running TUI program (if any) to exit.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.program == nil {
		return nil
	}
	a.program.Quit()
	return nil
}

type stepStatus int

const (
	statusPending stepStatus = iota
	statusRunning
	statusSkipped
	statusApplied
	statusWarned
	statusFailed
)

func (s stepStatus) String() string {
	switch s {
	case statusPending:
		return "pending"
	case statusRunning:
		return "running"
	case statusSkipped:
		return "skipped"
	case statusApplied:
		return "applied"
	case statusWarned:
		return "warned"
	case statusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func statusFromOutcome(o steps.Outcome) stepStatus {
	switch o {
	case steps.OutcomeSkipped:
		return statusSkipped
	case steps.OutcomeApplied:
		return statusApplied
	case steps.OutcomeWarned:
		return statusWarned
	case steps.OutcomeFailed:
		return statusFailed
	default:
		return statusPending
	}
}

type stepState struct {
	meta     steps.Metadata
	status   stepStatus
	err      error
	warnings []steps.Warning
	logs     []string
}

type model struct {
	manager      *steps.Manager
	env          *steps.Env
	selection    steps.Selection
	observer     *stepObserver
	inputHandler *bubbleInputHandler
	runCtx       context.Context
	cancel       context.CancelFunc

	states map[string]*stepState
	order  []string

	spinner spinner.Model

	prompt       textinput.Model
	activePrompt *inputRequestMsg
	secretValues map[string]struct{}

	selected     int
	helpVisible  bool
	running      bool
	finished     bool
	exitOnFinish bool

	report    steps.Report
	statusMsg string
	done      error

	width  int
	height int
}

func newModel(cfg Config, runCtx context.Context, cancel context.CancelFunc) *model {
	inputHandler := newBubbleInputHandler(runCtx)
	observer := newStepObserver(runCtx)

	managerOpts := append([]steps.ManagerOption{}, cfg.ManagerOptions...)
	managerOpts = append(managerOpts,
		steps.WithObserver(observer),
		steps.WithInputHandler(inputHandler),
	)

	states := make(map[string]*stepState, cfg.Selection.Len())
	order := make([]string, 0, cfg.Selection.Len())
	for _, id := range cfg.Selection.IDs {
		st, ok := cfg.Registry.Lookup(id)
		if !ok {
			continue
		}
		states[id] = &stepState{meta: st.Metadata(), status: statusPending}
		order = append(order, id)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.Placeholder = "enter value"
	ti.Blur()

	return &model{
		manager:      steps.NewManager(cfg.Registry, managerOpts...),
		env:          cfg.Env,
		selection:    cfg.Selection,
		observer:     observer,
		inputHandler: inputHandler,
		runCtx:       runCtx,
		cancel:       cancel,
		states:       states,
		order:        order,
		spinner:      sp,
		prompt:       ti,
		secretValues: make(map[string]struct{}),
		statusMsg:    "Starting…",
		exitOnFinish: cfg.ExitOnFinish,
	}
}

func (m *model) Init() tea.Cmd {
	m.running = true
	return tea.Batch(
		runManagerCmd(m.runCtx, m.manager, m.env, m.selection),
		waitStepEventCmd(m.observer),
		waitInputRequestCmd(m.inputHandler),
		m.spinner.Tick,
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		shrunk := (m.width > 0 && msg.Width < m.width) || (m.height > 0 && msg.Height < m.height)
		m.width = msg.Width
		m.height = msg.Height
		if shrunk {
			return m, tea.ClearScreen
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepStartedMsg:
		m.handleStarted(msg.meta)
		return m, waitStepEventCmd(m.observer)

	case stepWarnedMsg:
		m.handleWarned(msg.meta, msg.warning)
		return m, waitStepEventCmd(m.observer)

	case stepCompletedMsg:
		m.handleCompleted(msg.result)
		return m, waitStepEventCmd(m.observer)

	case inputRequestMsg:
		m.preparePrompt(msg)
		return m, nil

	case runFinishedMsg:
		m.running = false
		m.finished = true
		m.report = msg.report
		m.done = msg.err
		if msg.err != nil {
			m.setStatus(msg.err.Error())
		} else {
			m.setStatusf("Done: %d applied, %d skipped, %d warned",
				msg.report.Count(steps.OutcomeApplied), msg.report.Count(steps.OutcomeSkipped), msg.report.Count(steps.OutcomeWarned))
		}
		if m.exitOnFinish {
			return m, tea.Quit
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		m.cancel()
		return tea.Quit
	}
	if m.activePrompt != nil {
		switch msg.Type {
		case tea.KeyEnter:
			return m.submitPrompt()
		case tea.KeyEsc:
			return m.cancelPrompt()
		}
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return cmd
	}

	switch msg.Type {
	case tea.KeyUp:
		m.moveSelection(-1)
	case tea.KeyDown:
		m.moveSelection(1)
	case tea.KeyEsc:
		m.helpVisible = false
	case tea.KeyRunes:
		if len(msg.Runes) != 1 {
			return nil
		}
		switch msg.Runes[0] {
		case 'k':
			m.moveSelection(-1)
		case 'j':
			m.moveSelection(1)
		case 'c', 'C':
			m.copySelectedError()
		case '?':
			m.helpVisible = !m.helpVisible
		case 'q', 'Q':
			if m.running {
				m.setStatus("Run in progress; Ctrl+C aborts")
				return nil
			}
			return tea.Quit
		}
	}
	return nil
}

func (m *model) handleStarted(meta steps.Metadata) {
	if state, ok := m.states[meta.ID]; ok {
		state.status = statusRunning
		state.err = nil
		m.appendLog(state, "started")
		m.selected = m.indexOf(meta.ID)
	}
	m.setStatusf("Running %s", meta.Title)
}

func (m *model) handleWarned(meta steps.Metadata, w steps.Warning) {
	if state, ok := m.states[meta.ID]; ok {
		state.warnings = append(state.warnings, w)
		m.appendLog(state, "warning: "+w.String())
	}
}

func (m *model) handleCompleted(res steps.Result) {
	state, ok := m.states[res.Meta.ID]
	if !ok {
		return
	}
	state.status = statusFromOutcome(res.Outcome)
	state.err = res.Err
	if res.Err != nil {
		m.appendLog(state, fmt.Sprintf("failed: %v", res.Err))
		m.setStatusf("%s failed: %v", res.Meta.Title, res.Err)
		return
	}
	m.appendLog(state, res.Outcome.String())
	m.setStatusf("%s %s", res.Meta.Title, res.Outcome)
}

func (m *model) preparePrompt(msg inputRequestMsg) {
	msg.reason = sanitizeInputReason(msg.input, msg.reason)
	m.activePrompt = &msg
	m.helpVisible = false

	m.prompt.EchoMode = textinput.EchoNormal
	if msg.input.Secret {
		m.prompt.EchoMode = textinput.EchoPassword
		m.prompt.EchoCharacter = '•'
	}
	m.prompt.Placeholder = msg.input.Label
	m.prompt.SetValue("")
	m.prompt.Focus()
	m.setStatusf("%s needs %s", msg.meta.Title, msg.input.Label)
}

func (m *model) submitPrompt() tea.Cmd {
	value := strings.TrimSpace(m.prompt.Value())
	if value == "" && m.activePrompt.input.Required {
		m.setStatus("Input required")
		return nil
	}
	if m.activePrompt.input.Secret {
		m.trackSecretValue(value)
	}
	m.resetPrompt()
	m.inputHandler.respond(value, nil)
	m.setStatus("Input submitted")
	return waitInputRequestCmd(m.inputHandler)
}

func (m *model) cancelPrompt() tea.Cmd {
	m.resetPrompt()
	m.inputHandler.respond("", errors.New("input cancelled"))
	m.setStatus("Input cancelled")
	return waitInputRequestCmd(m.inputHandler)
}

func (m *model) resetPrompt() {
	m.activePrompt = nil
	m.prompt.SetValue("")
	m.prompt.EchoMode = textinput.EchoNormal
	m.prompt.Blur()
}

func (m *model) copySelectedError() {
	state := m.currentState()
	if state == nil || state.err == nil {
		m.setStatus("No error to copy")
		return
	}
	if err := clipboard.WriteAll(m.redactSecrets(state.err.Error())); err != nil {
		m.setStatus("Failed to copy error")
		return
	}
	m.setStatus("Error copied to clipboard")
}

func (m *model) moveSelection(delta int) {
	if len(m.order) == 0 {
		return
	}
	m.selected = (m.selected + delta) % len(m.order)
	if m.selected < 0 {
		m.selected += len(m.order)
	}
}

func (m *model) indexOf(id string) int {
	for i, candidate := range m.order {
		if candidate == id {
			return i
		}
	}
	return m.selected
}

func (m *model) currentState() *stepState {
	if len(m.order) == 0 || m.selected < 0 || m.selected >= len(m.order) {
		return nil
	}
	return m.states[m.order[m.selected]]
}

func (m *model) View() string {
	sections := []string{
		renderHeader(m.finishedCount(), len(m.order)),
		m.renderBody(),
	}
	if m.activePrompt != nil {
		sections = append(sections, m.renderPromptPanel())
	}
	sections = append(sections, statusBarStyle.Render(m.statusMsg))
	if m.helpVisible {
		sections = append(sections, renderHelp())
	} else {
		sections = append(sections, footerStyle.Render("↑/↓ or j/k move • c copy error • ? help • q quit • Ctrl+C abort"))
	}

	view := lipgloss.JoinVertical(lipgloss.Left, sections...)
	width := m.width
	if width <= 0 {
		width = lipgloss.Width(view)
	}
	height := lipgloss.Height(view)
	if m.height > height {
		height = m.height
	}
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, view)
}

func renderHeader(done, total int) string {
	title := titleStyle.Render("Workstation Bootstrap")
	progress := subtitleStyle.Render(fmt.Sprintf("Progress: %d/%d", done, total))
	return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", progress)
}

func (m *model) renderBody() string {
	width := m.viewportWidth()
	if width < 80 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderStepList(width), m.renderDetails(width))
	}
	left := width / 3
	if left < 30 {
		left = 30
	}
	right := width - left - 2
	gap := lipgloss.NewStyle().Width(2).Render(" ")
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderStepList(left), gap, m.renderDetails(right))
}

func (m *model) renderStepList(width int) string {
	items := make([]string, 0, len(m.order))
	for idx, id := range m.order {
		items = append(items, m.stepItemView(m.states[id], idx == m.selected))
	}
	return styleForWidth(listPanelStyle, width).Render(strings.Join(items, "\n"))
}

func (m *model) stepItemView(state *stepState, selected bool) string {
	icon := statusIcons[state.status]
	if state.status == statusRunning {
		icon = m.spinner.View()
	}
	style := statusStyles[state.status]
	if selected {
		style = style.Copy().Bold(true).Underline(true)
	}
	return style.Render(fmt.Sprintf("%s %s", icon, state.meta.Title))
}

func (m *model) renderDetails(width int) string {
	state := m.currentState()
	if state == nil {
		return styleForWidth(detailPanelStyle, width).Render("No steps selected")
	}

	body := []string{
		detailTitleStyle.Render(fmt.Sprintf("%s (%s)", state.meta.Title, state.meta.ID)),
		infoTextStyle.Render(state.meta.Description),
		infoTextStyle.Render("Status: " + titleCase.String(state.status.String())),
	}
	if len(state.meta.Actions) > 0 {
		lines := []string{logSectionStyle.Render("Actions:")}
		for _, a := range state.meta.Actions {
			lines = append(lines, logTextStyle.Render(fmt.Sprintf("• %s [%s] %s", a.ID, a.Policy, a.Description)))
		}
		body = append(body, strings.Join(lines, "\n"))
	}
	if state.err != nil {
		body = append(body, errorTextStyle.Render(m.redactSecrets(fmt.Sprintf("Error: %v", state.err))))
	}
	for _, w := range state.warnings {
		body = append(body, warningTextStyle.Render(m.redactSecrets("Warning: "+w.String())))
	}
	if len(state.logs) > 0 {
		entries := state.logs
		if len(entries) > 5 {
			entries = entries[len(entries)-5:]
		}
		lines := []string{logSectionStyle.Render("Recent events:")}
		for _, line := range entries {
			lines = append(lines, logTextStyle.Render("• "+line))
		}
		body = append(body, strings.Join(lines, "\n"))
	}
	return styleForWidth(detailPanelStyle, width).Render(strings.Join(body, "\n"))
}

func (m *model) renderPromptPanel() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s • %s\n", m.activePrompt.meta.Title, m.activePrompt.input.Label)
	if m.activePrompt.input.Description != "" {
		b.WriteString(m.activePrompt.input.Description + "\n")
	}
	if m.activePrompt.reason != "" {
		b.WriteString(infoTextStyle.Render("Reason: "+m.activePrompt.reason) + "\n")
	}
	b.WriteString("> " + m.prompt.View())
	return styleForWidth(promptPanelStyle, m.viewportWidth()).BorderForeground(activeBorderColor).Render(b.String())
}

func renderHelp() string {
	help := []string{
		"Key Bindings:",
		"  ↑/↓ or j/k  Move step selection",
		"  Enter        Submit input",
		"  Esc          Cancel prompt or hide help",
		"  c            Copy the selected step's error",
		"  ?            Toggle this help",
		"  q            Quit after the run finishes",
		"  Ctrl+C       Abort the run",
	}
	return helpStyle.Render(strings.Join(help, "\n"))
}

func (m *model) finishedCount() int {
	count := 0
	for _, st := range m.states {
		switch st.status {
		case statusSkipped, statusApplied, statusWarned:
			count++
		}
	}
	return count
}

func (m *model) appendLog(state *stepState, line string) {
	line = m.redactSecrets(line)
	state.logs = append(state.logs, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), line))
	if len(state.logs) > 20 {
		state.logs = state.logs[len(state.logs)-20:]
	}
}

var titleCase = cases.Title(language.English)

func (m *model) viewportWidth() int {
	switch {
	case m.width <= 0:
		return 100
	case m.width < 40:
		return 40
	default:
		return m.width
	}
}

func (m *model) trackSecretValue(value string) {
	if value != "" {
		m.secretValues[value] = struct{}{}
	}
}

func (m *model) redactSecrets(text string) string {
	for secret := range m.secretValues {
		text = strings.ReplaceAll(text, secret, "[secret]")
	}
	return text
}

func (m *model) setStatus(msg string) {
	m.statusMsg = m.redactSecrets(msg)
}

func (m *model) setStatusf(format string, args ...any) {
	m.setStatus(fmt.Sprintf(format, args...))
}

func sanitizeInputReason(def steps.InputDefinition, reason string) string {
	if reason != "" && def.Secret && strings.Contains(reason, "rejected") {
		return "Previous entry was rejected; please provide a new value."
	}
	return reason
}

func styleForWidth(base lipgloss.Style, totalWidth int) lipgloss.Style {
	style := base.Copy()
	frameWidth, _ := base.GetFrameSize()
	contentWidth := totalWidth - frameWidth
	if contentWidth < 0 {
		contentWidth = 0
	}
	return style.Width(contentWidth)
}

// ---- Styling ----

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AAFF"))
	subtitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	listPanelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1)
	detailPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#4C566A")).Padding(0, 1)
	promptPanelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginTop(1)
	statusBarStyle    = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("#312E81")).Foreground(lipgloss.Color("#E0E7FF"))
	footerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")).Padding(0, 1).MarginTop(1)
	helpStyle         = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("#7C3AED")).Padding(1, 2).MarginTop(1)
	detailTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FDE047"))
	infoTextStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CBD5F5"))
	errorTextStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	warningTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24"))
	logSectionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A5B4FC")).Bold(true)
	logTextStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E7FF"))
	activeBorderColor = lipgloss.Color("#A78BFA")
)

var statusStyles = map[stepStatus]lipgloss.Style{
	statusPending: lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
	statusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F97316")).Bold(true),
	statusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B")),
	statusApplied: lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")),
	statusWarned:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
	statusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
}

var statusIcons = map[stepStatus]string{
	statusPending: "•",
	statusRunning: "⟳",
	statusSkipped: "=",
	statusApplied: "✔",
	statusWarned:  "!",
	statusFailed:  "✖",
}

// ---- Run events ----

type stepStartedMsg struct {
	meta steps.Metadata
}

type stepWarnedMsg struct {
	meta    steps.Metadata
	warning steps.Warning
}

type stepCompletedMsg struct {
	result steps.Result
}

type runFinishedMsg struct {
	report steps.Report
	err    error
}

type inputRequestMsg struct {
	meta   steps.Metadata
	input  steps.InputDefinition
	reason string
}

// ---- Observer & input handler plumbing ----

// stepObserver forwards manager callbacks to the program. Sends give up
// once the run context ends so the manager goroutine never blocks on a
// program that has already quit.
type stepObserver struct {
	ctx    context.Context
	events chan tea.Msg
}

func newStepObserver(ctx context.Context) *stepObserver {
	return &stepObserver{ctx: ctx, events: make(chan tea.Msg)}
}

func (o *stepObserver) send(msg tea.Msg) {
	select {
	case o.events <- msg:
	case <-o.ctx.Done():
	}
}

func (o *stepObserver) StepStarted(meta steps.Metadata) {
	o.send(stepStartedMsg{meta: meta})
}

func (o *stepObserver) StepWarned(meta steps.Metadata, w steps.Warning) {
	o.send(stepWarnedMsg{meta: meta, warning: w})
}

func (o *stepObserver) StepCompleted(res steps.Result) {
	o.send(stepCompletedMsg{result: res})
}

func waitStepEventCmd(observer *stepObserver) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-observer.events:
			return msg
		case <-observer.ctx.Done():
			return nil
		}
	}
}

type inputRequest struct {
	meta   steps.Metadata
	def    steps.InputDefinition
	reason string
}

type inputResponse struct {
	value string
	err   error
}

type bubbleInputHandler struct {
	ctx       context.Context
	requests  chan inputRequest
	responses chan inputResponse
}

func newBubbleInputHandler(ctx context.Context) *bubbleInputHandler {
	return &bubbleInputHandler{
		ctx:       ctx,
		requests:  make(chan inputRequest),
		responses: make(chan inputResponse),
	}
}

func (h *bubbleInputHandler) RequestInput(meta steps.Metadata, input steps.InputDefinition, reason string) (string, error) {
	select {
	case h.requests <- inputRequest{meta: meta, def: input, reason: reason}:
	case <-h.ctx.Done():
		return "", h.ctx.Err()
	}
	select {
	case resp := <-h.responses:
		return resp.value, resp.err
	case <-h.ctx.Done():
		return "", h.ctx.Err()
	}
}

func (h *bubbleInputHandler) respond(value string, err error) {
	go func() {
		select {
		case h.responses <- inputResponse{value: value, err: err}:
		case <-h.ctx.Done():
		}
	}()
}

func waitInputRequestCmd(handler *bubbleInputHandler) tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-handler.requests:
			return inputRequestMsg{meta: req.meta, input: req.def, reason: req.reason}
		case <-handler.ctx.Done():
			return nil
		}
	}
}

func runManagerCmd(ctx context.Context, manager *steps.Manager, env *steps.Env, sel steps.Selection) tea.Cmd {
	return func() tea.Msg {
		report, err := manager.Run(ctx, env, sel)
		return runFinishedMsg{report: report, err: err}
	}
}
