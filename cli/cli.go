package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"promptbox/config"
	"promptbox/db"
	"promptbox/gen"
	"promptbox/player"
	"promptbox/session"
	"promptbox/types"
	"promptbox/util"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

type State int

const (
	ReceivingInput State = iota
	Loading
	Revealing
	BrowsingHistory
)

type model struct {
	controller       *session.Controller
	configStore      *config.Store
	reveal           *player.Player
	markdownRenderer *glamour.TermRenderer

	textInput   textinput.Model
	spinner     spinner.Model
	historyList list.Model

	state       State
	prompt      string
	latest      string
	autoCopy    bool
	maxWidth    int
	runWithArgs bool
	err         error
}

type responseMsg struct {
	entry db.HistoryEntry
	err   error
}

type revealTickMsg struct {
	seq int
}

func makeGeneration(controller *session.Controller, prompt string, cfg types.ModelConfig) tea.Cmd {
	return func() tea.Msg {
		entry, err := controller.Generate(prompt, cfg)
		return responseMsg{entry: entry, err: err}
	}
}

func revealTick(p *player.Player, seq int) tea.Cmd {
	return tea.Tick(p.Interval(), func(time.Time) tea.Msg {
		return revealTickMsg{seq: seq}
	})
}

func (m model) handleKeyEnter() (tea.Model, tea.Cmd) {
	if m.state != ReceivingInput {
		return m, nil
	}
	v := m.textInput.Value()

	if strings.TrimSpace(v) == "" {
		if m.latest == "" {
			return m, tea.Quit
		}
		if err := clipboard.WriteAll(m.latest); err != nil {
			return m, tea.Quit
		}
		faint := lipgloss.NewStyle().Faint(true)
		return m, tea.Sequence(tea.Printf("%s", faint.Render("Copied to clipboard.")), textinput.Blink)
	}

	m.textInput.SetValue("")
	m.prompt = v
	m.state = Loading
	faint := lipgloss.NewStyle().Faint(true).Width(m.maxWidth)
	echo := faint.Render(fmt.Sprintf("> %s", v))
	return m, tea.Sequence(
		tea.Printf("%s", echo),
		tea.Batch(m.spinner.Tick, makeGeneration(m.controller, m.prompt, m.configStore.Current())),
	)
}

func (m model) handleResponseMsg(msg responseMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && msg.err == session.ErrEmptyPrompt {
		m.state = ReceivingInput
		faint := lipgloss.NewStyle().Faint(true)
		return m, tea.Sequence(tea.Printf("%s", faint.Render("Type a prompt first.")), textinput.Blink)
	}

	var warn tea.Cmd
	if msg.err != nil {
		// Entry is still displayable; only persistence failed.
		styleRed := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
		warn = tea.Printf("%s", styleRed.Render(fmt.Sprintf("History not saved: %v", msg.err)))
	}

	m.latest = msg.entry.Response
	if m.reveal.Set(msg.entry.Response, false) {
		m.state = Revealing
		if warn != nil {
			return m, tea.Sequence(warn, revealTick(m.reveal, m.reveal.Seq()))
		}
		return m, revealTick(m.reveal, m.reveal.Seq())
	}
	// Content identical to an already-completed reveal; print it straight.
	m.state = ReceivingInput
	return m, tea.Sequence(tea.Printf("%s", m.formatResponse(msg.entry.Response)), textinput.Blink)
}

func (m model) handleRevealTick(msg revealTickMsg) (tea.Model, tea.Cmd) {
	if m.reveal.Advance(msg.seq) {
		return m, revealTick(m.reveal, msg.seq)
	}
	if msg.seq != m.reveal.Seq() || m.reveal.PhaseNow() != player.Done {
		// Stale tick from a cancelled reveal.
		return m, nil
	}
	return m.finishReveal()
}

func (m model) finishReveal() (tea.Model, tea.Cmd) {
	formatted := m.formatResponse(m.reveal.Content())

	m.state = ReceivingInput
	m.textInput.Placeholder = "Ask anything... (ENTER on empty line to copy, Ctrl+C to quit)"

	cmds := []tea.Cmd{tea.Printf("%s", formatted)}
	if m.autoCopy && m.latest != "" {
		if err := clipboard.WriteAll(m.latest); err == nil {
			faint := lipgloss.NewStyle().Faint(true)
			cmds = append(cmds, tea.Printf("%s", faint.Render("Copied to clipboard.")))
		}
	}
	cmds = append(cmds, textinput.Blink)
	return m, tea.Sequence(cmds...)
}

func (m model) formatResponse(response string) string {
	formatted, err := m.markdownRenderer.Render(response)
	if err != nil {
		return response
	}
	formatted = strings.TrimPrefix(formatted, "\n")
	formatted = strings.TrimSuffix(formatted, "\n")
	return "\n" + formatted
}

func (m model) handleHistoryKey() (tea.Model, tea.Cmd) {
	if m.state != ReceivingInput {
		return m, nil
	}
	entries := m.controller.Entries()
	if len(entries) == 0 {
		faint := lipgloss.NewStyle().Faint(true)
		return m, tea.Printf("%s", faint.Render("History is empty."))
	}
	m.historyList = newHistoryList(entries, m.maxWidth)
	m.state = BrowsingHistory
	return m, nil
}

func (m model) handleHistorySelect() (tea.Model, tea.Cmd) {
	item, ok := m.historyList.SelectedItem().(historyItem)
	if !ok {
		m.state = ReceivingInput
		return m, textinput.Blink
	}

	entry, ok := m.controller.Select(item.id)
	if !ok {
		m.state = ReceivingInput
		return m, textinput.Blink
	}

	// Restore the snapshot: prompt, config, and a replay of the response.
	m.configStore.Restore(entry.Config)
	m.textInput.SetValue(entry.Prompt)
	m.latest = entry.Response

	faint := lipgloss.NewStyle().Faint(true).Width(m.maxWidth)
	echo := faint.Render(fmt.Sprintf("> %s", entry.Prompt))
	if m.reveal.Set(entry.Response, false) {
		m.state = Revealing
		return m, tea.Sequence(tea.Printf("%s", echo), revealTick(m.reveal, m.reveal.Seq()))
	}
	m.state = ReceivingInput
	return m, tea.Sequence(tea.Printf("%s", echo), tea.Printf("%s", m.formatResponse(entry.Response)), textinput.Blink)
}

func (m model) cyclePreset() (tea.Model, tea.Cmd) {
	current := m.configStore.Current().Preset
	next := types.Presets[0]
	for i, p := range types.Presets {
		if p == current {
			next = types.Presets[(i+1)%len(types.Presets)]
			break
		}
	}
	m.configStore.ApplyPreset(next)
	return m, nil
}

func (m model) Init() tea.Cmd {
	if m.runWithArgs {
		return tea.Batch(m.spinner.Tick, makeGeneration(m.controller, m.prompt, m.configStore.Current()))
	}
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == BrowsingHistory {
			switch msg.Type {
			case tea.KeyCtrlC, tea.KeyCtrlD:
				return m, tea.Quit
			case tea.KeyEsc:
				m.state = ReceivingInput
				return m, textinput.Blink
			case tea.KeyEnter:
				return m.handleHistorySelect()
			}
			m.historyList, cmd = m.historyList.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.handleKeyEnter()
		case tea.KeyCtrlR:
			return m.handleHistoryKey()
		case tea.KeyCtrlP:
			return m.cyclePreset()
		}

	case responseMsg:
		return m.handleResponseMsg(msg)

	case revealTickMsg:
		return m.handleRevealTick(msg)

	case error:
		m.err = msg
		return m, nil
	}

	switch m.state {
	case Loading:
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case ReceivingInput:
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	case BrowsingHistory:
		m.historyList, cmd = m.historyList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) renderStatusBar() string {
	cfg := m.configStore.Current()

	nameStyle := lipgloss.NewStyle().
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("230")).
		Padding(0, 1)
	paramStyle := lipgloss.NewStyle().Faint(true)

	params := fmt.Sprintf("%s · temp %.2f · tokens %d · top-k %d · top-p %.2f",
		cfg.Preset, cfg.Temperature, cfg.MaxTokens, cfg.TopK, cfg.TopP)
	return nameStyle.Render("promptbox") + " " + paramStyle.Render(params)
}

func (m model) View() string {
	statusBar := m.renderStatusBar()

	switch m.state {
	case Loading:
		return statusBar + "\n" + m.spinner.View()
	case ReceivingInput:
		return statusBar + "\n" + m.textInput.View()
	case Revealing:
		text := m.reveal.View()
		if m.reveal.Typing() {
			text += "▌"
		}
		return statusBar + "\n" + text + "\n"
	case BrowsingHistory:
		return "\n" + m.historyList.View()
	}
	return ""
}

type historyItem struct {
	id    string
	title string
	data  string
}

func (i historyItem) FilterValue() string { return i.title }

type historyDelegate struct{}

func (d historyDelegate) Height() int                             { return 1 }
func (d historyDelegate) Spacing() int                            { return 0 }
func (d historyDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d historyDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(historyItem)
	if !ok {
		return
	}

	itemStyle := lipgloss.NewStyle().PaddingLeft(4)
	selectedStyle := lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	greyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	text := itemStyle.Render(i.title)
	if index == m.Index() {
		text = selectedStyle.Render("> " + i.title)
	}
	if i.data != "" {
		text = fmt.Sprintf("%s %s", text, greyStyle.Render("("+i.data+")"))
	}
	fmt.Fprint(w, text)
}

func newHistoryList(entries db.HistoryCollection, maxWidth int) list.Model {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = historyItem{
			id:    e.ID,
			title: util.Truncate(e.Prompt, 60),
			data:  fmt.Sprintf("%s · %s", e.Timestamp.Format("Jan 2 15:04"), e.Config.Preset),
		}
	}
	l := list.New(items, historyDelegate{}, maxWidth, 14)
	l.Title = "History (ENTER to restore, ESC to go back)"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("240"))
	l.SetShowHelp(false)
	return l
}

func initialModel(prompt string, controller *session.Controller, configStore *config.Store, prefs types.Preferences) model {
	maxWidth := util.GetTermSafeMaxWidth()
	ti := textinput.New()
	ti.Placeholder = "Ask anything... (Ctrl+P preset, Ctrl+R history)"
	ti.Focus()
	ti.Width = maxWidth

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(int(maxWidth)),
	)

	interval := time.Duration(prefs.RevealIntervalMs) * time.Millisecond

	m := model{
		controller:       controller,
		configStore:      configStore,
		reveal:           player.NewWithInterval(interval),
		markdownRenderer: r,
		textInput:        ti,
		spinner:          s,
		state:            ReceivingInput,
		autoCopy:         prefs.AutoCopyResponse,
		maxWidth:         maxWidth,
	}

	if prompt != "" {
		m.runWithArgs = true
		m.state = Loading
		m.prompt = prompt
	}
	return m
}

func readStdin() string {
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		reader := bufio.NewReader(os.Stdin)
		var builder strings.Builder
		for {
			b, err := reader.ReadByte()
			if err == io.EOF {
				break
			}
			if err != nil {
				break
			}
			builder.WriteByte(b)
		}
		return builder.String()
	}
	return ""
}

func openStore(prefs types.Preferences) db.KV {
	if !prefs.SaveHistory {
		return db.NewMemory()
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return db.NewMemory()
	}
	store, err := db.Open(dataDir)
	if err != nil {
		return db.NewMemory()
	}
	return store
}

func runProgram(prompt string) {
	appConfig, err := config.LoadAppConfig()
	if err != nil {
		config.PrintConfigErrorMessage(err)
		os.Exit(1)
	}

	stdinData := readStdin()
	if stdinData != "" {
		if prompt != "" {
			prompt = fmt.Sprintf("Here's some input:\n```\n%s\n```\n\n%s", stdinData, prompt)
		} else {
			prompt = fmt.Sprintf("Here's some input:\n```\n%s\n```\n\nWhat would you like me to do with this?", stdinData)
		}
	}

	store := openStore(appConfig.Preferences)
	if closer, ok := store.(*db.DB); ok {
		defer closer.Close()
	}

	client := gen.NewClient(appConfig.Endpoint)
	controller, err := session.New(client, store, appConfig.Preferences.MaxHistoryItems)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	configStore := config.NewStore()
	configStore.Restore(appConfig.Defaults)

	p := tea.NewProgram(initialModel(prompt, controller, configStore, appConfig.Preferences))
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

var RootCmd = &cobra.Command{
	Use:   "promptbox [prompt]",
	Short: "Text-generation playground",
	Long:  `Promptbox: a terminal playground for a text-generation endpoint, with tunable sampling presets and a persisted prompt history.`,
	Run: func(cmd *cobra.Command, args []string) {
		prompt := strings.Join(args, " ")
		if len(args) > 0 && args[0] == "config" {
			config.RunSettingsProgram(args)
			return
		}
		runProgram(prompt)
	},
}
