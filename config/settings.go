package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"promptbox/db"
	"promptbox/types"
	"promptbox/util"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const listHeight = 14

var (
	styleRed          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	greyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Foreground(lipgloss.Color("240"))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
)

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(menuItem)
	if !ok {
		return
	}

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string { return selectedItemStyle.Render("> " + strings.Join(s, " ")) }
	}
	text := fn(i.title)
	if i.data != "" {
		text = fmt.Sprintf("%s %s", text, greyStyle.Render("("+i.data+")"))
	}

	fmt.Fprint(w, text)
}

type menuItem struct {
	title     string
	selectCmd tea.Cmd
	data      string
}

func (i menuItem) FilterValue() string { return i.title }

type menuFunc func(cfg AppConfig) list.Model

type inputMode int

const (
	inputNone inputMode = iota
	inputText
)

type setMenuMsg struct{ menu menuFunc }
type backMsg struct{}
type quitMsg struct{}
type configSavedMsg struct{}
type editorFinishedMsg struct{ err error }
type setPresetMsg struct{ preset types.Preset }
type setParamMsg struct {
	field Field
	value float64
}
type togglePrefMsg struct{ field string }
type setEndpointMsg struct{ endpoint string }
type setIntervalMsg struct{ ms int }
type historyClearedMsg struct{ err error }
type setInputModeMsg struct {
	prompt   string
	initial  string
	onSubmit func(string) tea.Cmd
}

type settingsState struct {
	menu      menuFunc
	listIndex int
}

type settingsModel struct {
	state         settingsState
	list          list.Model
	backstack     []settingsState
	appConfig     AppConfig
	quitting      bool
	inputMode     inputMode
	textInput     textinput.Model
	onInputSubmit func(string) tea.Cmd
	inputPrompt   string
}

func cmdSetMenu(menu menuFunc) tea.Cmd { return func() tea.Msg { return setMenuMsg{menu} } }
func cmdBack() tea.Cmd                 { return func() tea.Msg { return backMsg{} } }
func cmdQuit() tea.Cmd                 { return func() tea.Msg { return quitMsg{} } }
func cmdSetPreset(p types.Preset) tea.Cmd {
	return func() tea.Msg { return setPresetMsg{p} }
}
func cmdSetParam(f Field, v float64) tea.Cmd { return func() tea.Msg { return setParamMsg{f, v} } }
func cmdTogglePref(field string) tea.Cmd     { return func() tea.Msg { return togglePrefMsg{field} } }
func cmdSaveConfig(cfg AppConfig) tea.Cmd {
	return func() tea.Msg { SaveAppConfig(cfg); return configSavedMsg{} }
}
func cmdSetInput(prompt, initial string, onSubmit func(string) tea.Cmd) tea.Cmd {
	return func() tea.Msg { return setInputModeMsg{prompt: prompt, initial: initial, onSubmit: onSubmit} }
}

func openEditor() tea.Cmd {
	return func() tea.Msg {
		fullPath, err := FullFilePath(configFilePath)
		if err != nil {
			return editorFinishedMsg{err: err}
		}
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vim"
		}
		cmd := exec.Command(editor, fullPath) //nolint:gosec
		if err := cmd.Run(); err != nil {
			return editorFinishedMsg{err: err}
		}
		return editorFinishedMsg{err: nil}
	}
}

const docsURL = "https://github.com/promptbox/promptbox"

func openBrowser(url string) tea.Cmd {
	return func() tea.Msg {
		util.OpenBrowser(url)
		return nil
	}
}

func clearHistoryAction() tea.Cmd {
	return func() tea.Msg {
		dataDir, err := DataDir()
		if err != nil {
			return historyClearedMsg{err: err}
		}
		store, err := db.Open(dataDir)
		if err != nil {
			return historyClearedMsg{err: err}
		}
		defer store.Close()
		return historyClearedMsg{err: db.ClearHistory(store)}
	}
}

func (m settingsModel) Init() tea.Cmd { return nil }

func (m settingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.inputMode == inputText {
		return m.updateInput(msg)
	}

	switch msg := msg.(type) {
	case quitMsg:
		m.quitting = true
		return m, tea.Quit
	case backMsg:
		if len(m.backstack) > 0 {
			m.state = m.backstack[len(m.backstack)-1]
			m.backstack = m.backstack[:len(m.backstack)-1]
			m.list = m.state.menu(m.appConfig)
			m.list.Select(m.state.listIndex)
		}
		return m, nil
	case setMenuMsg:
		m.backstack = append(m.backstack, m.state)
		m.list = msg.menu(m.appConfig)
		m.state = settingsState{menu: msg.menu}
		return m, nil
	case setPresetMsg:
		m.appConfig.Defaults = types.PresetValues[msg.preset]
		return m, tea.Sequence(cmdSaveConfig(m.appConfig), cmdBack())
	case setParamMsg:
		// Route through the store so a manual edit keeps the preset tag, the
		// same way live edits behave in the playground.
		st := NewStore()
		st.Restore(m.appConfig.Defaults)
		st.UpdateField(msg.field, Clamp(msg.field, msg.value))
		m.appConfig.Defaults = st.Current()
		SaveAppConfig(m.appConfig)
		m.list = m.state.menu(m.appConfig)
		return m, nil
	case setEndpointMsg:
		m.appConfig.Endpoint = msg.endpoint
		SaveAppConfig(m.appConfig)
		m.list = m.state.menu(m.appConfig)
		return m, nil
	case setIntervalMsg:
		m.appConfig.Preferences.RevealIntervalMs = msg.ms
		SaveAppConfig(m.appConfig)
		m.list = m.state.menu(m.appConfig)
		return m, nil
	case togglePrefMsg:
		switch msg.field {
		case "save_history":
			m.appConfig.Preferences.SaveHistory = !m.appConfig.Preferences.SaveHistory
		case "auto_copy_response":
			m.appConfig.Preferences.AutoCopyResponse = !m.appConfig.Preferences.AutoCopyResponse
		}
		SaveAppConfig(m.appConfig)
		m.list = m.state.menu(m.appConfig)
		return m, nil
	case historyClearedMsg:
		if msg.err != nil {
			errLine := styleRed.Render(fmt.Sprintf("Failed to clear history: %v", msg.err))
			return m, tea.Sequence(tea.Printf("%s", errLine), cmdBack())
		}
		return m, cmdBack()
	case setInputModeMsg:
		m.inputMode = inputText
		m.inputPrompt = msg.prompt
		m.onInputSubmit = msg.onSubmit
		ti := textinput.New()
		ti.Placeholder = msg.prompt
		ti.SetValue(msg.initial)
		ti.Focus()
		ti.Width = 64
		m.textInput = ti
		return m, textinput.Blink
	case editorFinishedMsg:
		if msg.err == nil {
			if cfg, err := LoadAppConfig(); err == nil {
				m.appConfig = cfg
				m.list = m.state.menu(m.appConfig)
			}
		}
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD:
			return m, cmdQuit()
		case tea.KeyEsc:
			if len(m.backstack) > 0 {
				return m, cmdBack()
			}
			return m, cmdQuit()
		case tea.KeyEnter:
			i, _ := m.list.SelectedItem().(menuItem)
			if i.selectCmd != nil {
				return m, i.selectCmd
			}
		}
	}

	var cmd tea.Cmd
	if !m.quitting {
		m.list, cmd = m.list.Update(msg)
	}
	m.state.listIndex = m.list.Index()
	return m, cmd
}

func (m settingsModel) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch km := msg.(type) {
	case tea.KeyMsg:
		switch km.Type {
		case tea.KeyEnter:
			value := strings.TrimSpace(m.textInput.Value())
			m.inputMode = inputNone
			if m.onInputSubmit != nil {
				return m, m.onInputSubmit(value)
			}
			return m, nil
		case tea.KeyEsc:
			m.inputMode = inputNone
			return m, nil
		case tea.KeyCtrlC:
			return m, cmdQuit()
		}
	}
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m settingsModel) View() string {
	if m.quitting {
		return ""
	}
	if m.inputMode == inputText {
		return fmt.Sprintf("\n  %s\n\n  %s\n", m.inputPrompt, m.textInput.View())
	}
	return "\n" + m.list.View()
}

func defaultList(title string, items []menuItem) list.Model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}
	l := list.New(listItems, itemDelegate{}, 20, listHeight)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.SetWidth(100)
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle
	l.SetShowHelp(false)
	return l
}

func boolStatus(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func mainMenu(cfg AppConfig) list.Model {
	items := []menuItem{
		{title: "Preset", data: string(cfg.Defaults.Preset), selectCmd: cmdSetMenu(presetMenu)},
		{title: "Sampling Parameters", selectCmd: cmdSetMenu(paramsMenu)},
		{title: "Endpoint", data: util.Truncate(cfg.Endpoint, 40), selectCmd: editEndpoint(cfg)},
		{title: "Settings", selectCmd: cmdSetMenu(settingsMenu)},
		{title: "Edit Config File", data: "~/.promptbox/config.yaml", selectCmd: openEditor()},
		{title: "Reset to Defaults", selectCmd: cmdSetMenu(resetConfirmMenu)},
		{title: "Documentation", selectCmd: openBrowser(docsURL)},
		{title: "Quit", data: "esc", selectCmd: cmdQuit()},
	}
	return defaultList("Promptbox Settings", items)
}

func presetMenu(cfg AppConfig) list.Model {
	var items []menuItem
	for _, p := range types.Presets {
		v := types.PresetValues[p]
		marker := fmt.Sprintf("%.1f/%d/%d/%.2f", v.Temperature, v.MaxTokens, v.TopK, v.TopP)
		if p == cfg.Defaults.Preset {
			marker += " ✓"
		}
		items = append(items, menuItem{title: string(p), data: marker, selectCmd: cmdSetPreset(p)})
	}
	items = append(items, menuItem{title: "← Back", selectCmd: cmdBack()})
	return defaultList("Select Preset", items)
}

func paramsMenu(cfg AppConfig) list.Model {
	d := cfg.Defaults
	items := []menuItem{
		{title: "Temperature", data: fmt.Sprintf("%.2f, range %.1f-%.1f", d.Temperature, types.TemperatureMin, types.TemperatureMax),
			selectCmd: editParam(FieldTemperature, fmt.Sprintf("%.2f", d.Temperature))},
		{title: "Max Tokens", data: fmt.Sprintf("%d, range %d-%d", d.MaxTokens, types.MaxTokensMin, types.MaxTokensMax),
			selectCmd: editParam(FieldMaxTokens, strconv.Itoa(d.MaxTokens))},
		{title: "Top-K", data: fmt.Sprintf("%d, range %d-%d", d.TopK, types.TopKMin, types.TopKMax),
			selectCmd: editParam(FieldTopK, strconv.Itoa(d.TopK))},
		{title: "Top-P", data: fmt.Sprintf("%.2f, range %.1f-%.1f", d.TopP, types.TopPMin, types.TopPMax),
			selectCmd: editParam(FieldTopP, fmt.Sprintf("%.2f", d.TopP))},
		{title: "← Back", selectCmd: cmdBack()},
	}
	return defaultList("Sampling Parameters", items)
}

func editParam(field Field, initial string) tea.Cmd {
	return cmdSetInput(fmt.Sprintf("New value for %s", field), initial, func(raw string) tea.Cmd {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return cmdSetParam(field, v)
	})
}

func editEndpoint(cfg AppConfig) tea.Cmd {
	return cmdSetInput("Generation endpoint URL", cfg.Endpoint, func(raw string) tea.Cmd {
		if raw == "" {
			return nil
		}
		return func() tea.Msg { return setEndpointMsg{endpoint: raw} }
	})
}

func settingsMenu(cfg AppConfig) list.Model {
	items := []menuItem{
		{title: "Save History", data: boolStatus(cfg.Preferences.SaveHistory), selectCmd: cmdTogglePref("save_history")},
		{title: "Auto-copy Response", data: boolStatus(cfg.Preferences.AutoCopyResponse), selectCmd: cmdTogglePref("auto_copy_response")},
		{title: "Reveal Interval", data: fmt.Sprintf("%d ms", cfg.Preferences.RevealIntervalMs), selectCmd: editInterval(cfg)},
		{title: "Data & Privacy", selectCmd: cmdSetMenu(dataPrivacyMenu)},
		{title: "← Back", selectCmd: cmdBack()},
	}
	return defaultList("Settings", items)
}

func editInterval(cfg AppConfig) tea.Cmd {
	initial := strconv.Itoa(cfg.Preferences.RevealIntervalMs)
	return cmdSetInput("Reveal interval in milliseconds", initial, func(raw string) tea.Cmd {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			return nil
		}
		return func() tea.Msg { return setIntervalMsg{ms: ms} }
	})
}

func dataPrivacyMenu(cfg AppConfig) list.Model {
	dataDir, _ := FullFilePath(appDirName)
	items := []menuItem{
		{title: "Data Directory", data: dataDir},
		{title: "Clear History", data: "cannot undo", selectCmd: cmdSetMenu(clearHistoryConfirmMenu)},
		{title: "← Back", selectCmd: cmdBack()},
	}
	return defaultList("Data & Privacy", items)
}

func clearHistoryConfirmMenu(cfg AppConfig) list.Model {
	items := []menuItem{
		{title: "Yes, clear history", selectCmd: clearHistoryAction()},
		{title: "No, cancel", selectCmd: cmdBack()},
	}
	return defaultList("Clear all history?", items)
}

func resetConfirmMenu(cfg AppConfig) list.Model {
	items := []menuItem{
		{title: "Yes, reset config to defaults", selectCmd: resetConfigAction()},
		{title: "No, cancel", selectCmd: cmdBack()},
	}
	return defaultList("Reset configuration to defaults?", items)
}

func resetConfigAction() tea.Cmd {
	return func() tea.Msg {
		ResetAppConfigToDefault()
		return quitMsg{}
	}
}

func PrintConfigErrorMessage(err error) {
	maxWidth := util.GetTermSafeMaxWidth()
	styleRedPadded := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).PaddingLeft(2)
	styleDim := lipgloss.NewStyle().Faint(true).Width(maxWidth).PaddingLeft(2)

	r, _ := glamour.NewTermRenderer(glamour.WithAutoStyle())

	msg1 := styleRedPadded.Render("Failed to load config file.")
	filePath, _ := FullFilePath(configFilePath)
	msg2 := styleDim.Render(err.Error())

	messageString := fmt.Sprintf(
		"---\n"+
			"# Options:\n\n"+
			"1. Run `promptbox config revert` to load the automatic backup.\n"+
			"2. Run `promptbox config reset` to reset to defaults.\n"+
			"3. Fix manually at: `%s`\n\n",
		filePath)

	msg3, _ := r.Render(messageString)
	fmt.Printf("\n%s\n\n%s%s", msg1, msg2, msg3)
}

func handleConfigResets(args []string) {
	if len(args) < 2 {
		return
	}
	if args[1] != "reset" && args[1] != "revert" {
		return
	}
	greyStylePadded := greyStyle.PaddingLeft(2)
	reader := bufio.NewReader(os.Stdin)
	warningMessage, confirmationMessage := getMessages(args[1], greyStylePadded)
	fmt.Print("\n" + styleRed.PaddingLeft(2).Render(warningMessage) + "\n\n" + confirmationMessage + " ")
	response, _ := reader.ReadString('\n')
	response = strings.ToLower(strings.TrimSpace(response))
	if response == "yes" || response == "y" {
		handleResetOrRevert(args[1])
	} else {
		fmt.Println("\n" + styleRed.PaddingLeft(2).Render("Operation cancelled.\n"))
	}
	os.Exit(0)
}

func getMessages(arg string, greyStylePadded lipgloss.Style) (string, string) {
	warningMessage := "WARNING: You are about to "
	confirmationMessage := greyStylePadded.Render("Do you want to continue? (y/N):")
	switch arg {
	case "reset":
		warningMessage += "reset the config file to the default."
	case "revert":
		warningMessage += "revert the config file to the last working automatic backup."
	}
	return warningMessage, confirmationMessage
}

func handleResetOrRevert(arg string) {
	var err error
	var message string
	switch arg {
	case "reset":
		err = ResetAppConfigToDefault()
		message = "Config reset to default.\n"
	case "revert":
		err = RevertAppConfigToBackup()
		message = "Config reverted to backup.\n"
	}
	if err == nil {
		fmt.Println("\n" + greyStyle.PaddingLeft(2).Render(message))
	} else {
		fmt.Println("\n" + styleRed.PaddingLeft(2).Render("Operation failed.\n"))
		fmt.Println("\n" + styleRed.PaddingLeft(2).Render(fmt.Sprintf("Error: %s\n", err)))
	}
}

// RunSettingsProgram handles `promptbox config [reset|revert]` and otherwise
// starts the interactive settings menu.
func RunSettingsProgram(args []string) {
	handleConfigResets(args)
	appConfig, err := LoadAppConfig()
	if err != nil {
		PrintConfigErrorMessage(err)
		os.Exit(1)
	}
	m := settingsModel{
		appConfig: appConfig,
		list:      mainMenu(appConfig),
		state:     settingsState{menu: mainMenu},
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}
}
