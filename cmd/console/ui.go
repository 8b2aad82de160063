package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/yoga-journey/internal/services/events"
	"github.com/jwebster45206/yoga-journey/pkg/journey"
)

const (
	AgentName       = "Guide"
	PlaceHolderText = "What do you do? (/help for commands)"
	GameOverText    = "Your journey is complete."
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api           *apiClient
	gameState     *journey.GameState
	storyViewport viewport.Model
	metaViewport  viewport.Model
	textarea      textarea.Model
	ready         bool
	width         int
	height        int

	// Waiting on the worker
	loading       bool
	pendingAction string
	progressTick  int
	status        string

	// Command output shown under the story
	notices []string

	eventsCtx context.Context
	eventChan chan events.Event
	cancel    context.CancelFunc

	showQuitModal bool
}

type journeyMsg struct {
	gameState *journey.GameState
	err       error
}

type actionSentMsg struct {
	requestID string
	err       error
}

type sseEventMsg struct {
	event events.Event
}

type sseClosedMsg struct {
	err error
}

type noticeMsg struct {
	text string
	err  error
}

type progressTickMsg struct{}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	guideStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	outcomeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Italic(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(api *apiClient, gs *journey.GameState) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ctx, cancel := context.WithCancel(context.Background())
	m := ConsoleUI{
		api:           api,
		gameState:     gs,
		textarea:      ta,
		storyViewport: storyVp,
		metaViewport:  metaVp,
		loading:       gs.Pending,
		eventsCtx:     ctx,
		eventChan:     make(chan events.Event, 16),
		cancel:        cancel,
	}
	if m.loading {
		m.status = "The guide is setting the scene..."
	}
	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.listen(), m.waitForEvent(), progressTick())
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.writeStoryContent()
		m.metaViewport.SetContent(writeMetadata(m.gameState, m.metaViewport.Width))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.textarea.Reset()
				cmd := m.handleCommand(input)
				return m, cmd
			}
			if m.loading {
				return m, nil
			}
			if m.gameState.IsGameOver {
				m.notices = append(m.notices, promptStyle.Render(GameOverText))
				m.textarea.Reset()
				m.writeStoryContent()
				return m, nil
			}

			m.textarea.Reset()
			m.loading = true
			m.pendingAction = input
			m.progressTick = 0
			m.status = "Sending..."
			m.notices = nil
			m.writeStoryContent()
			return m, tea.Batch(m.sendAction(input), progressTick())
		}

	case actionSentMsg:
		if msg.err != nil {
			m.loading = false
			m.pendingAction = ""
			m.status = ""
			m.notices = append(m.notices, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.status = "Queued..."
		}
		m.writeStoryContent()
		return m, nil

	case sseEventMsg:
		cmd := m.handleEvent(msg.event)
		return m, tea.Batch(cmd, m.waitForEvent())

	case sseClosedMsg:
		if msg.err != nil && m.eventsCtx.Err() == nil {
			m.notices = append(m.notices, errorStyle.Render("Lost the event stream: "+msg.err.Error()))
			m.writeStoryContent()
		}
		return m, nil

	case journeyMsg:
		if msg.err != nil {
			m.notices = append(m.notices, errorStyle.Render("Error: "+msg.err.Error()))
		} else if msg.gameState != nil {
			m.gameState = msg.gameState
			if !m.gameState.Pending {
				m.loading = false
				m.pendingAction = ""
				m.status = ""
			}
			m.metaViewport.SetContent(writeMetadata(m.gameState, m.metaViewport.Width))
		}
		m.writeStoryContent()
		return m, nil

	case noticeMsg:
		if msg.err != nil {
			m.notices = append(m.notices, errorStyle.Render("Error: "+msg.err.Error()))
		} else {
			m.notices = append(m.notices, msg.text)
		}
		m.writeStoryContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeStoryContent()
			return m, progressTick()
		}
		return m, nil
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.storyViewport, vpCmd = m.storyViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(storyWidth - 4)
}

// handleEvent reacts to one journey event. Anything that changes the saved
// journey triggers a reload rather than patching local state.
func (m *ConsoleUI) handleEvent(evt events.Event) tea.Cmd {
	switch evt.Type {
	case events.EventTypeRequestQueued:
		if m.loading {
			m.status = "Queued..."
		}
	case events.EventTypeRequestProcessing:
		if m.loading {
			m.status = "The guide is listening..."
		}
	case events.EventTypeRequestCompleted, events.EventTypeRequestFailed, events.EventTypeJourneyUpdated:
		return m.refreshJourney()
	case events.EventTypeImageReady:
		m.notices = append(m.notices, promptStyle.Render("A new scene image is ready."))
		m.writeStoryContent()
		return m.refreshJourney()
	case "connected":
		return m.refreshJourney()
	}
	m.writeStoryContent()
	return nil
}

// writeStoryContent rebuilds the story pane for the current viewport width.
func (m *ConsoleUI) writeStoryContent() {
	width := m.storyViewport.Width - 6
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("YOGA JOURNEY") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	content.WriteString(formatJourney(m.gameState, width))

	if m.pendingAction != "" {
		content.WriteString(userStyle.Render("You: ") + wordwrap.String(m.pendingAction, width-5) + "\n\n")
	}
	if m.loading {
		content.WriteString(loadingStyle.Render(m.status) + "\n")
		content.WriteString(m.renderProgressBar() + "\n\n")
	}
	if m.gameState.LastError != "" && !m.loading {
		content.WriteString(errorStyle.Render(wordwrap.String(m.gameState.LastError, width)) + "\n\n")
	}
	if m.gameState.IsGameOver {
		content.WriteString(titleStyle.Render(GameOverText) + "\n\n")
	}
	for _, n := range m.notices {
		content.WriteString(n + "\n\n")
	}

	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

// formatJourney renders each logged turn: the player's action, the outcome
// and the story text that followed.
func formatJourney(gs *journey.GameState, width int) string {
	var b strings.Builder
	for i, entry := range gs.Log {
		if entry.Action != journey.DefaultAction {
			b.WriteString(userStyle.Render("You: ") + wordwrap.String(entry.Action, width-5) + "\n\n")
		}
		if entry.Outcome != "" {
			b.WriteString(outcomeStyle.Render(wordwrap.String(entry.Outcome, width)) + "\n")
		}
		if i < len(gs.History) {
			b.WriteString(guideStyle.Render(AgentName+": ") + wordwrap.String(gs.History[i], width-len(AgentName)-2) + "\n\n")
		}
	}
	return b.String()
}

func writeMetadata(gs *journey.GameState, width int) string {
	if width < 10 {
		width = 10
	}
	d := gs.Dashboard()

	var content strings.Builder
	content.WriteString(titleStyle.Render("JOURNEY") + "\n\n")

	content.WriteString(gs.Profile.Name + "\n")
	content.WriteString(gs.ID.String()[:8] + "...\n\n")

	content.WriteString("Module:\n")
	content.WriteString(wordwrap.String(d.CurrentModule, width) + "\n")
	content.WriteString(fmt.Sprintf("%s %d%%\n", progressBar(d.Percent, width-5), d.Percent))
	content.WriteString(fmt.Sprintf("%d of %d complete\n\n", d.CompletedModules, d.TotalModules))

	content.WriteString("Inventory:\n")
	if len(gs.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, item := range gs.Inventory {
		content.WriteString("• " + item + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Relationships:\n")
	if len(gs.Relationships) == 0 {
		content.WriteString("None yet\n")
	}
	names := make([]string, 0, len(gs.Relationships))
	for name := range gs.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		content.WriteString(fmt.Sprintf("• %s: %d\n", name, gs.Relationships[name].Affinity))
	}
	content.WriteString("\n")

	content.WriteString("Badges:\n")
	if len(d.Badges) == 0 {
		content.WriteString("None yet\n")
	}
	for _, badge := range d.Badges {
		content.WriteString("★ " + badge + "\n")
	}
	content.WriteString("\n")

	content.WriteString(fmt.Sprintf("Cart: %d  Library: %d\n\n", len(gs.Cart), len(gs.Library)))

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Act\n")
	content.WriteString("• /help\n")
	content.WriteString("• Esc: Quit\n")

	return content.String()
}

func progressBar(percent, width int) string {
	if width < 5 {
		width = 5
	}
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func formatProducts(products []journey.ListedProduct) string {
	if len(products) == 0 {
		return "Nothing here yet."
	}
	var b strings.Builder
	for _, p := range products {
		price := "free"
		if p.Price > 0 {
			price = fmt.Sprintf("$%.2f", p.Price)
		}
		var flags []string
		if p.Owned {
			flags = append(flags, "owned")
		}
		if p.InCart {
			flags = append(flags, "in cart")
		}
		if p.Locked {
			flags = append(flags, fmt.Sprintf("unlocks at module %d", p.UnlockLevel))
		}
		line := fmt.Sprintf("%3d  %-10s %-8s %s", p.ID, p.Type, price, p.Name)
		if len(flags) > 0 {
			line += " (" + strings.Join(flags, ", ") + ")"
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

const helpText = `Commands:
• /help - Show this help
• /store [type] - Browse the store (video, meditation, ebook, health, podcast)
• /buy <id> - Add a product to your cart
• /cart - Show your cart
• /checkout - Buy everything in your cart
• /library - Show what you own
• /play <id> - Play something from your library
• /dashboard - Module progress
• /copy - Copy the latest story text
• Esc or Ctrl+C - Quit

How to play:
• Type what you do and press Enter
• Finishing modules unlocks new products`

func (m *ConsoleUI) handleCommand(input string) tea.Cmd {
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	id := m.gameState.ID
	api := m.api

	productArg := func() (int, bool) {
		if len(args) == 0 {
			return 0, false
		}
		n, err := strconv.Atoi(args[0])
		return n, err == nil
	}

	switch cmd {
	case "/help":
		m.notices = append(m.notices, titleStyle.Render("Help")+"\n"+helpText)
		m.writeStoryContent()
		return nil

	case "/store":
		productType := ""
		if len(args) > 0 {
			productType = strings.ToLower(args[0])
		}
		return func() tea.Msg {
			products, err := api.getStore(id, productType)
			if err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: titleStyle.Render("Store") + "\n" + formatProducts(products)}
		}

	case "/library":
		return func() tea.Msg {
			products, err := api.getLibrary(id)
			if err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: titleStyle.Render("Library") + "\n" + formatProducts(products)}
		}

	case "/buy":
		productID, ok := productArg()
		if !ok {
			return noticeCmd("Usage: /buy <product id>")
		}
		return tea.Sequence(func() tea.Msg {
			cart, err := api.addToCart(id, productID)
			if err != nil {
				return noticeMsg{err: err}
			}
			if cart.Added != nil && !*cart.Added {
				return noticeMsg{text: fmt.Sprintf("Already in your cart. Total: $%.2f", cart.Total)}
			}
			return noticeMsg{text: fmt.Sprintf("Added to cart. Total: $%.2f", cart.Total)}
		}, refreshJourneyCmd(api, id))

	case "/cart":
		return func() tea.Msg {
			cart, err := api.getCart(id)
			if err != nil {
				return noticeMsg{err: err}
			}
			var b strings.Builder
			b.WriteString(titleStyle.Render("Cart") + "\n")
			if len(cart.Items) == 0 {
				b.WriteString("Your cart is empty.")
				return noticeMsg{text: b.String()}
			}
			for _, item := range cart.Items {
				b.WriteString(fmt.Sprintf("%3d  $%.2f  %s\n", item.ID, item.Price, item.Name))
			}
			b.WriteString(fmt.Sprintf("Total: $%.2f", cart.Total))
			return noticeMsg{text: b.String()}
		}

	case "/checkout":
		return tea.Sequence(func() tea.Msg {
			resp, err := api.checkout(id)
			if err != nil {
				return noticeMsg{err: err}
			}
			names := make([]string, 0, len(resp.Purchased))
			for _, p := range resp.Purchased {
				names = append(names, p.Name)
			}
			return noticeMsg{text: fmt.Sprintf("Purchased %s for $%.2f.", strings.Join(names, ", "), resp.Total)}
		}, refreshJourneyCmd(api, id))

	case "/play":
		productID, ok := productArg()
		if !ok {
			return noticeCmd("Usage: /play <product id>")
		}
		return func() tea.Msg {
			pb, err := api.play(id, productID)
			if err != nil {
				return noticeMsg{err: err}
			}
			return noticeMsg{text: fmt.Sprintf("▶ Playing %s (%s)\n%s", pb.Name, pb.Kind, pb.AssetURL)}
		}

	case "/dashboard":
		return func() tea.Msg {
			d, err := api.getDashboard(id)
			if err != nil {
				return noticeMsg{err: err}
			}
			text := fmt.Sprintf("%s\n%s\n%s %d%% (%d of %d modules)",
				titleStyle.Render("Dashboard"), d.CurrentModule,
				progressBar(d.Percent, 20), d.Percent, d.CompletedModules, d.TotalModules)
			return noticeMsg{text: text}
		}

	case "/copy":
		if m.gameState.Story == "" {
			return noticeCmd("There is no story to copy yet.")
		}
		if err := clipboard.WriteAll(m.gameState.Story); err != nil {
			return func() tea.Msg { return noticeMsg{err: fmt.Errorf("failed to copy: %w", err)} }
		}
		return noticeCmd("Copied the latest story to the clipboard.")
	}

	return noticeCmd("Unknown command " + cmd + ". Try /help.")
}

func noticeCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{text: promptStyle.Render(text)}
	}
}

func refreshJourneyCmd(api *apiClient, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		gs, err := api.getJourney(id)
		return journeyMsg{gs, err}
	}
}

func (m ConsoleUI) refreshJourney() tea.Cmd {
	return refreshJourneyCmd(m.api, m.gameState.ID)
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		requestID, err := m.api.sendAction(m.gameState.ID, action)
		return actionSentMsg{requestID, err}
	}
}

// listen holds the event stream open for the life of the program.
func (m ConsoleUI) listen() tea.Cmd {
	return func() tea.Msg {
		err := m.api.listenToSSE(m.eventsCtx, m.gameState.ID, m.eventChan)
		return sseClosedMsg{err}
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-m.eventChan:
			return sseEventMsg{evt}
		case <-m.eventsCtx.Done():
			return nil
		}
	}
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			m.cancel()
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				m.cancel()
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the Journey?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved. You can resume with -journey " + m.gameState.ID.String()[:8] + "...")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.storyViewport.Width - 6
	if usable <= 0 {
		usable = 30
	}
	usable = max(10, min(80, usable))

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
