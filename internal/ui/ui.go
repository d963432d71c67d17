package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/tasks"
)

const (
	defaultRefresh = 2 * time.Second
	maxActivity    = 6
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	RankingsView ViewState = iota
	HouseView
	EditView
)

// Scoreboard is what the dashboard reads and edits.
type Scoreboard interface {
	Rank() []models.Ranking
	House(key string) (models.House, bool)
	Update(house, sport string, score int) error
	LastUpdate() time.Time
}

// LiveController is the live-stream poller as seen by the dashboard.
type LiveController interface {
	Status() models.LiveState
	Check(ctx context.Context) error
	Start(ctx context.Context) bool
	Stop() bool
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	scores  Scoreboard
	live    LiveController
	updates <-chan tasks.Update
	refresh time.Duration

	width     int
	height    int
	rankList  list.Model
	sportList list.Model
	input     textinput.Model
	house     models.House
	editing   sportItem

	rankings []models.Ranking
	state    models.LiveState
	updated  time.Time
	activity []string
	status   string
	err      error

	help help.Model
	keys keyMap
}

// NewModel creates the dashboard. updates may be nil when no poller runs in-process.
func NewModel(ctx context.Context, scores Scoreboard, live LiveController, updates <-chan tasks.Update) *Model {
	rankList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	rankList.Title = "Standings"
	rankList.SetShowHelp(false)

	sportList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	sportList.SetShowHelp(false)

	input := textinput.New()
	input.Placeholder = "score"
	input.CharLimit = 6
	input.Width = 10

	return &Model{
		ctx:       ctx,
		view:      RankingsView,
		scores:    scores,
		live:      live,
		updates:   updates,
		refresh:   defaultRefresh,
		rankList:  rankList,
		sportList: sportList,
		input:     input,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads the standings and starts listening for poller updates.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.waitForUpdate(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := max(msg.Height-maxActivity-10, 5)
		m.rankList.SetSize(msg.Width-4, listHeight)
		m.sportList.SetSize(msg.Width-4, listHeight)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case RankingsView:
			return m.handleRankingsKeys(msg)
		case HouseView:
			return m.handleHouseKeys(msg)
		case EditView:
			return m.handleEditKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgRefreshed:
		data := msg.data.(refreshData)
		m.rankings = data.rankings
		m.state = data.live
		m.updated = data.updated
		cmd := m.rankList.SetItems(rankingItems(data.rankings))
		if m.view != RankingsView {
			if h, ok := m.scores.House(m.house.Key); ok {
				m.house = h
				cmd = tea.Batch(cmd, m.sportList.SetItems(sportItems(h)))
			}
		}
		return m, cmd

	case MsgLiveUpdate:
		u := msg.data.(tasks.Update)
		if u.Phase != tasks.ReminderArmed && u.Phase != tasks.ReminderFired {
			m.state = u.State
		}
		m.log(u.Message)
		return m, m.waitForUpdate()

	case MsgCheckDone:
		if err, _ := msg.data.(error); err != nil {
			m.log(fmt.Sprintf("Live check failed: %v", err))
		}
		return m, m.fetch()

	case MsgScoreSaved:
		data := msg.data.(savedData)
		m.view = HouseView
		if data.err != nil {
			m.status = styles.err.Render(data.err.Error())
			return m, nil
		}
		m.status = ""
		m.log(fmt.Sprintf("%s %s set to %d", m.house.Name, data.sport, data.score))
		return m, m.fetch()

	case MsgTick:
		return m, tea.Batch(m.fetch(), m.tick())
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case RankingsView:
		body = m.renderRankings()
	case HouseView:
		body = m.renderHouse()
	case EditView:
		body = m.renderEdit()
	}

	return strings.Join([]string{m.renderHeader(), body, m.renderActivity()}, "\n")
}

func (m *Model) handleRankingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.rankList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.rankList.SelectedItem().(rankingItem); ok {
			if h, ok := m.scores.House(item.ranking.Key); ok {
				m.house = h
				m.sportList.Title = h.Name
				m.view = HouseView
				m.status = ""
				return m, m.sportList.SetItems(sportItems(h))
			}
		}
		return m, nil
	case key.Matches(msg, m.keys.check):
		return m, m.checkLive()
	case key.Matches(msg, m.keys.polling):
		return m, m.togglePolling()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetch()
	}

	return m.updateLists(msg)
}

func (m *Model) handleHouseKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = RankingsView
		m.status = ""
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.sportList.SelectedItem().(sportItem); ok {
			m.editing = item
			m.input.SetValue(strconv.Itoa(item.score))
			m.input.CursorEnd()
			m.view = EditView
			return m, m.input.Focus()
		}
		return m, nil
	}

	return m.updateLists(msg)
}

func (m *Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.view = HouseView
		m.status = ""
		return m, nil
	case "enter":
		score, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
		if err != nil || score < 0 {
			m.status = styles.err.Render("Score must be a non-negative whole number")
			return m, nil
		}
		m.input.Blur()
		return m, m.saveScore(m.editing.house, m.editing.sport, score)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case RankingsView:
		m.rankList, cmd = m.rankList.Update(msg)
	case HouseView:
		m.sportList, cmd = m.sportList.Update(msg)
	}
	return m, cmd
}

func (m *Model) log(message string) {
	if message == "" {
		return
	}
	m.activity = append(m.activity, fmt.Sprintf("%s  %s", time.Now().Format("15:04:05"), message))
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func (m *Model) fetch() tea.Cmd {
	return func() tea.Msg {
		var state models.LiveState
		if m.live != nil {
			state = m.live.Status()
		}
		return refreshedMsg(m.scores.Rank(), state, m.scores.LastUpdate())
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg { return tickMsg() })
}

func (m *Model) waitForUpdate() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case update, ok := <-m.updates:
			if !ok {
				return updatesClosedMsg()
			}
			return liveUpdateMsg(update)
		case <-m.ctx.Done():
			return updatesClosedMsg()
		}
	}
}

func (m *Model) checkLive() tea.Cmd {
	if m.live == nil {
		return nil
	}
	return func() tea.Msg {
		return checkDoneMsg(m.live.Check(m.ctx))
	}
}

func (m *Model) togglePolling() tea.Cmd {
	if m.live == nil {
		return nil
	}
	return func() tea.Msg {
		if m.live.Status().Polling {
			m.live.Stop()
		} else {
			m.live.Start(m.ctx)
		}
		return refreshedMsg(m.scores.Rank(), m.live.Status(), m.scores.LastUpdate())
	}
}

func (m *Model) saveScore(house, sport string, score int) tea.Cmd {
	return func() tea.Msg {
		return scoreSavedMsg(sport, score, m.scores.Update(house, sport, score))
	}
}

func (m *Model) renderHeader() string {
	title := styles.title.Render("TCLive Dashboard")

	var live string
	switch m.state.State {
	case models.StreamLive:
		live = styles.live.Render("● LIVE") + " " + m.state.VideoID
	case models.StreamFallback:
		live = styles.warn.Render("◐ fallback " + m.state.VideoID)
	default:
		live = styles.help.Render("○ offline")
	}

	polling := styles.help.Render("polling off")
	switch {
	case m.state.HaltedReason != "":
		polling = styles.err.Render("halted: " + m.state.HaltedReason)
	case m.state.Polling:
		polling = styles.ok.Render("polling every " + m.state.Interval.String())
	}

	updated := ""
	if !m.updated.IsZero() {
		updated = styles.help.Render("scores updated " + m.updated.Format("15:04:05"))
	}

	return fmt.Sprintf("%s\n%s  %s  %s", title, live, polling, updated)
}

func (m *Model) renderRankings() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.check, m.keys.polling, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n%s", m.rankList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderHouse() string {
	editKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit score"))
	helpKeys := []key.Binding{editKey, m.keys.back, m.keys.quit}

	total := 0
	for _, v := range m.house.Scores {
		total += v
	}
	summary := styles.ok.Render(fmt.Sprintf("Total: %d", total))

	out := fmt.Sprintf("%s\n%s\n%s", m.sportList.View(), summary, m.help.ShortHelpView(helpKeys))
	if m.status != "" {
		out += "\n" + m.status
	}
	return out
}

func (m *Model) renderEdit() string {
	title := styles.title.Render(fmt.Sprintf("Set %s score for %s", m.editing.sport, m.house.Name))
	hint := styles.help.Render("enter to save • esc to cancel")

	out := fmt.Sprintf("%s\n%s\n\n%s", title, m.input.View(), hint)
	if m.status != "" {
		out += "\n" + m.status
	}
	return out
}

func (m *Model) renderActivity() string {
	if len(m.activity) == 0 {
		return styles.panel.Render(styles.help.Render("No activity yet"))
	}
	return styles.panel.Render(strings.Join(m.activity, "\n"))
}
