package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ASH1998/AI-Task-Tracker/pkg/models"
)

// Dashboard panel indices.
const (
	panelTopics = iota
	panelStats
	panelRecent
	panelCount
)

const recentRecordLimit = 10

type dashboardModel struct {
	activePanel int
	width       int
	height      int

	// Data.
	topics []topicSnapshot
	stats  *statsSnapshot
	recent []recordSnapshot

	// State.
	loading bool
	err     error
}

type topicSnapshot struct {
	topic   string
	count   int
	minutes float64
}

type statsSnapshot struct {
	totalRecords   int
	failureRecords int
	distinctTopics int
	firstRecord    string
	lastRecord     string
}

type recordSnapshot struct {
	time        string
	app         string
	topic       string
	description string
	failure     bool
	shotMissing bool
}

// dataLoadedMsg carries loaded data back to the model.
type dataLoadedMsg struct {
	topics []topicSnapshot
	stats  *statsSnapshot
	recent []recordSnapshot
	err    error
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			MarginBottom(1)

	topicStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newDashboardModel() dashboardModel {
	return dashboardModel{
		activePanel: panelTopics,
		loading:     true,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return loadData
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.activePanel = (m.activePanel + 1) % panelCount
			return m, nil
		case "shift+tab":
			m.activePanel = (m.activePanel - 1 + panelCount) % panelCount
			return m, nil
		case "r":
			m.loading = true
			return m, loadData
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case dataLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.topics = msg.topics
		m.stats = msg.stats
		m.recent = msg.recent
		m.err = nil
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	title := titleStyle.Render(" Task Tracker Dashboard ")
	help := helpStyle.Render("tab: switch panel | r: reload | q: quit")

	if m.loading {
		return fmt.Sprintf("%s\n\n  Loading activity log...\n\n%s", title, help)
	}

	if m.err != nil {
		return fmt.Sprintf("%s\n\n  Error: %s\n\n%s", title, m.err, help)
	}

	topicsPanel := m.renderTopicsPanel()
	statsPanel := m.renderStatsPanel()
	recentPanel := m.renderRecentPanel()

	// Available width for panels after accounting for margins.
	availableWidth := m.width - 2

	var body string
	if availableWidth > 120 {
		// Horizontal layout: topics and stats side by side, recent below.
		colWidth := availableWidth / 2
		topicsPanel = m.applyPanelStyle(panelTopics, topicsPanel, colWidth-4)
		statsPanel = m.applyPanelStyle(panelStats, statsPanel, colWidth-4)
		recentPanel = m.applyPanelStyle(panelRecent, recentPanel, availableWidth-6)
		top := lipgloss.JoinHorizontal(lipgloss.Top, topicsPanel, statsPanel)
		body = lipgloss.JoinVertical(lipgloss.Left, top, recentPanel)
	} else {
		// Vertical layout: stacked.
		panelWidth := availableWidth - 4
		if panelWidth < 20 {
			panelWidth = 20
		}
		topicsPanel = m.applyPanelStyle(panelTopics, topicsPanel, panelWidth)
		statsPanel = m.applyPanelStyle(panelStats, statsPanel, panelWidth)
		recentPanel = m.applyPanelStyle(panelRecent, recentPanel, panelWidth)
		body = lipgloss.JoinVertical(lipgloss.Left, topicsPanel, statsPanel, recentPanel)
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, help)
}

func (m dashboardModel) applyPanelStyle(panel int, content string, width int) string {
	style := panelStyle
	if m.activePanel == panel {
		style = activePanelStyle
	}
	return style.Width(width).Render(content)
}

func (m dashboardModel) renderTopicsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Time by Topic"))
	b.WriteString("\n")

	if len(m.topics) == 0 {
		b.WriteString("  No activity recorded yet.")
		return b.String()
	}

	for _, t := range m.topics {
		label := fmt.Sprintf("  %-24s %6.1f min  (%d)", truncate(t.topic, 24), t.minutes, t.count)
		b.WriteString(topicStyle.Render(label))
		b.WriteString("\n")
	}

	return b.String()
}

func (m dashboardModel) renderStatsPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Log Statistics"))
	b.WriteString("\n")

	if m.stats == nil || m.stats.totalRecords == 0 {
		b.WriteString("  No activity recorded yet.")
		return b.String()
	}

	s := m.stats
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Records", s.totalRecords))
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Failures", s.failureRecords))
	b.WriteString(fmt.Sprintf("  %-16s %d\n", "Topics", s.distinctTopics))
	if s.firstRecord != "" {
		b.WriteString(fmt.Sprintf("  %-16s %s\n", "First record", s.firstRecord))
		b.WriteString(fmt.Sprintf("  %-16s %s\n", "Last record", s.lastRecord))
	}

	return b.String()
}

func (m dashboardModel) renderRecentPanel() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Recent Activity"))
	b.WriteString("\n")

	if len(m.recent) == 0 {
		b.WriteString("  No activity recorded yet.")
		return b.String()
	}

	for _, r := range m.recent {
		line := fmt.Sprintf("  %s  %-18s %-20s %s", r.time, truncate(r.app, 18), truncate(r.topic, 20), truncate(r.description, 40))
		switch {
		case r.failure:
			b.WriteString(failureStyle.Render(line))
		case r.shotMissing:
			b.WriteString(dimStyle.Render(line + "  [screenshot missing]"))
		default:
			b.WriteString(line)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func loadData() tea.Msg {
	var result dataLoadedMsg

	if Store == nil {
		result.err = fmt.Errorf("activity store not initialized")
		return result
	}

	records, err := Store.LoadAll()
	if err != nil {
		result.err = fmt.Errorf("loading activity log: %w", err)
		return result
	}

	if Metrics != nil {
		for _, s := range Metrics.TopicSummaries(records) {
			result.topics = append(result.topics, topicSnapshot{
				topic:   s.Topic,
				count:   s.Count,
				minutes: s.Minutes,
			})
		}

		stats := Metrics.Stats(records)
		snap := &statsSnapshot{
			totalRecords:   stats.TotalRecords,
			failureRecords: stats.FailureRecords,
			distinctTopics: stats.DistinctTopics,
		}
		if !stats.FirstRecord.IsZero() {
			snap.firstRecord = stats.FirstRecord.Format("2006-01-02 15:04")
			snap.lastRecord = stats.LastRecord.Format("2006-01-02 15:04")
		}
		result.stats = snap
	}

	// Newest records first.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if len(records) > recentRecordLimit {
		records = records[:recentRecordLimit]
	}

	var shotDir string
	if Cfg != nil {
		shotDir = Cfg.ScreenshotDir()
	}
	for _, r := range records {
		result.recent = append(result.recent, recordSnapshot{
			time:        r.Timestamp.Format("01-02 15:04"),
			app:         r.AppName,
			topic:       r.MainTopic,
			description: r.CrispDescription,
			failure:     r.IsFailure(),
			shotMissing: screenshotMissing(shotDir, r),
		})
	}

	return result
}

// screenshotMissing reports whether a record references a screenshot file
// that no longer exists on disk.
func screenshotMissing(shotDir string, r models.ActivityRecord) bool {
	if r.ScreenshotFile == "" || shotDir == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(shotDir, r.ScreenshotFile))
	return err != nil
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Interactive TUI dashboard for the activity log",
	Long: `Launch an interactive terminal dashboard showing time spent per topic,
overall log statistics, and the most recent activity records.

The dashboard is read-only. Navigate between panels with Tab, reload the
log with r, quit with q.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("activity store not initialized")
		}
		p := tea.NewProgram(newDashboardModel(), tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}
