package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m *model) View() string {
	switch m.stage {
	case stagePicker:
		return m.viewPicker()
	case stageLoading:
		return m.viewBusy()
	case stageViewer:
		return m.viewViewer()
	case stageTextEntry:
		return m.viewTextEntry()
	case stageExporting:
		return m.viewBusy()
	default:
		return ""
	}
}

func (m *model) viewPicker() string {
	parts := []string{
		m.heroView(),
		sectionHeaderStyle.Render("Open a PDF"),
		m.picker.View(),
		helperStyle.Render("Enter opens the selection, Esc quits."),
	}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	return joinNonEmpty(parts)
}

func (m *model) viewBusy() string {
	return joinNonEmpty([]string{
		m.heroView(),
		fmt.Sprintf("%s %s", m.spinner.View(), helperStyle.Render(m.infoMessage)),
	})
}

func (m *model) viewViewer() string {
	parts := []string{m.heroView(), m.statusBarView(), m.pagePanels()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, helperStyle.Render(m.infoMessage))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	return joinNonEmpty(parts)
}

func (m *model) viewTextEntry() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("New Text Note"))
	b.WriteRune('\n')
	b.WriteString(m.noteInput.View())
	b.WriteRune('\n')
	b.WriteString(helperStyle.Render("Enter commits the note at the cursor, Esc cancels."))
	return joinNonEmpty([]string{m.heroView(), m.statusBarView(), b.String()})
}

func (m *model) pagePanels() string {
	doc, ok := m.config.Session.Document()
	if !ok {
		return helperStyle.Render("No document loaded.")
	}
	page := m.config.Session.Page()
	bounds, ok := doc.Bounds(page)
	if !ok {
		return helperStyle.Render("Page out of range.")
	}

	preview, previewStyle, previewing := m.config.Coordinator.Preview()
	grid := m.canvas.render(bounds, page, m.config.Coordinator.Committed(), preview, previewStyle, previewing)
	canvasPanel := canvasBoxStyle.Render(grid)

	textPanel := lipgloss.JoinVertical(
		lipgloss.Left,
		sectionHeaderStyle.Render("Extracted Text"),
		textBoxStyle.Render(m.textPanel.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasPanel, strings.Repeat(" ", panelGap), textPanel)
}

func (m *model) statusBarView() string {
	style := m.config.Session.ActiveStyle()
	stats := []string{
		filepath.Base(m.config.Session.Path()),
		fmt.Sprintf("Page %d/%d", m.config.Session.Page()+1, m.config.Session.PageCount()),
		fmt.Sprintf("Tool %s", strings.ToUpper(m.config.Session.ActiveTool().String())),
		fmt.Sprintf("Color %s", palette[m.colorIdx].name),
		fmt.Sprintf("Width %.0f", style.Width),
		fmt.Sprintf("Marks %d", m.config.Coordinator.Depth()),
	}
	if _, _, inProgress := m.config.Coordinator.Preview(); inProgress {
		stats = append(stats, "Drawing…")
	}
	if m.exportedPath != "" {
		stats = append(stats, "Exported")
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"↑↓←→/hjkl", "Move cursor"},
		{"Enter", "Tap"},
		{"b/e/x", "Stroke begin/end/cancel"},
		{"p i t g", "Pointer/Ink/Text/Highlight"},
		{"c", "Cycle color"},
		{"+/-", "Stroke width"},
		{"[/]", "Prev/next page"},
		{"u", "Undo last mark"},
		{"s", "Export copy"},
		{"o", "Open another PDF"},
		{"?", "Toggle this cheatsheet"},
		{"q", "Quit"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		renderLogo(),
		taglineStyle.Render(heroTagline),
	)
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width += 1
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			if y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: logoShadowStyle}
			}
		}
	}

	for y, runes := range lineRunes {
		for x, r := range runes {
			if r == ' ' {
				continue
			}
			grid[y][x] = cell{r: r, style: logoFaceStyle}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return logoContainerStyle.Render(strings.Join(lines, "\n"))
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	heroAccentColor        = lipgloss.Color("#e63946")
	heroInkColor           = lipgloss.Color("#1d1a2f")
	heroTextColor          = lipgloss.Color("#f1faee")
	heroSecondaryTextColor = lipgloss.Color("#f4a261")

	cursorColor = lipgloss.Color("#8ecae6")

	taglineStyle       = lipgloss.NewStyle().Foreground(heroSecondaryTextColor).Italic(true)
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	canvasBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(heroAccentColor).Padding(0, 1)
	textBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	logoFaceStyle      = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroInkColor)
	logoShadowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0a0815"))
	logoContainerStyle = lipgloss.NewStyle().Padding(0, 1)
	logoArtLines       = []string{
		"█▀█ █▀▄ █▀▀ █▀▄▀█ ▄▀█ █▀█ █▄▀",
		"█▀▀ █▄▀ █▀  █ ▀ █ █▀█ █▀▄ █ █",
	}
)
