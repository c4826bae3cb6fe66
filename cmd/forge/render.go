package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"springforge/internal/scaffold"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6DB33F"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func renderSummary(res *scaffold.Result) string {
	head := titleStyle.Render(fmt.Sprintf("%s · %d files", res.ProjectName, len(res.Files)))
	lines := make([]string, 0, len(res.Files)+4)
	for _, f := range res.Files {
		lines = append(lines, "  "+f)
	}
	body := mutedStyle.Render(strings.Join(lines, "\n"))

	archive := "archive: " + res.ArchivePath
	if res.ArchiveURL != "" {
		archive += "\nurl: " + res.ArchiveURL
	}
	parts := []string{head, body, archive}
	if len(res.Degraded) > 0 {
		parts = append(parts, warnStyle.Render("from templates: "+strings.Join(res.Degraded, ", ")))
	}
	parts = append(parts, mutedStyle.Render("generation "+res.GenerationID))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func renderFailure(err error) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render("generation failed ("+string(scaffold.KindOf(err))+")"),
		err.Error(),
	))
}
