package summary

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/maculab/amdsim/internal/domain"
	"github.com/maculab/amdsim/internal/ports"
)

const barWidth = 24

// Render produces the terminal summary of a finished run.
func Render(result ports.RunResult) string {
	return renderView(result, newStyles())
}

func renderView(result ports.RunResult, s styles) string {
	lines := []string{
		s.title.Render("AMD Treatment Simulation"),
		s.header.Render(fmt.Sprintf("run %s | mode %s | seed %d | %d patients over %d days",
			result.RunID, result.Mode, result.Seed, result.Population, result.HorizonDay)),
	}

	lines = append(lines, s.section.Render(renderCounts(result, s)))
	lines = append(lines, s.section.Render(renderVision(result, s)))

	if stops := renderStops(result, s); stops != "" {
		lines = append(lines, s.section.Render(stops))
	}
	if mods := renderModifications(result, s); mods != "" {
		lines = append(lines, s.section.Render(mods))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderCounts(result ports.RunResult, s styles) string {
	parts := []string{
		countLine("visits", result.Stats.Visits, s),
		countLine("injections", result.Stats.Injections, s),
	}
	if result.Stats.DroppedVisits > 0 {
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render(fmt.Sprintf("%-22s", "dropped visits:")),
			s.warning.Render(fmt.Sprintf("%d", result.Stats.DroppedVisits)),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func countLine(label string, n int, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.key.Render(fmt.Sprintf("%-22s", label+":")),
		s.value.Render(fmt.Sprintf("%d", n)),
	)
}

func renderVision(result ports.RunResult, s styles) string {
	change := result.Stats.MeanVisionChange
	changeStyle := s.positive
	if change < 0 {
		changeStyle = s.negative
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render(fmt.Sprintf("%-22s", "mean final acuity:")),
			s.value.Render(fmt.Sprintf("%.1f letters", result.Stats.MeanFinalVision)),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render(fmt.Sprintf("%-22s", "mean change:")),
			changeStyle.Render(fmt.Sprintf("%+.1f letters", change)),
		),
	)
}

func renderStops(result ports.RunResult, s styles) string {
	total := 0
	for _, n := range result.Stats.DiscontinuationsByType {
		total += n
	}
	if total == 0 {
		return s.empty.Render("No discontinuations.")
	}

	parts := []string{s.key.Render(fmt.Sprintf("discontinuations: %d", total))}
	for _, typ := range domain.DiscontinuationTypes {
		n := result.Stats.DiscontinuationsByType[typ]
		if n == 0 {
			continue
		}
		share := float64(n) / float64(total)
		line := lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render(fmt.Sprintf("  %-22s", string(typ))),
			renderShareBar(share, barWidth, s),
			" ",
			s.value.Render(fmt.Sprintf("%d", n)),
		)
		if retreated := result.Stats.RetreatmentsByPrior[typ]; retreated > 0 {
			line += " " + s.positive.Render(fmt.Sprintf("(%d retreated)", retreated))
		}
		parts = append(parts, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderModifications(result ports.RunResult, s styles) string {
	if len(result.Stats.ClinicianModifications) == 0 {
		return ""
	}
	parts := []string{s.key.Render("clinician deviations from protocol:")}
	keys := make([]string, 0, len(result.Stats.ClinicianModifications))
	for key := range result.Stats.ClinicianModifications {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top,
			s.key.Render(fmt.Sprintf("  %-30s", key+":")),
			s.value.Render(fmt.Sprintf("%d", result.Stats.ClinicianModifications[key])),
		))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderShareBar(share float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}
	filled := int(math.Round(float64(width) * share))
	if filled > width {
		filled = width
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}
