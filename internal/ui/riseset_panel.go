package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-armillary/internal/astro"
	"github.com/litescript/ls-armillary/internal/engine"
)

// Twilight tier colors
const (
	colorTierDay          = "#FFD700" // gold
	colorTierCivil        = "#FF8C42" // amber
	colorTierNautical     = "#5B8DEF" // dusk blue
	colorTierAstronomical = "#3C4F9A" // indigo
	colorTierNight        = "#444444" // dark gray
)

// RenderRiseSetPanel renders the Sun's day and the Moon's phase.
// Format:
//
//	Sun   Rise 06:01   Transit 12:03 @ 38°   Set 18:04   Europe/London
//	Day   12h03m   ████ day
//	Moon  Waxing Gibbous  ███░ 78%   elongation 123.4°
func RenderRiseSetPanel(f *engine.Frame) string {
	if f == nil {
		return ""
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#14B8A6")).Bold(true)
	tier := astro.GetTwilightTier(f.Sun.AltDeg)

	var lines []string

	line := labelStyle.Render(fmt.Sprintf("%-6s", "Sun"))
	switch f.RiseSet.Condition {
	case astro.ConditionAlwaysUp:
		line += colorByTier(tier, fmt.Sprintf("Above horizon all day, transit %s", f.Local.Transit))
	case astro.ConditionAlwaysDown:
		line += dimStyle.Render("Below horizon all day")
	default:
		transit := fmt.Sprintf("Transit %s", f.Local.Transit)
		if f.RiseSet.MaxAltitude != 0 {
			transit += fmt.Sprintf(" @ %.0f°", f.RiseSet.MaxAltitude)
		}
		parts := []string{
			fmt.Sprintf("Rise %s", f.Local.Sunrise),
			transit,
			fmt.Sprintf("Set %s", f.Local.Sunset),
		}
		line += colorByTier(tier, strings.Join(parts, "   "))
	}
	zone := f.Local.Zone
	if f.ZoneApproximated {
		zone += "~"
	}
	if zone != "" {
		line += "   " + dimStyle.Render(zone)
	}
	lines = append(lines, line)

	day := labelStyle.Render(fmt.Sprintf("%-6s", "Day"))
	day += dimStyle.Render(fmt.Sprintf("%-9s", formatDayLength(f.RiseSet.DayLength().Minutes()))) + RenderTwilightBar(tier)
	lines = append(lines, day)

	moon := labelStyle.Render(fmt.Sprintf("%-6s", "Moon"))
	moon += fmt.Sprintf("%-16s ", f.Phase.Name)
	moon += illuminationBar(f.Phase.Illumination) + fmt.Sprintf(" %d%%", f.Phase.Illumination)
	moon += dimStyle.Render(fmt.Sprintf("   elongation %.1f°", f.Phase.Elongation))
	lines = append(lines, moon)

	return strings.Join(lines, "\n")
}

// RenderTwilightBar renders a compact bar and name for a twilight tier.
// Format: ████ day
func RenderTwilightBar(tier astro.TwilightTier) string {
	barStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(tierToColor(tier)))
	return barStyle.Render(tierToBar(tier)) + " " + tier.String()
}

// tierToBar converts a twilight tier to a 4-character bar.
func tierToBar(tier astro.TwilightTier) string {
	switch tier {
	case astro.TierDay:
		return "████"
	case astro.TierCivil:
		return "███░"
	case astro.TierNautical:
		return "██░░"
	case astro.TierAstronomical:
		return "█░░░"
	default:
		return "░░░░"
	}
}

// tierToColor returns the color for a twilight tier.
func tierToColor(tier astro.TwilightTier) string {
	switch tier {
	case astro.TierDay:
		return colorTierDay
	case astro.TierCivil:
		return colorTierCivil
	case astro.TierNautical:
		return colorTierNautical
	case astro.TierAstronomical:
		return colorTierAstronomical
	default:
		return colorTierNight
	}
}

// colorByTier applies tier-based coloring to text.
func colorByTier(tier astro.TwilightTier, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(tierToColor(tier))).Render(text)
}

// illuminationBar renders lunar illumination in four cells.
func illuminationBar(pct int) string {
	filled := (pct + 12) / 25
	if filled > 4 {
		filled = 4
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 4-filled)
}

func formatDayLength(minutes float64) string {
	m := int(minutes)
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
