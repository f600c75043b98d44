package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/depstatus/pkg/deps"
	"github.com/matzehuels/depstatus/pkg/engine"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - links
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleLink for URLs.
	StyleLink = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleDanger for insecure dependencies.
	StyleDanger = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeading = lipgloss.NewStyle().Foreground(colorGray)
	styleName    = lipgloss.NewStyle().Foreground(colorWhite).Width(24)
	styleColumn  = lipgloss.NewStyle().Width(12)
)

// =============================================================================
// Icons
// =============================================================================

const iconArrow = "→"

// =============================================================================
// Analysis Output
// =============================================================================

// printOutcome prints one table per package and bucket.
func printOutcome(w io.Writer, o *engine.Outcome) {
	for i, p := range o.Packages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, StyleTitle.Render(string(p.Name)))
		printBucket(w, "Dependencies", &p.Deps.Main)
		printBucket(w, "Dev dependencies", &p.Deps.Dev)
		printBucket(w, "Build dependencies", &p.Deps.Build)
	}
}

func printBucket(w io.Writer, title string, b *deps.AnalyzedBucket) {
	if b.Len() == 0 {
		return
	}
	fmt.Fprintln(w, "  "+styleHeading.Render(title)+" "+StyleDim.Render(summaryLine(b)))
	for name, d := range b.All() {
		fmt.Fprintln(w, "    "+
			styleName.Render(string(name))+
			styleColumn.Render(d.Required.String())+
			styleColumn.Render(versionOrDash(d.LatestMatching))+
			StyleDim.Render(iconArrow)+" "+
			styleColumn.Render(versionOrDash(d.Latest))+
			statusLabel(d))
	}
}

// summaryLine counts a bucket the way the status page headline does.
func summaryLine(b *deps.AnalyzedBucket) string {
	var total, outdated, always, insecure int
	for _, d := range b.All() {
		total++
		if d.IsOutdated() {
			outdated++
		}
		if d.IsInsecure() {
			insecure++
		}
		if d.IsAlwaysInsecure() {
			always++
		}
	}
	possibly := insecure - always

	parts := []string{fmt.Sprintf("%d total", total)}
	if outdated == 0 && always == 0 && possibly == 0 {
		parts = append(parts, "all up-to-date")
	}
	if outdated > 0 {
		parts = append(parts, fmt.Sprintf("%d outdated", outdated))
	}
	if always > 0 {
		parts = append(parts, fmt.Sprintf("%d insecure", always))
	}
	if possibly > 0 {
		parts = append(parts, fmt.Sprintf("%d possibly insecure", possibly))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func statusLabel(d *deps.AnalyzedDependency) string {
	switch {
	case d.IsAlwaysInsecure():
		return StyleDanger.Render("insecure")
	case d.IsInsecure():
		return StyleWarning.Render("maybe insecure")
	case d.IsOutdated():
		return StyleWarning.Render("outdated")
	default:
		return StyleSuccess.Render("up to date")
	}
}

func versionOrDash(v *semver.Version) string {
	if v == nil {
		return "-"
	}
	return v.String()
}
