// Package report renders convergence progress for humans: per-round status
// lines, per-entity coherence bars, the run summary, and the manifestation
// outcome. Rendering never feeds back into the simulation.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/coherence/internal/convergence"
	"github.com/nvandessel/coherence/internal/models"
	"github.com/nvandessel/coherence/internal/registry"
)

// BarWidth is the number of cells in a full coherence bar.
const BarWidth = 20

// Printer writes reports to an io.Writer.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer writing to w. Color enables ANSI escapes.
func New(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color}
}

// Bar renders value in [0,1] as a left-aligned block bar of width cells.
func Bar(value float64, width int) string {
	filled := int(models.Clamp01(value) * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat(" ", width-filled)
}

// Header prints the run banner.
func (p *Printer) Header(registryName string, entities int, threshold, carrier float64) {
	fmt.Fprintln(p.w, p.wrap(fmt.Sprintf("coherence: %s registry initialized (%d nodes)", registryName, entities), cBold, cPurple))
	fmt.Fprintf(p.w, "   carrier frequency: %.1f Hz | threshold: %.2f\n", carrier, threshold)
}

// Round prints one status line for a completed round.
func (p *Printer) Round(s convergence.RoundStatus) {
	ready := p.wrap("false", cYellow)
	if s.Ready {
		ready = p.wrap("true", cGreen, cBold)
	}
	fmt.Fprintf(p.w, "round %3d | aggregate %.4f | ready=%s\n", s.Round, s.Aggregate, ready)
}

// Entities prints one coherence bar per entity.
func (p *Printer) Entities(snapshots []models.Snapshot, threshold float64) {
	for _, s := range snapshots {
		barColor := cYellow
		if s.Coherence >= threshold {
			barColor = cGreen
		}
		fmt.Fprintf(p.w, "   [%s] %s | coherence: %.4f | ratio: %.2f\n",
			p.wrap(Bar(s.Coherence, BarWidth), barColor),
			p.wrap(fmt.Sprintf("%-15s", s.Name), categoryColors[s.Category]),
			s.Coherence, s.BalanceRatio)
	}
}

// Summary prints the diagnostic block for an Optimize result.
func (p *Printer) Summary(res convergence.Result, threshold float64) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.wrap(">>> SYSTEM DIAGNOSTIC", cPurple))
	fmt.Fprintf(p.w, "   aggregate coherence: %s\n", p.wrap(fmt.Sprintf("%.4f", res.Aggregate), cBold))
	fmt.Fprintf(p.w, "   rounds: %d (total %d) | threshold: %.2f | phase: %s\n",
		res.Rounds, res.TotalRounds, threshold, res.Phase)
	if res.Ready {
		fmt.Fprintf(p.w, "   status: %s\n", p.wrap("READY", cGreen, cBold))
	} else {
		fmt.Fprintf(p.w, "   status: %s\n", p.wrap("SUB-CRITICAL", cRed))
	}
}

// Manifest prints the manifestation outcome.
func (p *Printer) Manifest(m convergence.ManifestResult) {
	fmt.Fprintln(p.w)
	if !m.Unlocked {
		fmt.Fprintln(p.w, p.wrap(m.Status+": aggregate below threshold, manifestation refused", cRed))
		return
	}
	fmt.Fprintln(p.w, p.wrap(">>> MANIFESTATION", cBold, cYellow))
	for _, o := range m.Strategies {
		performers := "none"
		if len(o.Performers) > 0 {
			performers = strings.Join(o.Performers, ", ")
		}
		fmt.Fprintf(p.w, "   %s %s... COMPLETE (%s)\n",
			p.wrap("["+string(o.Category)+"]", categoryColors[o.Category]), o.Task, performers)
	}
	fmt.Fprintln(p.w, p.wrap(m.Status, cGreen, cBold))
}

// Registry prints the entries of a registry with their category profiles.
func (p *Printer) Registry(name string, entries []registry.Entry) {
	fmt.Fprintf(p.w, "%s (%d entries)\n", p.wrap(name, cBold), len(entries))
	for _, e := range entries {
		profile, _ := e.Category.Profile()
		fmt.Fprintf(p.w, "  %-15s %s  ratio=%.2f precision=%.2f flow=%.2f align=%s\n",
			e.Name,
			p.wrap(fmt.Sprintf("%-9s", e.Category), categoryColors[e.Category]),
			profile.Ratio, profile.Precision, profile.Flow, profile.Alignment)
		if e.Role != "" {
			fmt.Fprintf(p.w, "  %-15s %s\n", "", e.Role)
		}
	}
}

// Markdown renders a status as a markdown document.
func Markdown(s convergence.RoundStatus, threshold float64) string {
	var sb strings.Builder
	sb.WriteString("# Coherence Status\n\n")
	fmt.Fprintf(&sb, "- round: %d\n", s.Round)
	fmt.Fprintf(&sb, "- aggregate: %.4f (threshold %.2f)\n", s.Aggregate, threshold)
	fmt.Fprintf(&sb, "- phase: %s\n", s.Phase)
	fmt.Fprintf(&sb, "- ready: %t\n\n", s.Ready)

	sb.WriteString("| entity | category | coherence | precision | flow | ratio |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for _, e := range s.Entities {
		fmt.Fprintf(&sb, "| %s | %s | %.4f | %.2f | %.2f | %.2f |\n",
			e.Name, e.Category, e.Coherence, e.Precision, e.Flow, e.BalanceRatio)
	}
	return sb.String()
}
