package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

const (
	ColorPrimary   = "#7C3AED"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorSecondary = "#6B7280"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary))

	DryRunStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorWarning))

	WriteStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorError))

	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondary))
)

var titleCase = cases.Title(language.English)

func printBanner(w io.Writer, op string, dryRun bool) {
	mode := WriteStyle.Render("WRITE")
	if dryRun {
		mode = DryRunStyle.Render("DRY-RUN")
	}
	fmt.Fprintf(w, "%s %s [%s]\n", TitleStyle.Render("dnssync"), op, mode)
}

func outcomeMark(o valueobject.Outcome) string {
	switch o {
	case valueobject.OutcomeInSync:
		return SuccessStyle.Render("✓")
	case valueobject.OutcomeDriftWarning:
		return WarningStyle.Render("⚠")
	default:
		return ErrorStyle.Render("✗")
	}
}

func printResult(w io.Writer, r *valueobject.ReconciliationResult) {
	fmt.Fprintf(w, "%s %s\n", outcomeMark(r.Outcome), r.String())
	if r.Correction != nil && r.Correction.Message != "" {
		fmt.Fprintf(w, "    %s\n", MutedStyle.Render(r.Correction.Message))
	}
	if r.Err != nil {
		fmt.Fprintf(w, "    %s\n", ErrorStyle.Render(r.Err.Error()))
	}
}

func printSummary(w io.Writer, s *valueobject.RunSummary) {
	fmt.Fprintln(w, TitleStyle.Render("Reconciliation"))
	if len(s.Results) == 0 {
		fmt.Fprintln(w, MutedStyle.Render("  no domains selected"))
	}
	for i := range s.Results {
		printResult(w, &s.Results[i])
	}
	fmt.Fprintf(w, "processed %d: %s, %s, %s (%s)\n",
		s.Processed,
		SuccessStyle.Render(fmt.Sprintf("%d in sync", s.Success)),
		WarningStyle.Render(fmt.Sprintf("%d warning", s.Warning)),
		ErrorStyle.Render(fmt.Sprintf("%d error", s.Error)),
		s.Duration.Round(time.Millisecond),
	)
}

func printTransitions(w io.Writer, t *orchestrator.Transitions) {
	if t.Empty() {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Tracking"))
	printNames(w, "+", SuccessStyle, "new", t.Added)
	printNames(w, "+", SuccessStyle, "reactivated", t.Reactivated)
	printNames(w, "-", WarningStyle, "inactive", t.Deactivated)
	printNames(w, "-", MutedStyle, "excluded", t.Forgotten)
}

func printNames(w io.Writer, prefix string, style lipgloss.Style, label string, names []string) {
	for _, n := range names {
		fmt.Fprintf(w, "%s %s %s\n", style.Render(prefix), n, MutedStyle.Render("("+label+")"))
	}
}

func printCleanup(w io.Writer, r *orchestrator.CleanupReport) {
	if len(r.Expired) == 0 {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Cleanup"))
	if r.DryRun {
		printNames(w, "~", WarningStyle, "would clean up", r.Expired)
		return
	}
	printNames(w, "-", SuccessStyle, "removed", r.Removed)
	failed := make([]string, 0, len(r.Failed))
	for n := range r.Failed {
		failed = append(failed, n)
	}
	sort.Strings(failed)
	for _, n := range failed {
		fmt.Fprintf(w, "%s %s %s\n", ErrorStyle.Render("✗"), n, ErrorStyle.Render(r.Failed[n].Error()))
	}
}

func printSweep(w io.Writer, r *orchestrator.SweepReport) {
	fmt.Fprintf(w, "%s checked %d orphan(s)\n", TitleStyle.Render("Orphans"), r.Checked)
	printNames(w, "+", SuccessStyle, "active", r.Recovered)
	names := make([]string, 0, len(r.Remaining))
	for n := range r.Remaining {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "%s %s %s\n", WarningStyle.Render("!"), n, MutedStyle.Render(strings.Join(r.Remaining[n], "; ")))
	}
}

var stateOrder = []entity.State{entity.StateActive, entity.StateInactive, entity.StateOrphan}

// printStatus lists tracked domains grouped by state, oldest first, and
// flags inactive domains already past the grace period.
func printStatus(w io.Writer, domains map[string]*entity.TrackedDomain, grace time.Duration) {
	now := time.Now()
	groups := map[entity.State][]*entity.TrackedDomain{}
	for _, d := range domains {
		groups[d.State] = append(groups[d.State], d)
	}

	for _, state := range stateOrder {
		ds := groups[state]
		sort.Slice(ds, func(i, j int) bool {
			if !ds[i].LastTransition.Equal(ds[j].LastTransition) {
				return ds[i].LastTransition.Before(ds[j].LastTransition)
			}
			return ds[i].Name < ds[j].Name
		})
		fmt.Fprintf(w, "%s (%d)\n", TitleStyle.Render(titleCase.String(string(state))), len(ds))
		for _, d := range ds {
			when := "never checked"
			if !d.LastTransition.IsZero() {
				when = d.LastTransition.Local().Format("2006-01-02 15:04:05")
			}
			line := fmt.Sprintf("  %-40s %s", d.Name, MutedStyle.Render(when))
			if state == entity.StateInactive && now.Sub(d.LastTransition) > grace {
				line += " " + WarningStyle.Render("cleanup due")
			}
			fmt.Fprintln(w, line)
		}
	}
}
