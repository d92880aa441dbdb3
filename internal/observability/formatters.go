// Package observability provides formatted output for verbose CLI mode, pipeline metrics and logger setup.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/echiveai-alt/funnytime2-sub001/internal/pipeline"
	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, ending in "..." when cut
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintProgress outputs a one-line progress marker for a pipeline event.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(event pipeline.ProgressEvent) {
	marker := "▸"
	switch event.Stage {
	case types.StageDone:
		marker = "✓"
	case types.StageFailed:
		marker = "✗"
	case types.StageSkipped:
		marker = "–"
	}
	fmt.Fprintf(p.out, "%s [%s] %s\n", marker, event.Stage, event.Message)
}

// PrintRequirements outputs a human-readable summary of the extracted job requirements.
func (p *Printer) PrintRequirements(stage1 *types.Stage1Result) {
	if stage1 == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:     %s\n", stage1.JobTitle))
	if stage1.CompanySummary != "" {
		sb.WriteString(fmt.Sprintf("Company:  %s\n", stage1.CompanySummary))
	}
	sb.WriteString("\n")

	if len(stage1.JobRequirements) > 0 {
		sb.WriteString(fmt.Sprintf("Requirements (%d):\n", len(stage1.JobRequirements)))
		count := min(len(stage1.JobRequirements), maxItemsToShow)
		for i := 0; i < count; i++ {
			req := stage1.JobRequirements[i]
			sb.WriteString(fmt.Sprintf("  • %s (%s)\n", req.Requirement, req.Importance))
		}
		if len(stage1.JobRequirements) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(stage1.JobRequirements)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(stage1.AllKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Keywords: %s\n", strings.Join(stage1.AllKeywords, ", ")))
	}

	p.printBox("EXTRACTED REQUIREMENTS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintFitAssessment outputs the score, fit level and the gaps that drove it.
func (p *Printer) PrintFitAssessment(assessment *types.FitAssessment) {
	if assessment == nil {
		return
	}

	var sb strings.Builder
	verdict := "not a fit"
	if assessment.IsFit {
		verdict = "fit"
	}
	sb.WriteString(fmt.Sprintf("Score:    %d (%s, %s)\n", assessment.OverallScore, assessment.FitLevel, verdict))
	sb.WriteString(fmt.Sprintf("Matched:  %d of %d\n",
		len(assessment.MatchedRequirements),
		len(assessment.MatchedRequirements)+len(assessment.UnmatchedRequirements)))

	if len(assessment.MatchedRequirements) > 0 {
		sb.WriteString("\nMatched:\n")
		count := min(len(assessment.MatchedRequirements), maxItemsToShow)
		for i := 0; i < count; i++ {
			m := assessment.MatchedRequirements[i]
			sb.WriteString(fmt.Sprintf("  ✓ %s [%s/%s]\n", m.Requirement.Requirement, m.MatchType, m.EvidenceStrength))
		}
		if len(assessment.MatchedRequirements) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(assessment.MatchedRequirements)-maxItemsToShow))
		}
	}

	if len(assessment.AbsoluteGaps) > 0 {
		sb.WriteString("\nAbsolute gaps:\n")
		for _, gap := range assessment.AbsoluteGaps {
			sb.WriteString(fmt.Sprintf("  ⚠ %s\n", gap.Requirement))
		}
	}

	if len(assessment.CriticalGaps) > 0 {
		sb.WriteString("\nCritical gaps:\n")
		count := min(len(assessment.CriticalGaps), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", assessment.CriticalGaps[i].Requirement))
		}
		if len(assessment.CriticalGaps) > 3 {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(assessment.CriticalGaps)-3))
		}
	}

	p.printBox("FIT ASSESSMENT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBullets outputs the generated bullets per role with width indicators.
func (p *Printer) PrintBullets(bullets *types.BulletOutput) {
	if bullets == nil || bullets.TotalBullets() == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d bullets:\n", bullets.TotalBullets()))

	for _, key := range types.SortedRoleKeys(bullets.BulletsByRole) {
		roleBullets := bullets.BulletsByRole[key]
		if len(roleBullets) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n%s\n", key))
		for _, b := range roleBullets {
			flag := ""
			if b.ExceedsWidth {
				flag = " ⚠width"
			}
			sb.WriteString(fmt.Sprintf("• %s%s\n", truncate(b.Text, 44), flag))
		}
	}

	if len(bullets.KeywordsNotUsed) > 0 {
		sb.WriteString(fmt.Sprintf("\nMissing keywords: %s\n", strings.Join(bullets.KeywordsNotUsed, ", ")))
	}

	p.printBox("GENERATED BULLETS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintActionPlan outputs the summary and next steps of a finished run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintActionPlan(plan types.ActionPlan) {
	if plan.Summary == "" && len(plan.NextSteps) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO ACTION PLAN")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(plan.Summary)
	for i, step := range plan.NextSteps {
		if i == 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("\n%d. %s", i+1, step))
	}

	p.printBox("ACTION PLAN", sb.String())
}
