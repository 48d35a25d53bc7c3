// Package smoke verifies that a local AI model CLI is installed, has its
// model pulled, and can generate text.
package smoke

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hochfrequenz/workflow-results/internal/logging"
	"go.uber.org/zap"
)

const ruleWidth = 50

// Report aggregates the results of one run
type Report struct {
	Results []Result
	Passed  int
	Total   int
}

// Failed returns the number of failed checks
func (r Report) Failed() int { return r.Total - r.Passed }

// OK reports whether every check passed
func (r Report) OK() bool { return r.Passed == r.Total }

// Runner executes checks in order and prints their outcome
type Runner struct {
	title  string
	checks []Check
	out    io.Writer
	logger *zap.Logger

	passStyle  lipgloss.Style
	failStyle  lipgloss.Style
	titleStyle lipgloss.Style
}

// NewRunner creates a Runner that prints to out (stdout when nil)
func NewRunner(title string, checks []Check, out io.Writer, logger *zap.Logger) *Runner {
	if out == nil {
		out = os.Stdout
	}
	// Renderer bound to out so piped CI logs stay free of escape codes
	renderer := lipgloss.NewRenderer(out)
	return &Runner{
		title:      title,
		checks:     checks,
		out:        out,
		logger:     logging.OrNop(logger),
		passStyle:  renderer.NewStyle().Foreground(lipgloss.Color("2")),
		failStyle:  renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		titleStyle: renderer.NewStyle().Bold(true),
	}
}

// Run executes every check, even after failures, and prints the tally
func (r *Runner) Run(ctx context.Context) Report {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, r.titleStyle.Render(r.title))
	fmt.Fprintln(r.out, rule)

	report := Report{Total: len(r.checks)}
	for _, check := range r.checks {
		fmt.Fprintln(r.out, check.Announce)
		res := r.runCheck(ctx, check)
		if res.Passed {
			report.Passed++
			fmt.Fprintf(r.out, "%s %s\n", r.passStyle.Render("✅"), res.Message)
		} else {
			fmt.Fprintf(r.out, "%s %s\n", r.failStyle.Render("❌"), res.Message)
		}
		r.logger.Debug("check finished",
			zap.String("check", res.Name),
			zap.Bool("passed", res.Passed),
			zap.String("message", res.Message))
		report.Results = append(report.Results, res)
		fmt.Fprintln(r.out)
	}

	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "RESULTS: %d/%d tests passed\n", report.Passed, report.Total)
	if report.OK() {
		fmt.Fprintln(r.out, "🎉 All tests passed!")
	} else {
		fmt.Fprintf(r.out, "💥 %d tests failed!\n", report.Failed())
	}

	return report
}

// runCheck turns a panicking check into a failed result
func (r *Runner) runCheck(ctx context.Context, check Check) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("check panicked", zap.String("check", check.Name), zap.Any("panic", p))
			res = Result{Name: check.Name, Passed: false, Message: fmt.Sprintf("%s check failed: %v", check.Name, p)}
		}
	}()
	res = check.Run(ctx)
	if res.Name == "" {
		res.Name = check.Name
	}
	return res
}
