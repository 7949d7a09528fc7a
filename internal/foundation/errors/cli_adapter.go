package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// Exit codes by category. Unlisted categories and unclassified errors exit 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryConfig:     7,
	CategoryInternal:   10,
	CategoryBuild:      11,
	CategoryFileSystem: 11,
	CategoryRender:     11,
	CategoryParse:      11,
}

// ExitCodeFor returns the process exit code for err; 0 for nil.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		if code, ok := exitCodes[classified.Category()]; ok {
			return code
		}
	}
	return 1
}

// FormatError formats an error for user-friendly display. A joined error
// from a build is shown by its first failure and the number of others.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	var msg string
	if classified, ok := AsClassified(err); ok {
		msg = a.formatClassified(classified)
	} else {
		msg = fmt.Sprintf("Error: %v", err)
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok && !a.verbose {
		if n := len(joined.Unwrap()); n > 1 {
			msg += fmt.Sprintf(" (+%d more)", n-1)
		}
	}
	return msg
}

func (a *CLIErrorAdapter) formatClassified(err *ClassifiedError) string {
	if a.verbose {
		return err.Error()
	}
	if err.Category() == CategoryInternal {
		return "Internal error occurred (use -v for details)"
	}
	if path, ok := err.Context().GetString("path"); ok {
		return fmt.Sprintf("Error: %s (%s)", err.Message(), path)
	}
	return "Error: " + err.Message()
}

// SummarizeWarnings counts warnings per category, e.g.
// "3 warnings (config=1, link=2)". It returns "" for none.
func SummarizeWarnings(warnings []error) string {
	if len(warnings) == 0 {
		return ""
	}
	counts := make(map[ErrorCategory]int)
	for _, w := range warnings {
		counts[GetCategory(w)]++
	}
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = fmt.Sprintf("%s=%d", c, counts[ErrorCategory(c)])
	}
	noun := "warnings"
	if len(warnings) == 1 {
		noun = "warning"
	}
	return fmt.Sprintf("%d %s (%s)", len(warnings), noun, strings.Join(parts, ", "))
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		level := classified.Severity().Level()
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		for k, v := range classified.Context() {
			attrs = append(attrs, slog.Any(k, v))
		}
		a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}
