package core

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Console prints action lines and a final PASSED/FAILED summary table,
// colorized when writing to a terminal. Grounded on rime/util/console.py's
// PrintAction/PrintLog split between diagnostic logging and user-facing
// status lines.
type Console struct {
	Out     io.Writer
	Quiet   bool
	colored bool
}

// NewConsole builds a Console writing to out, auto-detecting color support
// via go-isatty the way the original checks sys.stdout.isatty().
func NewConsole(out io.Writer, quiet bool) *Console {
	colored := false
	if f, ok := out.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Console{Out: out, Quiet: quiet, colored: colored}
}

var (
	cyanStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	redStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Action prints one "VERB target: detail" line (cmd/rime uses BUILD, TEST
// and CLEAN), suppressed when Quiet is set.
func (c *Console) Action(verb, target, detail string) {
	if c.Quiet {
		return
	}
	if detail == "" {
		fmt.Fprintf(c.Out, "%-8s %s\n", verb, target)
		return
	}
	fmt.Fprintf(c.Out, "%-8s %s: %s\n", verb, target, detail)
}

// Result prints one solution's PASSED/FAILED status row.
func (c *Console) Result(solutionName string, passed bool, detail string) {
	status := c.style(passed, map[bool]string{true: "PASSED", false: "FAILED"}[passed])
	if detail == "" {
		fmt.Fprintf(c.Out, "%s %s\n", status, solutionName)
		return
	}
	fmt.Fprintf(c.Out, "%s %s: %s\n", status, solutionName, detail)
}

func (c *Console) style(passed bool, s string) string {
	if !c.colored {
		return s
	}
	if passed {
		return cyanStyle.Render(s)
	}
	return redStyle.Render(s)
}

// Summary prints the final error/warning counts recorded during the run.
func (c *Console) Summary(recorder *ErrorRecorder) {
	errs := recorder.Count(LevelError)
	warns := recorder.Count(LevelWarning)
	if errs == 0 && warns == 0 {
		return
	}
	for _, e := range recorder.Errors() {
		fmt.Fprintln(c.Out, e.String())
	}
	fmt.Fprintf(c.Out, "%d error(s), %d warning(s)\n", errs, warns)
}
