// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dota2-divine-ui/updater/internal/issue"
)

//nolint:gochecknoglobals // Test seam for term.IsTerminal().
var isTerminal = term.IsTerminal

// waitForEnter keeps a double-clicked console window open until the user
// presses Enter. It does nothing when in is not an interactive terminal.
func waitForEnter(in io.Reader, out io.Writer) {
	if !isTerminalFile(in) {
		return
	}
	fmt.Fprint(out, "\nPress Enter to exit...")
	_, _ = bufio.NewReader(in).ReadString('\n') //nolint:errcheck // Any input, or EOF, ends the wait.
}

// isTerminalFile reports whether v is an *os.File attached to a terminal.
func isTerminalFile(v any) bool {
	f, ok := v.(*os.File)
	return ok && isTerminal(int(f.Fd()))
}

// issueStyle picks the glamour style for w: colors only on a terminal.
func issueStyle(w io.Writer) string {
	if isTerminalFile(w) {
		return "dark"
	}
	return "notty"
}

// renderIssue writes a rendered issue page to w.
func renderIssue(w io.Writer, page *issue.Issue) {
	fmt.Fprint(w, renderIssueStyled(page, issueStyle(w)))
}

func renderIssueStyled(page *issue.Issue, style string) string {
	if page == nil {
		return ""
	}
	rendered, err := page.Render(style)
	if err != nil {
		return page.Markdown()
	}
	return rendered
}
