// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Issue page identifiers.
const (
	GameNotFoundID Id = iota + 1
	MirrorsExhaustedID
	VerifyFailedID
	ConfigLoadFailedID
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	// Issue is a Markdown help page shown when a failure needs more than a
	// one-line explanation.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		details  []string   // run-specific lines appended under "Details"
		docLinks []HttpLink // must never be empty
	}
)

var (
	render = glamour.Render

	gameNotFoundIssue = &Issue{
		id: GameNotFoundID,
		mdMsg: `
# Oops! We could not find Dota 2

To install or update Divine UI the updater needs to know where the game lives.

## Things you can try
- Move this updater to the ` + "`/game/`" + ` folder of Dota 2, next to the ` + "`dota`" + ` folder:
~~~
...\Steam\steamapps\common\dota 2 beta\game\
~~~
- Or tell the updater where the game is:
~~~
$ divineui-updater --game-dir "/path/to/dota 2 beta/game"
~~~`,
		docLinks: []HttpLink{"https://github.com/dota2-divine-ui/divine-ui#installation"},
	}

	mirrorsExhaustedIssue = &Issue{
		id: MirrorsExhaustedID,
		mdMsg: `
# We could not download Divine UI

Every download mirror failed. Nothing else was changed on your system besides the
Divine UI folder itself.

## Manual installation
1. Download the latest package from one of the mirrors listed below.
2. Extract it into ` + "`game/dota_divine_ui`" + ` (move the files out of the ` + "`divine-ui-master`" + ` folder).
3. Download ` + "`gameinfo.gi`" + ` and replace ` + "`game/dota/gameinfo.gi`" + ` with it.
4. Run the updater again to verify the installation.`,
		docLinks: []HttpLink{"https://github.com/dota2-divine-ui/divine-ui#manual-installation"},
	}

	verifyFailedIssue = &Issue{
		id: VerifyFailedID,
		mdMsg: `
# Oh no! We could not verify the installation

The files were installed, but the installed version does not match the latest
published version. This can be a problem of the updater itself.

## Things you can try
- Check the contents of ` + "`game/dota_divine_ui/version.txt`" + ` manually.
- Run the updater again with ` + "`--redownload --verbose`" + `.`,
		docLinks: []HttpLink{"https://github.com/dota2-divine-ui/divine-ui/issues"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedID,
		mdMsg: `
# The configuration file could not be loaded

## Things you can try
- Print the defaults with:
~~~
$ divineui-updater config show
~~~
- Regenerate a fresh file with ` + "`divineui-updater config init`" + ` after removing the broken one.`,
		docLinks: []HttpLink{"https://github.com/dota2-divine-ui/divine-ui#configuration"},
	}

	issues = map[Id]*Issue{
		gameNotFoundIssue.id:     gameNotFoundIssue,
		mirrorsExhaustedIssue.id: mirrorsExhaustedIssue,
		verifyFailedIssue.id:     verifyFailedIssue,
		configLoadFailedIssue.id: configLoadFailedIssue,
	}
)

// WithDetails returns a copy of the issue with run-specific lines (mirror URLs,
// paths) listed under a Details heading.
func (i *Issue) WithDetails(lines ...string) *Issue {
	cp := *i
	cp.details = append(slices.Clone(i.details), lines...)
	return &cp
}

// Markdown assembles the full page source.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))

	if len(i.details) > 0 {
		sb.WriteString("\n\n## Details\n")
		for _, line := range i.details {
			sb.WriteString("- ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	if len(i.docLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			sb.WriteString("- [" + string(link) + "](" + string(link) + ")\n")
		}
	}

	return sb.String()
}

// Render renders the page for the terminal. stylePath is a glamour style name
// ("auto", "dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

// Get returns the issue page for id, or nil when none is registered.
func Get(id Id) *Issue {
	return issues[id]
}
