package writer

import (
	"regexp"
	"strings"
)

// EscapeLaTeX escapes the characters LaTeX treats as commands or groups.
var EscapeLaTeX = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
).Replace

// EscapeTypst escapes the characters with meaning in Typst markup mode.
var EscapeTypst = strings.NewReplacer(
	`\`, `\\`,
	`#`, `\#`,
	`$`, `\$`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
	`@`, `\@`,
	`<`, `\<`,
	`>`, `\>`,
	`[`, `\[`,
	`]`, `\]`,
	`~`, `\~`,
	`=`, `\=`,
).Replace

// typstString quotes s as a Typst string literal.
func typstString(s string) string {
	return `"` + strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	).Replace(s) + `"`
}

var blankRun = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// CollapseBlankLines reduces every run of blank lines to a single one.
func CollapseBlankLines(s string) string {
	return blankRun.ReplaceAllString(s, "\n\n")
}
