// Package params parses run-configuration parameter strings into argv
// form and expands placeholder macros against a concrete run context.
//
// Tokenization is shell-like: arguments are separated by whitespace,
// double quotes group with backslash escapes, single quotes group
// literally. Macros are written $NAME$ and expand everywhere except
// inside single quotes; unknown macros stay verbatim and are reported to
// the caller.
package params

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Macro names understood by Expand.
const (
	MacroModuleName  = "MODULE_NAME"
	MacroConfigName  = "CONFIG_NAME"
	MacroProjectName = "PROJECT_NAME"
)

// CommandLine is a parsed parameter string.
type CommandLine struct {
	Arguments []*Argument `@@*`
}

// Argument is a single argv entry in one of the three token forms.
type Argument struct {
	DoubleQuoted *string `  @DoubleQuoted`
	SingleQuoted *string `| @SingleQuoted`
	Word         *string `| @Word`
}

// paramLexer tokenizes parameter strings. Quoted forms must close; an
// unterminated quote is a parse error.
var paramLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "DoubleQuoted", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "SingleQuoted", Pattern: `'[^']*'`},
	{Name: "Word", Pattern: `[^\s"']+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var paramParser = participle.MustBuild[CommandLine](
	participle.Lexer(paramLexer),
	participle.Elide("Whitespace"),
)

// macroPattern matches $NAME$ references.
var macroPattern = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)\$`)

// Parse parses a parameter string. An empty string parses to an empty
// command line.
func Parse(s string) (*CommandLine, error) {
	if strings.TrimSpace(s) == "" {
		return &CommandLine{}, nil
	}
	cl, err := paramParser.ParseString("", s)
	if err != nil {
		return nil, fmt.Errorf("parsing parameters %q: %w", s, err)
	}
	return cl, nil
}

// Args returns the unquoted argument values without macro expansion.
func (c *CommandLine) Args() []string {
	args := make([]string, 0, len(c.Arguments))
	for _, a := range c.Arguments {
		value, _ := a.value()
		args = append(args, value)
	}
	return args
}

// Expansion provides macro values for a concrete run.
type Expansion struct {
	ModuleName  string
	ConfigName  string
	ProjectName string
}

func (x Expansion) lookup(name string) (string, bool) {
	switch name {
	case MacroModuleName:
		return x.ModuleName, true
	case MacroConfigName:
		return x.ConfigName, true
	case MacroProjectName:
		return x.ProjectName, true
	}
	return "", false
}

// Expand returns the argv with macros substituted, plus the names of any
// unknown macros encountered, deduplicated in first-seen order. Unknown
// references stay verbatim in the output.
func (c *CommandLine) Expand(x Expansion) ([]string, []string) {
	args := make([]string, 0, len(c.Arguments))
	var unknown []string
	seen := make(map[string]bool)

	for _, a := range c.Arguments {
		value, literal := a.value()
		if literal {
			args = append(args, value)
			continue
		}
		expanded := macroPattern.ReplaceAllStringFunc(value, func(ref string) string {
			name := ref[1 : len(ref)-1]
			if replacement, ok := x.lookup(name); ok {
				return replacement
			}
			if !seen[name] {
				seen[name] = true
				unknown = append(unknown, name)
			}
			return ref
		})
		args = append(args, expanded)
	}
	return args, unknown
}

// value returns the argument's unquoted text and whether it is literal
// (exempt from macro expansion).
func (a *Argument) value() (string, bool) {
	switch {
	case a.DoubleQuoted != nil:
		t := *a.DoubleQuoted
		return unescape(t[1 : len(t)-1]), false
	case a.SingleQuoted != nil:
		t := *a.SingleQuoted
		return t[1 : len(t)-1], true
	case a.Word != nil:
		return *a.Word, false
	}
	return "", true
}

// unescape resolves backslash escapes inside double-quoted arguments.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			sb.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		sb.WriteRune(r)
	}
	if escaped {
		sb.WriteRune('\\')
	}
	return sb.String()
}
