package ignore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/llmctx/internal/types"
)

const (
	commentPrefix   = "#"
	negationPrefix  = "!"
	pathSeparator   = "/"
	escapeCharacter = `\`
	byteOrderMark   = "\ufeff"
)

// ErrMalformedPattern reports an ignore line that cannot produce a rule.
var ErrMalformedPattern = errors.New("malformed pattern line")

// Compiler appends rules from one or more ignore sources while preserving
// their order. A Compiler is not safe for concurrent use; the RuleSet it
// returns is.
type Compiler struct {
	rules       []Rule
	diagnostics []types.Diagnostic
}

// NewCompiler returns a compiler that starts from the provided rule sets, in order.
// Passing DefaultRuleSet first lets later ignore files override the defaults.
func NewCompiler(base ...RuleSet) *Compiler {
	compiler := &Compiler{}
	for _, ruleSet := range base {
		for _, rule := range ruleSet.rules {
			compiler.appendRule(rule)
		}
	}
	return compiler
}

// Compile parses lines from a single source into a RuleSet.
func Compile(source string, lines []string) (RuleSet, []types.Diagnostic) {
	compiler := NewCompiler()
	compiler.AddLines(source, lines)
	return compiler.RuleSet(), compiler.Diagnostics()
}

// AddText splits text into lines and compiles them.
func (compiler *Compiler) AddText(source string, text string) {
	compiler.AddLines(source, strings.Split(text, "\n"))
}

// AddLines compiles lines in order. Malformed lines are skipped and recorded
// as diagnostics.
func (compiler *Compiler) AddLines(source string, lines []string) {
	for lineIndex, rawLine := range lines {
		if lineIndex == 0 {
			rawLine = strings.TrimPrefix(rawLine, byteOrderMark)
		}
		rule, parseError := parseLine(rawLine)
		if parseError != nil {
			compiler.diagnostics = append(compiler.diagnostics, types.Diagnostic{
				Kind:    types.DiagnosticMalformedPatternLine,
				Path:    source,
				Line:    lineIndex + 1,
				Message: parseError.Error(),
			})
			continue
		}
		if rule == nil {
			continue
		}
		rule.Source = source
		rule.Line = lineIndex + 1
		compiler.appendRule(*rule)
	}
}

// RuleSet returns the rules compiled so far.
func (compiler *Compiler) RuleSet() RuleSet {
	return RuleSet{rules: append([]Rule(nil), compiler.rules...)}
}

// Diagnostics returns the warnings collected so far.
func (compiler *Compiler) Diagnostics() []types.Diagnostic {
	return append([]types.Diagnostic(nil), compiler.diagnostics...)
}

func (compiler *Compiler) appendRule(rule Rule) {
	rule.SourceOrder = len(compiler.rules)
	compiler.rules = append(compiler.rules, rule)
}

// parseLine returns nil without error for blank lines and comments.
func parseLine(rawLine string) (*Rule, error) {
	line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
	if line == "" || strings.HasPrefix(line, commentPrefix) {
		return nil, nil
	}
	original := line

	isNegation := false
	if strings.HasPrefix(line, negationPrefix) {
		isNegation = true
		line = line[len(negationPrefix):]
	}

	isDirectoryOnly := false
	for hasUnescapedTrailingSeparator(line) {
		isDirectoryOnly = true
		line = line[:len(line)-len(pathSeparator)]
	}

	isAnchored := false
	if strings.HasPrefix(line, pathSeparator) {
		isAnchored = true
		line = strings.TrimLeft(line, pathSeparator)
	}
	if strings.Contains(line, pathSeparator) {
		isAnchored = true
	}

	line = unescapeLiterals(line)
	if line == "" {
		return nil, fmt.Errorf("%w: %q is empty after processing", ErrMalformedPattern, original)
	}
	if hasDanglingEscape(line) {
		return nil, fmt.Errorf("%w: %q ends with a lone backslash", ErrMalformedPattern, original)
	}

	matcher, compileError := compileMatcher(line)
	if compileError != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformedPattern, original, compileError)
	}

	return &Rule{
		Pattern:         line,
		IsNegation:      isNegation,
		IsDirectoryOnly: isDirectoryOnly,
		IsAnchored:      isAnchored,
		matcher:         matcher,
	}, nil
}

// hasUnescapedTrailingSeparator reports whether value ends with "/" that is
// not preceded by an odd number of backslashes.
func hasUnescapedTrailingSeparator(value string) bool {
	if !strings.HasSuffix(value, pathSeparator) {
		return false
	}
	return trailingBackslashCount(value[:len(value)-len(pathSeparator)])%2 == 0
}

func hasDanglingEscape(value string) bool {
	return trailingBackslashCount(value)%2 == 1
}

func trailingBackslashCount(value string) int {
	count := 0
	for index := len(value) - 1; index >= 0 && value[index] == '\\'; index-- {
		count++
	}
	return count
}

// unescapeLiterals turns \# and \! into # and !. Other escapes are left for
// the glob compiler.
func unescapeLiterals(value string) string {
	if !strings.Contains(value, escapeCharacter) {
		return value
	}
	var builder strings.Builder
	builder.Grow(len(value))
	for index := 0; index < len(value); index++ {
		character := value[index]
		if character == '\\' && index+1 < len(value) {
			next := value[index+1]
			if next == '#' || next == '!' {
				builder.WriteByte(next)
				index++
				continue
			}
			builder.WriteByte(character)
			builder.WriteByte(next)
			index++
			continue
		}
		builder.WriteByte(character)
	}
	return builder.String()
}
