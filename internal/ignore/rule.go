// Package ignore compiles ignore-file patterns into ordered rules and decides
// whether a path relative to the scan root is included.
package ignore

import "strings"

// DefaultsSource names the rules compiled from DefaultPatterns.
const DefaultsSource = "defaults"

// gitDirectoryPattern excludes the Git metadata directory.
const gitDirectoryPattern = ".git/"

// DefaultPatterns returns the patterns applied before any ignore file.
// A new slice is returned on every call.
func DefaultPatterns(includeGit bool) []string {
	patterns := []string{
		".svn/",
		".hg/",
		"__pycache__/",
		"*.pyc",
		"*.pyo",
		"*.o",
		"*.so",
		"*.dll",
		"*.exe",
	}
	if includeGit {
		return patterns
	}
	return append([]string{gitDirectoryPattern}, patterns...)
}

// DefaultRuleSet compiles DefaultPatterns. The defaults are well formed, so no
// diagnostics are produced.
func DefaultRuleSet(includeGit bool) RuleSet {
	compiler := NewCompiler()
	compiler.AddLines(DefaultsSource, DefaultPatterns(includeGit))
	return compiler.RuleSet()
}

// Rule is one compiled ignore pattern. Rules are immutable once compiled.
type Rule struct {
	// Pattern is the glob with negation, anchoring slash and trailing slash removed.
	Pattern         string
	IsNegation      bool
	IsDirectoryOnly bool
	IsAnchored      bool
	// SourceOrder is the position of the rule within its RuleSet.
	SourceOrder int
	// Source is the ignore file the rule came from.
	Source string
	// Line is the 1-indexed line within Source.
	Line int

	matcher pathMatcher
}

// String renders the rule back in ignore-file syntax.
func (rule Rule) String() string {
	var builder strings.Builder
	if rule.IsNegation {
		builder.WriteString("!")
	}
	if rule.IsAnchored && !strings.Contains(rule.Pattern, pathSeparator) {
		builder.WriteString(pathSeparator)
	}
	builder.WriteString(rule.Pattern)
	if rule.IsDirectoryOnly {
		builder.WriteString(pathSeparator)
	}
	return builder.String()
}

// RuleSet is an ordered sequence of rules. It is read-only after compilation
// and safe for concurrent use.
type RuleSet struct {
	rules []Rule
}

// Len reports the number of rules.
func (ruleSet RuleSet) Len() int {
	return len(ruleSet.rules)
}

// Rules returns a copy of the rules in source order.
func (ruleSet RuleSet) Rules() []Rule {
	return append([]Rule(nil), ruleSet.rules...)
}
