package ignore

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

const (
	doubleStarSegment = "**"
	globSpecials      = `*?[\`
	separatorRune     = '/'
)

// Verdict is the include/exclude decision for one candidate entry.
type Verdict int

const (
	Include Verdict = iota
	Exclude
)

// String returns "include" or "exclude".
func (verdict Verdict) String() string {
	if verdict == Exclude {
		return "exclude"
	}
	return "include"
}

// CandidateEntry is one filesystem node to decide on. RelativePath is relative
// to the scan root; either separator style is accepted.
type CandidateEntry struct {
	RelativePath string
	IsDirectory  bool
}

// IsIncluded returns the verdict of the last matching rule in source order,
// or Include when nothing matches. It is a pure function of its arguments.
func IsIncluded(entry CandidateEntry, rules RuleSet) Verdict {
	return rules.Verdict(entry)
}

// Verdict is the method form of IsIncluded.
func (ruleSet RuleSet) Verdict(entry CandidateEntry) Verdict {
	matchingRule, matched := ruleSet.MatchingRule(entry)
	if !matched || matchingRule.IsNegation {
		return Include
	}
	return Exclude
}

// Excludes reports whether entry is excluded.
func (ruleSet RuleSet) Excludes(relativePath string, isDirectory bool) bool {
	return ruleSet.Verdict(CandidateEntry{RelativePath: relativePath, IsDirectory: isDirectory}) == Exclude
}

// MatchingRule returns the last rule that matches entry.
func (ruleSet RuleSet) MatchingRule(entry CandidateEntry) (Rule, bool) {
	candidatePath := normalizeRelativePath(entry.RelativePath)
	if candidatePath == "" {
		return Rule{}, false
	}
	for index := len(ruleSet.rules) - 1; index >= 0; index-- {
		rule := ruleSet.rules[index]
		if rule.IsDirectoryOnly && !entry.IsDirectory {
			continue
		}
		if rule.matches(candidatePath) {
			return rule, true
		}
	}
	return Rule{}, false
}

func (rule Rule) matches(candidatePath string) bool {
	if rule.matcher == nil {
		return false
	}
	if rule.IsAnchored {
		return rule.matcher.Match(candidatePath)
	}
	if rule.matcher.Match(candidatePath) {
		return true
	}
	for index := 0; index < len(candidatePath); index++ {
		if candidatePath[index] == separatorRune && rule.matcher.Match(candidatePath[index+1:]) {
			return true
		}
	}
	return false
}

// normalizeRelativePath converts to forward slashes and strips "./", leading
// and trailing separators.
func normalizeRelativePath(relativePath string) string {
	normalized := filepath.ToSlash(relativePath)
	normalized = strings.ReplaceAll(normalized, `\`, pathSeparator)
	for strings.HasPrefix(normalized, "./") {
		normalized = normalized[2:]
	}
	normalized = strings.Trim(normalized, pathSeparator)
	if normalized == "." {
		return ""
	}
	return normalized
}

type pathMatcher interface {
	Match(candidate string) bool
}

// literalMatcher compares the whole candidate byte for byte.
type literalMatcher string

func (matcher literalMatcher) Match(candidate string) bool {
	return string(matcher) == candidate
}

// globMatcher matches when any of its expansions match.
type globMatcher []glob.Glob

func (matcher globMatcher) Match(candidate string) bool {
	for _, compiled := range matcher {
		if compiled.Match(candidate) {
			return true
		}
	}
	return false
}

// compileMatcher turns a stripped pattern into a matcher. Patterns without
// glob characters compare literally.
func compileMatcher(pattern string) (pathMatcher, error) {
	if !strings.ContainsAny(pattern, globSpecials) {
		return literalMatcher(pattern), nil
	}
	expansions := expandDoubleStar(strings.Split(pattern, pathSeparator))
	compiled := make(globMatcher, 0, len(expansions))
	for _, expansion := range expansions {
		compiledGlob, compileError := glob.Compile(quoteBraces(expansion), separatorRune)
		if compileError != nil {
			return nil, compileError
		}
		compiled = append(compiled, compiledGlob)
	}
	return compiled, nil
}

// expandDoubleStar lists the pattern with every non-final "**" segment both
// kept and removed, so "**/a" also matches "a" and "a/**/b" also matches "a/b".
func expandDoubleStar(segments []string) []string {
	for index, segment := range segments {
		if segment != doubleStarSegment || index == len(segments)-1 {
			continue
		}
		prefix := segments[:index]
		var expansions []string
		for _, rest := range expandDoubleStar(segments[index+1:]) {
			kept := append(append([]string{}, prefix...), doubleStarSegment, rest)
			dropped := append(append([]string{}, prefix...), rest)
			expansions = append(expansions, strings.Join(kept, pathSeparator), strings.Join(dropped, pathSeparator))
		}
		return expansions
	}
	return []string{strings.Join(segments, pathSeparator)}
}

// quoteBraces escapes "{" and "}" so they are not read as alternation.
func quoteBraces(pattern string) string {
	if !strings.ContainsAny(pattern, "{}") {
		return pattern
	}
	var builder strings.Builder
	builder.Grow(len(pattern) + 4)
	for index := 0; index < len(pattern); index++ {
		character := pattern[index]
		if character == '\\' && index+1 < len(pattern) {
			builder.WriteByte(character)
			builder.WriteByte(pattern[index+1])
			index++
			continue
		}
		if character == '{' || character == '}' {
			builder.WriteByte('\\')
		}
		builder.WriteByte(character)
	}
	return builder.String()
}

// EscapePattern quotes glob metacharacters so that literal matches exactly
// itself when used as a pattern body.
func EscapePattern(literal string) string {
	if !strings.ContainsAny(literal, `*?[]{}\`) {
		return literal
	}
	var builder strings.Builder
	builder.Grow(len(literal) + 4)
	for index := 0; index < len(literal); index++ {
		switch literal[index] {
		case '*', '?', '[', ']', '{', '}', '\\':
			builder.WriteByte('\\')
		}
		builder.WriteByte(literal[index])
	}
	return builder.String()
}
