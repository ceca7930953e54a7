// Package rules applies deterministic substitutions to recognized transcripts,
// for example fixing names the recognizer consistently mishears.
//
// A rules file holds one rule per line:
//
//	# comment
//	pull request => PR
//	s/\bjournal ling\b/journaling/g
package rules

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

const defaultPassLimit = 30

// Rule rewrites text once and reports whether anything changed.
type Rule interface {
	Rewrite(text string) (string, bool)
}

// Parser recognises and compiles one rule syntax.
type Parser interface {
	Accepts(line string) bool
	Compile(line string) (Rule, error)
}

// Engine applies rules repeatedly until the transcript stops changing.
type Engine struct {
	rules     []Rule
	passLimit int
}

// Load reads a rules file with the built-in parsers. A blank path or a
// missing file yields an engine that returns text unchanged.
func Load(path string, passLimit int) (*Engine, error) {
	return LoadWith(path, passLimit, DefaultParsers())
}

// LoadWith reads a rules file with a custom parser chain.
func LoadWith(path string, passLimit int, parsers []Parser) (*Engine, error) {
	engine := &Engine{passLimit: passLimit}
	if engine.passLimit <= 0 {
		engine.passLimit = defaultPassLimit
	}
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	if strings.TrimSpace(path) == "" {
		return engine, nil
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return engine, nil
		}
		return nil, fmt.Errorf("open rules file %q: %w", path, err)
	}
	defer file.Close()

	rules, err := compile(bufio.NewScanner(file), parsers)
	if err != nil {
		return nil, fmt.Errorf("rules file %q: %w", path, err)
	}
	engine.rules = rules
	return engine, nil
}

// Len returns the number of compiled rules.
func (e *Engine) Len() int {
	return len(e.rules)
}

// Apply rewrites text until a full pass changes nothing or the pass limit is hit.
func (e *Engine) Apply(text string) (string, error) {
	for pass := 0; pass < e.passLimit && len(e.rules) > 0; pass++ {
		dirty := false
		for _, rule := range e.rules {
			if next, changed := rule.Rewrite(text); changed {
				text = next
				dirty = true
			}
		}
		if !dirty {
			break
		}
	}
	return text, nil
}

func compile(scanner *bufio.Scanner, parsers []Parser) ([]Rule, error) {
	var rules []Rule
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, err := compileLine(line, parsers)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rules = append(rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rules, nil
}

func compileLine(line string, parsers []Parser) (Rule, error) {
	for _, parser := range parsers {
		if parser.Accepts(line) {
			return parser.Compile(line)
		}
	}
	return nil, errors.New("unsupported rule format")
}

// DefaultParsers returns the sed-style and literal parsers, sed-style first.
func DefaultParsers() []Parser {
	return []Parser{SedParser{}, LiteralParser{}}
}

// LiteralParser handles "from => to"; matching is case-insensitive.
type LiteralParser struct{}

func (LiteralParser) Accepts(line string) bool {
	return strings.Contains(line, "=>")
}

func (LiteralParser) Compile(line string) (Rule, error) {
	from, to, ok := strings.Cut(line, "=>")
	if !ok {
		return nil, errors.New("literal rule needs =>")
	}
	from = strings.TrimSpace(from)
	if from == "" {
		return nil, errors.New("literal rule source cannot be empty")
	}
	return patternRule{
		re:          regexp.MustCompile("(?i)" + regexp.QuoteMeta(from)),
		replacement: strings.TrimSpace(to),
		global:      true,
	}, nil
}

// SedParser handles "s<d>pattern<d>replacement<d>flags" with flags i, g, m, s.
// Patterns are case-insensitive unless stated otherwise.
type SedParser struct{}

func (SedParser) Accepts(line string) bool {
	return len(line) > 1 && line[0] == 's' && !isWordOrBlank(line[1])
}

func (SedParser) Compile(line string) (Rule, error) {
	if len(line) < 2 {
		return nil, errors.New("sed rule too short")
	}
	delim := line[1]
	if isWordOrBlank(delim) {
		return nil, errors.New("sed delimiter must be punctuation")
	}

	pattern, rest, err := readField(line[2:], delim)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	replacement, rest, err := readField(rest, delim)
	if err != nil {
		return nil, fmt.Errorf("replacement: %w", err)
	}

	modes := "i"
	global := false
	for _, flag := range strings.TrimSpace(rest) {
		switch flag {
		case 'i':
		case 'g':
			global = true
		case 'm', 's':
			modes += string(flag)
		case ' ':
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}

	re, err := regexp.Compile("(?" + modes + ")" + pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	return patternRule{re: re, replacement: replacement, global: global}, nil
}

type patternRule struct {
	re          *regexp.Regexp
	replacement string
	global      bool
}

func (r patternRule) Rewrite(text string) (string, bool) {
	if r.global {
		out := r.re.ReplaceAllString(text, r.replacement)
		return out, out != text
	}

	loc := r.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, false
	}
	expanded := r.re.ExpandString(nil, r.replacement, text, loc)
	out := text[:loc[0]] + string(expanded) + text[loc[1]:]
	return out, out != text
}

// readField scans up to the next unescaped delimiter. Escapes are kept so
// the regexp compiler sees them.
func readField(input string, delim byte) (string, string, error) {
	var field strings.Builder
	for i := 0; i < len(input); i++ {
		c := input[i]
		switch {
		case c == '\\' && i+1 < len(input):
			field.WriteByte(c)
			field.WriteByte(input[i+1])
			i++
		case c == delim:
			return field.String(), input[i+1:], nil
		default:
			field.WriteByte(c)
		}
	}
	return "", "", errors.New("missing closing delimiter")
}

func isWordOrBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}
