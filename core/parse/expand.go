package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// ErrUnset is returned when expanding an unset parameter under nounset or
// through ${name?}.
var ErrUnset = errors.New("parameter not set")

// Env supplies values during expansion.
type Env interface {
	// Var returns a variable or a special parameter such as ? or $.
	Var(name string) (string, bool)
	// SetVar assigns a variable, used by ${name=word}.
	SetVar(name, value string)
	// Args returns the positional parameters.
	Args() []string
	// Subst runs the statements of a command substitution and returns
	// their standard output.
	Subst(stmts []*syntax.Stmt) (string, error)
	// NoUnset reports whether expanding an unset variable is an error.
	NoUnset() bool
}

type overlayEnv struct {
	Env
	vars map[string]string
}

func (o *overlayEnv) Var(name string) (string, bool) {
	if v, ok := o.vars[name]; ok {
		return v, true
	}
	return o.Env.Var(name)
}

func overlay(env Env, assigns []Assign) Env {
	if len(assigns) == 0 {
		return env
	}
	vars := make(map[string]string, len(assigns))
	for _, a := range assigns {
		vars[a.Name] = a.Value
	}
	return &overlayEnv{Env: env, vars: vars}
}

// Literal expands word to a single string without field splitting.
func Literal(env Env, word *syntax.Word) (string, error) {
	if word == nil {
		return "", nil
	}
	e := &expander{env: env, literal: true}
	if err := e.word(word); err != nil {
		return "", err
	}
	return e.cur.String(), nil
}

// Fields expands words to a list of fields. Unquoted expansions are split on
// whitespace and "$@" produces one field per positional parameter.
func Fields(env Env, words ...*syntax.Word) ([]string, error) {
	e := &expander{env: env}
	for _, w := range words {
		if err := e.word(w); err != nil {
			return nil, err
		}
		e.flush()
	}
	return e.fields, nil
}

type expander struct {
	env     Env
	literal bool

	fields []string
	cur    strings.Builder
	// have is set once the current field exists even if empty, like "".
	have bool
}

func (e *expander) flush() {
	if e.have || e.cur.Len() > 0 {
		e.fields = append(e.fields, e.cur.String())
	}
	e.cur.Reset()
	e.have = false
}

func (e *expander) write(s string) {
	e.cur.WriteString(s)
}

// split appends an unquoted expansion, breaking it into fields.
func (e *expander) split(s string) {
	if e.literal {
		e.write(s)
		return
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		if s != "" && (e.have || e.cur.Len() > 0) {
			e.flush()
		}
		return
	}
	if isSpace(s[0]) {
		e.flush()
	}
	for i, w := range words {
		if i > 0 {
			e.flush()
		}
		e.write(w)
	}
	if isSpace(s[len(s)-1]) {
		e.flush()
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n'
}

func (e *expander) word(w *syntax.Word) error {
	for i, part := range w.Parts {
		if lit, ok := part.(*syntax.Lit); ok && i == 0 {
			e.write(e.tilde(unescape(lit.Value)))
			continue
		}
		if err := e.part(part); err != nil {
			return err
		}
	}
	return nil
}

func (e *expander) tilde(s string) string {
	if s != "~" && !strings.HasPrefix(s, "~/") {
		return s
	}
	home, ok := e.env.Var("HOME")
	if !ok {
		return s
	}
	return home + s[1:]
}

func (e *expander) part(part syntax.WordPart) error {
	switch part := part.(type) {
	case *syntax.Lit:
		e.write(unescape(part.Value))

	case *syntax.SglQuoted:
		if part.Dollar {
			return Unsupported(part)
		}
		e.have = true
		e.write(part.Value)

	case *syntax.DblQuoted:
		return e.quoted(part)

	case *syntax.ParamExp:
		if isParam(part, "@") || isParam(part, "*") {
			if e.literal {
				e.write(strings.Join(e.env.Args(), " "))
				return nil
			}
			for i, arg := range e.env.Args() {
				if i > 0 {
					e.flush()
				}
				e.split(arg)
			}
			return nil
		}
		val, err := e.param(part)
		if err != nil {
			return err
		}
		e.split(val)

	case *syntax.CmdSubst:
		out, err := e.env.Subst(part.Stmts)
		if err != nil {
			return err
		}
		e.split(strings.TrimRight(out, "\n"))

	default:
		return Unsupported(part)
	}
	return nil
}

func (e *expander) quoted(dq *syntax.DblQuoted) error {
	if dq.Dollar {
		return Unsupported(dq)
	}
	// "$@" with no parameters expands to no fields at all.
	if len(dq.Parts) == 1 && isParam(dq.Parts[0], "@") && len(e.env.Args()) == 0 {
		return nil
	}
	e.have = true

	for _, part := range dq.Parts {
		switch part := part.(type) {
		case *syntax.Lit:
			e.write(unescapeQuoted(part.Value))

		case *syntax.ParamExp:
			if isParam(part, "@") && !e.literal {
				for i, arg := range e.env.Args() {
					if i > 0 {
						e.flush()
						e.have = true
					}
					e.write(arg)
				}
				continue
			}
			if isParam(part, "@") || isParam(part, "*") {
				e.write(strings.Join(e.env.Args(), " "))
				continue
			}
			val, err := e.param(part)
			if err != nil {
				return err
			}
			e.write(val)

		case *syntax.CmdSubst:
			out, err := e.env.Subst(part.Stmts)
			if err != nil {
				return err
			}
			e.write(strings.TrimRight(out, "\n"))

		default:
			return Unsupported(part)
		}
	}
	return nil
}

func isParam(part syntax.WordPart, name string) bool {
	pe, ok := part.(*syntax.ParamExp)
	return ok && pe.Param != nil && pe.Param.Value == name &&
		pe.Exp == nil && !pe.Length && !pe.Excl && pe.Slice == nil && pe.Repl == nil && pe.Index == nil
}

func (e *expander) lookup(name string) (string, bool) {
	args := e.env.Args()
	switch {
	case name == "#":
		return strconv.Itoa(len(args)), true
	case name == "@" || name == "*":
		return strings.Join(args, " "), true
	case name != "0" && isDigits(name):
		n, _ := strconv.Atoi(name)
		if n < 1 || n > len(args) {
			return "", false
		}
		return args[n-1], true
	default:
		return e.env.Var(name)
	}
}

func (e *expander) param(pe *syntax.ParamExp) (string, error) {
	if pe.Param == nil || pe.Excl || pe.Slice != nil || pe.Repl != nil || pe.Index != nil || pe.Width {
		return "", Unsupported(pe)
	}
	name := pe.Param.Value
	val, set := e.lookup(name)

	if pe.Length {
		return strconv.Itoa(len(val)), nil
	}
	if pe.Exp == nil {
		if !set && e.env.NoUnset() {
			return "", fmt.Errorf("%s: %w", name, ErrUnset)
		}
		return val, nil
	}

	arg := func() (string, error) {
		return Literal(e.env, pe.Exp.Word)
	}
	null := !set || val == ""

	switch pe.Exp.Op {
	case syntax.DefaultUnset, syntax.DefaultUnsetOrNull:
		if !set || (pe.Exp.Op == syntax.DefaultUnsetOrNull && null) {
			return arg()
		}
		return val, nil

	case syntax.AlternateUnset, syntax.AlternateUnsetOrNull:
		if !set || (pe.Exp.Op == syntax.AlternateUnsetOrNull && null) {
			return "", nil
		}
		return arg()

	case syntax.AssignUnset, syntax.AssignUnsetOrNull:
		if !set || (pe.Exp.Op == syntax.AssignUnsetOrNull && null) {
			def, err := arg()
			if err != nil {
				return "", err
			}
			e.env.SetVar(name, def)
			return def, nil
		}
		return val, nil

	case syntax.ErrorUnset, syntax.ErrorUnsetOrNull:
		if !set || (pe.Exp.Op == syntax.ErrorUnsetOrNull && null) {
			msg, err := arg()
			if err != nil {
				return "", err
			}
			if msg == "" {
				return "", fmt.Errorf("%s: %w", name, ErrUnset)
			}
			return "", fmt.Errorf("%s: %s", name, msg)
		}
		return val, nil

	case syntax.RemSmallPrefix, syntax.RemLargePrefix, syntax.RemSmallSuffix, syntax.RemLargeSuffix:
		pattern, err := arg()
		if err != nil {
			return "", err
		}
		return trim(val, pattern, pe.Exp.Op), nil

	default:
		return "", Unsupported(pe)
	}
}

// trim removes the shortest or longest match of pattern from either end of s.
func trim(s, pattern string, op syntax.ParExpOperator) string {
	re, err := globRegexp(pattern)
	if err != nil {
		return s
	}
	matches := re.MatchString

	switch op {
	case syntax.RemSmallPrefix:
		for i := 0; i <= len(s); i++ {
			if matches(s[:i]) {
				return s[i:]
			}
		}
	case syntax.RemLargePrefix:
		for i := len(s); i >= 0; i-- {
			if matches(s[:i]) {
				return s[i:]
			}
		}
	case syntax.RemSmallSuffix:
		for i := len(s); i >= 0; i-- {
			if matches(s[i:]) {
				return s[:i]
			}
		}
	case syntax.RemLargeSuffix:
		for i := 0; i <= len(s); i++ {
			if matches(s[i:]) {
				return s[:i]
			}
		}
	}
	return s
}

// globRegexp compiles a shell pattern. Unlike path.Match, * and ? also match
// slashes.
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '*':
			b.WriteString("(?s:.*)")
		case '?':
			b.WriteString("(?s:.)")
		case '\\':
			if i+1 < len(pattern) {
				i++
			}
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
		case '[':
			end := strings.IndexByte(pattern[i+1:], ']')
			if end < 0 {
				b.WriteString(`\[`)
				continue
			}
			class := pattern[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			b.WriteString("[" + class + "]")
			i += end + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// unescape removes backslashes from an unquoted literal.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// unescapeQuoted removes backslashes that escape characters special inside
// double quotes.
func unescapeQuoted(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '$', '`', '"', '\\':
				i++
			case '\n':
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
