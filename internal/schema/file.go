package schema

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
)

// Schema files are a comma-separated list of column entries, conventionally one
// per line:
//
//	Id:int32@int,
//	Name:string(50)?@varchar,
//	"Unit Price":decimal?
//
// Each entry is name ':' type ['(' size ')'] ['?'] ['@' declared]. A trailing
// '?' marks the column nullable. Names and declared types containing any of
// the reserved characters are written in double quotes with "" escaping.
// Blank lines and '#' comments are ignored.

const reserved = `:,"?@()#`

// ParseError reports a malformed schema file.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("schema: line %d: %s", e.Line, e.Msg)
}

// Parse reads a schema file into an ordered column list.
func Parse(text string) ([]ColumnInfo, error) {
	p := &parser{src: []rune(text), line: 1}
	var cols []ColumnInfo
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		c, err := p.column()
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)

		p.skipSpace()
		if p.eof() {
			break
		}
		if r := p.peek(); r != ',' {
			return nil, p.errorf("expected ',' after column %q, found %q", c.Name, r)
		}
		p.pos++
	}
	return cols, nil
}

// Serialize writes cols in the format accepted by Parse.
func Serialize(cols []ColumnInfo) string {
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteString(",\n")
		}
		sb.WriteString(quoteToken(c.Name))
		sb.WriteByte(':')
		sb.WriteString(c.Type.String())
		if c.Size != nil {
			sb.WriteByte('(')
			sb.WriteString(strconv.Itoa(*c.Size))
			sb.WriteByte(')')
		}
		if c.AllowNull {
			sb.WriteByte('?')
		}
		if c.DeclaredType != "" {
			sb.WriteByte('@')
			sb.WriteString(quoteToken(c.DeclaredType))
		}
	}
	if len(cols) > 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ReadFile parses the schema file at path.
func ReadFile(path string) ([]ColumnInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	cols, err := Parse(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cols, nil
}

// WriteFile serializes cols to path.
func WriteFile(path string, cols []ColumnInfo) error {
	if err := os.WriteFile(path, []byte(Serialize(cols)), 0o644); err != nil {
		return fmt.Errorf("schema: write %s: %w", path, err)
	}
	return nil
}

func quoteToken(s string) string {
	if s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, reserved+"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type parser struct {
	src  []rune
	pos  int
	line int
}

func (p *parser) eof() bool  { return p.pos >= len(p.src) }
func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace consumes whitespace, newlines and comments.
func (p *parser) skipSpace() {
	for !p.eof() {
		r := p.peek()
		switch {
		case r == '\n':
			p.line++
			p.pos++
		case r == '#':
			for !p.eof() && p.peek() != '\n' {
				p.pos++
			}
		case unicode.IsSpace(r):
			p.pos++
		default:
			return
		}
	}
}

// skipInline consumes spaces and tabs on the current line.
func (p *parser) skipInline() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *parser) column() (ColumnInfo, error) {
	var c ColumnInfo

	name, err := p.token(":")
	if err != nil {
		return c, err
	}
	c.Name = name

	p.skipInline()
	if p.eof() || p.peek() != ':' {
		return c, p.errorf("expected ':' after column name %q", name)
	}
	p.pos++
	p.skipInline()

	start := p.pos
	for !p.eof() && (unicode.IsLetter(p.peek()) || unicode.IsDigit(p.peek())) {
		p.pos++
	}
	word := string(p.src[start:p.pos])
	if word == "" {
		return c, p.errorf("missing type for column %q", name)
	}
	t, err := ParseLogicalType(word)
	if err != nil {
		return c, p.errorf("column %q: unknown type %q", name, word)
	}
	c.Type = t

	p.skipInline()
	if !p.eof() && p.peek() == '(' {
		p.pos++
		start := p.pos
		for !p.eof() && p.peek() != ')' && p.peek() != '\n' {
			p.pos++
		}
		if p.eof() || p.peek() != ')' {
			return c, p.errorf("column %q: unterminated size", name)
		}
		raw := strings.TrimSpace(string(p.src[start:p.pos]))
		p.pos++
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c, p.errorf("column %q: invalid size %q", name, raw)
		}
		c.Size = SizeOf(n)
		p.skipInline()
	}

	if !p.eof() && p.peek() == '?' {
		c.AllowNull = true
		p.pos++
		p.skipInline()
	}

	if !p.eof() && p.peek() == '@' {
		p.pos++
		p.skipInline()
		decl, err := p.token(",#\n")
		if err != nil {
			return c, err
		}
		c.DeclaredType = decl
	}
	return c, nil
}

// token reads a quoted string or a bare run ending at any rune in stop. Bare
// tokens are trimmed and may not contain reserved characters.
func (p *parser) token(stop string) (string, error) {
	if !p.eof() && p.peek() == '"' {
		p.pos++
		var sb strings.Builder
		for {
			if p.eof() {
				return "", p.errorf("unterminated quoted name")
			}
			r := p.peek()
			p.pos++
			if r == '"' {
				if !p.eof() && p.peek() == '"' {
					sb.WriteRune('"')
					p.pos++
					continue
				}
				return sb.String(), nil
			}
			if r == '\n' {
				p.line++
			}
			sb.WriteRune(r)
		}
	}

	start := p.pos
	for !p.eof() && !strings.ContainsRune(stop, p.peek()) {
		r := p.peek()
		if r == '\n' {
			return "", p.errorf("unexpected end of line")
		}
		if strings.ContainsRune(reserved, r) {
			return "", p.errorf("unexpected %q", r)
		}
		p.pos++
	}
	s := strings.TrimSpace(string(p.src[start:p.pos]))
	if s == "" {
		return "", p.errorf("empty name")
	}
	return s, nil
}
