package compiler

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/chatplay/internal/action"
)

// ParseExpr parses an action expression.
//
// Grammar:
//
//	expr   = item { space item }
//	item   = leaf | wait | "(" expr ")" | "~" item { "~" item } "~"
//	leaf   = "kd" code | "ku" code | "mr" int "x" int
//	wait   = "w" millis
//
// Whitespace-separated items form a Sequence; a single item stands alone.
// "~a~b~" is an AtomicSequence. Parenthesized groups nest Sequences.
//
// ParseExpr(a.String()) == a for every action it can produce.
func ParseExpr(src string) (action.Action, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.done() {
		return nil, exprError(ErrEmptyExpr, 0, "empty expression")
	}

	items, err := p.parseSeq(0)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, exprError(ErrUnbalanced, p.pos, "unexpected %q", p.peek())
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return action.Sequence{Actions: items}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.done() && isSpace(p.peek()) {
		p.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// parseSeq reads space-separated items until end of input or a closing
// parenthesis at the current depth.
func (p *parser) parseSeq(depth int) ([]action.Action, error) {
	var items []action.Action
	for {
		p.skipSpace()
		if p.done() || (depth > 0 && p.peek() == ')') {
			return items, nil
		}
		item, err := p.parseItem(depth)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *parser) parseItem(depth int) (action.Action, error) {
	switch p.peek() {
	case '(':
		open := p.pos
		p.pos++
		items, err := p.parseSeq(depth + 1)
		if err != nil {
			return nil, err
		}
		if p.done() {
			return nil, exprError(ErrUnbalanced, open, "unclosed '('")
		}
		p.pos++ // ')'
		if len(items) == 0 {
			return nil, exprError(ErrEmptyGroup, open, "empty group")
		}
		return action.Sequence{Actions: items}, nil

	case ')':
		return nil, exprError(ErrUnbalanced, p.pos, "unexpected ')'")

	case '~':
		return p.parseAtomic(depth)

	default:
		return p.parseToken()
	}
}

// parseAtomic reads "~" item { "~" item } "~". The group closes at a "~"
// followed by whitespace, end of input or ')'.
func (p *parser) parseAtomic(depth int) (action.Action, error) {
	open := p.pos
	p.pos++ // '~'
	if !p.done() && p.peek() == '~' {
		return nil, exprError(ErrEmptyGroup, open, "empty atomic group")
	}

	var items []action.Action
	for {
		if p.done() || isSpace(p.peek()) {
			return nil, exprError(ErrUnbalanced, open, "unclosed '~' group")
		}
		item, err := p.parseItem(depth)
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.done() || isSpace(p.peek()) {
			return nil, exprError(ErrUnbalanced, open, "unclosed '~' group")
		}
		if p.peek() != '~' {
			return nil, exprError(ErrUnknownToken, p.pos, "expected '~' after %q", item.String())
		}
		p.pos++ // '~'
		if p.done() || isSpace(p.peek()) || p.peek() == ')' {
			return action.AtomicSequence{Actions: items}, nil
		}
	}
}

// parseToken reads one leaf or wait token.
func (p *parser) parseToken() (action.Action, error) {
	start := p.pos
	for !p.done() && !isSpace(p.peek()) && !strings.ContainsRune("()~", rune(p.peek())) {
		p.pos++
	}
	tok := p.src[start:p.pos]

	switch {
	case strings.HasPrefix(tok, "kd"):
		code, err := parseCode(tok[2:], start+2)
		if err != nil {
			return nil, err
		}
		return action.KeyDown{Code: code}, nil

	case strings.HasPrefix(tok, "ku"):
		code, err := parseCode(tok[2:], start+2)
		if err != nil {
			return nil, err
		}
		return action.KeyUp{Code: code}, nil

	case strings.HasPrefix(tok, "mr"):
		dx, dy, ok := strings.Cut(tok[2:], "x")
		if !ok {
			return nil, exprError(ErrBadNumber, start, "mouse move needs <dx>x<dy>, got %q", tok)
		}
		x, err := parseInt(dx, start+2)
		if err != nil {
			return nil, err
		}
		y, err := parseInt(dy, start+3+len(dx))
		if err != nil {
			return nil, err
		}
		return action.MoveMouseRelative{DX: x, DY: y}, nil

	case strings.HasPrefix(tok, "w"):
		ms, err := strconv.ParseUint(tok[1:], 10, 32)
		if err != nil {
			return nil, exprError(ErrBadNumber, start+1, "wait needs milliseconds, got %q", tok)
		}
		return action.WaitFor{Duration: time.Duration(ms) * time.Millisecond}, nil

	default:
		return nil, exprError(ErrUnknownToken, start, "unknown token %q", tok)
	}
}

func parseCode(s string, offset int) (action.KeyCode, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, exprError(ErrBadNumber, offset, "key code must be 0-%d, got %q", math.MaxUint16, s)
	}
	return action.KeyCode(n), nil
}

func parseInt(s string, offset int) (int, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, exprError(ErrBadNumber, offset, "mouse offset must be an integer, got %q", s)
	}
	return int(n), nil
}
