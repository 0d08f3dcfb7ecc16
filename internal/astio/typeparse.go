package astio

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/position"
)

// ParseType parses written type syntax such as `&mut [Option<T>]`,
// `(i32, bool)` or `fn(i32) -> i32`. The span is attached to every node.
func ParseType(src string, span position.Span) (ast.TypeExpr, error) {
	p := &typeParser{src: src, span: span}
	t, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("type %q: unexpected %q", src, p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src  string
	pos  int
	span position.Span
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) accept(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *typeParser) expect(tok string) error {
	if !p.accept(tok) {
		return fmt.Errorf("type %q: expected %q at offset %d", p.src, tok, p.pos)
	}
	return nil
}

func isIdentByte(b byte) bool {
	r := rune(b)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parse() (ast.TypeExpr, error) {
	switch {
	case p.accept("&"):
		mutable := false
		save := p.pos
		if p.accept("mut") {
			// `&mutable_thing` is a named type, not `&mut able_thing`
			if p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
				p.pos = save
			} else {
				mutable = true
			}
		}
		target, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &ast.RefType{Mutable: mutable, Target: target, Span: p.span}, nil
	case p.accept("["):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect("]"); err != nil {
			return nil, err
		}
		return &ast.ArrayType{Elem: elem, Span: p.span}, nil
	case p.accept("("):
		elems, err := p.list(")")
		if err != nil {
			return nil, err
		}
		return &ast.TupleType{Elems: elems, Span: p.span}, nil
	}

	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("type %q: expected a type at offset %d", p.src, p.pos)
	}
	if name == "fn" && p.accept("(") {
		params, err := p.list(")")
		if err != nil {
			return nil, err
		}
		var ret ast.TypeExpr
		if p.accept("->") {
			if ret, err = p.parse(); err != nil {
				return nil, err
			}
		}
		return &ast.FuncType{Params: params, Return: ret, Span: p.span}, nil
	}
	named := &ast.NamedType{Name: name, Span: p.span}
	if p.accept("<") {
		args, err := p.list(">")
		if err != nil {
			return nil, err
		}
		named.Args = args
	}
	return named, nil
}

// list parses comma separated types up to and including the closing token
func (p *typeParser) list(closing string) ([]ast.TypeExpr, error) {
	var out []ast.TypeExpr
	if p.accept(closing) {
		return out, nil
	}
	for {
		t, err := p.parse()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if p.accept(",") {
			if p.accept(closing) {
				return out, nil
			}
			continue
		}
		if err := p.expect(closing); err != nil {
			return nil, err
		}
		return out, nil
	}
}
