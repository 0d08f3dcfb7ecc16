// Package astio decodes the syntax-tree interchange documents produced by
// the external parser. A document is YAML with a `language` header and a
// list of items; expressions, statements and patterns use a compact keyed
// form (`{call: f, args: [x]}`, `{op: "+", args: [a, b]}`, ...).
package astio

import (
	"fmt"
	"math/big"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/yunilang/yuni/internal/ast"
	"github.com/yunilang/yuni/internal/position"
)

// Options controls decoding
type Options struct {
	// Languages restricts accepted language headers; nil means DefaultLanguages
	Languages *semver.Constraints
}

// DecodeError reports a malformed document node
type DecodeError struct {
	Span    position.Span
	Message string
}

func (e *DecodeError) Error() string { return e.Span.String() + ": " + e.Message }

var (
	suffixedInt   = regexp.MustCompile(`^(-?[0-9]+)(i8|i16|i32|i64|u8|u16|u32|u64)$`)
	suffixedFloat = regexp.MustCompile(`^(-?[0-9]+\.[0-9]+)(f32|f64)$`)
	rangeScalar   = regexp.MustCompile(`^(-?[0-9]+)\s*(\.\.=?)\s*(-?[0-9]+)$`)
	identifier    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Load reads and decodes the document at path
func Load(path string, opts Options) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Decode(data, path, opts)
}

// Decode decodes a document. file is only used for spans. Every expression
// and pattern of the returned program carries a NodeID.
func Decode(data []byte, file string, opts Options) (*ast.Program, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("%s: empty document", file)
	}
	d := &decoder{file: file}
	prog, err := d.program(root.Content[0])
	if err != nil {
		return nil, err
	}
	if err := CheckLanguage(prog.Language, opts.Languages); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	ast.Number(prog)
	return prog, nil
}

type decoder struct {
	file string
}

func (d *decoder) span(n *yaml.Node) position.Span {
	if n == nil {
		return position.Span{}
	}
	return position.At(d.file, n.Line, n.Column)
}

func (d *decoder) errorf(n *yaml.Node, format string, args ...interface{}) error {
	return &DecodeError{Span: d.span(n), Message: fmt.Sprintf(format, args...)}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	n = resolve(n)
	return n == nil || n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// mapping is an ordered view of a YAML mapping node
type mapping struct {
	node *yaml.Node
	keys []string
	vals map[string]*yaml.Node
}

func (d *decoder) mapping(n *yaml.Node) (*mapping, error) {
	n = resolve(n)
	if n == nil {
		return nil, fmt.Errorf("%s: missing mapping", d.file)
	}
	if n.Kind != yaml.MappingNode {
		return nil, d.errorf(n, "expected a mapping, found %s", n.ShortTag())
	}
	m := &mapping{node: n, vals: make(map[string]*yaml.Node, len(n.Content)/2)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := strings.TrimSpace(n.Content[i].Value)
		if _, dup := m.vals[key]; dup {
			return nil, d.errorf(n.Content[i], "duplicate key %q", key)
		}
		m.keys = append(m.keys, key)
		m.vals[key] = resolve(n.Content[i+1])
	}
	return m, nil
}

func (m *mapping) has(key string) bool {
	_, ok := m.vals[key]
	return ok
}

func (m *mapping) get(key string) *yaml.Node { return m.vals[key] }

func (d *decoder) scalar(n *yaml.Node) (string, error) {
	n = resolve(n)
	if n == nil {
		return "", fmt.Errorf("%s: missing value", d.file)
	}
	if n.Kind != yaml.ScalarNode {
		return "", d.errorf(n, "expected a scalar")
	}
	return strings.TrimSpace(n.Value), nil
}

func (d *decoder) boolean(n *yaml.Node) (bool, error) {
	if isNull(n) {
		return false, nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, d.errorf(n, "expected a boolean")
	}
	return b, nil
}

func (d *decoder) names(n *yaml.Node) ([]string, error) {
	if isNull(n) {
		return nil, nil
	}
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of names")
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		s, err := d.scalar(c)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) typeExpr(n *yaml.Node) (ast.TypeExpr, error) {
	if isNull(n) {
		return nil, nil
	}
	s, err := d.scalar(n)
	if err != nil {
		return nil, err
	}
	t, err := ParseType(s, d.span(n))
	if err != nil {
		return nil, d.errorf(n, "%v", err)
	}
	return t, nil
}

// ====== Items ======

func (d *decoder) program(n *yaml.Node) (*ast.Program, error) {
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	prog := &ast.Program{File: d.file}
	if lang := m.get("language"); lang != nil {
		if prog.Language, err = d.scalar(lang); err != nil {
			return nil, err
		}
	}
	items := m.get("items")
	if isNull(items) {
		return prog, nil
	}
	if items.Kind != yaml.SequenceNode {
		return nil, d.errorf(items, "items must be a list")
	}
	for _, c := range items.Content {
		it, err := d.item(c)
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, it)
	}
	return prog, nil
}

func (d *decoder) item(n *yaml.Node) (ast.Item, error) {
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	switch {
	case m.has("struct"):
		return d.structDecl(m)
	case m.has("enum"):
		return d.enumDecl(m)
	case m.has("fn"), m.has("method"):
		return d.funcDecl(m)
	default:
		return nil, d.errorf(n, "unknown item with keys %v", m.keys)
	}
}

func (d *decoder) fieldDecls(n *yaml.Node) ([]ast.FieldDecl, error) {
	if isNull(n) {
		return nil, nil
	}
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	out := make([]ast.FieldDecl, 0, len(m.keys))
	for _, k := range m.keys {
		t, err := d.typeExpr(m.get(k))
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, d.errorf(m.node, "field %q has no type", k)
		}
		out = append(out, ast.FieldDecl{Name: k, Type: t, Span: d.span(m.get(k))})
	}
	return out, nil
}

func (d *decoder) structDecl(m *mapping) (*ast.StructDecl, error) {
	name, err := d.scalar(m.get("struct"))
	if err != nil {
		return nil, err
	}
	decl := &ast.StructDecl{Name: name, Span: d.span(m.node)}
	if decl.TypeParams, err = d.names(m.get("generics")); err != nil {
		return nil, err
	}
	if decl.Fields, err = d.fieldDecls(m.get("fields")); err != nil {
		return nil, err
	}
	return decl, nil
}

func (d *decoder) enumDecl(m *mapping) (*ast.EnumDecl, error) {
	name, err := d.scalar(m.get("enum"))
	if err != nil {
		return nil, err
	}
	decl := &ast.EnumDecl{Name: name, Span: d.span(m.node)}
	if decl.TypeParams, err = d.names(m.get("generics")); err != nil {
		return nil, err
	}
	vs, err := d.mapping(m.get("variants"))
	if err != nil {
		return nil, err
	}
	for _, vname := range vs.keys {
		vn := vs.get(vname)
		v := ast.VariantDecl{Name: vname, Span: d.span(vn)}
		switch {
		case isNull(vn):
		case vn.Kind == yaml.SequenceNode:
			for _, c := range vn.Content {
				t, err := d.typeExpr(c)
				if err != nil {
					return nil, err
				}
				v.Payload = append(v.Payload, t)
			}
		case vn.Kind == yaml.MappingNode:
			if v.Fields, err = d.fieldDecls(vn); err != nil {
				return nil, err
			}
		default:
			return nil, d.errorf(vn, "variant %s: expected a list or mapping payload", vname)
		}
		decl.Variants = append(decl.Variants, v)
	}
	return decl, nil
}

func (d *decoder) funcDecl(m *mapping) (*ast.FuncDecl, error) {
	key := "fn"
	if m.has("method") {
		key = "method"
	}
	name, err := d.scalar(m.get(key))
	if err != nil {
		return nil, err
	}
	fn := &ast.FuncDecl{Name: name, Span: d.span(m.node)}
	if key == "method" {
		on, err := d.scalar(m.get("on"))
		if err != nil {
			return nil, d.errorf(m.node, "method %s needs an `on` type", name)
		}
		recv := &ast.Receiver{TypeName: on, Kind: ast.ReceiverRef, Span: d.span(m.node)}
		if r := m.get("receiver"); r != nil {
			s, err := d.scalar(r)
			if err != nil {
				return nil, err
			}
			switch s {
			case "self":
				recv.Kind = ast.ReceiverValue
			case "&self":
				recv.Kind = ast.ReceiverRef
			case "&mut self":
				recv.Kind = ast.ReceiverMutRef
			default:
				return nil, d.errorf(r, "unknown receiver %q", s)
			}
		}
		fn.Receiver = recv
	}
	if fn.TypeParams, err = d.names(m.get("generics")); err != nil {
		return nil, err
	}
	if ps := m.get("params"); !isNull(ps) {
		if ps.Kind != yaml.SequenceNode {
			return nil, d.errorf(ps, "params must be a list")
		}
		for _, pn := range ps.Content {
			pm, err := d.mapping(pn)
			if err != nil {
				return nil, err
			}
			if len(pm.keys) != 1 {
				return nil, d.errorf(pn, "a parameter is a single `name: type` entry")
			}
			pname := pm.keys[0]
			param := ast.Param{Name: pname, Span: d.span(pn)}
			if rest, ok := strings.CutPrefix(pname, "mut "); ok {
				param.Name = strings.TrimSpace(rest)
				param.Mutable = true
			}
			if param.Type, err = d.typeExpr(pm.get(pname)); err != nil {
				return nil, err
			}
			if param.Type == nil {
				return nil, d.errorf(pn, "parameter %s has no type", param.Name)
			}
			fn.Params = append(fn.Params, param)
		}
	}
	if fn.Return, err = d.typeExpr(m.get("returns")); err != nil {
		return nil, err
	}
	if l := m.get("lives"); l != nil {
		sources, err := d.names(l)
		if err != nil {
			return nil, err
		}
		fn.Lives = &ast.LivesClause{Sources: sources, Span: d.span(l)}
	}
	if fn.Body, err = d.block(m.get("body"), m.get("value"), m.node); err != nil {
		return nil, err
	}
	return fn, nil
}

// ====== Statements ======

func (d *decoder) block(stmts, tail, at *yaml.Node) (*ast.Block, error) {
	b := &ast.Block{}
	b.SetSpan(d.span(at))
	if !isNull(stmts) {
		stmts = resolve(stmts)
		if stmts.Kind != yaml.SequenceNode {
			return nil, d.errorf(stmts, "expected a list of statements")
		}
		b.SetSpan(d.span(stmts))
		for _, c := range stmts.Content {
			s, err := d.stmt(c)
			if err != nil {
				return nil, err
			}
			b.Stmts = append(b.Stmts, s)
		}
	}
	if !isNull(tail) {
		e, err := d.expr(tail)
		if err != nil {
			return nil, err
		}
		b.Tail = e
	}
	return b, nil
}

func (d *decoder) stmt(n *yaml.Node) (ast.Stmt, error) {
	n = resolve(n)
	if n.Kind == yaml.MappingNode {
		m, err := d.mapping(n)
		if err != nil {
			return nil, err
		}
		switch {
		case m.has("let"):
			return d.letStmt(m)
		case m.has("return"):
			s := &ast.ReturnStmt{Span: d.span(n)}
			if v := m.get("return"); !isNull(v) {
				if s.Value, err = d.expr(v); err != nil {
					return nil, err
				}
			}
			return s, nil
		case m.has("while"):
			cond, err := d.expr(m.get("while"))
			if err != nil {
				return nil, err
			}
			body, err := d.block(m.get("do"), nil, n)
			if err != nil {
				return nil, err
			}
			return &ast.WhileStmt{Cond: cond, Body: body, Span: d.span(n)}, nil
		case m.has("for"):
			return d.forStmt(m)
		}
	}
	e, err := d.expr(n)
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{X: e, Span: d.span(n)}, nil
}

// forStmt decodes {for: {init: <stmt>, cond: <expr>, update: <expr>}, do: [...]}.
// A null header loops forever.
func (d *decoder) forStmt(m *mapping) (*ast.ForStmt, error) {
	s := &ast.ForStmt{Span: d.span(m.node)}
	if h := m.get("for"); !isNull(h) {
		hm, err := d.mapping(h)
		if err != nil {
			return nil, err
		}
		if n := hm.get("init"); !isNull(n) {
			if s.Init, err = d.stmt(n); err != nil {
				return nil, err
			}
		}
		if n := hm.get("cond"); !isNull(n) {
			if s.Cond, err = d.expr(n); err != nil {
				return nil, err
			}
		}
		if n := hm.get("update"); !isNull(n) {
			if s.Update, err = d.expr(n); err != nil {
				return nil, err
			}
		}
	}
	body, err := d.block(m.get("do"), nil, m.node)
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

func (d *decoder) letStmt(m *mapping) (*ast.LetStmt, error) {
	pat, err := d.pattern(m.get("let"))
	if err != nil {
		return nil, err
	}
	mutable, err := d.boolean(m.get("mut"))
	if err != nil {
		return nil, err
	}
	if mutable {
		b, ok := pat.(*ast.BindingPattern)
		if !ok {
			return nil, d.errorf(m.node, "`mut` applies to a single binding")
		}
		b.Mutable = true
	}
	s := &ast.LetStmt{Pattern: pat, Span: d.span(m.node)}
	if s.Type, err = d.typeExpr(m.get("type")); err != nil {
		return nil, err
	}
	if v := m.get("value"); !isNull(v) {
		if s.Init, err = d.expr(v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ====== Expressions ======

func splitPath(s string) (enum, variant string) {
	if i := strings.LastIndex(s, "::"); i >= 0 {
		return s[:i], s[i+2:]
	}
	return "", s
}

func (d *decoder) exprs(n *yaml.Node) ([]ast.Expr, error) {
	if isNull(n) {
		return nil, nil
	}
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of expressions")
	}
	out := make([]ast.Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) fieldInits(n *yaml.Node) ([]ast.FieldInit, error) {
	if isNull(n) {
		return nil, nil
	}
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	out := make([]ast.FieldInit, 0, len(m.keys))
	for _, k := range m.keys {
		e, err := d.expr(m.get(k))
		if err != nil {
			return nil, err
		}
		out = append(out, ast.FieldInit{Name: k, Value: e, Span: d.span(m.get(k))})
	}
	return out, nil
}

func (d *decoder) expr(n *yaml.Node) (ast.Expr, error) {
	n = resolve(n)
	if n == nil {
		return nil, fmt.Errorf("%s: missing expression", d.file)
	}
	e, err := d.exprNode(n)
	if err != nil {
		return nil, err
	}
	if !e.GetSpan().IsValid() {
		e.SetSpan(d.span(n))
	}
	return e, nil
}

func (d *decoder) scalarExpr(n *yaml.Node) (ast.Expr, error) {
	v := strings.TrimSpace(n.Value)
	switch n.Tag {
	case "!!int":
		i, ok := new(big.Int).SetString(v, 0)
		if !ok {
			return nil, d.errorf(n, "bad integer literal %s", v)
		}
		return &ast.IntLit{Value: i}, nil
	case "!!float":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, d.errorf(n, "bad float literal %s", v)
		}
		return &ast.FloatLit{Value: f}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "bad boolean %s", v)
		}
		return &ast.BoolLit{Value: b}, nil
	case "!!null":
		return &ast.TupleLit{}, nil
	}
	if m := suffixedInt.FindStringSubmatch(v); m != nil {
		i, ok := new(big.Int).SetString(m[1], 10)
		if !ok {
			return nil, d.errorf(n, "bad integer literal %s", v)
		}
		return &ast.IntLit{Value: i, Suffix: m[2]}, nil
	}
	if m := suffixedFloat.FindStringSubmatch(v); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return nil, d.errorf(n, "bad float literal %s", v)
		}
		return &ast.FloatLit{Value: f, Suffix: m[2]}, nil
	}
	if strings.Contains(v, "::") {
		enum, variant := splitPath(v)
		return &ast.VariantLit{Enum: enum, Variant: variant}, nil
	}
	if !identifier.MatchString(v) {
		return nil, d.errorf(n, "%q is not an identifier; use {str: ...} for strings", v)
	}
	return &ast.Ident{Name: v}, nil
}

var binaryOps = map[string]ast.BinaryOp{}

func init() {
	for _, op := range []ast.BinaryOp{
		ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpRem,
		ast.OpLt, ast.OpGt, ast.OpLe, ast.OpGe, ast.OpEq, ast.OpNe,
		ast.OpAnd, ast.OpOr, ast.OpBitAnd, ast.OpBitOr, ast.OpBitXor, ast.OpShl, ast.OpShr,
	} {
		binaryOps[string(op)] = op
	}
}

func (d *decoder) exprNode(n *yaml.Node) (ast.Expr, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalarExpr(n)
	case yaml.SequenceNode:
		return d.block(n, nil, n)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "unexpected %s in expression position", n.ShortTag())
	}

	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	switch {
	case m.has("str"):
		var s string
		if err := m.get("str").Decode(&s); err != nil {
			return nil, d.errorf(n, "bad string literal")
		}
		return &ast.StringLit{Value: s}, nil

	case m.has("template"):
		return d.template(m.get("template"))

	case m.has("call"):
		callee, err := d.expr(m.get("call"))
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(m.get("args"))
		if err != nil {
			return nil, err
		}
		return &ast.Call{Callee: callee, Args: args}, nil

	case m.has("method"):
		name, err := d.scalar(m.get("method"))
		if err != nil {
			return nil, err
		}
		recv, err := d.expr(m.get("on"))
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(m.get("args"))
		if err != nil {
			return nil, err
		}
		return &ast.MethodCall{Receiver: recv, Method: name, Args: args}, nil

	case m.has("op"):
		op, err := d.scalar(m.get("op"))
		if err != nil {
			return nil, err
		}
		args, err := d.exprs(m.get("args"))
		if err != nil {
			return nil, err
		}
		switch len(args) {
		case 1:
			switch ast.UnaryOp(op) {
			case ast.OpNeg, ast.OpNot, ast.OpBitNot:
				return &ast.Unary{Op: ast.UnaryOp(op), Operand: args[0]}, nil
			}
			return nil, d.errorf(n, "unknown unary operator %q", op)
		case 2:
			bop, ok := binaryOps[op]
			if !ok {
				return nil, d.errorf(n, "unknown binary operator %q", op)
			}
			return &ast.Binary{Op: bop, Left: args[0], Right: args[1]}, nil
		default:
			return nil, d.errorf(n, "operator %q takes one or two operands", op)
		}

	case m.has("ref"), m.has("mut_ref"):
		mutable := m.has("mut_ref")
		key := "ref"
		if mutable {
			key = "mut_ref"
		}
		operand, err := d.expr(m.get(key))
		if err != nil {
			return nil, err
		}
		return &ast.Ref{Mutable: mutable, Operand: operand}, nil

	case m.has("deref"):
		operand, err := d.expr(m.get("deref"))
		if err != nil {
			return nil, err
		}
		return &ast.Deref{Operand: operand}, nil

	case m.has("field"):
		name, err := d.scalar(m.get("field"))
		if err != nil {
			return nil, err
		}
		obj, err := d.expr(m.get("of"))
		if err != nil {
			return nil, err
		}
		return &ast.Field{Object: obj, Name: name}, nil

	case m.has("index"):
		idx, err := d.expr(m.get("index"))
		if err != nil {
			return nil, err
		}
		obj, err := d.expr(m.get("of"))
		if err != nil {
			return nil, err
		}
		return &ast.Index{Object: obj, Index: idx}, nil

	case m.has("struct"):
		name, err := d.scalar(m.get("struct"))
		if err != nil {
			return nil, err
		}
		fields, err := d.fieldInits(m.get("fields"))
		if err != nil {
			return nil, err
		}
		return &ast.StructLit{Name: name, Fields: fields}, nil

	case m.has("variant"):
		path, err := d.scalar(m.get("variant"))
		if err != nil {
			return nil, err
		}
		enum, variant := splitPath(path)
		args, err := d.exprs(m.get("args"))
		if err != nil {
			return nil, err
		}
		fields, err := d.fieldInits(m.get("fields"))
		if err != nil {
			return nil, err
		}
		return &ast.VariantLit{Enum: enum, Variant: variant, Args: args, Fields: fields}, nil

	case m.has("fields"):
		fields, err := d.fieldInits(m.get("fields"))
		if err != nil {
			return nil, err
		}
		return &ast.StructLit{Fields: fields}, nil

	case m.has("tuple"):
		elems, err := d.exprs(m.get("tuple"))
		if err != nil {
			return nil, err
		}
		return &ast.TupleLit{Elems: elems}, nil

	case m.has("array"):
		elems, err := d.exprs(m.get("array"))
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLit{Elems: elems}, nil

	case m.has("cast"):
		operand, err := d.expr(m.get("cast"))
		if err != nil {
			return nil, err
		}
		target, err := d.typeExpr(m.get("to"))
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, d.errorf(n, "cast needs a `to` type")
		}
		return &ast.Cast{Operand: operand, Target: target}, nil

	case m.has("assign"):
		target, err := d.expr(m.get("assign"))
		if err != nil {
			return nil, err
		}
		value, err := d.expr(m.get("value"))
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Target: target, Value: value}, nil

	case m.has("match"):
		return d.matchExpr(m)

	case m.has("if"):
		cond, err := d.expr(m.get("if"))
		if err != nil {
			return nil, err
		}
		then, err := d.expr(m.get("then"))
		if err != nil {
			return nil, err
		}
		e := &ast.If{Cond: cond, Then: then}
		if els := m.get("else"); !isNull(els) {
			if e.Else, err = d.expr(els); err != nil {
				return nil, err
			}
		}
		return e, nil

	case m.has("block"):
		return d.block(m.get("block"), m.get("value"), n)
	}
	return nil, d.errorf(n, "unknown expression with keys %v", m.keys)
}

func (d *decoder) matchExpr(m *mapping) (ast.Expr, error) {
	scrut, err := d.expr(m.get("match"))
	if err != nil {
		return nil, err
	}
	e := &ast.Match{Scrutinee: scrut}
	arms := m.get("arms")
	if isNull(arms) || arms.Kind != yaml.SequenceNode {
		return nil, d.errorf(m.node, "match needs a list of arms")
	}
	for _, an := range arms.Content {
		am, err := d.mapping(an)
		if err != nil {
			return nil, err
		}
		arm := &ast.MatchArm{Span: d.span(an)}
		if arm.Pattern, err = d.pattern(am.get("pattern")); err != nil {
			return nil, err
		}
		if g := am.get("guard"); !isNull(g) {
			if arm.Guard, err = d.expr(g); err != nil {
				return nil, err
			}
		}
		if arm.Body, err = d.expr(am.get("body")); err != nil {
			return nil, err
		}
		e.Arms = append(e.Arms, arm)
	}
	return e, nil
}

// ====== Patterns ======

func (d *decoder) patterns(n *yaml.Node) ([]ast.Pattern, error) {
	if isNull(n) {
		return nil, nil
	}
	n = resolve(n)
	if n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of patterns")
	}
	out := make([]ast.Pattern, 0, len(n.Content))
	for _, c := range n.Content {
		p, err := d.pattern(c)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (d *decoder) fieldPatterns(n *yaml.Node) ([]ast.FieldPattern, error) {
	if isNull(n) {
		return nil, nil
	}
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	out := make([]ast.FieldPattern, 0, len(m.keys))
	for _, k := range m.keys {
		p, err := d.pattern(m.get(k))
		if err != nil {
			return nil, err
		}
		out = append(out, ast.FieldPattern{Name: k, Pattern: p})
	}
	return out, nil
}

func (d *decoder) pattern(n *yaml.Node) (ast.Pattern, error) {
	n = resolve(n)
	if n == nil {
		return nil, fmt.Errorf("%s: missing pattern", d.file)
	}
	p, err := d.patternNode(n)
	if err != nil {
		return nil, err
	}
	if !p.GetSpan().IsValid() {
		p.SetSpan(d.span(n))
	}
	return p, nil
}

func (d *decoder) scalarPattern(n *yaml.Node) (ast.Pattern, error) {
	v := strings.TrimSpace(n.Value)
	switch n.Tag {
	case "!!int":
		i, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			return nil, d.errorf(n, "integer pattern %s out of range", v)
		}
		return &ast.LiteralPattern{Kind: ast.LitInt, Int: i}, nil
	case "!!float":
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, d.errorf(n, "bad float pattern %s", v)
		}
		return &ast.LiteralPattern{Kind: ast.LitFloat, Float: f}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, d.errorf(n, "bad boolean %s", v)
		}
		return &ast.LiteralPattern{Kind: ast.LitBool, Bool: b}, nil
	case "!!null":
		return nil, d.errorf(n, "empty pattern")
	}
	if v == "_" {
		return &ast.WildcardPattern{}, nil
	}
	if m := rangeScalar.FindStringSubmatch(v); m != nil {
		lo, err1 := strconv.ParseInt(m[1], 10, 64)
		hi, err2 := strconv.ParseInt(m[3], 10, 64)
		if err1 != nil || err2 != nil {
			return nil, d.errorf(n, "range bound out of range in %s", v)
		}
		return &ast.RangePattern{Low: lo, High: hi, Inclusive: m[2] == "..="}, nil
	}
	if strings.Contains(v, "::") {
		enum, variant := splitPath(v)
		return &ast.VariantPattern{Enum: enum, Variant: variant}, nil
	}
	mutable := false
	if rest, ok := strings.CutPrefix(v, "mut "); ok {
		v = strings.TrimSpace(rest)
		mutable = true
	}
	if !identifier.MatchString(v) {
		return nil, d.errorf(n, "%q is not a valid pattern", v)
	}
	return &ast.BindingPattern{Name: v, Mutable: mutable}, nil
}

func (d *decoder) patternNode(n *yaml.Node) (ast.Pattern, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return d.scalarPattern(n)
	case yaml.MappingNode:
	default:
		return nil, d.errorf(n, "unexpected %s in pattern position", n.ShortTag())
	}
	m, err := d.mapping(n)
	if err != nil {
		return nil, err
	}
	switch {
	case m.has("str"):
		var s string
		if err := m.get("str").Decode(&s); err != nil {
			return nil, d.errorf(n, "bad string pattern")
		}
		return &ast.LiteralPattern{Kind: ast.LitString, Str: s}, nil

	case m.has("tuple"):
		elems, err := d.patterns(m.get("tuple"))
		if err != nil {
			return nil, err
		}
		return &ast.TuplePattern{Elems: elems}, nil

	case m.has("list"):
		prefix, err := d.patterns(m.get("list"))
		if err != nil {
			return nil, err
		}
		p := &ast.ListPattern{Prefix: prefix}
		if r := m.get("rest"); !isNull(r) {
			switch {
			case r.Tag == "!!bool":
				if p.HasRest, err = d.boolean(r); err != nil {
					return nil, err
				}
			case r.Value == "_":
				p.HasRest = true
			default:
				bp, err := d.pattern(r)
				if err != nil {
					return nil, err
				}
				b, ok := bp.(*ast.BindingPattern)
				if !ok {
					return nil, d.errorf(r, "list rest must be a name")
				}
				p.HasRest = true
				p.Rest = b
			}
		}
		return p, nil

	case m.has("record"):
		name, err := d.scalar(m.get("record"))
		if err != nil {
			return nil, err
		}
		fields, err := d.fieldPatterns(m.get("fields"))
		if err != nil {
			return nil, err
		}
		rest, err := d.boolean(m.get("rest"))
		if err != nil {
			return nil, err
		}
		return &ast.RecordPattern{Name: name, Fields: fields, Rest: rest}, nil

	case m.has("variant"):
		path, err := d.scalar(m.get("variant"))
		if err != nil {
			return nil, err
		}
		enum, variant := splitPath(path)
		args, err := d.patterns(m.get("args"))
		if err != nil {
			return nil, err
		}
		fields, err := d.fieldPatterns(m.get("fields"))
		if err != nil {
			return nil, err
		}
		rest, err := d.boolean(m.get("rest"))
		if err != nil {
			return nil, err
		}
		return &ast.VariantPattern{Enum: enum, Variant: variant, Args: args, Fields: fields, Rest: rest}, nil

	case m.has("or"):
		alts, err := d.patterns(m.get("or"))
		if err != nil {
			return nil, err
		}
		if len(alts) < 2 {
			return nil, d.errorf(n, "an or-pattern needs at least two alternatives")
		}
		return &ast.OrPattern{Alts: alts}, nil

	case m.has("range"):
		var bounds []int64
		if err := m.get("range").Decode(&bounds); err != nil || len(bounds) != 2 {
			return nil, d.errorf(n, "range needs [low, high]")
		}
		inclusive := true
		if inc := m.get("inclusive"); !isNull(inc) {
			if inclusive, err = d.boolean(inc); err != nil {
				return nil, err
			}
		}
		return &ast.RangePattern{Low: bounds[0], High: bounds[1], Inclusive: inclusive}, nil

	case m.has("guard"):
		inner, err := d.pattern(m.get("guard"))
		if err != nil {
			return nil, err
		}
		cond, err := d.expr(m.get("if"))
		if err != nil {
			return nil, err
		}
		return &ast.GuardPattern{Inner: inner, Cond: cond}, nil
	}
	return nil, d.errorf(n, "unknown pattern with keys %v", m.keys)
}

// template decodes a list of parts: {text: "..."} entries are literal text
// and anything else is an interpolated expression
func (d *decoder) template(n *yaml.Node) (*ast.TemplateString, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, d.errorf(n, "expected a list of template parts")
	}
	t := &ast.TemplateString{}
	for _, c := range n.Content {
		if rc := resolve(c); rc.Kind == yaml.MappingNode {
			m, err := d.mapping(rc)
			if err != nil {
				return nil, err
			}
			if m.has("text") {
				var text string
				if err := m.get("text").Decode(&text); err != nil {
					return nil, d.errorf(c, "bad template text")
				}
				t.Parts = append(t.Parts, ast.TemplatePart{Text: text})
				continue
			}
		}
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		t.Parts = append(t.Parts, ast.TemplatePart{Expr: e})
	}
	return t, nil
}
