package ast

// Inspect traverses the expressions, statements and patterns reachable from
// node in depth-first order. If f returns false the children of that node
// are skipped. Type syntax is not visited.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	switch n := node.(type) {
	case *Program:
		for _, it := range n.Items {
			Inspect(it, f)
		}
	case *FuncDecl:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *StructDecl, *EnumDecl:
	// statements
	case *LetStmt:
		Inspect(n.Pattern, f)
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	case *ReturnStmt:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *WhileStmt:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *ForStmt:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
		if n.Cond != nil {
			Inspect(n.Cond, f)
		}
		Inspect(n.Body, f)
		if n.Update != nil {
			Inspect(n.Update, f)
		}
	// expressions
	case *Binary:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Unary:
		Inspect(n.Operand, f)
	case *Call:
		Inspect(n.Callee, f)
		inspectExprs(n.Args, f)
	case *MethodCall:
		Inspect(n.Receiver, f)
		inspectExprs(n.Args, f)
	case *Field:
		Inspect(n.Object, f)
	case *Index:
		Inspect(n.Object, f)
		Inspect(n.Index, f)
	case *Ref:
		Inspect(n.Operand, f)
	case *Deref:
		Inspect(n.Operand, f)
	case *StructLit:
		for _, fi := range n.Fields {
			Inspect(fi.Value, f)
		}
	case *VariantLit:
		inspectExprs(n.Args, f)
		for _, fi := range n.Fields {
			Inspect(fi.Value, f)
		}
	case *TupleLit:
		inspectExprs(n.Elems, f)
	case *ArrayLit:
		inspectExprs(n.Elems, f)
	case *Cast:
		Inspect(n.Operand, f)
	case *TemplateString:
		for _, p := range n.Parts {
			if p.Expr != nil {
				Inspect(p.Expr, f)
			}
		}
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *Match:
		Inspect(n.Scrutinee, f)
		for _, arm := range n.Arms {
			Inspect(arm.Pattern, f)
			if arm.Guard != nil {
				Inspect(arm.Guard, f)
			}
			Inspect(arm.Body, f)
		}
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)
		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *Block:
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
		if n.Tail != nil {
			Inspect(n.Tail, f)
		}
	// patterns
	case *TuplePattern:
		inspectPatterns(n.Elems, f)
	case *ListPattern:
		inspectPatterns(n.Prefix, f)
		if n.Rest != nil {
			Inspect(n.Rest, f)
		}
	case *RecordPattern:
		for _, fp := range n.Fields {
			Inspect(fp.Pattern, f)
		}
	case *VariantPattern:
		inspectPatterns(n.Args, f)
		for _, fp := range n.Fields {
			Inspect(fp.Pattern, f)
		}
	case *OrPattern:
		inspectPatterns(n.Alts, f)
	case *GuardPattern:
		Inspect(n.Inner, f)
		Inspect(n.Cond, f)
	}
}

func inspectExprs(es []Expr, f func(Node) bool) {
	for _, e := range es {
		Inspect(e, f)
	}
}

func inspectPatterns(ps []Pattern, f func(Node) bool) {
	for _, p := range ps {
		Inspect(p, f)
	}
}

// Number assigns a unique NodeID to every expression and pattern in prog,
// starting at 1, and returns the number of ids handed out.
func Number(prog *Program) int {
	next := NodeID(0)
	Inspect(prog, func(n Node) bool {
		switch x := n.(type) {
		case Expr:
			next++
			x.setID(next)
		case Pattern:
			next++
			x.setID(next)
		}
		return true
	})
	return int(next)
}
