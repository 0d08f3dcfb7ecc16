package patterns

// ====== Reachability ======

// unreachable returns the arms whose rows are not useful with respect to
// the unguarded rows of strictly earlier arms. m holds one row per arm.
func (c *compiler) unreachable(m *matrix) []int {
	var out []int
	prior := &matrix{cols: m.cols}
	for _, r := range m.rows {
		alts := expandRow(r)
		reachable := false
		for _, a := range alts {
			if c.useful(prior, a.pats) {
				reachable = true
				break
			}
		}
		if !reachable {
			out = append(out, r.arm)
		}
		for _, a := range alts {
			if !a.guarded {
				prior.rows = append(prior.rows, a)
			}
		}
	}
	return out
}

// useful reports whether some value matched by q is matched by no row of
// p. It specializes p and q on the same constructor families the decision
// tree uses.
func (c *compiler) useful(p *matrix, q []*pat) bool {
	if len(p.rows) == 0 {
		return true
	}
	if len(q) == 0 {
		return false
	}

	head := q[0]
	switch head.kind {
	case patOr:
		for _, alt := range head.args {
			if c.useful(p, withHead(alt, q[1:])) {
				return true
			}
		}
		return false
	case patGuard:
		return c.useful(p, withHead(head.args[0], q[1:]))
	}

	p = p.unconditionalHead()
	if len(p.rows) == 0 {
		return true
	}

	if isStructural(head) || p.structuralHead() {
		sub, n := p.expandProduct(0)
		args := wilds(n)
		if isStructural(head) {
			args = fit(head.args, n)
		}
		return c.useful(sub, concat(args, q[1:]))
	}

	both := &matrix{cols: p.cols, rows: append(append([]row(nil), p.rows...), row{pats: q})}
	cases, missing := c.family(both, 0)
	if head.kind != patWild {
		for _, k := range cases {
			args, _, ok := k.match(head, k.arity(), nil)
			if ok && c.useful(p.specialize(0, k), concat(args, q[1:])) {
				return true
			}
		}
		return false
	}
	if missing == nil && len(cases) > 0 {
		for _, k := range cases {
			if c.useful(p.specialize(0, k), concat(wilds(k.arity()), q[1:])) {
				return true
			}
		}
		return false
	}
	return c.useful(p.defaultRows(0), q[1:])
}

// unconditionalHead expands or-patterns in the first column and drops
// rows whose first pattern is guarded, since a guard never covers
func (m *matrix) unconditionalHead() *matrix {
	out := &matrix{cols: m.cols}
	var add func(r row)
	add = func(r row) {
		switch p := r.pats[0]; p.kind {
		case patOr:
			for _, alt := range p.args {
				add(r.replace(0, alt))
			}
		case patGuard:
		default:
			out.rows = append(out.rows, r)
		}
	}
	for _, r := range m.rows {
		add(r)
	}
	return out
}

func (m *matrix) structuralHead() bool {
	for _, r := range m.rows {
		if isStructural(r.pats[0]) {
			return true
		}
	}
	return false
}

func withHead(h *pat, rest []*pat) []*pat {
	return concat([]*pat{h}, rest)
}

func concat(a, b []*pat) []*pat {
	out := make([]*pat, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
