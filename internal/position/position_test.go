package position

import "testing"

func TestSpanString(t *testing.T) {
	tests := []struct {
		name string
		span Span
		want string
	}{
		{"point", At("main.yuni", 3, 7), "main.yuni:3:7"},
		{"same line", Span{
			Start: Position{Filename: "a/b.yuni", Line: 2, Column: 1},
			End:   Position{Filename: "a/b.yuni", Line: 2, Column: 9},
		}, "b.yuni:2:1-9"},
		{"multi line", Span{
			Start: Position{Line: 2, Column: 4},
			End:   Position{Line: 5, Column: 1},
		}, "2:4-5:1"},
		{"invalid", Span{}, "<unknown>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpanUnionAndContains(t *testing.T) {
	a := Span{Start: Position{Line: 1, Column: 1}, End: Position{Line: 1, Column: 5}}
	b := Span{Start: Position{Line: 3, Column: 2}, End: Position{Line: 3, Column: 8}}

	u := a.Union(b)
	if u.Start != a.Start || u.End != b.End {
		t.Fatalf("Union() = %v", u)
	}

	if !u.Contains(Position{Line: 2, Column: 10}) {
		t.Error("union should contain a position between both spans")
	}

	if u.Contains(Position{Line: 3, Column: 8}) {
		t.Error("end position is exclusive")
	}

	if got := (Span{}).Union(b); got != b {
		t.Errorf("union with invalid span = %v, want %v", got, b)
	}
}

func TestPositionCompare(t *testing.T) {
	p := Position{Filename: "a", Line: 2, Column: 3}
	if !p.Before(Position{Filename: "a", Line: 2, Column: 4}) {
		t.Error("expected column ordering")
	}
	if !p.After(Position{Filename: "a", Line: 1, Column: 90}) {
		t.Error("expected line ordering")
	}
	if p.Compare(p) != 0 {
		t.Error("position should compare equal to itself")
	}
}
