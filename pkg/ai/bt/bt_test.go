package bt

import "testing"

type counter struct{ calls []string }

func action(name string, status Status) Node[*counter] {
	return &Action[*counter]{Do: func(c *counter) Status {
		c.calls = append(c.calls, name)
		return status
	}}
}

func TestSelectorStopsAtFirstNonFailure(t *testing.T) {
	c := &counter{}
	tree := &Selector[*counter]{Children: []Node[*counter]{
		action("a", StatusFailure),
		action("b", StatusRunning),
		action("c", StatusSuccess),
	}}
	if got := tree.Tick(c); got != StatusRunning {
		t.Fatalf("status = %s, want running", got)
	}
	if len(c.calls) != 2 {
		t.Fatalf("calls = %v", c.calls)
	}
}

func TestSequenceStopsAtFirstNonSuccess(t *testing.T) {
	c := &counter{}
	tree := &Sequence[*counter]{Children: []Node[*counter]{
		action("a", StatusSuccess),
		&Condition[*counter]{Check: func(*counter) bool { return false }},
		action("c", StatusSuccess),
	}}
	if got := tree.Tick(c); got != StatusFailure {
		t.Fatalf("status = %s, want failure", got)
	}
	if len(c.calls) != 1 {
		t.Fatalf("calls = %v", c.calls)
	}
}

func TestInvert(t *testing.T) {
	c := &counter{}
	cases := map[Status]Status{
		StatusSuccess: StatusFailure,
		StatusFailure: StatusSuccess,
		StatusRunning: StatusRunning,
	}
	for in, want := range cases {
		if got := (&Invert[*counter]{Child: action("x", in)}).Tick(c); got != want {
			t.Fatalf("Invert(%s) = %s, want %s", in, got, want)
		}
	}
}
