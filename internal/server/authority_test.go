package server

import (
	"testing"

	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/physics"
)

func newTestAuthority(t *testing.T, ordering string) (*Authority, core.KinematicState) {
	t.Helper()
	arena, err := physics.NewArena(physics.DefaultLayout())
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	cfg := core.DefaultMovementConfig()
	spawn := core.SpawnState(arena, 9, physics.DefaultLayout().SpawnPoint(0), 0)
	a, err := NewAuthority(1, &cfg, arena, spawn, ordering, core.FixedDeltaTime)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}
	return a, spawn
}

func forward(tick core.Tick) core.InputSample {
	return core.NewInputSample(tick, core.Vec2{Y: 1}, core.Vec2{}, false)
}

func producedTicks(out []Produced) []core.Tick {
	ticks := make([]core.Tick, len(out))
	for i, p := range out {
		ticks[i] = p.State.Tick
	}
	return ticks
}

func TestAuthorityProcessesInArrivalOrder(t *testing.T) {
	a, _ := newTestAuthority(t, config.OrderingArrival)

	a.Enqueue(forward(11), forward(10), forward(12))
	out := a.Drain()

	got := producedTicks(out)
	want := []core.Tick{11, 10, 12}
	if len(got) != len(want) {
		t.Fatalf("produced %d snapshots, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if a.Pending() != 0 {
		t.Fatalf("pending = %d after drain", a.Pending())
	}
	if latest := a.Latest(); latest != out[2].State {
		t.Fatalf("latest = tick %d, want last produced", latest.Tick)
	}
}

func TestAuthorityTickOrderingMatchesSequentialSteps(t *testing.T) {
	a, spawn := newTestAuthority(t, config.OrderingTick)
	a.Enqueue(forward(11), forward(10), forward(12))
	out := a.Drain()

	arena, _ := physics.NewArena(physics.DefaultLayout())
	cfg := core.DefaultMovementConfig()
	state := spawn
	for i, tick := range []core.Tick{10, 11, 12} {
		state, _ = core.Advance(&cfg, arena, state, forward(tick), core.FixedDeltaTime)
		if out[i].State != state {
			t.Fatalf("tick %d: got %+v, want %+v", tick, out[i].State, state)
		}
	}
}

func TestAuthorityPredecessorFallsBackToLastState(t *testing.T) {
	a, spawn := newTestAuthority(t, config.OrderingArrival)

	// tick 20 的前驱 19 不存在，使用最近产出的状态（出生状态）
	a.Enqueue(forward(20))
	out := a.Drain()

	arena, _ := physics.NewArena(physics.DefaultLayout())
	cfg := core.DefaultMovementConfig()
	want, _ := core.Advance(&cfg, arena, spawn, forward(20), core.FixedDeltaTime)
	if out[0].State != want {
		t.Fatalf("got %+v, want %+v", out[0].State, want)
	}
	if got, ok := a.StateAt(20); !ok || got != want {
		t.Fatalf("StateAt(20) = %+v, %v", got, ok)
	}
}

func TestAuthorityDropsDuplicateInputs(t *testing.T) {
	a, _ := newTestAuthority(t, config.OrderingArrival)

	in := forward(10)
	a.Enqueue(in, in)
	if out := a.Drain(); len(out) != 1 {
		t.Fatalf("produced %d snapshots, want 1", len(out))
	}

	// 同一 tick 内容不同的输入仍会被处理
	a.Enqueue(core.NewInputSample(10, core.Vec2{X: 1}, core.Vec2{}, false))
	if out := a.Drain(); len(out) != 1 {
		t.Fatalf("changed input for tick 10 not processed")
	}

	processed, dup := a.Stats()
	if processed != 2 || dup != 1 {
		t.Fatalf("stats = (%d, %d), want (2, 1)", processed, dup)
	}
}

func TestAuthorityEmitsJumpEvent(t *testing.T) {
	a, _ := newTestAuthority(t, config.OrderingArrival)

	// 出生时在地面上，第一步即可起跳
	a.Enqueue(core.NewInputSample(10, core.Vec2{}, core.Vec2{}, true))
	out := a.Drain()
	if len(out) != 1 {
		t.Fatalf("produced %d snapshots", len(out))
	}
	found := false
	for _, ev := range out[0].Events {
		if ev.Kind == core.EventJumped && ev.PlayerID == 1 && ev.Tick == 10 {
			found = true
		}
	}
	if !found {
		t.Fatalf("events = %+v, want jumped", out[0].Events)
	}
}

func TestAuthorityIdleFirstTickHasNoEvents(t *testing.T) {
	a, spawn := newTestAuthority(t, config.OrderingArrival)
	if !spawn.Grounded {
		t.Fatalf("spawn grounded = false, want true")
	}

	a.Enqueue(core.NewInputSample(10, core.Vec2{}, core.Vec2{}, false))
	out := a.Drain()
	if len(out) != 1 {
		t.Fatalf("produced %d snapshots", len(out))
	}
	if len(out[0].Events) != 0 {
		t.Fatalf("events = %+v, want none", out[0].Events)
	}
}

func TestAuthorityUsesConfiguredStep(t *testing.T) {
	arena, err := physics.NewArena(physics.DefaultLayout())
	if err != nil {
		t.Fatalf("NewArena: %v", err)
	}
	cfg := core.DefaultMovementConfig()
	spawn := core.SpawnState(arena, 9, physics.DefaultLayout().SpawnPoint(0), 0)
	dt := core.DeltaTime(30)
	a, err := NewAuthority(1, &cfg, arena, spawn, config.OrderingArrival, dt)
	if err != nil {
		t.Fatalf("NewAuthority: %v", err)
	}

	a.Enqueue(forward(10))
	out := a.Drain()

	ref, _ := physics.NewArena(physics.DefaultLayout())
	want, _ := core.Advance(&cfg, ref, spawn, forward(10), dt)
	if out[0].State != want {
		t.Fatalf("got %+v, want %+v", out[0].State, want)
	}
	fixed, _ := core.Advance(&cfg, ref, spawn, forward(10), core.FixedDeltaTime)
	if fixed.Position == want.Position {
		t.Fatalf("30 Hz step produced the same position as 60 Hz")
	}

	if _, err := NewAuthority(1, &cfg, arena, spawn, config.OrderingArrival, 0); err == nil {
		t.Fatalf("zero step accepted")
	}
}

func TestAuthorityReplicatedRejectsOwnerWrites(t *testing.T) {
	a, spawn := newTestAuthority(t, config.OrderingArrival)
	if err := a.Replicated().Set(core.RoleOwner, spawn); err != core.ErrNotWriter {
		t.Fatalf("err = %v, want ErrNotWriter", err)
	}
}
