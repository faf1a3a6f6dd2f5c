package client

import (
	"math"
	"testing"
	"time"

	"arenaball/pkg/core"
)

func stateAt(tick core.Tick, x float64) core.KinematicState {
	s := core.SpawnState(nil, tick, core.Vec3{X: x}, 0)
	return s
}

func TestSmootherHoldsSpawnWithoutSnapshot(t *testing.T) {
	for _, mode := range []SmoothingMode{SmoothingDisabled, SmoothingLinear, SmoothingExponential} {
		opts := DefaultSmootherOptions(core.TickRate)
		opts.Mode = mode
		spawn := stateAt(0, 5)
		s := NewRemoteSmoother(opts, spawn)

		pose := s.Update(time.Now(), 0.1)
		if pose.Position != spawn.Position || pose.Orientation != spawn.Orientation {
			t.Fatalf("%s: pose = %+v, want spawn", mode, pose)
		}
		if s.HasSnapshot() {
			t.Fatalf("%s: HasSnapshot before any push", mode)
		}
	}
}

func TestLinearSmootherClampsAlpha(t *testing.T) {
	opts := DefaultSmootherOptions(10) // 100ms 间隔
	s := NewRemoteSmoother(opts, stateAt(0, 0))

	t0 := time.Unix(100, 0)
	s.Push(stateAt(1, 0), t0)
	s.Push(stateAt(2, 10), t0)

	if got := s.Update(t0.Add(50*time.Millisecond), 0.05).Position.X; math.Abs(got-5) > 1e-9 {
		t.Fatalf("halfway X = %v, want 5", got)
	}

	// 远超预期间隔也不会越过最新快照
	for _, late := range []time.Duration{100 * time.Millisecond, time.Second, time.Hour} {
		if a := s.Alpha(t0.Add(late)); a != 1 {
			t.Fatalf("alpha after %v = %v, want 1", late, a)
		}
		if got := s.Update(t0.Add(late), 0.016).Position.X; got != 10 {
			t.Fatalf("X after %v = %v, want 10", late, got)
		}
	}
	if a := s.Alpha(t0.Add(-time.Second)); a != 0 {
		t.Fatalf("alpha before arrival = %v, want 0", a)
	}
}

func TestExponentialSmootherApproachesTarget(t *testing.T) {
	opts := DefaultSmootherOptions(core.TickRate)
	opts.Mode = SmoothingExponential
	opts.Decay = 0.01
	opts.Speed = 1
	s := NewRemoteSmoother(opts, stateAt(0, 0))

	now := time.Unix(100, 0)
	s.Push(stateAt(1, 0), now)
	s.Update(now, 0)
	s.Push(stateAt(2, 10), now)

	prev := 0.0
	for i := 0; i < 10; i++ {
		x := s.Update(now, 0.1).Position.X
		if !(x > prev) || x > 10 {
			t.Fatalf("step %d: X = %v, prev %v", i, x, prev)
		}
		prev = x
	}
	// 每步 k = 1 - 0.01^0.1，1 秒后剩余误差约 0.1
	if 10-prev > 0.2 {
		t.Fatalf("X = %v after 1s, want close to 10", prev)
	}
}

func TestDisabledSmootherSnapsAndIgnoresStale(t *testing.T) {
	opts := DefaultSmootherOptions(core.TickRate)
	opts.Mode = SmoothingDisabled
	s := NewRemoteSmoother(opts, stateAt(0, 0))

	now := time.Unix(100, 0)
	s.Push(stateAt(5, 3), now)
	s.Push(stateAt(4, 99), now)
	if got := s.Update(now, 0.016).Position.X; got != 3 {
		t.Fatalf("X = %v, want 3", got)
	}
	if s.Latest().Tick != 5 {
		t.Fatalf("latest tick = %d, want 5", s.Latest().Tick)
	}
}

func TestParseSmoothingMode(t *testing.T) {
	for _, mode := range []SmoothingMode{SmoothingDisabled, SmoothingLinear, SmoothingExponential} {
		got, err := ParseSmoothingMode(mode.String())
		if err != nil || got != mode {
			t.Fatalf("ParseSmoothingMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseSmoothingMode("cubic"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
}
