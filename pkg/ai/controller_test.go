package ai

import (
	"testing"

	"arenaball/pkg/core"
)

// planeSensor 一面无限长的墙，Normal 指向机器人
type planeSensor struct {
	// 墙位于 X = x（axisX）或 Z = z
	axisX bool
	at    float64
}

func (p planeSensor) Raycast(origin, dir core.Vec3, maxDist float64) (core.Hit, bool) {
	var o, d float64
	if p.axisX {
		o, d = origin.X, dir.X
	} else {
		o, d = origin.Z, dir.Z
	}
	if d == 0 {
		return core.Hit{}, false
	}
	t := (p.at - o) / d
	if t < 0 || t > maxDist {
		return core.Hit{}, false
	}
	return core.Hit{Point: origin.Add(dir.Scale(t)), Distance: t}, true
}

type noSensor struct{}

func (noSensor) Raycast(core.Vec3, core.Vec3, float64) (core.Hit, bool) { return core.Hit{}, false }

func calmConfig() *BotConfig {
	return &BotConfig{ThinkIntervalTicks: 30, LookAhead: 4, WanderTicks: 60}
}

func TestBotTurnsAwayFromWallAhead(t *testing.T) {
	bot := NewBotController(calmConfig(), planeSensor{at: 1}, 3, 1)
	state := core.SpawnState(nil, 0, core.Vec3{}, 0)
	state.Grounded = true

	in := bot.Decide(state, 1)
	if in.Look.X == 0 {
		t.Fatalf("bot keeps heading into the wall: %+v", in)
	}
	if in.Move.Y != 1 || in.Jump {
		t.Fatalf("unexpected input %+v", in)
	}
}

func TestBotIsDeterministicForSeed(t *testing.T) {
	cfg := calmConfig()
	cfg.JumpChance = 0.3
	cfg.MistakeRate = 0.2
	a := NewBotController(cfg, noSensor{}, 3, 42)
	b := NewBotController(cfg, noSensor{}, 3, 42)

	state := core.SpawnState(nil, 0, core.Vec3{}, 0)
	state.Grounded = true
	for tick := core.Tick(1); tick <= 600; tick++ {
		ia, ib := a.Decide(state, tick), b.Decide(state, tick)
		if ia != ib {
			t.Fatalf("tick %d: %+v != %+v", tick, ia, ib)
		}
		state.Orientation = core.Rotate(state.Orientation, ia.Look, 3)
	}
}

func TestBotSeeksWallRun(t *testing.T) {
	cfg := calmConfig()
	cfg.SeekWallRun = true
	bot := NewBotController(cfg, planeSensor{axisX: true, at: 1}, 3, 7)

	state := core.SpawnState(nil, 0, core.Vec3{}, 0)
	state.Grounded = true
	state.Velocity = core.Vec3{Z: 5}

	in := bot.Decide(state, 1)
	if !in.Jump {
		t.Fatalf("bot did not jump next to the wall: %+v", in)
	}
	if in.Look.X != 1 {
		t.Fatalf("bot should lean right toward the wall, look = %+v", in.Look)
	}

	// 起跳是一次性的
	if next := bot.Decide(state, 2); next.Jump {
		t.Fatalf("jump repeated on the following tick")
	}
}

func TestWrapAngle(t *testing.T) {
	cases := map[float64]float64{0: 0, 3: 3, -3: -3, 4: 4 - 2*3.141592653589793}
	for in, want := range cases {
		if got := wrapAngle(in); got-want > 1e-12 || want-got > 1e-12 {
			t.Fatalf("wrapAngle(%v) = %v, want %v", in, got, want)
		}
	}
}
