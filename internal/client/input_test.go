package client

import (
	"testing"

	"arenaball/pkg/core"
	"arenaball/pkg/physics"

	"github.com/hajimehoshi/ebiten/v2"
)

// heldKeys 模拟按键状态，just 仅在按下的那一帧为真
type heldKeys struct {
	down map[ebiten.Key]bool
	just map[ebiten.Key]bool
}

func (k *heldKeys) Pressed(key ebiten.Key) bool     { return k.down[key] }
func (k *heldKeys) JustPressed(key ebiten.Key) bool { return k.just[key] }

func (k *heldKeys) press(key ebiten.Key) {
	k.just[key] = !k.down[key]
	k.down[key] = true
}

func (k *heldKeys) nextFrame() { clear(k.just) }

func TestScriptedInputJumpsPeriodically(t *testing.T) {
	s := NewScriptedInput()
	jumps := 0
	for tick := core.Tick(1); tick <= 900; tick++ {
		in := s.Sample(tick)
		if in.Move != (core.Vec2{Y: 1}) {
			t.Fatalf("tick %d: move = %+v", tick, in.Move)
		}
		if in.Jump {
			jumps++
		}
	}
	if jumps != 10 {
		t.Fatalf("jumps = %d, want 10", jumps)
	}
}

func TestBotInputIdleUntilAttached(t *testing.T) {
	movement := core.DefaultMovementConfig()
	bot, err := NewBotInput(physics.DefaultLayout(), &movement, 1)
	if err != nil {
		t.Fatalf("NewBotInput: %v", err)
	}
	if in := bot.Sample(5); !in.IsIdle() || in.Tick != 5 {
		t.Fatalf("unattached input = %+v", in)
	}

	state := core.SpawnState(nil, 0, core.Vec3{X: 24, Z: 16}, 0)
	state.Grounded = true
	bot.Attach(func() core.KinematicState { return state })
	if in := bot.Sample(6); in.IsIdle() {
		t.Fatalf("attached bot produced no input")
	}
}

func TestKeyboardJumpIsEdgeTriggered(t *testing.T) {
	keys := &heldKeys{down: map[ebiten.Key]bool{}, just: map[ebiten.Key]bool{}}
	k := &KeyboardInput{keys: keys}

	jumps := 0
	for tick := core.Tick(1); tick <= 30; tick++ {
		keys.press(ebiten.KeySpace)
		keys.press(ebiten.KeyW)
		in := k.Sample(tick)
		if in.Move != (core.Vec2{Y: 1}) {
			t.Fatalf("tick %d: move = %+v", tick, in.Move)
		}
		if in.Jump {
			jumps++
		}
		keys.nextFrame()
	}
	if jumps != 1 {
		t.Fatalf("holding space produced %d jumps, want 1", jumps)
	}
}

func TestScriptedInputTurnPattern(t *testing.T) {
	s := NewScriptedInput()
	counts := map[float64]int{}
	for tick := core.Tick(0); tick < s.TurnPeriod; tick++ {
		counts[s.Sample(tick).Look.X]++
	}
	quarter := int(s.TurnPeriod / 4)
	if counts[1] != quarter || counts[-1] != quarter || counts[0] != 2*quarter {
		t.Fatalf("turn counts = %v, want %d each way and %d straight", counts, quarter, 2*quarter)
	}
	if in := s.Sample(s.TurnPeriod / 4); in.Look.X != 1 {
		t.Fatalf("look at quarter period = %v, want 1", in.Look.X)
	}
}
