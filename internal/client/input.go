package client

import (
	"arenaball/pkg/ai"
	"arenaball/pkg/core"
	"arenaball/pkg/physics"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// KeyState 键盘状态，默认读取 ebiten
type KeyState interface {
	Pressed(key ebiten.Key) bool
	// JustPressed 本帧刚按下
	JustPressed(key ebiten.Key) bool
}

type ebitenKeys struct{}

func (ebitenKeys) Pressed(key ebiten.Key) bool     { return ebiten.IsKeyPressed(key) }
func (ebitenKeys) JustPressed(key ebiten.Key) bool { return inpututil.IsKeyJustPressed(key) }

// KeyboardInput WASD 移动，Q/E 或左右方向键转向，空格跳跃。
// 转向是单位输入，角速度由移动配置中的 LookSensitivity 决定。
type KeyboardInput struct {
	keys KeyState
}

func NewKeyboardInput() *KeyboardInput {
	return &KeyboardInput{keys: ebitenKeys{}}
}

func axis(neg, pos bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

// Sample 实现 InputSource，按住空格只跳一次
func (k *KeyboardInput) Sample(tick core.Tick) core.InputSample {
	move := core.Vec2{
		X: axis(k.keys.Pressed(ebiten.KeyA), k.keys.Pressed(ebiten.KeyD)),
		Y: axis(k.keys.Pressed(ebiten.KeyS), k.keys.Pressed(ebiten.KeyW)),
	}
	turn := axis(
		k.keys.Pressed(ebiten.KeyQ) || k.keys.Pressed(ebiten.KeyArrowLeft),
		k.keys.Pressed(ebiten.KeyE) || k.keys.Pressed(ebiten.KeyArrowRight),
	)
	return core.NewInputSample(tick, move, core.Vec2{X: turn}, k.keys.JustPressed(ebiten.KeySpace))
}

// ScriptedInput 无头模式下的确定性输入：绕圈奔跑并周期性起跳
type ScriptedInput struct {
	// 每隔多少 tick 跳一次，0 表示不跳
	JumpEvery core.Tick
	// 转向周期（tick）：正向与反向转向各占四分之一周期，其间直行
	TurnPeriod core.Tick
}

func NewScriptedInput() *ScriptedInput {
	return &ScriptedInput{JumpEvery: 90, TurnPeriod: 240}
}

// Sample 实现 InputSource
func (s *ScriptedInput) Sample(tick core.Tick) core.InputSample {
	var turn float64
	if s.TurnPeriod > 0 {
		// 视角输入会被归一化，只能取 -1、0、1
		phase := float64(tick%s.TurnPeriod) / float64(s.TurnPeriod)
		switch {
		case phase >= 0.125 && phase < 0.375:
			turn = 1
		case phase >= 0.625 && phase < 0.875:
			turn = -1
		}
	}
	jump := s.JumpEvery > 0 && tick%s.JumpEvery == 0
	return core.NewInputSample(tick, core.Vec2{Y: 1}, core.Vec2{X: turn}, jump)
}

// BotInput 由行为树机器人生成输入，用于无头压测
type BotInput struct {
	bot   *ai.BotController
	state func() core.KinematicState
}

// NewBotInput 机器人使用独立的碰撞场景做射线探测
func NewBotInput(layout physics.Layout, movement *core.MovementConfig, seed int64) (*BotInput, error) {
	arena, err := physics.NewArena(layout)
	if err != nil {
		return nil, err
	}
	return &BotInput{bot: ai.NewBotController(&ai.BotConfigParkour, arena, movement.LookSensitivity, seed)}, nil
}

// Attach 绑定当前预测状态的来源，未绑定前输入为空
func (b *BotInput) Attach(state func() core.KinematicState) {
	b.state = state
}

// Sample 实现 InputSource
func (b *BotInput) Sample(tick core.Tick) core.InputSample {
	if b.state == nil {
		return core.InputSample{Tick: tick}
	}
	return b.bot.Decide(b.state(), tick)
}
