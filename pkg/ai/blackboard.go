package ai

import (
	"math/rand"

	"arenaball/pkg/core"
)

// Sensor 机器人感知墙体的方式，physics.Arena 即满足
type Sensor interface {
	Raycast(origin, dir core.Vec3, maxDist float64) (core.Hit, bool)
}

type Blackboard struct {
	State     core.KinematicState
	Tick      core.Tick
	RNG       *rand.Rand
	Clearance *Clearance
	Config    *BotConfig

	// 决策结果，跨 tick 保持
	TargetYaw float64
	Jump      bool
	Stop      bool

	ForceThink  bool
	LastBlocked bool

	// 游荡方向剩余的 tick 数
	WanderTicks int
}

func (bb *Blackboard) ResetFrame(state core.KinematicState, tick core.Tick) {
	bb.State = state
	bb.Tick = tick
	bb.ForceThink = false
	// TargetYaw 与 WanderTicks 不重置，保持跨帧连续性
}
