package ai

import (
	"math"
	"math/rand"

	"arenaball/pkg/ai/bt"
	"arenaball/pkg/core"
)

// BotController 根据自身状态与周围墙体生成输入，用于无头客户端压测
type BotController struct {
	rnd    *rand.Rand
	config *BotConfig
	sensor Sensor

	// 每个 tick 视角输入转过的角度（弧度）
	turnStep float64

	thinkIntervalTicks int
	thinkCounter       int
	decided            bool

	clearance  Clearance
	blackboard Blackboard
	tree       bt.Node[*Blackboard]
}

// NewBotController lookSensitivity 与移动配置一致（度/tick）
func NewBotController(config *BotConfig, sensor Sensor, lookSensitivity float64, seed int64) *BotController {
	if config == nil {
		config = &BotConfigNormal
	}
	rnd := rand.New(rand.NewSource(seed))

	c := &BotController{
		rnd:                rnd,
		config:             config,
		sensor:             sensor,
		turnStep:           lookSensitivity * math.Pi / 180,
		thinkIntervalTicks: config.ThinkIntervalTicks,
	}
	c.blackboard = Blackboard{
		RNG:       rnd,
		Clearance: &c.clearance,
		Config:    config,
	}

	c.tree = &bt.Selector[*Blackboard]{Children: []bt.Node[*Blackboard]{
		&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Condition[*Blackboard]{Check: condBlockedAhead},
			&bt.Action[*Blackboard]{Do: actTurnToOpen},
		}},
		&bt.Sequence[*Blackboard]{Children: []bt.Node[*Blackboard]{
			&bt.Condition[*Blackboard]{Check: condCanSeekWallRun},
			&bt.Action[*Blackboard]{Do: actJumpOntoWall},
		}},
		&bt.Action[*Blackboard]{Do: actWander},
	}}
	return c
}

// Decide 为 tick 生成输入
func (c *BotController) Decide(state core.KinematicState, tick core.Tick) core.InputSample {
	bb := &c.blackboard
	bb.ResetFrame(state, tick)
	c.clearance.Update(c.sensor, state.Position, state.Orientation.Yaw(), c.config.LookAhead)

	blocked := isBlocked(&c.clearance)
	force := !c.decided || (blocked && !bb.LastBlocked)
	bb.LastBlocked = blocked

	if bb.WanderTicks > 0 {
		bb.WanderTicks--
	}

	c.thinkCounter++
	if force || c.thinkCounter >= c.thinkIntervalTicks {
		bb.ForceThink = force
		c.thinkCounter = 0
		c.decided = true
		bb.Stop = false

		_ = c.tree.Tick(bb)

		// 随机失误
		if c.config.MistakeRate > 0 && c.rnd.Float64() < c.config.MistakeRate {
			switch c.rnd.Intn(3) {
			case 0:
				bb.Stop = true
			case 1:
				bb.TargetYaw = headingYaw(c.clearance.Yaw, c.rnd.Intn(clearanceHeadings))
			case 2:
				// 保持原决策
			}
		}
	}

	move := core.Vec2{Y: 1}
	if bb.Stop {
		move = core.Vec2{}
	}
	jump := bb.Jump
	bb.Jump = false
	return core.NewInputSample(tick, move, core.Vec2{X: c.steer(state.Orientation.Yaw(), bb.TargetYaw)}, jump)
}

// steer 转向目标偏航，差值小于半个步长时不转
func (c *BotController) steer(current, target float64) float64 {
	diff := wrapAngle(target - current)
	if c.turnStep <= 0 || math.Abs(diff) < c.turnStep/2 {
		return 0
	}
	if diff > 0 {
		return 1
	}
	return -1
}

// wrapAngle 规范到 (-π, π]
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	switch {
	case a > math.Pi:
		a -= 2 * math.Pi
	case a <= -math.Pi:
		a += 2 * math.Pi
	}
	return a
}

// Config 当前配置
func (c *BotController) Config() *BotConfig { return c.config }
