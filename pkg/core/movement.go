package core

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMovementConfig 移动参数不合法
var ErrInvalidMovementConfig = errors.New("移动参数不合法")

// MovementConfig 角色移动参数
type MovementConfig struct {
	MaxSpeed     float64 // m/s
	Acceleration float64
	Deceleration float64
	AirControl   float64 // 空中加速倍率
	AirBrake     float64 // 空中减速倍率

	Gravity      float64 // 基础重力（负值向下）
	GravityScale float64
	JumpHeight   float64 // m
	JumpCooldown float64 // s

	LookSensitivity float64 // 每 tick 单位视角输入对应的偏航角（度）

	WallRunEnabled        bool
	WallCheckDistance     float64 // m
	WallRunCooldown       float64 // s
	WallRunImpulse        float64 // m/s
	WallStickAcceleration float64 // m/s²
	WallJumpHeight        float64 // m
	WallJumpSideForce     float64 // m/s
	WallJumpForwardForce  float64 // m/s
}

// DefaultMovementConfig 默认参数
func DefaultMovementConfig() MovementConfig {
	return MovementConfig{
		MaxSpeed:     15,
		Acceleration: 5120,
		Deceleration: 800,
		AirControl:   0.1,
		AirBrake:     0,

		Gravity:      StandardGravity,
		GravityScale: 1.5,
		JumpHeight:   3,
		JumpCooldown: 0.4,

		LookSensitivity: 3,

		WallRunEnabled:        true,
		WallCheckDistance:     0.75,
		WallRunCooldown:       0.4,
		WallRunImpulse:        4,
		WallStickAcceleration: 1,
		WallJumpHeight:        3,
		WallJumpSideForce:     7,
		WallJumpForwardForce:  4,
	}
}

// Validate 校验参数，dt 为固定步长。
// 加速度在单个 tick 内不得越过最大速度，否则速度会在上限附近振荡。
func (c *MovementConfig) Validate(dt float64) error {
	if !(dt > 0) || !isFinite(dt) {
		return fmt.Errorf("%w: dt=%v", ErrInvalidMovementConfig, dt)
	}
	values := map[string]float64{
		"MaxSpeed":          c.MaxSpeed,
		"Acceleration":      c.Acceleration,
		"Deceleration":      c.Deceleration,
		"AirControl":        c.AirControl,
		"AirBrake":          c.AirBrake,
		"GravityScale":      c.GravityScale,
		"JumpHeight":        c.JumpHeight,
		"JumpCooldown":      c.JumpCooldown,
		"WallCheckDistance": c.WallCheckDistance,
		"WallRunCooldown":   c.WallRunCooldown,
		"WallJumpHeight":    c.WallJumpHeight,
	}
	for name, v := range values {
		if !isFinite(v) || v < 0 {
			return fmt.Errorf("%w: %s=%v", ErrInvalidMovementConfig, name, v)
		}
	}
	if !isFinite(c.Gravity) || c.Gravity > 0 {
		return fmt.Errorf("%w: Gravity=%v", ErrInvalidMovementConfig, c.Gravity)
	}
	if c.MaxSpeed == 0 || c.Acceleration == 0 {
		return fmt.Errorf("%w: MaxSpeed 和 Acceleration 必须为正", ErrInvalidMovementConfig)
	}
	if k := c.Acceleration * dt * dt / c.MaxSpeed; k >= 1 {
		return fmt.Errorf("%w: Acceleration*dt²/MaxSpeed=%.3f 必须小于 1", ErrInvalidMovementConfig, k)
	}
	if k := c.Deceleration * dt * dt; k > 1 {
		return fmt.Errorf("%w: Deceleration*dt²=%.3f 不能大于 1", ErrInvalidMovementConfig, k)
	}
	return nil
}

func (c *MovementConfig) effectiveGravity() float64 {
	return c.Gravity * c.GravityScale
}

// JumpSpeed 起跳瞬时竖直速度 sqrt(2gh)
func (c *MovementConfig) JumpSpeed() float64 {
	return math.Sqrt(2 * -c.effectiveGravity() * c.JumpHeight)
}

// Rotate 按视角输入更新偏航，俯仰由相机层处理
func Rotate(orientation Quat, look Vec2, sensitivity float64) Quat {
	if look.X == 0 {
		return orientation
	}
	delta := look.X * sensitivity * math.Pi / 180
	return QuatFromYaw(delta).Mul(orientation).Normalized()
}

// Advance 单个 tick 的完整推进：先旋转，再执行模拟步
func Advance(cfg *MovementConfig, phys Physics, prev KinematicState, in InputSample, dt float64) (KinematicState, Events) {
	prev.Orientation = Rotate(prev.Orientation, in.Look, cfg.LookSensitivity)
	return Step(cfg, phys, prev, in, dt)
}

// Step 纯函数：由上一状态与本 tick 输入得到新状态。
// 着地由物理协作者的接触法线决定，相同输入总是得到相同输出。
func Step(cfg *MovementConfig, phys Physics, prev KinematicState, in InputSample, dt float64) (KinematicState, Events) {
	var ev Events

	next := prev
	next.Tick = in.Tick
	next.JumpCooldown = math.Max(0, prev.JumpCooldown-dt)
	next.WallRunCooldown = math.Max(0, prev.WallRunCooldown-dt)

	grounded := IsGrounded(phys.ContactNormals(prev.Position))
	vel := prev.Velocity

	if cfg.WallRunEnabled {
		vel = updateWallRun(cfg, phys, &next, vel, grounded, &ev)
	} else if next.WallSide != WallNone {
		next.WallSide = WallNone
		next.WallNormal = Vec3{}
	}

	// 贴墙时禁用移动输入
	if next.WallSide == WallNone {
		vel = applyMove(cfg, next.Orientation, vel, in.Move, grounded, dt)
	} else {
		vel = vel.Add(next.WallNormal.Scale(-cfg.WallStickAcceleration * dt))
	}

	vel.Y += cfg.effectiveGravity() * dt

	if in.Jump {
		switch {
		case next.WallSide != WallNone:
			vel = wallJump(cfg, &next, vel)
			ev.WallJumped = true
			ev.WallRunEnded = true
		case grounded && prev.JumpCooldown <= 0:
			vel.Y = 0
			vel.Y += cfg.JumpSpeed()
			next.JumpCooldown = cfg.JumpCooldown
			ev.Jumped = true
		}
	}

	fallSpeed := -vel.Y
	pos, vel := phys.Integrate(prev.Position, vel, dt)
	next.Position = pos
	next.Velocity = vel
	next.Grounded = IsGrounded(phys.ContactNormals(pos))

	switch {
	case next.Grounded && !prev.Grounded:
		ev.Landed = true
		ev.ImpactSpeed = math.Max(0, fallSpeed)
	case !next.Grounded && prev.Grounded:
		ev.Airborne = true
	}

	return next, ev
}

// applyMove 水平加减速。
// 加速力 (dir - v/MaxSpeed)*Accel 在速度超过上限时会反向拉回。
func applyMove(cfg *MovementConfig, orientation Quat, vel Vec3, move Vec2, grounded bool, dt float64) Vec3 {
	forward := orientation.Forward().Horizontal().Normalized()
	right := orientation.Right().Horizontal().Normalized()
	wish := right.Scale(move.X).Add(forward.Scale(move.Y)).Normalized()
	hv := vel.Horizontal()

	if wish != (Vec3{}) {
		mul := 1.0
		if !grounded {
			mul = cfg.AirControl
		}
		force := wish.Sub(hv.Scale(1 / cfg.MaxSpeed)).Scale(cfg.Acceleration * mul)
		return vel.Add(force.Scale(dt * dt))
	}

	mul := 1.0
	if !grounded {
		mul = cfg.AirBrake
	}
	return vel.Add(hv.Scale(-cfg.Deceleration * mul * dt * dt))
}
