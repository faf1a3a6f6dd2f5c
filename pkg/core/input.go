package core

import "math"

// Tick 固定步长模拟的帧序号，客户端与服务器共用编号
type Tick int64

// InputSample 表示一个 tick 内玩家的输入
type InputSample struct {
	Tick Tick
	Move Vec2 // 移动轴（单位长度或零）
	Look Vec2 // 视角轴（单位长度或零）
	Jump bool
}

// NewInputSample 构造输入，轴向量归一化，非法值（NaN/Inf）按零处理
func NewInputSample(tick Tick, move, look Vec2, jump bool) InputSample {
	return InputSample{
		Tick: tick,
		Move: sanitizeAxes(move),
		Look: sanitizeAxes(look),
		Jump: jump,
	}
}

// Sanitized 返回归一化后的副本，用于校验网络收到的输入
func (in InputSample) Sanitized() InputSample {
	return NewInputSample(in.Tick, in.Move, in.Look, in.Jump)
}

// IsIdle 无移动、无视角、无跳跃
func (in InputSample) IsIdle() bool {
	return in.Move == (Vec2{}) && in.Look == (Vec2{}) && !in.Jump
}

// sanitizeAxes 已是单位长度的向量原样保留，重复归一化不会改变位模式
func sanitizeAxes(v Vec2) Vec2 {
	if !v.finite() {
		return Vec2{}
	}
	if l := v.Len(); math.Abs(l-1) <= 1e-9 {
		return v
	}
	return v.Normalized()
}
