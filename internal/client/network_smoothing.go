package client

import (
	"fmt"
	"math"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"
)

// SmoothingMode 远端玩家的平滑策略
type SmoothingMode int

const (
	SmoothingDisabled    SmoothingMode = iota // 直接显示最新快照
	SmoothingLinear                           // 在上一个与最新快照之间插值
	SmoothingExponential                      // 每帧按指数衰减追赶最新快照
)

func (m SmoothingMode) String() string {
	switch m {
	case SmoothingLinear:
		return config.SmoothingLinear
	case SmoothingExponential:
		return config.SmoothingExponential
	default:
		return config.SmoothingDisabled
	}
}

// ParseSmoothingMode 解析配置中的平滑模式
func ParseSmoothingMode(s string) (SmoothingMode, error) {
	switch s {
	case config.SmoothingDisabled:
		return SmoothingDisabled, nil
	case config.SmoothingLinear:
		return SmoothingLinear, nil
	case config.SmoothingExponential:
		return SmoothingExponential, nil
	}
	return SmoothingDisabled, fmt.Errorf("未知的平滑模式: %q", s)
}

// Pose 显示用的位置与朝向
type Pose struct {
	Position    core.Vec3
	Orientation core.Quat
}

func poseOf(s core.KinematicState) Pose {
	return Pose{Position: s.Position, Orientation: s.Orientation}
}

// SmootherOptions 平滑参数
type SmootherOptions struct {
	Mode     SmoothingMode
	Interval time.Duration // 预期快照间隔
	Decay    float64       // 指数模式的衰减常数，(0,1)
	Speed    float64       // 指数模式的速度系数
}

// DefaultSmootherOptions 按 tick 率推导快照间隔
func DefaultSmootherOptions(tickRate int) SmootherOptions {
	if tickRate <= 0 {
		tickRate = core.TickRate
	}
	return SmootherOptions{
		Mode:     SmoothingLinear,
		Interval: time.Second / time.Duration(tickRate),
		Decay:    0.01,
		Speed:    1,
	}
}

// RemoteSmoother 把离散的远端快照变成连续的显示位置。
// 收到第一个快照前一直停在出生位置。
type RemoteSmoother struct {
	opts SmootherOptions

	hasSnapshot bool
	latest      core.KinematicState
	from, to    Pose
	receivedAt  time.Time
	display     Pose
}

// NewRemoteSmoother 以出生位姿初始化
func NewRemoteSmoother(opts SmootherOptions, spawn core.KinematicState) *RemoteSmoother {
	p := poseOf(spawn)
	return &RemoteSmoother{opts: opts, latest: spawn, from: p, to: p, display: p}
}

// Push 收到一个新快照，过期的快照被忽略
func (s *RemoteSmoother) Push(state core.KinematicState, now time.Time) {
	if s.hasSnapshot && state.Tick <= s.latest.Tick {
		return
	}
	if s.hasSnapshot {
		s.from = s.to
	} else {
		s.from = poseOf(state)
	}
	s.to = poseOf(state)
	s.latest = state
	s.receivedAt = now
	s.hasSnapshot = true
}

// Alpha 线性模式的插值参数，限制在 [0,1]
func (s *RemoteSmoother) Alpha(now time.Time) float64 {
	if !s.hasSnapshot || s.opts.Interval <= 0 {
		return 1
	}
	return core.Clamp01(float64(now.Sub(s.receivedAt)) / float64(s.opts.Interval))
}

// Update 每帧调用，dt 为距上一帧的秒数
func (s *RemoteSmoother) Update(now time.Time, dt float64) Pose {
	if !s.hasSnapshot {
		return s.display
	}

	switch s.opts.Mode {
	case SmoothingLinear:
		t := s.Alpha(now)
		s.display = Pose{
			Position:    core.Lerp(s.from.Position, s.to.Position, t),
			Orientation: core.Slerp(s.from.Orientation, s.to.Orientation, t),
		}
	case SmoothingExponential:
		k := 1 - math.Pow(s.opts.Decay, dt*s.opts.Speed)
		k = core.Clamp01(k)
		s.display = Pose{
			Position:    core.Lerp(s.display.Position, s.to.Position, k),
			Orientation: core.Slerp(s.display.Orientation, s.to.Orientation, k),
		}
	default:
		s.display = s.to
	}
	return s.display
}

// Display 最近一次计算的显示位姿
func (s *RemoteSmoother) Display() Pose { return s.display }

// Latest 最新快照
func (s *RemoteSmoother) Latest() core.KinematicState { return s.latest }

// HasSnapshot 是否已收到过快照
func (s *RemoteSmoother) HasSnapshot() bool { return s.hasSnapshot }
