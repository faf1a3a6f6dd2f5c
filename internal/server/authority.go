package server

import (
	"fmt"
	"slices"

	"arenaball/internal/config"
	"arenaball/pkg/core"
)

// Authority 单个玩家的服务器权威时间线。
// 只由所属房间的 tick 协程驱动，latest 可被任意协程读取。
type Authority struct {
	playerID int32
	cfg      *core.MovementConfig
	phys     core.Physics
	ordering string
	dt       float64

	queue  []core.InputSample
	inputs *core.RingBuffer[core.InputSample]
	states *core.RingBuffer[core.KinematicState]
	last   core.KinematicState
	latest *core.Replicated[core.KinematicState]

	processed  int64
	duplicates int64
}

// Produced 一次输入处理的结果
type Produced struct {
	State  core.KinematicState
	Events []core.Event
}

// NewAuthority 以出生状态初始化玩家时间线，phys 必须为该玩家独占，dt 为每个 tick 的模拟步长（秒）
func NewAuthority(playerID int32, cfg *core.MovementConfig, phys core.Physics, spawn core.KinematicState, ordering string, dt float64) (*Authority, error) {
	inputs, err := core.NewRingBuffer[core.InputSample](core.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("创建输入缓冲失败: %w", err)
	}
	states, err := core.NewRingBuffer[core.KinematicState](core.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("创建状态缓冲失败: %w", err)
	}
	if ordering == "" {
		ordering = config.OrderingArrival
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("非法的模拟步长: %v", dt)
	}

	states.Put(spawn.Tick, spawn)
	return &Authority{
		playerID: playerID,
		cfg:      cfg,
		phys:     phys,
		ordering: ordering,
		dt:       dt,
		inputs:   inputs,
		states:   states,
		last:     spawn,
		latest:   core.NewReplicated(core.RoleServer, spawn),
	}, nil
}

// PlayerID 所属玩家
func (a *Authority) PlayerID() int32 { return a.playerID }

// Latest 最近一次产出的权威状态
func (a *Authority) Latest() core.KinematicState { return a.latest.Get() }

// Replicated 权威状态的复制值，写者固定为服务器
func (a *Authority) Replicated() *core.Replicated[core.KinematicState] { return a.latest }

// Enqueue 输入按到达顺序入队
func (a *Authority) Enqueue(inputs ...core.InputSample) {
	a.queue = append(a.queue, inputs...)
}

// Pending 队列中尚未处理的输入数
func (a *Authority) Pending() int { return len(a.queue) }

// Stats 已处理与被去重丢弃的输入数
func (a *Authority) Stats() (processed, duplicates int64) {
	return a.processed, a.duplicates
}

// Drain 处理队列中的全部输入，按处理顺序返回产出的状态。
// 默认按到达顺序处理，乱序到达的输入不会被重排。
func (a *Authority) Drain() []Produced {
	if len(a.queue) == 0 {
		return nil
	}
	queue := a.queue
	a.queue = nil

	if a.ordering == config.OrderingTick {
		slices.SortStableFunc(queue, func(x, y core.InputSample) int {
			switch {
			case x.Tick < y.Tick:
				return -1
			case x.Tick > y.Tick:
				return 1
			}
			return 0
		})
	}

	out := make([]Produced, 0, len(queue))
	for _, in := range queue {
		if p, ok := a.apply(in); ok {
			out = append(out, p)
		}
	}
	return out
}

func (a *Authority) apply(in core.InputSample) (Produced, bool) {
	in = in.Sanitized()

	// 同一 tick 的完全相同输入视为重复投递
	if prev, ok := a.inputs.Get(in.Tick); ok && prev == in {
		a.duplicates++
		return Produced{}, false
	}
	a.inputs.Put(in.Tick, in)

	pred, ok := a.states.Get(in.Tick - 1)
	if !ok {
		pred = a.last
	}

	next, ev := core.Advance(a.cfg, a.phys, pred, in, a.dt)
	a.states.Put(next.Tick, next)
	a.last = next
	_ = a.latest.Set(core.RoleServer, next)
	a.processed++

	return Produced{State: next, Events: ev.Split(a.playerID, next.Tick)}, true
}

// StateAt 读取某个 tick 的权威状态
func (a *Authority) StateAt(tick core.Tick) (core.KinematicState, bool) {
	return a.states.Get(tick)
}
