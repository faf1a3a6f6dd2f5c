package client

import (
	"fmt"

	"arenaball/pkg/core"

	l4g "github.com/alecthomas/log4go"
)

// InputSource 每个 tick 采样一次输入
type InputSource interface {
	Sample(tick core.Tick) core.InputSample
}

// InputSender 把输入发往服务器，不等待确认
type InputSender interface {
	SendInput(in core.InputSample) error
}

// Predictor 本地玩家的客户端预测
type Predictor struct {
	playerID int32
	cfg      *core.MovementConfig
	phys     core.Physics
	dt       float64

	tick  core.Tick
	state core.KinematicState

	inputs     *core.RingBuffer[core.InputSample]
	states     *core.RingBuffer[core.KinematicState]
	reconciler *Reconciler

	source InputSource
	sender InputSender
	bus    *core.EventBus

	sendErrors int64
}

// NewPredictor 从出生状态开始预测，第一个预测的 tick 为 spawn.Tick+1。
// dt 必须与服务器的 tick 步长一致。
func NewPredictor(playerID int32, cfg *core.MovementConfig, phys core.Physics, spawn core.KinematicState,
	source InputSource, sender InputSender, threshold, dt float64) (*Predictor, error) {
	if !(dt > 0) {
		return nil, fmt.Errorf("非法的模拟步长: %v", dt)
	}
	inputs, err := core.NewRingBuffer[core.InputSample](core.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("创建输入缓冲失败: %w", err)
	}
	states, err := core.NewRingBuffer[core.KinematicState](core.BufferSize)
	if err != nil {
		return nil, fmt.Errorf("创建状态缓冲失败: %w", err)
	}

	p := &Predictor{
		playerID:   playerID,
		cfg:        cfg,
		phys:       phys,
		dt:         dt,
		inputs:     inputs,
		states:     states,
		reconciler: NewReconciler(cfg, phys, threshold, dt, inputs, states),
		source:     source,
		sender:     sender,
		bus:        core.NewEventBus(),
	}
	p.reset(spawn)
	return p, nil
}

func (p *Predictor) reset(state core.KinematicState) {
	p.inputs.Reset()
	p.states.Reset()
	p.states.Put(state.Tick, state)
	p.state = state
	p.tick = state.Tick + 1
	p.reconciler.Reset(state.Tick)
}

// Resync 重连后以服务器状态重新开始预测
func (p *Predictor) Resync(state core.KinematicState) {
	p.reset(state)
}

// Tick 先对账，再执行一个 tick 的预测并发送输入
func (p *Predictor) Tick() core.KinematicState {
	if s, corrected := p.reconciler.Reconcile(p.state, p.tick); corrected {
		p.state = s
		if s.Tick >= p.tick {
			p.tick = s.Tick + 1
		}
	}

	in := p.source.Sample(p.tick).Sanitized()
	in.Tick = p.tick
	p.inputs.Put(in.Tick, in)

	next, ev := core.Advance(p.cfg, p.phys, p.state, in, p.dt)
	p.states.Put(next.Tick, next)
	p.state = next

	if p.sender != nil {
		if err := p.sender.SendInput(in); err != nil {
			p.sendErrors++
			if p.sendErrors == 1 || p.sendErrors%100 == 0 {
				l4g.Warn("[predict] 发送输入失败 (%d 次): %v", p.sendErrors, err)
			}
		}
	}

	p.bus.PublishStep(p.playerID, next.Tick, ev)
	p.tick++
	return next
}

// OnAuthoritative 收到自己的权威状态
func (p *Predictor) OnAuthoritative(state core.KinematicState) {
	p.reconciler.Submit(state)
}

// State 当前预测状态
func (p *Predictor) State() core.KinematicState { return p.state }

// CurrentTick 下一个待预测的 tick
func (p *Predictor) CurrentTick() core.Tick { return p.tick }

// StateAt 读取缓冲中的预测状态
func (p *Predictor) StateAt(tick core.Tick) (core.KinematicState, bool) { return p.states.Get(tick) }

// Events 本地预测产生的事件，重放时不会触发
func (p *Predictor) Events() *core.EventBus { return p.bus }

// Reconciler 对账器
func (p *Predictor) Reconciler() *Reconciler { return p.reconciler }

// PlayerID 本地玩家 ID
func (p *Predictor) PlayerID() int32 { return p.playerID }
