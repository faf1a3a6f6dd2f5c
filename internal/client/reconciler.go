package client

import (
	"arenaball/pkg/core"
)

// ReconcilePhase 对账状态机的阶段
type ReconcilePhase int

const (
	PhaseIdle ReconcilePhase = iota
	PhaseCheck
	PhaseCorrect
	PhaseReplay
)

func (p ReconcilePhase) String() string {
	switch p {
	case PhaseCheck:
		return "check"
	case PhaseCorrect:
		return "correct"
	case PhaseReplay:
		return "replay"
	default:
		return "idle"
	}
}

// ReconcileStats 对账统计
type ReconcileStats struct {
	Checks          int64
	Corrections     int64
	ReplayedTicks   int64
	ReplayTruncated int64
	Stale           int64
	LastError       float64
}

// Reconciler 用服务器权威状态校正本地预测。
// 与 Predictor 共享输入与状态环形缓冲，只在预测循环内调用。
type Reconciler struct {
	cfg       *core.MovementConfig
	phys      core.Physics
	threshold float64
	dt        float64

	inputs *core.RingBuffer[core.InputSample]
	states *core.RingBuffer[core.KinematicState]

	pending       *core.KinematicState
	lastProcessed core.Tick
	phase         ReconcilePhase
	stats         ReconcileStats

	onCorrect []func(before, after core.KinematicState)
}

// NewReconciler threshold 为位置误差阈值（米），dt 为重放时的模拟步长
func NewReconciler(cfg *core.MovementConfig, phys core.Physics, threshold, dt float64,
	inputs *core.RingBuffer[core.InputSample], states *core.RingBuffer[core.KinematicState]) *Reconciler {
	return &Reconciler{
		cfg:           cfg,
		phys:          phys,
		threshold:     threshold,
		dt:            dt,
		inputs:        inputs,
		states:        states,
		lastProcessed: -1,
	}
}

// Submit 记录一个权威状态，只保留最新且未处理过的
func (r *Reconciler) Submit(auth core.KinematicState) {
	if auth.Tick <= r.lastProcessed || (r.pending != nil && auth.Tick <= r.pending.Tick) {
		r.stats.Stale++
		return
	}
	r.pending = &auth
}

// OnCorrect 注册校正回调，参数为校正前后的当前预测状态
func (r *Reconciler) OnCorrect(fn func(before, after core.KinematicState)) {
	r.onCorrect = append(r.onCorrect, fn)
}

// Phase 最近一次 Reconcile 结束时的阶段
func (r *Reconciler) Phase() ReconcilePhase { return r.phase }

// Stats 统计快照
func (r *Reconciler) Stats() ReconcileStats { return r.stats }

// LastProcessed 最近处理过的权威 tick
func (r *Reconciler) LastProcessed() core.Tick { return r.lastProcessed }

// Reset 断线重连后清空待处理状态
func (r *Reconciler) Reset(lastProcessed core.Tick) {
	r.pending = nil
	r.lastProcessed = lastProcessed
	r.phase = PhaseIdle
}

// Reconcile 处理待定的权威状态。counter 为下一个待预测的 tick。
// 返回新的当前状态，以及是否发生了校正。
func (r *Reconciler) Reconcile(current core.KinematicState, counter core.Tick) (core.KinematicState, bool) {
	if r.pending == nil {
		r.phase = PhaseIdle
		return current, false
	}
	auth := *r.pending
	r.pending = nil
	r.lastProcessed = auth.Tick

	r.phase = PhaseCheck
	r.stats.Checks++
	// 缓冲中没有该 tick 的预测时按发散处理
	if predicted, ok := r.states.Get(auth.Tick); ok {
		r.stats.LastError = core.Distance(predicted.Position, auth.Position)
		if r.stats.LastError <= r.threshold {
			r.phase = PhaseIdle
			return current, false
		}
	}

	r.phase = PhaseCorrect
	r.stats.Corrections++
	r.states.Put(auth.Tick, auth)

	r.phase = PhaseReplay
	state := auth
	for t := auth.Tick + 1; t < counter; t++ {
		in, ok := r.inputs.Get(t)
		if !ok {
			// 输入已被覆盖，重放到此为止
			r.stats.ReplayTruncated++
			break
		}
		state, _ = core.Advance(r.cfg, r.phys, state, in, r.dt)
		r.states.Put(t, state)
		r.stats.ReplayedTicks++
	}

	for _, fn := range r.onCorrect {
		fn(current, state)
	}
	r.phase = PhaseIdle
	return state, true
}
