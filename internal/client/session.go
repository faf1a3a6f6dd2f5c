package client

import (
	"fmt"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/physics"
	"arenaball/pkg/protocol"

	l4g "github.com/alecthomas/log4go"
)

// GameSession 一局联机会话：网络消息 -> 对账/平滑 -> 预测 -> 显示变换。
// ebiten 与无头模式共用，每次 Update 推进一个 tick。
type GameSession struct {
	cfg     *config.ClientConfig
	network *NetworkClient

	playerID   int32
	tickDT     float64
	layout     physics.Layout
	predictor  *Predictor
	correction *CorrectionSmoother
	world      *World
	smoothing  SmootherOptions

	// 服务器广播的其他玩家事件
	remoteEvents *core.EventBus
	landings     int
	jumps        int

	lastUpdate time.Time
	reconnects int
}

// NewGameSession network 必须已经 Connect 成功
func NewGameSession(cfg *config.ClientConfig, network *NetworkClient, source InputSource) (*GameSession, error) {
	join := network.JoinInfo()
	if join == nil {
		return nil, ErrNotConnected
	}

	mode, err := ParseSmoothingMode(cfg.Smoothing)
	if err != nil {
		return nil, err
	}
	tickDT := core.DeltaTime(int(join.TickRate))
	if err := cfg.Movement.Validate(tickDT); err != nil {
		return nil, err
	}
	opts := DefaultSmootherOptions(int(join.TickRate))
	opts.Mode = mode
	opts.Decay = cfg.SmoothingDecay
	opts.Speed = cfg.SmoothingSpeed

	layout := physics.DefaultLayout()
	arena, err := physics.NewArena(layout)
	if err != nil {
		return nil, err
	}

	spawn := protocol.ProtoStateToCore(join.Spawn)
	predictor, err := NewPredictor(join.PlayerID, &cfg.Movement, arena, spawn, source, network, cfg.ReconcileThreshold, tickDT)
	if err != nil {
		return nil, fmt.Errorf("创建预测器失败: %w", err)
	}

	s := &GameSession{
		cfg:          cfg,
		network:      network,
		playerID:     join.PlayerID,
		tickDT:       tickDT,
		layout:       layout,
		predictor:    predictor,
		correction:   NewCorrectionSmoother(cfg.CorrectionDuration),
		world:        NewWorld(),
		smoothing:    opts,
		remoteEvents: core.NewEventBus(),
	}
	s.world.AddLocal(s.playerID, cfg.PlayerName, spawn)

	predictor.Reconciler().OnCorrect(func(before, after core.KinematicState) {
		s.correction.Start(before.Position, after.Position)
	})
	predictor.Events().Subscribe(func(ev core.Event) {
		switch ev.Kind {
		case core.EventJumped, core.EventWallJumped:
			s.jumps++
		case core.EventLanded:
			s.landings++
			l4g.Debug("[predict] 落地 tick=%d 冲击速度 %.2f", ev.Tick, ev.ImpactSpeed)
		}
	})
	s.remoteEvents.Subscribe(func(ev core.Event) {
		l4g.Debug("[remote] 玩家 %d %s tick=%d", ev.PlayerID, ev.Kind, ev.Tick)
	})
	return s, nil
}

// Update 推进一帧
func (s *GameSession) Update(now time.Time) error {
	dt := s.tickDT
	if !s.lastUpdate.IsZero() {
		dt = now.Sub(s.lastUpdate).Seconds()
	}
	s.lastUpdate = now

	if err := s.network.Err(); err != nil {
		l4g.Warn("[session] 连接中断: %v", err)
		if err := s.reconnect(); err != nil {
			return err
		}
	}

	s.drainNetwork(now)

	state := s.predictor.Tick()
	offset := s.correction.Update(dt)
	s.world.SetLocal(s.playerID, state, offset)
	s.world.UpdateRemotes(now, dt)
	return nil
}

func (s *GameSession) reconnect() error {
	var lastErr error
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		state, err := s.network.Reconnect()
		if err == nil {
			s.reconnects++
			s.predictor.Resync(state)
			return nil
		}
		lastErr = err
		l4g.Warn("[session] 第 %d 次重连失败: %v", attempt, err)
		time.Sleep(reconnectBackoff)
	}
	return fmt.Errorf("重连失败: %w", lastErr)
}

// drainNetwork 一次取完所有排队的网络消息
func (s *GameSession) drainNetwork(now time.Time) {
	for {
		join := s.network.ReceivePlayerJoin()
		if join == nil {
			break
		}
		if join.PlayerID == s.playerID {
			continue
		}
		state := protocol.ProtoStateToCore(join.State)
		s.world.AddRemote(join.PlayerID, join.PlayerName, NewRemoteSmoother(s.smoothing, state))
		l4g.Info("[session] 玩家 %d (%s) 加入", join.PlayerID, join.PlayerName)
	}

	for {
		id := s.network.ReceivePlayerLeave()
		if id < 0 {
			break
		}
		s.world.Remove(id)
		l4g.Info("[session] 玩家 %d 离开", id)
	}

	for {
		st := s.network.ReceiveState()
		if st == nil {
			break
		}
		s.ApplyServerState(st, now)
	}

	for {
		ev := s.network.ReceiveEvent()
		if ev == nil {
			break
		}
		for _, e := range ev.Events {
			// 本地玩家的事件已由预测发出
			if e == nil || e.PlayerID == s.playerID {
				continue
			}
			s.remoteEvents.Publish(protocol.ProtoEventToCore(e))
		}
	}
}

// ApplyServerState 自己的快照交给对账器，其他玩家的交给平滑器
func (s *GameSession) ApplyServerState(st *protocol.ServerState, now time.Time) {
	for _, snap := range st.Snapshots {
		if snap == nil {
			continue
		}
		state := protocol.ProtoStateToCore(snap.State)
		if snap.PlayerID == s.playerID {
			s.predictor.OnAuthoritative(state)
			continue
		}
		sm, ok := s.world.Smoother(snap.PlayerID)
		if !ok {
			sm = NewRemoteSmoother(s.smoothing, state)
			s.world.AddRemote(snap.PlayerID, "", sm)
		}
		sm.Push(state, now)
	}
}

// Predictor 本地预测器
func (s *GameSession) Predictor() *Predictor { return s.predictor }

// World 显示用的 ECS 世界
func (s *GameSession) World() *World { return s.world }

// Layout 球场布局
func (s *GameSession) Layout() physics.Layout { return s.layout }

// RemoteEvents 其他玩家的事件
func (s *GameSession) RemoteEvents() *core.EventBus { return s.remoteEvents }

// Summary 用于日志的一行统计
func (s *GameSession) Summary() string {
	st := s.predictor.Reconciler().Stats()
	return fmt.Sprintf("tick=%d rtt=%v checks=%d corrections=%d replayed=%d truncated=%d err=%.4f jumps=%d landings=%d reconnects=%d",
		s.predictor.CurrentTick(), s.network.RTT(), st.Checks, st.Corrections, st.ReplayedTicks, st.ReplayTruncated,
		st.LastError, s.jumps, s.landings, s.reconnects)
}
