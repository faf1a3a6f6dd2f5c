package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/physics"
	"arenaball/pkg/protocol"

	l4g "github.com/alecthomas/log4go"
	"golang.org/x/sync/errgroup"
)

const (
	// 断线后保留玩家的时长，期间可凭会话令牌重连
	reconnectGrace = 10 * time.Second
	// 单个 ServerState 包最多携带的快照数，保证不超过 MaxPacketSize
	maxSnapshotsPerPacket = 16
)

var (
	ErrRoomClosed   = errors.New("房间已关闭")
	ErrRoomFull     = errors.New("房间已满")
	ErrNotInRoom    = errors.New("玩家不在房间中")
	ErrInputDropped = errors.New("输入队列已满")
)

type Room struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.ServerConfig
	tokens *TokenIssuer
	layout physics.Layout
	bus    *core.EventBus

	tick       core.Tick
	serverTick atomic.Int64
	players    map[int32]*roomPlayer
	online     atomic.Int32
	// members 包含宽限期内的断线玩家，pending 为尚未处理完的加入请求
	members    atomic.Int32
	pending    atomic.Int32
	nextPlayer int32
	nextSpawn  int

	joinCh      chan joinRequest
	inputCh     chan InputEvent
	leaveCh     chan leaveRequest
	reconnectCh chan reconnectRequest
}

type roomPlayer struct {
	id        int32
	name      string
	session   Session
	authority *Authority
	// 断线时间，零值表示在线
	offlineAt time.Time
}

type joinRequest struct {
	session Session
	req     JoinEvent
	respCh  chan error
}

type leaveRequest struct {
	playerID int32
	session  Session
}

type reconnectRequest struct {
	session  Session
	playerID int32
	respCh   chan error
}

// NewRoom 创建房间，Run 之前不处理任何请求
func NewRoom(parent context.Context, id string, cfg *config.ServerConfig, tokens *TokenIssuer) *Room {
	ctx, cancel := context.WithCancel(parent)

	r := &Room{
		id:          id,
		ctx:         ctx,
		cancel:      cancel,
		cfg:         cfg,
		tokens:      tokens,
		layout:      physics.DefaultLayout(),
		bus:         core.NewEventBus(),
		players:     make(map[int32]*roomPlayer),
		nextPlayer:  1,
		joinCh:      make(chan joinRequest),
		inputCh:     make(chan InputEvent, 256),
		leaveCh:     make(chan leaveRequest, 256),
		reconnectCh: make(chan reconnectRequest),
	}
	r.bus.Subscribe(func(ev core.Event) {
		l4g.Debug("[room(%s)] 玩家 %d %s tick=%d", r.id, ev.PlayerID, ev.Kind, ev.Tick)
	})
	return r
}

// ID 房间 ID
func (r *Room) ID() string { return r.id }

// Events 房间内所有玩家的移动事件
func (r *Room) Events() *core.EventBus { return r.bus }

// CurrentTick 当前服务器 tick，可并发读取
func (r *Room) CurrentTick() core.Tick { return core.Tick(r.serverTick.Load()) }

// PlayerCount 在线玩家数，可并发读取
func (r *Room) PlayerCount() int { return int(r.online.Load()) }

// MemberCount 房间仍持有的玩家数，含断线等待重连的玩家和进行中的加入
func (r *Room) MemberCount() int { return int(r.members.Load() + r.pending.Load()) }

func (r *Room) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(r.cfg.TickDuration())
	defer ticker.Stop()

	l4g.Info("[room(%s)] 房间循环启动: %d TPS", r.id, r.cfg.TickRate)

	for {
		select {
		case <-r.ctx.Done():
			r.closeAllSessions()
			l4g.Info("[room(%s)] 房间循环停止", r.id)
			return

		case req := <-r.joinCh:
			req.respCh <- r.handleJoin(req)

		case ev := <-r.inputCh:
			r.handleInput(ev)

		case req := <-r.leaveCh:
			r.handleLeave(req)

		case req := <-r.reconnectCh:
			req.respCh <- r.handleReconnect(req)

		case <-ticker.C:
			r.step()
		}
	}
}

func (r *Room) Shutdown() {
	r.cancel()
}

func (r *Room) Join(session Session, req JoinEvent) error {
	r.pending.Add(1)
	defer r.pending.Add(-1)
	respCh := make(chan error, 1)

	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.joinCh <- joinRequest{session: session, req: req, respCh: respCh}:
	}

	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

// Reconnect 把新连接绑定到仍在宽限期内的玩家
func (r *Room) Reconnect(session Session, playerID int32) error {
	respCh := make(chan error, 1)

	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case r.reconnectCh <- reconnectRequest{session: session, playerID: playerID, respCh: respCh}:
	}

	select {
	case <-r.ctx.Done():
		return ErrRoomClosed
	case err := <-respCh:
		return err
	}
}

func (r *Room) EnqueueInput(ev InputEvent) {
	select {
	case <-r.ctx.Done():
	case r.inputCh <- ev:
	}
}

func (r *Room) Leave(playerID int32, session Session) {
	select {
	case <-r.ctx.Done():
	case r.leaveCh <- leaveRequest{playerID: playerID, session: session}:
	}
}

// step 一个服务器 tick：各玩家并行排空输入队列，然后统一广播
func (r *Room) step() {
	r.tick++
	r.serverTick.Store(int64(r.tick))

	r.expireOffline()

	ids := r.sortedPlayerIDs()
	if len(ids) == 0 {
		return
	}

	// 同一玩家的输入只在一个协程内顺序处理
	results := make([][]Produced, len(ids))
	var g errgroup.Group
	g.SetLimit(r.cfg.Workers)
	for i, id := range ids {
		a := r.players[id].authority
		g.Go(func() error {
			results[i] = a.Drain()
			return nil
		})
	}
	_ = g.Wait()

	var snapshots []*protocol.Snapshot
	var events []*protocol.EventData
	for i, id := range ids {
		for _, p := range results[i] {
			snapshots = append(snapshots, &protocol.Snapshot{
				PlayerID: id,
				State:    protocol.CoreStateToProto(p.State),
			})
			for _, ev := range p.Events {
				r.bus.Publish(ev)
				events = append(events, protocol.CoreEventToProto(ev))
			}
		}
	}

	for len(snapshots) > 0 {
		n := min(len(snapshots), maxSnapshotsPerPacket)
		r.broadcast(protocol.NewServerStatePacket(int64(r.tick), snapshots[:n]))
		snapshots = snapshots[n:]
	}
	if len(events) > 0 {
		r.broadcast(protocol.NewGameEventPacket(events))
	}
}

func (r *Room) sortedPlayerIDs() []int32 {
	ids := make([]int32, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Room) handleJoin(req joinRequest) error {
	if len(r.players) >= r.cfg.MaxPlayers {
		return fmt.Errorf("%w (%d/%d)", ErrRoomFull, len(r.players), r.cfg.MaxPlayers)
	}

	arena, err := physics.NewArena(r.layout)
	if err != nil {
		return err
	}

	playerID := r.nextPlayer
	spawnPos := r.layout.SpawnPoint(r.nextSpawn)
	spawn := core.SpawnState(arena, r.tick, spawnPos, spawnYaw(spawnPos, r.layout))
	authority, err := NewAuthority(playerID, &r.cfg.Movement, arena, spawn, r.cfg.InputOrdering, core.DeltaTime(r.cfg.TickRate))
	if err != nil {
		return err
	}

	token, err := r.tokens.Generate(playerID, r.id)
	if err != nil {
		return fmt.Errorf("生成会话令牌失败: %w", err)
	}

	resp := protocol.NewJoinResponsePacket(&protocol.JoinResponse{
		Success:      true,
		PlayerID:     playerID,
		TickRate:     int32(r.cfg.TickRate),
		ServerTick:   int64(r.tick),
		SessionToken: token,
		RoomID:       r.id,
		Spawn:        protocol.CoreStateToProto(spawn),
	})
	data, err := protocol.MarshalPacket(resp)
	if err != nil {
		return fmt.Errorf("序列化加入响应失败: %w", err)
	}

	req.session.SetPlayerID(playerID)
	req.session.SetRoomID(r.id)
	if err := req.session.Send(data); err != nil {
		req.session.SetPlayerID(-1)
		req.session.SetRoomID("")
		return fmt.Errorf("发送加入响应失败: %w", err)
	}

	name := req.req.PlayerName
	if name == "" {
		name = fmt.Sprintf("player-%d", playerID)
	}
	p := &roomPlayer{id: playerID, name: name, session: req.session, authority: authority}

	// 先告知新玩家已有的玩家，再向其他人广播新玩家
	for _, id := range r.sortedPlayerIDs() {
		other := r.players[id]
		_ = r.sendTo(req.session, protocol.NewPlayerJoinPacket(other.id, other.name, protocol.CoreStateToProto(other.authority.Latest())))
	}
	r.broadcast(protocol.NewPlayerJoinPacket(playerID, name, protocol.CoreStateToProto(spawn)))

	r.players[playerID] = p
	r.online.Add(1)
	r.members.Add(1)
	r.nextPlayer++
	r.nextSpawn++

	l4g.Info("[room(%s)] 玩家 %d (%s) 加入，出生点 (%.1f, %.1f)，当前玩家数: %d",
		r.id, playerID, name, spawnPos.X, spawnPos.Z, len(r.players))
	return nil
}

// spawnYaw 出生时面向球场中心
func spawnYaw(pos core.Vec3, layout physics.Layout) float64 {
	dx, dz := layout.Width/2-pos.X, layout.Depth/2-pos.Z
	if dx == 0 && dz == 0 {
		return 0
	}
	// 与 Quat.Forward 的 +Z 约定一致
	return math.Atan2(dx, dz)
}

func (r *Room) handleInput(ev InputEvent) {
	p, ok := r.players[ev.PlayerID]
	if !ok || p.session == nil {
		return
	}
	if p.authority.Pending()+len(ev.Inputs) > core.BufferSize {
		l4g.Warn("[room(%s)] 玩家 %d %v，丢弃 %d 个输入", r.id, ev.PlayerID, ErrInputDropped, len(ev.Inputs))
		return
	}
	p.authority.Enqueue(ev.Inputs...)
}

// handleLeave 断线玩家进入宽限期，旧连接的迟到通知被忽略
func (r *Room) handleLeave(req leaveRequest) {
	p, ok := r.players[req.playerID]
	if !ok || p.session == nil || p.session != req.session {
		return
	}
	p.session = nil
	p.offlineAt = time.Now()
	r.online.Add(-1)
	l4g.Info("[room(%s)] 玩家 %d 断线，等待重连", r.id, req.playerID)
}

func (r *Room) handleReconnect(req reconnectRequest) error {
	p, ok := r.players[req.playerID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotInRoom, req.playerID)
	}

	latest := p.authority.Latest()
	resp := protocol.NewReconnectResponsePacket(&protocol.ReconnectResponse{
		Success:    true,
		PlayerID:   p.id,
		ServerTick: int64(r.tick),
		State:      protocol.CoreStateToProto(latest),
	})
	data, err := protocol.MarshalPacket(resp)
	if err != nil {
		return err
	}

	old := p.session
	req.session.SetPlayerID(p.id)
	req.session.SetRoomID(r.id)
	if err := req.session.Send(data); err != nil {
		req.session.SetPlayerID(-1)
		req.session.SetRoomID("")
		return fmt.Errorf("发送重连响应失败: %w", err)
	}

	if old != nil {
		old.CloseWithoutNotify()
	} else {
		r.online.Add(1)
	}
	p.session = req.session
	p.offlineAt = time.Time{}

	for _, id := range r.sortedPlayerIDs() {
		if other := r.players[id]; id != p.id {
			_ = r.sendTo(req.session, protocol.NewPlayerJoinPacket(other.id, other.name, protocol.CoreStateToProto(other.authority.Latest())))
		}
	}

	l4g.Info("[room(%s)] 玩家 %d 重连成功，tick=%d", r.id, p.id, latest.Tick)
	return nil
}

// expireOffline 移除超过宽限期的断线玩家
func (r *Room) expireOffline() {
	now := time.Now()
	for id, p := range r.players {
		if p.session != nil || now.Sub(p.offlineAt) < reconnectGrace {
			continue
		}
		delete(r.players, id)
		r.members.Add(-1)
		l4g.Info("[room(%s)] 玩家 %d 离开，当前玩家数: %d", r.id, id, len(r.players))
		r.broadcast(protocol.NewPlayerLeavePacket(id))
	}
}

func (r *Room) closeAllSessions() {
	for _, p := range r.players {
		if p.session != nil {
			p.session.CloseWithoutNotify()
		}
	}
}

func (r *Room) sendTo(s Session, pkt *protocol.Packet) error {
	data, err := protocol.MarshalPacket(pkt)
	if err != nil {
		return err
	}
	return s.Send(data)
}

// broadcast 序列化一次后发给所有在线玩家
func (r *Room) broadcast(pkt *protocol.Packet) {
	data, err := protocol.MarshalPacket(pkt)
	if err != nil {
		l4g.Error("[room(%s)] 序列化 %s 失败: %v", r.id, pkt.Type, err)
		return
	}
	for id, p := range r.players {
		if p.session == nil {
			continue
		}
		if err := p.session.Send(data); err != nil {
			l4g.Warn("[room(%s)] 发送 %s 到玩家 %d 失败: %v", r.id, pkt.Type, id, err)
		}
	}
}
