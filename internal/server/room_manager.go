package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"

	l4g "github.com/alecthomas/log4go"
)

const (
	DefaultRoomID   = "default" // 默认房间 ID
	cleanupInterval = 30 * time.Second
)

var ErrTooManyRooms = errors.New("房间数已达上限")

type RoomManager struct {
	ctx       context.Context
	cfg       *config.ServerConfig
	tokens    *TokenIssuer
	rooms     map[string]*Room // 房间 ID -> 房间
	roomMutex sync.RWMutex     // 保护 rooms map
	wg        sync.WaitGroup
	shutdown  chan struct{}
	once      sync.Once
}

// NewRoomManager 创建新的房间管理器
func NewRoomManager(ctx context.Context, cfg *config.ServerConfig, tokens *TokenIssuer) *RoomManager {
	return &RoomManager{
		ctx:      ctx,
		cfg:      cfg,
		tokens:   tokens,
		rooms:    make(map[string]*Room),
		shutdown: make(chan struct{}),
	}
}

// Run 启动清理协程并创建默认房间
func (m *RoomManager) Run() {
	m.wg.Add(1)
	go m.cleanupLoop()

	_, _ = m.getOrCreateRoom(DefaultRoomID)
}

// cleanupLoop 定期清理空房间
func (m *RoomManager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.shutdown:
			return
		case <-ticker.C:
			m.cleanupEmptyRooms()
		}
	}
}

// cleanupEmptyRooms 清理空房间（保留默认房间），宽限期内有断线玩家的房间不算空
func (m *RoomManager) cleanupEmptyRooms() {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	for roomID, room := range m.rooms {
		if roomID == DefaultRoomID {
			continue
		}
		if room.MemberCount() == 0 {
			l4g.Info("[rooms] 清理空房间: %s", roomID)
			room.Shutdown()
			delete(m.rooms, roomID)
		}
	}
}

// getOrCreateRoom 获取或创建房间
func (m *RoomManager) getOrCreateRoom(roomID string) (*Room, error) {
	m.roomMutex.Lock()
	defer m.roomMutex.Unlock()

	if room, exists := m.rooms[roomID]; exists {
		return room, nil
	}
	if len(m.rooms) >= m.cfg.MaxRooms {
		return nil, fmt.Errorf("%w (%d)", ErrTooManyRooms, m.cfg.MaxRooms)
	}

	l4g.Info("[rooms] 创建新房间: %s", roomID)
	room := NewRoom(m.ctx, roomID, m.cfg, m.tokens)
	m.rooms[roomID] = room

	m.wg.Add(1)
	go room.Run(&m.wg)

	return room, nil
}

func (m *RoomManager) room(roomID string) (*Room, bool) {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()
	room, ok := m.rooms[roomID]
	return room, ok
}

// Join 玩家加入房间
func (m *RoomManager) Join(session Session, req JoinEvent) error {
	if req.RoomID == "" {
		req.RoomID = DefaultRoomID
	}

	room, err := m.getOrCreateRoom(req.RoomID)
	if err != nil {
		return err
	}
	return room.Join(session, req)
}

// Reconnect 把新连接绑定到令牌对应的玩家
func (m *RoomManager) Reconnect(session Session, playerID int32, roomID string) error {
	room, ok := m.room(roomID)
	if !ok {
		return fmt.Errorf("房间 %s 不存在", roomID)
	}
	return room.Reconnect(session, playerID)
}

// EnqueueInput 将输入放入对应房间的队列
func (m *RoomManager) EnqueueInput(input InputEvent) {
	room, ok := m.room(input.RoomID)
	if !ok {
		l4g.Warn("[rooms] 房间 %s 不存在，玩家 %d 的输入被丢弃", input.RoomID, input.PlayerID)
		return
	}
	room.EnqueueInput(input)
}

// Leave 玩家连接断开
func (m *RoomManager) Leave(session Session) {
	room, ok := m.room(session.RoomID())
	if !ok {
		return
	}
	room.Leave(session.ID(), session)
}

// CurrentTick 房间当前 tick
func (m *RoomManager) CurrentTick(roomID string) core.Tick {
	if room, ok := m.room(roomID); ok {
		return room.CurrentTick()
	}
	return 0
}

// Shutdown 关闭所有房间
func (m *RoomManager) Shutdown() {
	m.once.Do(func() { close(m.shutdown) })

	m.roomMutex.Lock()
	l4g.Info("[rooms] 关闭 %d 个房间...", len(m.rooms))
	for _, room := range m.rooms {
		room.Shutdown()
	}
	m.roomMutex.Unlock()

	m.wg.Wait()
	l4g.Info("[rooms] 所有房间已关闭")
}

// RoomStats 房间统计信息
type RoomStats struct {
	PlayerCount int
	Tick        core.Tick
}

// Stats 获取房间统计信息
func (m *RoomManager) Stats() map[string]RoomStats {
	m.roomMutex.RLock()
	defer m.roomMutex.RUnlock()

	stats := make(map[string]RoomStats, len(m.rooms))
	for roomID, room := range m.rooms {
		stats[roomID] = RoomStats{PlayerCount: room.PlayerCount(), Tick: room.CurrentTick()}
	}
	return stats
}
