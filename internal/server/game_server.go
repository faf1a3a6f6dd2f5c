package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/protocol"

	l4g "github.com/alecthomas/log4go"
)

const statsInterval = time.Minute

// GameServer 游戏服务器
type GameServer struct {
	cfg     *config.ServerConfig
	tokens  *TokenIssuer
	manager *RoomManager

	listener ServerListener

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown chan struct{}
	ready    chan struct{}
	once     sync.Once
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg *config.ServerConfig) *GameServer {
	ctx, cancel := context.WithCancel(context.Background())
	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.SessionTTLDuration())

	return &GameServer{
		cfg:      cfg,
		tokens:   tokens,
		manager:  NewRoomManager(ctx, cfg, tokens),
		ctx:      ctx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
		ready:    make(chan struct{}),
	}
}

// Start 启动服务器，阻塞到 Shutdown 被调用
func (s *GameServer) Start() error {
	l4g.Info("[server] 启动游戏服务器: %s (%s)", s.cfg.Addr, s.cfg.Proto)

	listener, err := newListener(s.cfg.Proto, s.cfg.Addr, s.cfg.WSPath)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	s.listener = listener
	l4g.Info("[server] 服务器监听中: %s", listener.Addr())

	s.manager.Run()

	s.wg.Add(2)
	go s.acceptLoop()
	go s.statsLoop()
	close(s.ready)

	<-s.shutdown
	l4g.Info("[server] 服务器正在关闭...")
	return nil
}

// Ready 监听建立后关闭
func (s *GameServer) Ready() <-chan struct{} { return s.ready }

// Addr 实际监听地址，Ready 之后有效
func (s *GameServer) Addr() string {
	if s.listener == nil {
		return s.cfg.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭服务器
func (s *GameServer) Shutdown() {
	s.once.Do(func() {
		s.cancel()
		s.manager.Shutdown()

		if s.listener != nil {
			s.listener.Close()
		}

		close(s.shutdown)
		s.wg.Wait()
		l4g.Info("[server] 服务器已关闭")
	})
}

// acceptLoop 接受客户端连接
func (s *GameServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				l4g.Info("[server] 停止接受新连接")
				return
			default:
			}
			if errors.Is(err, errListenerClosed) {
				return
			}
			l4g.Warn("[server] 接受连接失败: %v", err)
			continue
		}

		l4g.Info("[server] 新连接来自: %s", conn.RemoteAddr())

		connection := NewConnection(conn, s)
		s.wg.Add(1)
		go connection.Handle(s.ctx, &s.wg)
	}
}

func (s *GameServer) statsLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			for id, st := range s.manager.Stats() {
				l4g.Info("[server] 房间 %s: 玩家 %d, tick %d", id, st.PlayerCount, st.Tick)
			}
		}
	}
}

// handleJoinRequest 处理加入请求，失败时回复错误响应
func (s *GameServer) handleJoinRequest(conn *Connection, req *JoinEvent) error {
	if err := s.manager.Join(conn, *req); err != nil {
		_ = conn.SendPacket(protocol.NewJoinErrorPacket(err.Error()))
		return err
	}
	return nil
}

// handleReconnect 校验会话令牌后重新绑定玩家
func (s *GameServer) handleReconnect(conn *Connection, req *ReconnectEvent) error {
	playerID, roomID, err := s.tokens.Verify(req.SessionToken)
	if err == nil {
		err = s.manager.Reconnect(conn, playerID, roomID)
	}
	if err != nil {
		_ = conn.SendPacket(protocol.NewReconnectResponsePacket(&protocol.ReconnectResponse{
			Success:      false,
			ErrorMessage: err.Error(),
		}))
		return err
	}
	return nil
}

// handleClientInput 处理客户端输入
func (s *GameServer) handleClientInput(input *InputEvent) {
	s.manager.EnqueueInput(*input)
}

// handlePing 回复 pong，附带当前服务器 tick
func (s *GameServer) handlePing(conn *Connection, ping *PingEvent) {
	tick := s.manager.CurrentTick(conn.RoomID())
	_ = conn.SendPacket(protocol.NewPongPacket(ping.ClientTime, time.Now().UnixMilli(), int64(tick)))
}

// removePlayer 连接断开
func (s *GameServer) removePlayer(conn *Connection) {
	s.manager.Leave(conn)
}
