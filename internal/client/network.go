package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/protocol"
	"arenaball/pkg/transport"

	l4g "github.com/alecthomas/log4go"
)

var (
	ErrJoinTimeout   = errors.New("等待服务器响应超时")
	ErrJoinRejected  = errors.New("服务器拒绝加入")
	ErrSendQueueFull = errors.New("发送队列满")
	ErrNotConnected  = errors.New("未连接")
)

// NetworkClient 网络客户端
type NetworkClient struct {
	cfg  *config.ClientConfig
	conn net.Conn

	playerID     atomic.Int32
	sessionToken string
	join         *protocol.JoinResponse

	connected atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once

	// 接收队列
	stateChan       chan *protocol.ServerState
	eventChan       chan *protocol.GameEvent
	playerJoinChan  chan *protocol.PlayerJoin
	playerLeaveChan chan int32
	joinChan        chan *protocol.JoinResponse
	reconnectChan   chan *protocol.ReconnectResponse

	// 发送队列
	sendChan chan []byte

	errChan chan error

	rtt        atomic.Int64
	serverTick atomic.Int64
}

// NewNetworkClient 创建网络客户端
func NewNetworkClient(cfg *config.ClientConfig) *NetworkClient {
	nc := &NetworkClient{
		cfg:             cfg,
		stateChan:       make(chan *protocol.ServerState, 256),
		eventChan:       make(chan *protocol.GameEvent, 64),
		playerJoinChan:  make(chan *protocol.PlayerJoin, 16),
		playerLeaveChan: make(chan int32, 16),
		joinChan:        make(chan *protocol.JoinResponse, 1),
		reconnectChan:   make(chan *protocol.ReconnectResponse, 1),
		sendChan:        make(chan []byte, 256),
		errChan:         make(chan error, 1),
	}
	nc.playerID.Store(-1)
	return nc
}

// Connect 连接服务器并加入房间
func (nc *NetworkClient) Connect() error {
	if err := nc.open(); err != nil {
		return err
	}

	if err := nc.sendPacket(protocol.NewJoinRequestPacket(nc.cfg.PlayerName, nc.cfg.RoomID)); err != nil {
		nc.Close()
		return fmt.Errorf("发送加入请求失败: %w", err)
	}

	select {
	case resp := <-nc.joinChan:
		if !resp.Success {
			nc.Close()
			return fmt.Errorf("%w: %s", ErrJoinRejected, resp.ErrorMessage)
		}
		nc.join = resp
		nc.sessionToken = resp.SessionToken
		nc.playerID.Store(resp.PlayerID)
		nc.serverTick.Store(resp.ServerTick)
		l4g.Info("[net] 加入房间 %s，玩家 ID: %d，服务器 tick: %d", resp.RoomID, resp.PlayerID, resp.ServerTick)
		return nil

	case err := <-nc.errChan:
		nc.Close()
		return err

	case <-time.After(joinTimeout):
		nc.Close()
		return ErrJoinTimeout
	}
}

// Reconnect 断线后凭会话令牌重新绑定原玩家，返回服务器上的最新状态
func (nc *NetworkClient) Reconnect() (core.KinematicState, error) {
	if nc.sessionToken == "" {
		return core.KinematicState{}, fmt.Errorf("%w: 没有会话令牌", ErrNotConnected)
	}
	nc.shutdownLoops()

	if err := nc.open(); err != nil {
		return core.KinematicState{}, err
	}
	if err := nc.sendPacket(protocol.NewReconnectRequestPacket(nc.sessionToken)); err != nil {
		return core.KinematicState{}, err
	}

	select {
	case resp := <-nc.reconnectChan:
		if !resp.Success {
			return core.KinematicState{}, fmt.Errorf("%w: %s", ErrJoinRejected, resp.ErrorMessage)
		}
		nc.serverTick.Store(resp.ServerTick)
		l4g.Info("[net] 重连成功，玩家 ID: %d，tick: %d", resp.PlayerID, resp.State.Tick)
		return protocol.ProtoStateToCore(resp.State), nil
	case err := <-nc.errChan:
		return core.KinematicState{}, err
	case <-time.After(joinTimeout):
		return core.KinematicState{}, ErrJoinTimeout
	}
}

// open 建立连接并启动收发循环
func (nc *NetworkClient) open() error {
	l4g.Info("[net] 连接到服务器: %s (%s)", nc.cfg.Addr, nc.cfg.Proto)

	conn, err := transport.Dial(nc.cfg.Proto, nc.cfg.Addr, nc.cfg.WSPath)
	if err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}

	nc.ctx, nc.cancel = context.WithCancel(context.Background())
	nc.conn = conn
	nc.connected.Store(true)
	nc.drainErr()

	l4g.Info("[net] 已连接到服务器: %s", conn.RemoteAddr())

	nc.wg.Add(3)
	go nc.receiveLoop(nc.ctx, conn)
	go nc.sendLoop(nc.ctx, conn)
	go nc.pingLoop(nc.ctx)
	return nil
}

func (nc *NetworkClient) shutdownLoops() {
	nc.connected.Store(false)
	if nc.cancel != nil {
		nc.cancel()
	}
	if nc.conn != nil {
		nc.conn.Close()
	}
	nc.wg.Wait()
}

func (nc *NetworkClient) drainErr() {
	select {
	case <-nc.errChan:
	default:
	}
}

// Close 关闭连接
func (nc *NetworkClient) Close() {
	nc.closeOnce.Do(func() {
		nc.shutdownLoops()
		l4g.Info("[net] 网络客户端已关闭")
	})
}

// PlayerID 本地玩家 ID
func (nc *NetworkClient) PlayerID() int32 { return nc.playerID.Load() }

// JoinInfo 加入响应
func (nc *NetworkClient) JoinInfo() *protocol.JoinResponse { return nc.join }

// IsConnected 检查是否已连接
func (nc *NetworkClient) IsConnected() bool { return nc.connected.Load() }

// RTT 最近测得的往返时延
func (nc *NetworkClient) RTT() time.Duration {
	return time.Duration(nc.rtt.Load()) * time.Millisecond
}

// ServerTick 最近从服务器得知的 tick
func (nc *NetworkClient) ServerTick() core.Tick { return core.Tick(nc.serverTick.Load()) }

// Err 非阻塞地取出连接错误
func (nc *NetworkClient) Err() error {
	select {
	case err := <-nc.errChan:
		return err
	default:
		return nil
	}
}

func (nc *NetworkClient) fail(err error) {
	nc.connected.Store(false)
	select {
	case nc.errChan <- err:
	default:
	}
}

// ========== 消息接收 ==========

func (nc *NetworkClient) receiveLoop(ctx context.Context, conn net.Conn) {
	defer nc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(clientReadTimeout))
		data, err := protocol.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, protocol.ErrEmptyPacket) {
				continue
			}
			if ctx.Err() == nil {
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf("服务器关闭了连接: %w", err)
				}
				nc.fail(fmt.Errorf("读取失败: %w", err))
			}
			return
		}

		if err := nc.handleMessage(data); err != nil {
			l4g.Warn("[net] 处理消息失败: %v", err)
		}
	}
}

// handleMessage 按类型分发到各接收队列，队列满时丢弃
func (nc *NetworkClient) handleMessage(data []byte) error {
	pkt, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch pkt.Type {
	case protocol.MessageTypeServerState:
		st, err := protocol.ParseServerState(pkt)
		if err != nil {
			return err
		}
		nc.serverTick.Store(st.ServerTick)
		select {
		case nc.stateChan <- st:
		default:
			l4g.Warn("[net] 状态队列满，丢弃 tick %d", st.ServerTick)
		}

	case protocol.MessageTypeGameEvent:
		ev, err := protocol.ParseGameEvent(pkt)
		if err != nil {
			return err
		}
		select {
		case nc.eventChan <- ev:
		default:
		}

	case protocol.MessageTypeJoinResponse:
		resp, err := protocol.ParseJoinResponse(pkt)
		if err != nil {
			return err
		}
		select {
		case nc.joinChan <- resp:
		default:
		}

	case protocol.MessageTypeReconnectResponse:
		resp, err := protocol.ParseReconnectResponse(pkt)
		if err != nil {
			return err
		}
		select {
		case nc.reconnectChan <- resp:
		default:
		}

	case protocol.MessageTypePlayerJoin:
		join, err := protocol.ParsePlayerJoin(pkt)
		if err != nil {
			return err
		}
		select {
		case nc.playerJoinChan <- join:
		default:
		}

	case protocol.MessageTypePlayerLeave:
		leave, err := protocol.ParsePlayerLeave(pkt)
		if err != nil {
			return err
		}
		select {
		case nc.playerLeaveChan <- leave.PlayerID:
		default:
		}

	case protocol.MessageTypePing:
		// 服务器心跳，原样带回时间戳
		ping, err := protocol.ParsePing(pkt)
		if err != nil {
			return err
		}
		return nc.sendPacket(protocol.NewPongPacket(ping.ClientTime, time.Now().UnixMilli(), 0))

	case protocol.MessageTypePong:
		pong, err := protocol.ParsePong(pkt)
		if err != nil {
			return err
		}
		if pong.ClientTime > 0 {
			nc.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
		}
		nc.serverTick.Store(pong.ServerTick)

	default:
		return fmt.Errorf("未知消息类型: %s", pkt.Type)
	}
	return nil
}

// ========== 消息发送 ==========

func (nc *NetworkClient) sendLoop(ctx context.Context, conn net.Conn) {
	defer nc.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-nc.sendChan:
			_ = conn.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
			if err := protocol.WriteFrame(conn, data); err != nil {
				if ctx.Err() == nil {
					nc.fail(fmt.Errorf("发送失败: %w", err))
				}
				return
			}
		}
	}
}

func (nc *NetworkClient) pingLoop(ctx context.Context) {
	defer nc.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = nc.sendPacket(protocol.NewPingPacket(time.Now().UnixMilli()))
		}
	}
}

func (nc *NetworkClient) sendPacket(pkt *protocol.Packet) error {
	data, err := protocol.MarshalPacket(pkt)
	if err != nil {
		return err
	}
	select {
	case nc.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// SendInput 发送一个 tick 的输入，实现 InputSender
func (nc *NetworkClient) SendInput(in core.InputSample) error {
	if !nc.IsConnected() {
		return ErrNotConnected
	}
	return nc.sendPacket(protocol.NewClientInputPacket(protocol.CoreInputToProto(in)))
}

// ========== 状态接收（均为非阻塞） ==========

func (nc *NetworkClient) ReceiveState() *protocol.ServerState {
	select {
	case st := <-nc.stateChan:
		return st
	default:
		return nil
	}
}

func (nc *NetworkClient) ReceiveEvent() *protocol.GameEvent {
	select {
	case ev := <-nc.eventChan:
		return ev
	default:
		return nil
	}
}

func (nc *NetworkClient) ReceivePlayerJoin() *protocol.PlayerJoin {
	select {
	case join := <-nc.playerJoinChan:
		return join
	default:
		return nil
	}
}

// ReceivePlayerLeave 没有消息时返回 -1
func (nc *NetworkClient) ReceivePlayerLeave() int32 {
	select {
	case id := <-nc.playerLeaveChan:
		return id
	default:
		return -1
	}
}
