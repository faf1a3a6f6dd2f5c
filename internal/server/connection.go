package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"arenaball/pkg/protocol"

	l4g "github.com/alecthomas/log4go"
	"golang.org/x/time/rate"
)

const (
	readTimeout  = 5 * time.Second // 读取超时
	writeTimeout = 1 * time.Second // 写入超时
)

var (
	ErrSendQueueFull    = errors.New("发送队列满")
	ErrConnectionClosed = errors.New("连接已关闭")
)

// Connection 表示一个客户端连接
type Connection struct {
	conn     net.Conn
	server   *GameServer
	playerID int32
	roomID   atomic.Value

	// 输入包限流
	limiter *rate.Limiter
	dropped atomic.Int64

	// 发送队列
	sendChan chan []byte
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	lastRecvTime atomic.Value
	lastPingTime atomic.Value
	rtt          atomic.Int64
}

// NewConnection 创建新连接，连接到服务器上
func NewConnection(conn net.Conn, server *GameServer) *Connection {
	c := &Connection{
		conn:     conn,
		server:   server,
		playerID: -1, // -1 表示未分配
		limiter:  rate.NewLimiter(rate.Limit(server.cfg.InputRateLimit), server.cfg.InputBurst),
		sendChan: make(chan []byte, 256),
		closeCh:  make(chan struct{}),
	}
	c.roomID.Store("")
	c.lastRecvTime.Store(time.Now())
	c.lastPingTime.Store(time.Time{})
	return c
}

// Handle 处理连接
func (c *Connection) Handle(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	l4g.Debug("[conn(%s)] 连接处理开始", c.conn.RemoteAddr())

	wg.Add(3)
	go c.startHeartbeat(ctx, wg)
	go c.sendLoop(ctx, wg)
	go c.receiveLoop(ctx, wg)

	// 等待上下文取消或连接关闭
	select {
	case <-ctx.Done():
	case <-c.closeCh:
	}

	c.Close()
}

// Close 关闭连接
func (c *Connection) Close() {
	c.closeWithNotify(true)
}

// CloseWithoutNotify 关闭连接但不触发移除玩家逻辑
func (c *Connection) CloseWithoutNotify() {
	c.closeWithNotify(false)
}

func (c *Connection) closeWithNotify(notify bool) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeCh)

	if c.conn != nil {
		c.conn.Close()
	}

	// 关闭发送通道
	close(c.sendChan)

	if notify && c.ID() >= 0 {
		c.server.removePlayer(c)
	}

	l4g.Info("[conn(%d)] 连接已关闭", c.ID())
}

// Send 发送数据（异步）
func (c *Connection) Send(data []byte) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// SendPacket 序列化后异步发送
func (c *Connection) SendPacket(pkt *protocol.Packet) error {
	data, err := protocol.MarshalPacket(pkt)
	if err != nil {
		return err
	}
	return c.Send(data)
}

// sendLoop 发送循环
func (c *Connection) sendLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-c.sendChan:
			if !ok {
				return
			}

			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := protocol.WriteFrame(c.conn, data); err != nil {
				l4g.Warn("[conn(%d)] 发送数据失败: %v", c.ID(), err)
				c.Close()
				return
			}
		}
	}
}

// receiveLoop 接收循环
func (c *Connection) receiveLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		data, err := protocol.ReadFrame(c.conn)
		if err != nil {
			if errors.Is(err, protocol.ErrEmptyPacket) {
				continue
			}
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				l4g.Info("[conn(%d)] 读取超时", c.ID())
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				l4g.Warn("[conn(%d)] 读取失败: %v", c.ID(), err)
			}
			c.Close()
			return
		}

		c.onMessageReceived()
		if err := c.handleMessage(data); err != nil {
			l4g.Warn("[conn(%d)] 处理消息失败: %v", c.ID(), err)
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(data []byte) error {
	event, err := DecodePacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventJoin:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家已加入")
		}
		if err := c.server.handleJoinRequest(c, event.Join); err != nil {
			return fmt.Errorf("处理加入请求失败: %w", err)
		}

	case EventInput:
		if c.ID() < 0 {
			return fmt.Errorf("未加入房间的输入")
		}
		if !c.limiter.Allow() {
			if n := c.dropped.Add(1); n == 1 || n%100 == 0 {
				l4g.Warn("[conn(%d)] 输入超过限流，已丢弃 %d 个包", c.ID(), n)
			}
			return nil
		}
		event.Input.PlayerID = c.ID()
		event.Input.RoomID = c.RoomID()
		c.server.handleClientInput(event.Input)

	case EventPing:
		c.server.handlePing(c, event.Ping)

	case EventPong:
		c.handlePong(event.Pong)

	case EventReconnect:
		if c.ID() >= 0 {
			return fmt.Errorf("玩家已加入")
		}
		if err := c.server.handleReconnect(c, event.Reconnect); err != nil {
			return fmt.Errorf("处理重连请求失败: %w", err)
		}

	default:
		return fmt.Errorf("未知消息类型")
	}

	return nil
}

// String 返回连接的字符串表示
func (c *Connection) String() string {
	if c.ID() >= 0 {
		return fmt.Sprintf("Connection{%d, %s}", c.ID(), c.conn.RemoteAddr())
	}
	return fmt.Sprintf("Connection{%s}", c.conn.RemoteAddr())
}

func (c *Connection) ID() int32 {
	return atomic.LoadInt32(&c.playerID)
}

func (c *Connection) SetPlayerID(playerID int32) {
	atomic.StoreInt32(&c.playerID, playerID)
}

func (c *Connection) RoomID() string {
	id, _ := c.roomID.Load().(string)
	return id
}

func (c *Connection) SetRoomID(id string) {
	c.roomID.Store(id)
}

// RTT 最近一次心跳测得的往返时延
func (c *Connection) RTT() time.Duration {
	return time.Duration(c.rtt.Load()) * time.Millisecond
}

const (
	heartbeatInterval = 2 * time.Second
	heartbeatTimeout  = 15 * time.Second
)

func (c *Connection) startHeartbeat(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if !lastRecv.IsZero() && time.Since(lastRecv) > heartbeatTimeout {
				l4g.Info("[conn(%d)] 心跳超时", c.ID())
				c.Close()
				return
			}
			c.sendPing()
		}
	}
}

func (c *Connection) sendPing() {
	c.lastPingTime.Store(time.Now())
	_ = c.SendPacket(protocol.NewPingPacket(time.Now().UnixMilli()))
}

func (c *Connection) handlePong(pong *PongEvent) {
	if pong == nil || pong.ClientTime <= 0 {
		return
	}
	c.rtt.Store(time.Now().UnixMilli() - pong.ClientTime)
}

func (c *Connection) onMessageReceived() {
	c.lastRecvTime.Store(time.Now())
}
