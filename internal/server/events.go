package server

import "arenaball/pkg/core"

// EventKind 连接上收到的消息类别
type EventKind int

const (
	EventUnknown EventKind = iota
	EventJoin
	EventInput
	EventPing
	EventPong
	EventReconnect
)

type JoinEvent struct {
	PlayerName string
	RoomID     string // 房间 ID，空字符串表示自动分配到默认房间
}

type InputEvent struct {
	PlayerID int32
	RoomID   string
	Inputs   []core.InputSample
}

type PingEvent struct {
	ClientTime int64
}

type PongEvent struct {
	ClientTime int64
	ServerTime int64
	ServerTick int64
}

type ReconnectEvent struct {
	SessionToken string
}

type ServerEvent struct {
	Kind      EventKind
	Join      *JoinEvent
	Input     *InputEvent
	Ping      *PingEvent
	Pong      *PongEvent
	Reconnect *ReconnectEvent
}
