package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// MessageType 消息类型，对应 api/arena/v1/arena.proto 中的 MessageType
type MessageType int32

const (
	MessageTypeUnspecified MessageType = iota
	MessageTypeJoinRequest
	MessageTypeJoinResponse
	MessageTypeClientInput
	MessageTypeServerState
	MessageTypeGameEvent
	MessageTypePlayerJoin
	MessageTypePlayerLeave
	MessageTypePing
	MessageTypePong
	MessageTypeReconnectRequest
	MessageTypeReconnectResponse
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeJoinRequest:
		return "JOIN_REQUEST"
	case MessageTypeJoinResponse:
		return "JOIN_RESPONSE"
	case MessageTypeClientInput:
		return "CLIENT_INPUT"
	case MessageTypeServerState:
		return "SERVER_STATE"
	case MessageTypeGameEvent:
		return "GAME_EVENT"
	case MessageTypePlayerJoin:
		return "PLAYER_JOIN"
	case MessageTypePlayerLeave:
		return "PLAYER_LEAVE"
	case MessageTypePing:
		return "PING"
	case MessageTypePong:
		return "PONG"
	case MessageTypeReconnectRequest:
		return "RECONNECT_REQUEST"
	case MessageTypeReconnectResponse:
		return "RECONNECT_RESPONSE"
	}
	return fmt.Sprintf("MESSAGE_TYPE(%d)", int32(t))
}

// Packet 外层信封
type Packet struct {
	Type    MessageType
	Payload []byte
}

func (p *Packet) appendTo(b []byte) []byte {
	b = appendInt32(b, 1, int32(p.Type))
	return appendBytes(b, 2, p.Payload)
}

func (p *Packet) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var v int32
			n, err := consumeInt32(typ, b, &v)
			p.Type = MessageType(v)
			return n, err
		case 2:
			v, n, err := consumeBytes(typ, b)
			p.Payload = append([]byte(nil), v...)
			return n, err
		}
		return -1, nil
	})
}

// Vector3 三维向量
type Vector3 struct {
	X, Y, Z float64
}

func (v *Vector3) appendTo(b []byte) []byte {
	b = appendDouble(b, 1, v.X)
	b = appendDouble(b, 2, v.Y)
	return appendDouble(b, 3, v.Z)
}

func (v *Vector3) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &v.X)
		case 2:
			return consumeDouble(typ, b, &v.Y)
		case 3:
			return consumeDouble(typ, b, &v.Z)
		}
		return -1, nil
	})
}

// Quaternion 朝向
type Quaternion struct {
	X, Y, Z, W float64
}

func (q *Quaternion) appendTo(b []byte) []byte {
	b = appendDouble(b, 1, q.X)
	b = appendDouble(b, 2, q.Y)
	b = appendDouble(b, 3, q.Z)
	return appendDouble(b, 4, q.W)
}

func (q *Quaternion) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &q.X)
		case 2:
			return consumeDouble(typ, b, &q.Y)
		case 3:
			return consumeDouble(typ, b, &q.Z)
		case 4:
			return consumeDouble(typ, b, &q.W)
		}
		return -1, nil
	})
}

// KinematicState 运动学状态
type KinematicState struct {
	Tick            int64
	Position        Vector3
	Orientation     Quaternion
	Velocity        Vector3
	Grounded        bool
	JumpCooldown    float64
	WallRunCooldown float64
	WallSide        int32
	WallNormal      Vector3
}

func (s *KinematicState) appendTo(b []byte) []byte {
	b = appendInt64(b, 1, s.Tick)
	b = appendMessage(b, 2, &s.Position)
	b = appendMessage(b, 3, &s.Orientation)
	b = appendMessage(b, 4, &s.Velocity)
	b = appendBool(b, 5, s.Grounded)
	b = appendDouble(b, 6, s.JumpCooldown)
	b = appendDouble(b, 7, s.WallRunCooldown)
	b = appendInt32(b, 8, s.WallSide)
	return appendMessage(b, 9, &s.WallNormal)
}

func (s *KinematicState) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &s.Tick)
		case 2:
			return consumeMessage(typ, b, &s.Position)
		case 3:
			return consumeMessage(typ, b, &s.Orientation)
		case 4:
			return consumeMessage(typ, b, &s.Velocity)
		case 5:
			return consumeBool(typ, b, &s.Grounded)
		case 6:
			return consumeDouble(typ, b, &s.JumpCooldown)
		case 7:
			return consumeDouble(typ, b, &s.WallRunCooldown)
		case 8:
			return consumeInt32(typ, b, &s.WallSide)
		case 9:
			return consumeMessage(typ, b, &s.WallNormal)
		}
		return -1, nil
	})
}

// InputData 单个 tick 的输入
type InputData struct {
	Tick  int64
	MoveX float64
	MoveY float64
	LookX float64
	LookY float64
	Jump  bool
}

func (in *InputData) appendTo(b []byte) []byte {
	b = appendInt64(b, 1, in.Tick)
	b = appendDouble(b, 2, in.MoveX)
	b = appendDouble(b, 3, in.MoveY)
	b = appendDouble(b, 4, in.LookX)
	b = appendDouble(b, 5, in.LookY)
	return appendBool(b, 6, in.Jump)
}

func (in *InputData) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &in.Tick)
		case 2:
			return consumeDouble(typ, b, &in.MoveX)
		case 3:
			return consumeDouble(typ, b, &in.MoveY)
		case 4:
			return consumeDouble(typ, b, &in.LookX)
		case 5:
			return consumeDouble(typ, b, &in.LookY)
		case 6:
			return consumeBool(typ, b, &in.Jump)
		}
		return -1, nil
	})
}

// ClientInput 客户端输入（可批量）
type ClientInput struct {
	Inputs []*InputData
}

func (c *ClientInput) appendTo(b []byte) []byte {
	for _, in := range c.Inputs {
		b = appendMessage(b, 1, in)
	}
	return b
}

func (c *ClientInput) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			in := &InputData{}
			n, err := consumeMessage(typ, b, in)
			c.Inputs = append(c.Inputs, in)
			return n, err
		}
		return -1, nil
	})
}

// Snapshot 单个玩家的权威状态
type Snapshot struct {
	PlayerID int32
	State    KinematicState
}

func (s *Snapshot) appendTo(b []byte) []byte {
	b = appendInt32(b, 1, s.PlayerID)
	return appendMessage(b, 2, &s.State)
}

func (s *Snapshot) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt32(typ, b, &s.PlayerID)
		case 2:
			return consumeMessage(typ, b, &s.State)
		}
		return -1, nil
	})
}

// ServerState 一个服务器 tick 内产生的全部权威快照（按处理顺序）
type ServerState struct {
	ServerTick int64
	Snapshots  []*Snapshot
}

func (s *ServerState) appendTo(b []byte) []byte {
	b = appendInt64(b, 1, s.ServerTick)
	for _, snap := range s.Snapshots {
		b = appendMessage(b, 2, snap)
	}
	return b
}

func (s *ServerState) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &s.ServerTick)
		case 2:
			snap := &Snapshot{}
			n, err := consumeMessage(typ, b, snap)
			s.Snapshots = append(s.Snapshots, snap)
			return n, err
		}
		return -1, nil
	})
}

// EventData 离散事件
type EventData struct {
	Kind        int32
	PlayerID    int32
	Tick        int64
	ImpactSpeed float64
}

func (e *EventData) appendTo(b []byte) []byte {
	b = appendInt32(b, 1, e.Kind)
	b = appendInt32(b, 2, e.PlayerID)
	b = appendInt64(b, 3, e.Tick)
	return appendDouble(b, 4, e.ImpactSpeed)
}

func (e *EventData) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt32(typ, b, &e.Kind)
		case 2:
			return consumeInt32(typ, b, &e.PlayerID)
		case 3:
			return consumeInt64(typ, b, &e.Tick)
		case 4:
			return consumeDouble(typ, b, &e.ImpactSpeed)
		}
		return -1, nil
	})
}

// GameEvent 一批事件
type GameEvent struct {
	Events []*EventData
}

func (g *GameEvent) appendTo(b []byte) []byte {
	for _, e := range g.Events {
		b = appendMessage(b, 1, e)
	}
	return b
}

func (g *GameEvent) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			e := &EventData{}
			n, err := consumeMessage(typ, b, e)
			g.Events = append(g.Events, e)
			return n, err
		}
		return -1, nil
	})
}

// JoinRequest 加入请求
type JoinRequest struct {
	PlayerName string
	RoomID     string
}

func (r *JoinRequest) appendTo(b []byte) []byte {
	b = appendString(b, 1, r.PlayerName)
	return appendString(b, 2, r.RoomID)
}

func (r *JoinRequest) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &r.PlayerName)
		case 2:
			return consumeString(typ, b, &r.RoomID)
		}
		return -1, nil
	})
}

// JoinResponse 加入响应
type JoinResponse struct {
	Success      bool
	PlayerID     int32
	ErrorMessage string
	TickRate     int32
	ServerTick   int64
	SessionToken string
	RoomID       string
	Spawn        KinematicState
}

func (r *JoinResponse) appendTo(b []byte) []byte {
	b = appendBool(b, 1, r.Success)
	b = appendInt32(b, 2, r.PlayerID)
	b = appendString(b, 3, r.ErrorMessage)
	b = appendInt32(b, 4, r.TickRate)
	b = appendInt64(b, 5, r.ServerTick)
	b = appendString(b, 6, r.SessionToken)
	b = appendString(b, 7, r.RoomID)
	return appendMessage(b, 8, &r.Spawn)
}

func (r *JoinResponse) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBool(typ, b, &r.Success)
		case 2:
			return consumeInt32(typ, b, &r.PlayerID)
		case 3:
			return consumeString(typ, b, &r.ErrorMessage)
		case 4:
			return consumeInt32(typ, b, &r.TickRate)
		case 5:
			return consumeInt64(typ, b, &r.ServerTick)
		case 6:
			return consumeString(typ, b, &r.SessionToken)
		case 7:
			return consumeString(typ, b, &r.RoomID)
		case 8:
			return consumeMessage(typ, b, &r.Spawn)
		}
		return -1, nil
	})
}

// PlayerJoin 其他玩家加入
type PlayerJoin struct {
	PlayerID   int32
	PlayerName string
	State      KinematicState
}

func (p *PlayerJoin) appendTo(b []byte) []byte {
	b = appendInt32(b, 1, p.PlayerID)
	b = appendString(b, 2, p.PlayerName)
	return appendMessage(b, 3, &p.State)
}

func (p *PlayerJoin) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt32(typ, b, &p.PlayerID)
		case 2:
			return consumeString(typ, b, &p.PlayerName)
		case 3:
			return consumeMessage(typ, b, &p.State)
		}
		return -1, nil
	})
}

// PlayerLeave 玩家离开
type PlayerLeave struct {
	PlayerID int32
}

func (p *PlayerLeave) appendTo(b []byte) []byte {
	return appendInt32(b, 1, p.PlayerID)
}

func (p *PlayerLeave) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt32(typ, b, &p.PlayerID)
		}
		return -1, nil
	})
}

// Ping 心跳
type Ping struct {
	ClientTime int64
}

func (p *Ping) appendTo(b []byte) []byte {
	return appendInt64(b, 1, p.ClientTime)
}

func (p *Ping) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeInt64(typ, b, &p.ClientTime)
		}
		return -1, nil
	})
}

// Pong 心跳响应
type Pong struct {
	ClientTime int64
	ServerTime int64
	ServerTick int64
}

func (p *Pong) appendTo(b []byte) []byte {
	b = appendInt64(b, 1, p.ClientTime)
	b = appendInt64(b, 2, p.ServerTime)
	return appendInt64(b, 3, p.ServerTick)
}

func (p *Pong) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeInt64(typ, b, &p.ClientTime)
		case 2:
			return consumeInt64(typ, b, &p.ServerTime)
		case 3:
			return consumeInt64(typ, b, &p.ServerTick)
		}
		return -1, nil
	})
}

// ReconnectRequest 断线重连
type ReconnectRequest struct {
	SessionToken string
}

func (r *ReconnectRequest) appendTo(b []byte) []byte {
	return appendString(b, 1, r.SessionToken)
}

func (r *ReconnectRequest) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			return consumeString(typ, b, &r.SessionToken)
		}
		return -1, nil
	})
}

// ReconnectResponse 重连响应，成功时携带当前权威状态
type ReconnectResponse struct {
	Success      bool
	ErrorMessage string
	PlayerID     int32
	ServerTick   int64
	State        KinematicState
}

func (r *ReconnectResponse) appendTo(b []byte) []byte {
	b = appendBool(b, 1, r.Success)
	b = appendString(b, 2, r.ErrorMessage)
	b = appendInt32(b, 3, r.PlayerID)
	b = appendInt64(b, 4, r.ServerTick)
	return appendMessage(b, 5, &r.State)
}

func (r *ReconnectResponse) unmarshal(b []byte) error {
	return decodeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeBool(typ, b, &r.Success)
		case 2:
			return consumeString(typ, b, &r.ErrorMessage)
		case 3:
			return consumeInt32(typ, b, &r.PlayerID)
		case 4:
			return consumeInt64(typ, b, &r.ServerTick)
		case 5:
			return consumeMessage(typ, b, &r.State)
		}
		return -1, nil
	})
}
