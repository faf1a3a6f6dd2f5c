package protocol

import (
	"errors"
	"fmt"
)

// ErrUnexpectedType 消息类型与解析函数不匹配
var ErrUnexpectedType = errors.New("消息类型不匹配")

// ========== 辅助构造方法 ==========

func newPacket(t MessageType, m message) *Packet {
	return &Packet{Type: t, Payload: m.appendTo(nil)}
}

// NewClientInputPacket 构造输入消息包
func NewClientInputPacket(inputs ...*InputData) *Packet {
	return newPacket(MessageTypeClientInput, &ClientInput{Inputs: inputs})
}

// NewJoinRequestPacket 构造加入请求消息包
func NewJoinRequestPacket(playerName, roomID string) *Packet {
	return newPacket(MessageTypeJoinRequest, &JoinRequest{PlayerName: playerName, RoomID: roomID})
}

// NewPingPacket 构造心跳消息包
func NewPingPacket(clientTime int64) *Packet {
	return newPacket(MessageTypePing, &Ping{ClientTime: clientTime})
}

// NewReconnectRequestPacket 构造重连请求消息包
func NewReconnectRequestPacket(sessionToken string) *Packet {
	return newPacket(MessageTypeReconnectRequest, &ReconnectRequest{SessionToken: sessionToken})
}

// ========== 服务器消息构造 ==========

// NewJoinResponsePacket 构造加入响应消息包
func NewJoinResponsePacket(resp *JoinResponse) *Packet {
	return newPacket(MessageTypeJoinResponse, resp)
}

// NewJoinErrorPacket 构造加入失败响应
func NewJoinErrorPacket(errMsg string) *Packet {
	return newPacket(MessageTypeJoinResponse, &JoinResponse{Success: false, ErrorMessage: errMsg})
}

// NewServerStatePacket 构造权威状态消息包
func NewServerStatePacket(serverTick int64, snapshots []*Snapshot) *Packet {
	return newPacket(MessageTypeServerState, &ServerState{ServerTick: serverTick, Snapshots: snapshots})
}

// NewGameEventPacket 构造事件消息包
func NewGameEventPacket(events []*EventData) *Packet {
	return newPacket(MessageTypeGameEvent, &GameEvent{Events: events})
}

// NewPlayerJoinPacket 构造玩家加入广播
func NewPlayerJoinPacket(playerID int32, name string, state KinematicState) *Packet {
	return newPacket(MessageTypePlayerJoin, &PlayerJoin{PlayerID: playerID, PlayerName: name, State: state})
}

// NewPlayerLeavePacket 构造玩家离开广播
func NewPlayerLeavePacket(playerID int32) *Packet {
	return newPacket(MessageTypePlayerLeave, &PlayerLeave{PlayerID: playerID})
}

// NewPongPacket 构造心跳响应消息包
func NewPongPacket(clientTime, serverTime, serverTick int64) *Packet {
	return newPacket(MessageTypePong, &Pong{ClientTime: clientTime, ServerTime: serverTime, ServerTick: serverTick})
}

// NewReconnectResponsePacket 构造重连响应消息包
func NewReconnectResponsePacket(resp *ReconnectResponse) *Packet {
	return newPacket(MessageTypeReconnectResponse, resp)
}

// ========== 序列化与反序列化 ==========

// MarshalPacket 将 Packet 编码为字节切片
func MarshalPacket(pkt *Packet) ([]byte, error) {
	if pkt == nil {
		return nil, errors.New("空消息包")
	}
	return pkt.appendTo(nil), nil
}

// UnmarshalPacket 将字节切片解码为 Packet
func UnmarshalPacket(data []byte) (*Packet, error) {
	pkt := &Packet{}
	if err := pkt.unmarshal(data); err != nil {
		return nil, err
	}
	return pkt, nil
}

// ========== 消息解析辅助 ==========

func parse[T any, PT interface {
	*T
	message
}](pkt *Packet, want MessageType) (*T, error) {
	if pkt.Type != want {
		return nil, fmt.Errorf("%w: 期望 %s, 实际 %s", ErrUnexpectedType, want, pkt.Type)
	}
	var m T
	if err := PT(&m).unmarshal(pkt.Payload); err != nil {
		return nil, fmt.Errorf("解析 %s 失败: %w", want, err)
	}
	return &m, nil
}

// ParseClientInput 从 Packet 中解析 ClientInput
func ParseClientInput(pkt *Packet) (*ClientInput, error) {
	return parse[ClientInput](pkt, MessageTypeClientInput)
}

// ParseJoinRequest 从 Packet 中解析 JoinRequest
func ParseJoinRequest(pkt *Packet) (*JoinRequest, error) {
	return parse[JoinRequest](pkt, MessageTypeJoinRequest)
}

// ParseJoinResponse 从 Packet 中解析 JoinResponse
func ParseJoinResponse(pkt *Packet) (*JoinResponse, error) {
	return parse[JoinResponse](pkt, MessageTypeJoinResponse)
}

// ParseServerState 从 Packet 中解析 ServerState
func ParseServerState(pkt *Packet) (*ServerState, error) {
	return parse[ServerState](pkt, MessageTypeServerState)
}

// ParseGameEvent 从 Packet 中解析 GameEvent
func ParseGameEvent(pkt *Packet) (*GameEvent, error) {
	return parse[GameEvent](pkt, MessageTypeGameEvent)
}

// ParsePlayerJoin 从 Packet 中解析 PlayerJoin
func ParsePlayerJoin(pkt *Packet) (*PlayerJoin, error) {
	return parse[PlayerJoin](pkt, MessageTypePlayerJoin)
}

// ParsePlayerLeave 从 Packet 中解析 PlayerLeave
func ParsePlayerLeave(pkt *Packet) (*PlayerLeave, error) {
	return parse[PlayerLeave](pkt, MessageTypePlayerLeave)
}

// ParsePing 从 Packet 中解析 Ping
func ParsePing(pkt *Packet) (*Ping, error) {
	return parse[Ping](pkt, MessageTypePing)
}

// ParsePong 从 Packet 中解析 Pong
func ParsePong(pkt *Packet) (*Pong, error) {
	return parse[Pong](pkt, MessageTypePong)
}

// ParseReconnectRequest 从 Packet 中解析 ReconnectRequest
func ParseReconnectRequest(pkt *Packet) (*ReconnectRequest, error) {
	return parse[ReconnectRequest](pkt, MessageTypeReconnectRequest)
}

// ParseReconnectResponse 从 Packet 中解析 ReconnectResponse
func ParseReconnectResponse(pkt *Packet) (*ReconnectResponse, error) {
	return parse[ReconnectResponse](pkt, MessageTypeReconnectResponse)
}
