package server

import (
	"fmt"

	"arenaball/pkg/core"
	"arenaball/pkg/protocol"
)

// DecodePacket 解析服务器收到的数据包
func DecodePacket(data []byte) (*ServerEvent, error) {
	pkt, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}

	switch pkt.Type {
	case protocol.MessageTypeJoinRequest:
		req, err := protocol.ParseJoinRequest(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventJoin,
			Join: &JoinEvent{PlayerName: req.PlayerName, RoomID: req.RoomID},
		}, nil

	case protocol.MessageTypeClientInput:
		input, err := protocol.ParseClientInput(pkt)
		if err != nil {
			return nil, err
		}
		items := make([]core.InputSample, 0, len(input.Inputs))
		for _, in := range input.Inputs {
			if in == nil {
				continue
			}
			items = append(items, protocol.ProtoInputToCore(in))
		}
		return &ServerEvent{
			Kind:  EventInput,
			Input: &InputEvent{Inputs: items},
		}, nil

	case protocol.MessageTypePing:
		ping, err := protocol.ParsePing(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventPing,
			Ping: &PingEvent{ClientTime: ping.ClientTime},
		}, nil

	case protocol.MessageTypePong:
		pong, err := protocol.ParsePong(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventPong,
			Pong: &PongEvent{ClientTime: pong.ClientTime, ServerTime: pong.ServerTime, ServerTick: pong.ServerTick},
		}, nil

	case protocol.MessageTypeReconnectRequest:
		req, err := protocol.ParseReconnectRequest(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:      EventReconnect,
			Reconnect: &ReconnectEvent{SessionToken: req.SessionToken},
		}, nil

	default:
		return &ServerEvent{Kind: EventUnknown}, nil
	}
}
