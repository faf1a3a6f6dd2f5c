package protocol

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

const protoPath = "../../api/arena/v1/arena.proto"

type protoField struct {
	name string
	typ  string
}

type protoSchema struct {
	messages map[string]map[protowire.Number]protoField
	enums    map[string]int32
}

var (
	messageLine = regexp.MustCompile(`^message (\w+) \{`)
	enumLine    = regexp.MustCompile(`^enum (\w+) \{`)
	fieldLine   = regexp.MustCompile(`^(?:repeated )?(\w+) (\w+) = (\d+);`)
	valueLine   = regexp.MustCompile(`^(\w+) = (\d+);`)
)

// loadSchema 只解析 arena.proto 用到的语法子集
func loadSchema(t *testing.T) protoSchema {
	t.Helper()
	f, err := os.Open(protoPath)
	if err != nil {
		t.Fatalf("open %s: %v", protoPath, err)
	}
	defer f.Close()

	schema := protoSchema{
		messages: make(map[string]map[protowire.Number]protoField),
		enums:    make(map[string]int32),
	}
	var current map[protowire.Number]protoField
	inEnum := false

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, "//"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		switch {
		case line == "}":
			current, inEnum = nil, false
		case messageLine.MatchString(line):
			current = make(map[protowire.Number]protoField)
			schema.messages[messageLine.FindStringSubmatch(line)[1]] = current
		case enumLine.MatchString(line):
			inEnum = true
		case inEnum && valueLine.MatchString(line):
			m := valueLine.FindStringSubmatch(line)
			n, _ := strconv.Atoi(m[2])
			schema.enums[m[1]] = int32(n)
		case current != nil && fieldLine.MatchString(line):
			m := fieldLine.FindStringSubmatch(line)
			n, _ := strconv.Atoi(m[3])
			current[protowire.Number(n)] = protoField{name: m[2], typ: m[1]}
		}
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("read %s: %v", protoPath, err)
	}
	return schema
}

func wireTypeOf(typ string) protowire.Type {
	switch typ {
	case "double":
		return protowire.Fixed64Type
	case "int32", "int64", "bool", "MessageType":
		return protowire.VarintType
	default:
		return protowire.BytesType
	}
}

func filledState() KinematicState {
	return KinematicState{
		Tick:            9,
		Position:        Vector3{X: 1, Y: 2, Z: 3},
		Orientation:     Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9},
		Velocity:        Vector3{X: -1, Y: -2, Z: -3},
		Grounded:        true,
		JumpCooldown:    0.5,
		WallRunCooldown: 0.25,
		WallSide:        2,
		WallNormal:      Vector3{X: -1},
	}
}

func TestCodecMatchesProtoSchema(t *testing.T) {
	schema := loadSchema(t)

	// 每个消息的所有字段都取非零值，编码结果必须恰好覆盖 .proto 中的字段
	filled := map[string]message{
		"Packet":         &Packet{Type: MessageTypePong, Payload: []byte{1}},
		"Vector3":        &Vector3{X: 1, Y: 2, Z: 3},
		"Quaternion":     &Quaternion{X: 1, Y: 2, Z: 3, W: 4},
		"KinematicState": func() *KinematicState { s := filledState(); return &s }(),
		"InputData":      &InputData{Tick: 1, MoveX: 0.6, MoveY: 0.8, LookX: 1, LookY: -1, Jump: true},
		"ClientInput":    &ClientInput{Inputs: []*InputData{{Tick: 1}}},
		"Snapshot":       &Snapshot{PlayerID: 1, State: filledState()},
		"ServerState":    &ServerState{ServerTick: 5, Snapshots: []*Snapshot{{PlayerID: 1}}},
		"EventData":      &EventData{Kind: 1, PlayerID: 2, Tick: 3, ImpactSpeed: 4},
		"GameEvent":      &GameEvent{Events: []*EventData{{Kind: 1}}},
		"JoinRequest":    &JoinRequest{PlayerName: "a", RoomID: "r"},
		"JoinResponse": &JoinResponse{
			Success: true, PlayerID: 1, ErrorMessage: "e", TickRate: 60,
			ServerTick: 2, SessionToken: "t", RoomID: "r", Spawn: filledState(),
		},
		"PlayerJoin":        &PlayerJoin{PlayerID: 1, PlayerName: "a", State: filledState()},
		"PlayerLeave":       &PlayerLeave{PlayerID: 1},
		"Ping":              &Ping{ClientTime: 1},
		"Pong":              &Pong{ClientTime: 1, ServerTime: 2, ServerTick: 3},
		"ReconnectRequest":  &ReconnectRequest{SessionToken: "t"},
		"ReconnectResponse": &ReconnectResponse{Success: true, ErrorMessage: "e", PlayerID: 1, ServerTick: 2, State: filledState()},
	}

	for name, fields := range schema.messages {
		m, ok := filled[name]
		if !ok {
			t.Fatalf("message %s in %s has no codec", name, protoPath)
		}
		b := m.appendTo(nil)
		seen := make(map[protowire.Number]bool)
		for len(b) > 0 {
			num, typ, n := protowire.ConsumeTag(b)
			if n < 0 {
				t.Fatalf("%s: bad tag: %v", name, protowire.ParseError(n))
			}
			b = b[n:]
			want, ok := fields[num]
			if !ok {
				t.Fatalf("%s: field %d not declared in %s", name, num, protoPath)
			}
			if wt := wireTypeOf(want.typ); typ != wt {
				t.Fatalf("%s.%s: wire type %v, want %v", name, want.name, typ, wt)
			}
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				t.Fatalf("%s.%s: bad value: %v", name, want.name, protowire.ParseError(n))
			}
			b = b[n:]
			seen[num] = true
		}
		for num, f := range fields {
			if !seen[num] {
				t.Fatalf("%s.%s = %d is never written", name, f.name, num)
			}
		}
	}
	if len(schema.messages) != len(filled) {
		t.Fatalf("%s declares %d messages, codec has %d", protoPath, len(schema.messages), len(filled))
	}
}

func TestMessageTypeMatchesProtoEnum(t *testing.T) {
	schema := loadSchema(t)
	want := map[string]MessageType{
		"MESSAGE_TYPE_UNSPECIFIED":        MessageTypeUnspecified,
		"MESSAGE_TYPE_JOIN_REQUEST":       MessageTypeJoinRequest,
		"MESSAGE_TYPE_JOIN_RESPONSE":      MessageTypeJoinResponse,
		"MESSAGE_TYPE_CLIENT_INPUT":       MessageTypeClientInput,
		"MESSAGE_TYPE_SERVER_STATE":       MessageTypeServerState,
		"MESSAGE_TYPE_GAME_EVENT":         MessageTypeGameEvent,
		"MESSAGE_TYPE_PLAYER_JOIN":        MessageTypePlayerJoin,
		"MESSAGE_TYPE_PLAYER_LEAVE":       MessageTypePlayerLeave,
		"MESSAGE_TYPE_PING":               MessageTypePing,
		"MESSAGE_TYPE_PONG":               MessageTypePong,
		"MESSAGE_TYPE_RECONNECT_REQUEST":  MessageTypeReconnectRequest,
		"MESSAGE_TYPE_RECONNECT_RESPONSE": MessageTypeReconnectResponse,
	}
	if len(schema.enums) != len(want) {
		t.Fatalf("enum has %d values, want %d", len(schema.enums), len(want))
	}
	for name, v := range schema.enums {
		got, ok := want[name]
		if !ok {
			t.Fatalf("enum value %s has no Go constant", name)
		}
		if int32(got) != v {
			t.Fatalf("%s = %d in proto, %d in Go", name, v, got)
		}
	}
}
