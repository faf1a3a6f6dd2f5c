package server

import (
	"context"
	"sync"
	"testing"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/protocol"
)

type fakeSession struct {
	mu      sync.Mutex
	id      int32
	room    string
	packets []*protocol.Packet
	closed  bool
}

func newFakeSession() *fakeSession { return &fakeSession{id: -1} }

func (s *fakeSession) ID() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *fakeSession) Send(data []byte) error {
	pkt, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.packets = append(s.packets, pkt)
	s.mu.Unlock()
	return nil
}

func (s *fakeSession) Close()               { s.CloseWithoutNotify() }
func (s *fakeSession) SetPlayerID(id int32) { s.mu.Lock(); s.id = id; s.mu.Unlock() }
func (s *fakeSession) SetRoomID(id string)  { s.mu.Lock(); s.room = id; s.mu.Unlock() }

func (s *fakeSession) CloseWithoutNotify() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSession) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// find 返回第一个满足条件的包
func (s *fakeSession) find(match func(*protocol.Packet) bool) *protocol.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.packets {
		if match(p) {
			return p
		}
	}
	return nil
}

func waitPacket(t *testing.T, s *fakeSession, match func(*protocol.Packet) bool) *protocol.Packet {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p := s.find(match); p != nil {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for packet")
	return nil
}

func ofType(typ protocol.MessageType) func(*protocol.Packet) bool {
	return func(p *protocol.Packet) bool { return p.Type == typ }
}

func startRoom(t *testing.T) (*Room, *TokenIssuer) {
	t.Helper()
	cfg := config.DefaultServerConfig()
	tokens := NewTokenIssuer("test", time.Minute)
	room := NewRoom(context.Background(), "test", cfg, tokens)

	var wg sync.WaitGroup
	wg.Add(1)
	go room.Run(&wg)
	t.Cleanup(func() {
		room.Shutdown()
		wg.Wait()
	})
	return room, tokens
}

func TestRoomJoinSendsSpawnAndToken(t *testing.T) {
	room, tokens := startRoom(t)
	s := newFakeSession()

	if err := room.Join(s, JoinEvent{PlayerName: "alice"}); err != nil {
		t.Fatalf("Join: %v", err)
	}

	pkt := waitPacket(t, s, ofType(protocol.MessageTypeJoinResponse))
	resp, err := protocol.ParseJoinResponse(pkt)
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.PlayerID != s.ID() || resp.RoomID != "test" {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.TickRate != core.TickRate {
		t.Fatalf("TickRate = %d, want %d", resp.TickRate, core.TickRate)
	}
	id, roomID, err := tokens.Verify(resp.SessionToken)
	if err != nil || id != resp.PlayerID || roomID != "test" {
		t.Fatalf("token = (%d, %q, %v)", id, roomID, err)
	}
}

func TestRoomBroadcastsSnapshotsToEveryone(t *testing.T) {
	room, _ := startRoom(t)
	a, b := newFakeSession(), newFakeSession()
	if err := room.Join(a, JoinEvent{PlayerName: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := room.Join(b, JoinEvent{PlayerName: "b"}); err != nil {
		t.Fatal(err)
	}

	// a 会收到 b 的加入广播
	waitPacket(t, a, ofType(protocol.MessageTypePlayerJoin))

	resp, _ := protocol.ParseJoinResponse(waitPacket(t, a, ofType(protocol.MessageTypeJoinResponse)))
	tick := core.Tick(resp.ServerTick) + 1
	room.EnqueueInput(InputEvent{
		PlayerID: a.ID(),
		RoomID:   "test",
		Inputs:   []core.InputSample{core.NewInputSample(tick, core.Vec2{Y: 1}, core.Vec2{}, false)},
	})

	hasSnapshot := func(p *protocol.Packet) bool {
		if p.Type != protocol.MessageTypeServerState {
			return false
		}
		st, err := protocol.ParseServerState(p)
		if err != nil {
			return false
		}
		for _, snap := range st.Snapshots {
			if snap.PlayerID == a.ID() && core.Tick(snap.State.Tick) == tick {
				return true
			}
		}
		return false
	}
	// 发送者与其他玩家都收到权威快照
	waitPacket(t, a, hasSnapshot)
	waitPacket(t, b, hasSnapshot)
}

func TestRoomReconnectRebindsPlayer(t *testing.T) {
	room, _ := startRoom(t)
	old := newFakeSession()
	if err := room.Join(old, JoinEvent{PlayerName: "a"}); err != nil {
		t.Fatal(err)
	}
	id := old.ID()

	room.Leave(id, old)

	fresh := newFakeSession()
	if err := room.Reconnect(fresh, id); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	resp, err := protocol.ParseReconnectResponse(waitPacket(t, fresh, ofType(protocol.MessageTypeReconnectResponse)))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.PlayerID != id || fresh.ID() != id {
		t.Fatalf("resp = %+v, session id %d", resp, fresh.ID())
	}

	// 旧连接迟到的断开通知不影响新连接
	room.Leave(id, old)
	if err := room.Reconnect(newFakeSession(), 999); err == nil {
		t.Fatalf("reconnect to unknown player accepted")
	}
	if room.PlayerCount() != 1 {
		t.Fatalf("PlayerCount = %d, want 1", room.PlayerCount())
	}
}

func TestRoomRejectsWhenFull(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.MaxPlayers = 1
	room := NewRoom(context.Background(), "full", cfg, NewTokenIssuer("k", time.Minute))
	var wg sync.WaitGroup
	wg.Add(1)
	go room.Run(&wg)
	defer func() {
		room.Shutdown()
		wg.Wait()
	}()

	if err := room.Join(newFakeSession(), JoinEvent{}); err != nil {
		t.Fatal(err)
	}
	if err := room.Join(newFakeSession(), JoinEvent{}); err == nil {
		t.Fatalf("second join accepted")
	}
}
