package server

import (
	"context"
	"testing"
	"time"

	"arenaball/internal/config"
	"arenaball/pkg/protocol"
)

func newTestRoomManager(t *testing.T) *RoomManager {
	t.Helper()
	m := NewRoomManager(context.Background(), config.DefaultServerConfig(), NewTokenIssuer("test", time.Minute))
	t.Cleanup(m.Shutdown)
	return m
}

func waitOnline(t *testing.T, room *Room, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for room.PlayerCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("PlayerCount = %d, want %d", room.PlayerCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCleanupKeepsRoomWithOfflinePlayer(t *testing.T) {
	m := newTestRoomManager(t)
	s := newFakeSession()
	if err := m.Join(s, JoinEvent{PlayerName: "a", RoomID: "r1"}); err != nil {
		t.Fatalf("Join: %v", err)
	}
	id := s.ID()
	room, ok := m.room("r1")
	if !ok {
		t.Fatalf("room r1 missing after join")
	}

	m.Leave(s)
	waitOnline(t, room, 0)
	if room.MemberCount() != 1 {
		t.Fatalf("MemberCount = %d, want 1", room.MemberCount())
	}

	m.cleanupEmptyRooms()
	if _, ok := m.room("r1"); !ok {
		t.Fatalf("room with a player inside the reconnect grace was cleaned")
	}

	fresh := newFakeSession()
	if err := m.Reconnect(fresh, id, "r1"); err != nil {
		t.Fatalf("Reconnect: %v", err)
	}
	resp, err := protocol.ParseReconnectResponse(waitPacket(t, fresh, ofType(protocol.MessageTypeReconnectResponse)))
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.PlayerID != id {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestCleanupRemovesEmptyRoom(t *testing.T) {
	m := newTestRoomManager(t)
	if _, err := m.getOrCreateRoom("r2"); err != nil {
		t.Fatalf("getOrCreateRoom: %v", err)
	}
	if _, err := m.getOrCreateRoom(DefaultRoomID); err != nil {
		t.Fatalf("getOrCreateRoom: %v", err)
	}

	m.cleanupEmptyRooms()
	if _, ok := m.room("r2"); ok {
		t.Fatalf("empty room r2 survived cleanup")
	}
	if _, ok := m.room(DefaultRoomID); !ok {
		t.Fatalf("default room was cleaned")
	}
}
