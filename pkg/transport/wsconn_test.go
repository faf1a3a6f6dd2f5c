package transport

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"arenaball/pkg/protocol"

	"github.com/gorilla/websocket"
)

// 服务端把收到的帧拆成两条 websocket 消息原样发回
func splitEchoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		conn := NewWSConn(ws)
		defer conn.Close()

		for {
			data, err := protocol.ReadFrame(conn)
			if err != nil {
				return
			}
			var frame bytes.Buffer
			_ = protocol.WriteFrame(&frame, data)
			raw := frame.Bytes()
			_ = ws.WriteMessage(websocket.TextMessage, []byte("ignored"))
			if _, err := conn.Write(raw[:3]); err != nil {
				return
			}
			if _, err := conn.Write(raw[3:]); err != nil {
				return
			}
		}
	}))
}

func TestWSConnCarriesFramesAcrossMessages(t *testing.T) {
	srv := splitEchoServer(t)
	defer srv.Close()

	conn, err := Dial("ws", strings.TrimPrefix(srv.URL, "http://"), "/ws")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	for _, msg := range [][]byte{[]byte("hello"), bytes.Repeat([]byte{0xab}, 1000)} {
		if err := protocol.WriteFrame(conn, msg); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
		got, err := protocol.ReadFrame(conn)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if !bytes.Equal(got, msg) {
			t.Fatalf("echo = %q, want %q", got, msg)
		}
	}
}

func TestDialRejectsUnknownProto(t *testing.T) {
	if _, err := Dial("quic", "127.0.0.1:1", ""); err == nil {
		t.Fatalf("unknown proto accepted")
	}
}
