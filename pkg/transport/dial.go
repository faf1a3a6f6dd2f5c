package transport

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
)

const dialTimeout = 5 * time.Second

// Dial 按协议建立客户端连接，ws 协议下 path 为 HTTP 路径
func Dial(proto, addr, path string) (net.Conn, error) {
	switch proto {
	case "tcp":
		conn, err := net.DialTimeout("tcp", addr, dialTimeout)
		if err != nil {
			return nil, err
		}
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(true)
		}
		return conn, nil

	case "kcp":
		session, err := kcp.DialWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		session.SetStreamMode(true)
		session.SetNoDelay(1, 10, 2, 1)
		return session, nil

	case "ws":
		u := url.URL{Scheme: "ws", Host: addr, Path: path}
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = dialTimeout
		ws, _, err := dialer.Dial(u.String(), nil)
		if err != nil {
			return nil, err
		}
		return NewWSConn(ws), nil

	default:
		return nil, fmt.Errorf("不支持的协议: %s", proto)
	}
}
