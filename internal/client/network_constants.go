package client

import "time"

// ===== 客户端网络与显示配置 =====
const (
	// 等待加入/重连响应的超时
	joinTimeout = 10 * time.Second

	// 客户端主动 ping 的间隔，用于 RTT 估计与保活
	pingInterval = time.Second

	// 读超时需大于服务器心跳间隔
	clientReadTimeout  = 10 * time.Second
	clientWriteTimeout = time.Second

	// 断线后自动重连次数
	maxReconnectAttempts = 3
	reconnectBackoff     = 500 * time.Millisecond

	// 俯视图每米像素数
	PixelsPerMeter = 20
	// 顶部 HUD 高度（像素）
	hudHeight = 64
)
