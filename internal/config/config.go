package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"arenaball/pkg/core"
	"arenaball/pkg/log4gox"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig 配置不合法
var ErrInvalidConfig = errors.New("配置不合法")

// 服务器输入处理顺序
const (
	OrderingArrival = "arrival" // 按到达顺序（默认）
	OrderingTick    = "tick"    // 每次排空前按 tick 排序
)

// 远端平滑模式
const (
	SmoothingDisabled    = "disabled"
	SmoothingLinear      = "linear"
	SmoothingExponential = "exponential"
)

// 开发环境默认密钥，生产环境应设置 JWT_SECRET
const devJWTSecret = "arenaball-dev-secret-change-in-production"

// ServerConfig 服务器配置
type ServerConfig struct {
	XMLName xml.Name `xml:"server"`

	Addr   string `xml:"addr"`
	Proto  string `xml:"proto"`   // tcp / kcp / ws
	WSPath string `xml:"ws_path"` // ws 协议的 HTTP 路径

	TickRate   int `xml:"tick_rate"`
	MaxPlayers int `xml:"max_players"`
	MaxRooms   int `xml:"max_rooms"`
	Workers    int `xml:"workers"` // 单房间 tick 内并行处理玩家的协程数

	InputRateLimit float64 `xml:"input_rate_limit"` // 每秒输入包数
	InputBurst     int     `xml:"input_burst"`
	InputOrdering  string  `xml:"input_ordering"`

	SessionTTL string `xml:"session_ttl"`
	JWTSecret  string `xml:"-"`

	LogLevel string `xml:"log_level"`
	LogColor bool   `xml:"log_color"`

	Movement core.MovementConfig `xml:"movement"`
}

// ClientConfig 客户端配置
type ClientConfig struct {
	XMLName xml.Name `xml:"client"`

	Addr       string `xml:"addr"`
	Proto      string `xml:"proto"`
	WSPath     string `xml:"ws_path"`
	PlayerName string `xml:"player_name"`
	RoomID     string `xml:"room_id"`

	Smoothing      string  `xml:"smoothing"`
	SmoothingDecay float64 `xml:"smoothing_decay"`
	SmoothingSpeed float64 `xml:"smoothing_speed"`

	ReconcileThreshold float64 `xml:"reconcile_threshold"`
	CorrectionDuration float64 `xml:"correction_duration"` // 秒

	Headless bool   `xml:"headless"`
	Bot      bool   `xml:"bot"`      // 由机器人而不是键盘或脚本产生输入
	Duration string `xml:"duration"` // 无头模式运行时长，空表示一直运行

	LogLevel string `xml:"log_level"`
	LogColor bool   `xml:"log_color"`

	Movement core.MovementConfig `xml:"movement"`
}

// DefaultServerConfig 服务器默认配置
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:           ":8080",
		Proto:          "tcp",
		WSPath:         "/ws",
		TickRate:       core.TickRate,
		MaxPlayers:     8,
		MaxRooms:       100,
		Workers:        4,
		InputRateLimit: core.TickRate * 2,
		InputBurst:     core.TickRate,
		InputOrdering:  OrderingArrival,
		SessionTTL:     "5m",
		JWTSecret:      devJWTSecret,
		LogLevel:       "info",
		LogColor:       true,
		Movement:       core.DefaultMovementConfig(),
	}
}

// DefaultClientConfig 客户端默认配置
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Addr:               "127.0.0.1:8080",
		Proto:              "tcp",
		WSPath:             "/ws",
		PlayerName:         "player",
		Smoothing:          SmoothingLinear,
		SmoothingDecay:     0.01,
		SmoothingSpeed:     1,
		ReconcileThreshold: core.DefaultReconcileThreshold,
		CorrectionDuration: 0.15,
		LogLevel:           "info",
		LogColor:           true,
		Movement:           core.DefaultMovementConfig(),
	}
}

// LoadServer 默认值 -> XML 文件 -> .env -> 环境变量，最后校验
func LoadServer(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadXML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("ARENA_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ARENA_PROTO"); v != "" {
		cfg.Proto = v
	}
	if v := os.Getenv("ARENA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ARENA_TICK_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: ARENA_TICK_RATE=%q", ErrInvalidConfig, v)
		}
		cfg.TickRate = n
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadClient 同 LoadServer
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadXML(path, cfg); err != nil {
		return nil, err
	}
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if v := os.Getenv("ARENA_SERVER"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("ARENA_PROTO"); v != "" {
		cfg.Proto = v
	}
	if v := os.Getenv("ARENA_PLAYER_NAME"); v != "" {
		cfg.PlayerName = v
	}
	if v := os.Getenv("ARENA_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadXML(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}
	if err := xml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return nil
}

// loadDotEnv 当前目录存在 .env 时加载，已有的环境变量不会被覆盖
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 .env 失败: %w", err)
	}
	return nil
}

func validProto(p string) bool {
	switch p {
	case "tcp", "kcp", "ws":
		return true
	}
	return false
}

// TickDuration 每个 tick 的时长
func (c *ServerConfig) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// SessionTTLDuration 会话有效期
func (c *ServerConfig) SessionTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.SessionTTL)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

// Validate 校验服务器配置
func (c *ServerConfig) Validate() error {
	if !validProto(c.Proto) {
		return fmt.Errorf("%w: 不支持的协议 %q", ErrInvalidConfig, c.Proto)
	}
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("%w: tick_rate=%d", ErrInvalidConfig, c.TickRate)
	}
	if c.MaxPlayers <= 0 || c.MaxRooms <= 0 {
		return fmt.Errorf("%w: max_players=%d max_rooms=%d", ErrInvalidConfig, c.MaxPlayers, c.MaxRooms)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers=%d", ErrInvalidConfig, c.Workers)
	}
	if c.InputRateLimit <= 0 || c.InputBurst <= 0 {
		return fmt.Errorf("%w: input_rate_limit=%v input_burst=%d", ErrInvalidConfig, c.InputRateLimit, c.InputBurst)
	}
	switch c.InputOrdering {
	case OrderingArrival, OrderingTick:
	default:
		return fmt.Errorf("%w: input_ordering=%q", ErrInvalidConfig, c.InputOrdering)
	}
	if d, err := time.ParseDuration(c.SessionTTL); err != nil || d <= 0 {
		return fmt.Errorf("%w: session_ttl=%q", ErrInvalidConfig, c.SessionTTL)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("%w: JWT 密钥为空", ErrInvalidConfig)
	}
	if _, err := log4gox.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := c.Movement.Validate(1 / float64(c.TickRate)); err != nil {
		return err
	}
	return nil
}

// UsesDevSecret 是否仍在使用开发密钥
func (c *ServerConfig) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// RunDuration 无头模式运行时长，0 表示不限
func (c *ClientConfig) RunDuration() time.Duration {
	d, _ := time.ParseDuration(c.Duration)
	return d
}

// Validate 校验客户端配置
func (c *ClientConfig) Validate() error {
	if !validProto(c.Proto) {
		return fmt.Errorf("%w: 不支持的协议 %q", ErrInvalidConfig, c.Proto)
	}
	switch c.Smoothing {
	case SmoothingDisabled, SmoothingLinear:
	case SmoothingExponential:
		if !(c.SmoothingDecay > 0 && c.SmoothingDecay < 1) || !(c.SmoothingSpeed > 0) {
			return fmt.Errorf("%w: 指数平滑需要 0<decay<1 且 speed>0", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: smoothing=%q", ErrInvalidConfig, c.Smoothing)
	}
	if !(c.ReconcileThreshold >= 0) {
		return fmt.Errorf("%w: reconcile_threshold=%v", ErrInvalidConfig, c.ReconcileThreshold)
	}
	if !(c.CorrectionDuration >= 0) {
		return fmt.Errorf("%w: correction_duration=%v", ErrInvalidConfig, c.CorrectionDuration)
	}
	if c.Duration != "" {
		if _, err := time.ParseDuration(c.Duration); err != nil {
			return fmt.Errorf("%w: duration=%q", ErrInvalidConfig, c.Duration)
		}
	}
	if _, err := log4gox.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return c.Movement.Validate(core.FixedDeltaTime)
}
