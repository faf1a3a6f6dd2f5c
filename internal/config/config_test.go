package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"arenaball/pkg/core"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := DefaultServerConfig().Validate(); err != nil {
		t.Fatalf("server defaults: %v", err)
	}
	if err := DefaultClientConfig().Validate(); err != nil {
		t.Fatalf("client defaults: %v", err)
	}
}

func TestLoadServerXMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.xml")
	data := `<server>
  <addr>:9000</addr>
  <proto>kcp</proto>
  <input_ordering>tick</input_ordering>
  <movement><MaxSpeed>12</MaxSpeed></movement>
</server>`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadServer(path)
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.Proto != "kcp" || cfg.InputOrdering != OrderingTick {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Movement.MaxSpeed != 12 {
		t.Fatalf("MaxSpeed = %v, want 12", cfg.Movement.MaxSpeed)
	}
	// 未出现在文件中的字段保持默认值
	if cfg.Movement.Acceleration != core.DefaultMovementConfig().Acceleration {
		t.Fatalf("Acceleration = %v, want default", cfg.Movement.Acceleration)
	}
	if cfg.JWTSecret != "test-secret" || cfg.UsesDevSecret() {
		t.Fatalf("JWT secret not taken from env")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []func(*ServerConfig){
		func(c *ServerConfig) { c.Proto = "udp" },
		func(c *ServerConfig) { c.TickRate = 0 },
		func(c *ServerConfig) { c.InputOrdering = "random" },
		func(c *ServerConfig) { c.SessionTTL = "soon" },
		func(c *ServerConfig) { c.Movement.Acceleration = 1e7 },
	}
	for i, mutate := range cases {
		cfg := DefaultServerConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: invalid config accepted", i)
		}
	}

	c := DefaultClientConfig()
	c.Smoothing = SmoothingExponential
	c.SmoothingDecay = 1.5
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err = %v, want ErrInvalidConfig", err)
	}
}
