package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"arenaball/internal/config"
	"arenaball/internal/server"
	"arenaball/pkg/log4gox"

	l4g "github.com/alecthomas/log4go"
)

func main() {
	// 命令行参数，显式给出的覆盖配置文件
	configPath := flag.String("config", "", "XML 配置文件路径")
	address := flag.String("addr", "", "服务器监听地址")
	proto := flag.String("proto", "", "传输协议: tcp / kcp / ws")
	logLevel := flag.String("log", "", "日志级别")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *address
		case "proto":
			cfg.Proto = *proto
		case "log":
			cfg.LogLevel = *logLevel
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置不合法: %v\n", err)
		os.Exit(1)
	}
	if err := log4gox.Setup(cfg.LogLevel, cfg.LogColor); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer l4g.Close()

	if cfg.UsesDevSecret() {
		l4g.Warn("未设置 JWT_SECRET，正在使用开发密钥")
	}

	gameServer := server.NewGameServer(cfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()

	l4g.Info("========================================")
	l4g.Info("  Arenaball 联机服务器")
	l4g.Info("========================================")
	l4g.Info("监听地址: %s (%s)", cfg.Addr, cfg.Proto)
	l4g.Info("每房间最大玩家数: %d", cfg.MaxPlayers)
	l4g.Info("服务器 TPS: %d", cfg.TickRate)
	l4g.Info("输入顺序: %s", cfg.InputOrdering)
	l4g.Info("========================================")
	l4g.Info("按 Ctrl+C 停止服务器")

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		l4g.Info("正在关闭服务器...")
		gameServer.Shutdown()
		<-errCh
	case err := <-errCh:
		if err != nil {
			l4g.Error("服务器启动失败: %v", err)
			l4g.Close()
			os.Exit(1)
		}
	}

	l4g.Info("服务器已关闭，再见！")
}
