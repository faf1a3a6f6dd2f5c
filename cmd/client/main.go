package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arenaball/internal/client"
	"arenaball/internal/config"
	"arenaball/pkg/core"
	"arenaball/pkg/log4gox"
	"arenaball/pkg/physics"

	l4g "github.com/alecthomas/log4go"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	configPath := flag.String("config", "", "XML 配置文件路径")
	address := flag.String("addr", "", "服务器地址")
	proto := flag.String("proto", "", "传输协议: tcp / kcp / ws")
	name := flag.String("name", "", "玩家名")
	room := flag.String("room", "", "房间 ID，空表示自动分配")
	headless := flag.Bool("headless", false, "无头模式，使用脚本输入")
	bot := flag.Bool("bot", false, "由机器人产生输入")
	duration := flag.String("duration", "", "无头模式运行时长，如 30s")
	smoothing := flag.String("smoothing", "", "远端平滑: disabled / linear / exponential")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
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
		case "name":
			cfg.PlayerName = *name
		case "room":
			cfg.RoomID = *room
		case "headless":
			cfg.Headless = *headless
		case "bot":
			cfg.Bot = *bot
		case "duration":
			cfg.Duration = *duration
		case "smoothing":
			cfg.Smoothing = *smoothing
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

	if err := run(cfg); err != nil {
		l4g.Error("客户端退出: %v", err)
		l4g.Close()
		os.Exit(1)
	}
	l4g.Close()
}

func run(cfg *config.ClientConfig) error {
	network := client.NewNetworkClient(cfg)
	if err := network.Connect(); err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}
	defer network.Close()

	join := network.JoinInfo()
	l4g.Info("已加入房间 %s，玩家 ID %d", join.RoomID, join.PlayerID)

	source, attach, err := inputSource(cfg, join.PlayerID)
	if err != nil {
		return err
	}
	session, err := client.NewGameSession(cfg, network, source)
	if err != nil {
		return err
	}
	if attach != nil {
		attach(session.Predictor().State)
	}

	if cfg.Headless {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return client.RunHeadless(ctx, session, int(join.TickRate), cfg.RunDuration())
	}

	game := client.NewNetworkGameClient(session)
	defer game.Close()

	w, h := client.ScreenSize(session.Layout())
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(fmt.Sprintf("Arenaball [%s] [%s]", cfg.PlayerName, cfg.Proto))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetTPS(int(join.TickRate))

	return ebiten.RunGame(game)
}

// inputSource 机器人需要在会话建立后绑定预测状态
func inputSource(cfg *config.ClientConfig, playerID int32) (client.InputSource, func(func() core.KinematicState), error) {
	switch {
	case cfg.Bot:
		bot, err := client.NewBotInput(physics.DefaultLayout(), &cfg.Movement, time.Now().UnixNano()+int64(playerID))
		if err != nil {
			return nil, nil, err
		}
		return bot, bot.Attach, nil
	case cfg.Headless:
		return client.NewScriptedInput(), nil, nil
	default:
		return client.NewKeyboardInput(), nil, nil
	}
}
