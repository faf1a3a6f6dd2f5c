package client

import (
	"context"
	"time"

	l4g "github.com/alecthomas/log4go"
)

const summaryInterval = 5 * time.Second

// RunHeadless 不开窗口，按 tick 率驱动会话，直到 ctx 结束或超过 duration（0 表示不限）
func RunHeadless(ctx context.Context, session *GameSession, tickRate int, duration time.Duration) error {
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()
	summary := time.NewTicker(summaryInterval)
	defer summary.Stop()

	l4g.Info("[headless] 无头模式启动: %d TPS", tickRate)
	for {
		select {
		case <-ctx.Done():
			l4g.Info("[headless] 结束: %s", session.Summary())
			return nil
		case now := <-ticker.C:
			if err := session.Update(now); err != nil {
				return err
			}
		case <-summary.C:
			l4g.Info("[headless] %s", session.Summary())
		}
	}
}
