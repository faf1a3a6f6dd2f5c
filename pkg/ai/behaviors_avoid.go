package ai

import "arenaball/pkg/ai/bt"

// 前方距离低于探测距离的这个比例视为被挡
const blockedRatio = 0.5

func isBlocked(c *Clearance) bool {
	return c.Ahead() < c.Max*blockedRatio
}

func condBlockedAhead(bb *Blackboard) bool {
	return isBlocked(bb.Clearance)
}

// actTurnToOpen 转向最空旷的方向，并重新开始游荡计时
func actTurnToOpen(bb *Blackboard) bt.Status {
	bb.TargetYaw = bb.Clearance.Widest(bb.RNG)
	bb.WanderTicks = bb.Config.WanderTicks
	return bt.StatusRunning
}
