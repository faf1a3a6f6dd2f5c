package ai

import "arenaball/pkg/ai/bt"

func actWander(bb *Blackboard) bt.Status {
	if bb.RNG == nil {
		return bt.StatusFailure
	}

	if bb.Config.JumpChance > 0 && bb.State.Grounded && bb.RNG.Float64() < bb.Config.JumpChance {
		bb.Jump = true
	}

	// 方向未超时，继续保持
	if bb.WanderTicks > 0 {
		return bt.StatusRunning
	}

	// 选择一个开阔的方向
	open := bb.Clearance.Open(bb.Clearance.Max)
	if len(open) == 0 {
		bb.TargetYaw = bb.Clearance.Widest(bb.RNG)
	} else {
		bb.TargetYaw = open[bb.RNG.Intn(len(open))]
	}
	bb.WanderTicks = bb.Config.WanderTicks
	return bt.StatusRunning
}
