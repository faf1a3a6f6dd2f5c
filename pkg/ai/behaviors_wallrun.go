package ai

import (
	"math"

	"arenaball/pkg/ai/bt"
	"arenaball/pkg/core"
)

const (
	wallRunMaxSideDist = 1.5          // 侧墙在此距离内才尝试
	wallRunMinSpeed    = 3.0          // 水平速度（米/秒）
	wallRunLean        = math.Pi / 12 // 起跳时向墙偏转的角度
)

func condCanSeekWallRun(bb *Blackboard) bool {
	if !bb.Config.SeekWallRun || !bb.State.Grounded || bb.State.IsWallRunning() {
		return false
	}
	if bb.State.HorizontalSpeed() < wallRunMinSpeed || isBlocked(bb.Clearance) {
		return false
	}
	side, dist := bb.Clearance.Side()
	return side != core.WallNone && dist <= wallRunMaxSideDist
}

// actJumpOntoWall 略微偏向侧墙并起跳
func actJumpOntoWall(bb *Blackboard) bt.Status {
	side, _ := bb.Clearance.Side()
	lean := wallRunLean
	if side == core.WallLeft {
		lean = -lean
	}
	bb.TargetYaw = bb.Clearance.Yaw + lean
	bb.Jump = true
	return bt.StatusSuccess
}
