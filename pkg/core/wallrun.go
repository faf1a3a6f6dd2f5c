package core

import "math"

// updateWallRun 贴墙跑状态机：着地清除，离墙结束，冷却结束后可重新贴墙
func updateWallRun(cfg *MovementConfig, phys Physics, s *KinematicState, vel Vec3, grounded bool, ev *Events) Vec3 {
	if grounded {
		if s.WallSide != WallNone {
			ev.WallRunEnded = true
		}
		s.WallSide = WallNone
		s.WallNormal = Vec3{}
		return vel
	}

	if s.WallRunCooldown > 0 {
		return vel
	}

	right := s.Orientation.Right().Horizontal().Normalized()
	was := s.WallSide

	side := WallNone
	var hit Hit
	if h, ok := phys.Raycast(s.Position, right, cfg.WallCheckDistance); ok {
		side, hit = WallRight, h
	} else if h, ok := phys.Raycast(s.Position, right.Scale(-1), cfg.WallCheckDistance); ok {
		side, hit = WallLeft, h
	}

	if side == WallNone {
		if was != WallNone {
			ev.WallRunEnded = true
		}
		s.WallSide = WallNone
		s.WallNormal = Vec3{}
		return vel
	}

	s.WallSide = side
	s.WallNormal = hit.Normal
	if was == side {
		return vel
	}

	// 刚贴上墙：沿墙方向的初始冲量
	along := hit.Normal.Cross(Up)
	if side == WallRight {
		along = along.Scale(-1)
	}
	ev.WallRunStarted = true
	return vel.Add(along.Scale(cfg.WallRunImpulse))
}

// wallJump 蹬墙跳：清除法线方向速度，叠加向上、离墙和向前的速度
func wallJump(cfg *MovementConfig, s *KinematicState, vel Vec3) Vec3 {
	n := s.WallNormal
	vel.Y = 0
	vel = vel.Sub(vel.Project(n))

	up := Up.Scale(math.Sqrt(2 * -cfg.Gravity * cfg.WallJumpHeight))
	side := n.Scale(cfg.WallJumpSideForce)
	forward := s.Orientation.Forward().Horizontal().Normalized().Scale(cfg.WallJumpForwardForce)

	s.WallSide = WallNone
	s.WallNormal = Vec3{}
	s.WallRunCooldown = cfg.WallRunCooldown
	return vel.Add(up).Add(side).Add(forward)
}
