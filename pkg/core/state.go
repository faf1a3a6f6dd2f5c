package core

// WallSide 贴墙跑的墙体方位
type WallSide int8

const (
	WallNone WallSide = iota
	WallLeft
	WallRight
)

func (s WallSide) String() string {
	switch s {
	case WallLeft:
		return "left"
	case WallRight:
		return "right"
	}
	return "none"
}

// KinematicState 单个 tick 结束时的运动学状态，创建后不再修改
type KinematicState struct {
	Tick        Tick
	Position    Vec3
	Orientation Quat
	Velocity    Vec3
	Grounded    bool

	// 重放所需的计时器与贴墙状态
	JumpCooldown    float64
	WallRunCooldown float64
	WallSide        WallSide
	WallNormal      Vec3
}

// SpawnState 出生点状态，着地标志由 phys 在 pos 处的接触法线决定。
// phys 为 nil 时视为未着地。
func SpawnState(phys Physics, tick Tick, pos Vec3, yaw float64) KinematicState {
	s := KinematicState{
		Tick:        tick,
		Position:    pos,
		Orientation: QuatFromYaw(yaw),
	}
	if phys != nil {
		s.Grounded = IsGrounded(phys.ContactNormals(pos))
	}
	return s
}

// IsMoving 水平速度是否明显非零
func (s KinematicState) IsMoving() bool {
	return s.Velocity.Horizontal().Len() > 0.01
}

// IsWallRunning 是否正在贴墙跑
func (s KinematicState) IsWallRunning() bool {
	return s.WallSide != WallNone
}

// HorizontalSpeed 水平速度大小
func (s KinematicState) HorizontalSpeed() float64 {
	return s.Velocity.Horizontal().Len()
}
