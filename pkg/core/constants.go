package core

// 模拟帧率
const (
	TickRate       = 60
	FixedDeltaTime = 1.0 / TickRate
)

// DeltaTime tick 率对应的模拟步长，非正数按默认 tick 率
func DeltaTime(tickRate int) float64 {
	if tickRate <= 0 {
		return FixedDeltaTime
	}
	return 1 / float64(tickRate)
}

// 缓冲区配置
const (
	// BufferSize 输入/状态环形缓冲区容量（按 tick 取模）
	BufferSize = 1024
)

// 地面判定与和解
const (
	// GroundNormalThreshold 接触法线与世界上方向的点积超过该值视为着地
	GroundNormalThreshold = 0.5

	// DefaultReconcileThreshold 位置误差阈值（米），不超过时不做纠正
	DefaultReconcileThreshold = 0.001

	// StandardGravity 引擎基础重力加速度（Y 轴向上为正）
	StandardGravity = -9.81
)
