package ai

// BotConfig 机器人的行为参数
type BotConfig struct {
	// ThinkIntervalTicks 两次决策之间的 tick 数，前方突然被挡时会提前决策
	ThinkIntervalTicks int

	// MistakeRate 每次决策随机失误的概率 (0.0-1.0)
	MistakeRate float64

	// LookAhead 探测墙体的射线长度（米）
	LookAhead float64

	// WanderTicks 游荡时保持同一方向的 tick 数
	WanderTicks int

	// JumpChance 每次决策时随机起跳的概率
	JumpChance float64

	// SeekWallRun 侧面贴墙时主动起跳尝试贴墙跑
	SeekWallRun bool
}

// 预设配置：普通
var BotConfigNormal = BotConfig{
	ThinkIntervalTicks: 30, // 0.5s
	MistakeRate:        0.05,
	LookAhead:          4,
	WanderTicks:        120,
	JumpChance:         0.1,
	SeekWallRun:        false,
}

// 预设配置：跑酷，频繁贴墙跑
var BotConfigParkour = BotConfig{
	ThinkIntervalTicks: 10,
	MistakeRate:        0,
	LookAhead:          6,
	WanderTicks:        90,
	JumpChance:         0.2,
	SeekWallRun:        true,
}
