package physics

import (
	"errors"
	"fmt"

	"arenaball/pkg/core"
)

// ErrInvalidLayout 场地布局不合法
var ErrInvalidLayout = errors.New("场地布局不合法")

// Rect 水平面上的矩形（X 向右，Z 向前）
type Rect struct {
	X float64
	Z float64
	W float64
	D float64
}

// Contains 点是否在矩形内
func (r Rect) Contains(x, z float64) bool {
	return x >= r.X && x <= r.X+r.W && z >= r.Z && z <= r.Z+r.D
}

// Layout 场地布局：地面高度为 FloorY，墙体无限高
type Layout struct {
	Width  float64
	Depth  float64
	FloorY float64
	Walls  []Rect
	Spawns []core.Vec3
}

// 默认场地尺寸（米）
const (
	DefaultArenaWidth = 48
	DefaultArenaDepth = 32
	wallThickness     = 1
	DefaultBodyRadius = 0.4
	groundEpsilon     = 1e-6
	contactSkin       = 0.01
)

// DefaultLayout 带围墙的矩形球场，中场两侧各一段可贴墙跑的墙
func DefaultLayout() Layout {
	w, d := float64(DefaultArenaWidth), float64(DefaultArenaDepth)
	return Layout{
		Width:  w,
		Depth:  d,
		FloorY: 0,
		Walls: []Rect{
			{X: 0, Z: 0, W: w, D: wallThickness},                 // 下边界
			{X: 0, Z: d - wallThickness, W: w, D: wallThickness}, // 上边界
			{X: 0, Z: 0, W: wallThickness, D: d},                 // 左边界
			{X: w - wallThickness, Z: 0, W: wallThickness, D: d}, // 右边界
			{X: w/2 - 0.5, Z: 6, W: 1, D: 6},                     // 中场墙（南）
			{X: w/2 - 0.5, Z: d - 12, W: 1, D: 6},                // 中场墙（北）
		},
		Spawns: []core.Vec3{
			{X: 6, Z: 6},
			{X: w - 6, Z: d - 6},
			{X: 6, Z: d - 6},
			{X: w - 6, Z: 6},
		},
	}
}

// Validate 校验布局
func (l Layout) Validate() error {
	if !(l.Width > 0) || !(l.Depth > 0) {
		return fmt.Errorf("%w: 尺寸 %.1fx%.1f", ErrInvalidLayout, l.Width, l.Depth)
	}
	for i, r := range l.Walls {
		if !(r.W > 0) || !(r.D > 0) {
			return fmt.Errorf("%w: 第 %d 面墙尺寸非法", ErrInvalidLayout, i)
		}
	}
	return nil
}

// SpawnPoint 按玩家序号取出生点
func (l Layout) SpawnPoint(index int) core.Vec3 {
	if len(l.Spawns) == 0 {
		return core.Vec3{X: l.Width / 2, Y: l.FloorY, Z: l.Depth / 2}
	}
	if index < 0 {
		index = -index
	}
	p := l.Spawns[index%len(l.Spawns)]
	p.Y = l.FloorY
	return p
}
