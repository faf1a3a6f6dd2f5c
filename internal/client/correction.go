package client

import (
	"arenaball/pkg/core"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// CorrectionSmoother 校正后的视觉偏移衰减。只影响显示位置，物理状态不做平滑。
type CorrectionSmoother struct {
	duration float32
	offset   core.Vec3
	tween    *gween.Tween
	weight   float32
}

// NewCorrectionSmoother duration 为秒，<=0 时校正直接生效
func NewCorrectionSmoother(duration float64) *CorrectionSmoother {
	return &CorrectionSmoother{duration: float32(duration)}
}

// Start 记录一次校正，未衰减完的偏移会被累加
func (c *CorrectionSmoother) Start(before, after core.Vec3) {
	if c.duration <= 0 {
		return
	}
	c.offset = c.Offset().Add(before.Sub(after))
	c.weight = 1
	c.tween = gween.New(1, 0, c.duration, ease.OutQuad)
}

// Update 推进 dt 秒，返回当前偏移
func (c *CorrectionSmoother) Update(dt float64) core.Vec3 {
	if c.tween == nil {
		return core.Vec3{}
	}
	w, done := c.tween.Update(float32(dt))
	c.weight = w
	if done {
		c.tween = nil
		c.weight = 0
		c.offset = core.Vec3{}
	}
	return c.Offset()
}

// Offset 显示位置 = 物理位置 + Offset
func (c *CorrectionSmoother) Offset() core.Vec3 {
	if c.tween == nil {
		return core.Vec3{}
	}
	return c.offset.Scale(float64(c.weight))
}

// Active 是否仍在衰减
func (c *CorrectionSmoother) Active() bool { return c.tween != nil }
