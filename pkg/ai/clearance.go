package ai

import (
	"math"
	"math/rand"

	"arenaball/pkg/core"
)

// 以当前朝向为 0 号，顺时针等分
const clearanceHeadings = 8

const (
	headingRight = clearanceHeadings / 4
	headingLeft  = clearanceHeadings * 3 / 4
)

// Clearance 各方向到最近墙体的距离，超过探测距离记为 Max
type Clearance struct {
	Yaw  float64
	Max  float64
	Dist [clearanceHeadings]float64
}

func headingYaw(base float64, i int) float64 {
	return base + float64(i)*2*math.Pi/clearanceHeadings
}

func (c *Clearance) Update(sensor Sensor, pos core.Vec3, yaw, maxDist float64) {
	c.Yaw = yaw
	c.Max = maxDist
	for i := range c.Dist {
		h := headingYaw(yaw, i)
		dir := core.Vec3{X: math.Sin(h), Z: math.Cos(h)}
		c.Dist[i] = maxDist
		if hit, ok := sensor.Raycast(pos, dir, maxDist); ok {
			c.Dist[i] = hit.Distance
		}
	}
}

// Ahead 正前方的距离
func (c *Clearance) Ahead() float64 { return c.Dist[0] }

// Side 较近一侧的墙，都不在探测范围内时返回 WallNone
func (c *Clearance) Side() (core.WallSide, float64) {
	l, r := c.Dist[headingLeft], c.Dist[headingRight]
	switch {
	case l >= c.Max && r >= c.Max:
		return core.WallNone, c.Max
	case l <= r:
		return core.WallLeft, l
	default:
		return core.WallRight, r
	}
}

// Open 距离达到 minDist 的方向（世界偏航角）
func (c *Clearance) Open(minDist float64) []float64 {
	out := make([]float64, 0, clearanceHeadings)
	for i, d := range c.Dist {
		if d >= minDist {
			out = append(out, headingYaw(c.Yaw, i))
		}
	}
	return out
}

// Widest 最空旷的方向，并列时随机选
func (c *Clearance) Widest(rng *rand.Rand) float64 {
	best := -1.0
	var ties []int
	for i, d := range c.Dist {
		switch {
		case d > best:
			best = d
			ties = append(ties[:0], i)
		case d == best:
			ties = append(ties, i)
		}
	}
	return headingYaw(c.Yaw, ties[rng.Intn(len(ties))])
}
