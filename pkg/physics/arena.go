package physics

import (
	"math"

	"arenaball/pkg/core"

	"github.com/solarlune/resolv"
)

const (
	tagWall = "wall"
	tagBody = "body"
)

// Arena 无头场地物理：解析积分 + 平地 + resolv 墙体碰撞。
// 每个实例持有自己的空间与角色碰撞体，不能在多个 goroutine 间共享。
type Arena struct {
	layout Layout
	radius float64
	space  *resolv.Space
	walls  []*resolv.Object
	body   *resolv.Object
}

var _ core.Physics = (*Arena)(nil)

// NewArena 按布局创建场地
func NewArena(layout Layout) (*Arena, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	space := resolv.NewSpace(int(math.Ceil(layout.Width)), int(math.Ceil(layout.Depth)), 1, 1)

	a := &Arena{
		layout: layout,
		radius: DefaultBodyRadius,
		space:  space,
	}
	for _, r := range layout.Walls {
		obj := resolv.NewObject(r.X, r.Z, r.W, r.D, tagWall)
		obj.SetShape(resolv.NewRectangle(0, 0, r.W, r.D))
		space.Add(obj)
		a.walls = append(a.walls, obj)
	}

	size := a.radius * 2
	a.body = resolv.NewObject(0, 0, size, size, tagBody)
	a.body.SetShape(resolv.NewRectangle(0, 0, size, size))
	space.Add(a.body)

	return a, nil
}

// Layout 返回场地布局
func (a *Arena) Layout() Layout {
	return a.layout
}

func (a *Arena) placeBody(x, z float64) {
	a.body.X = x - a.radius
	a.body.Y = z - a.radius
	a.body.Update()
}

// ContactNormals 地面法线与贴身墙体法线
func (a *Arena) ContactNormals(pos core.Vec3) []core.Vec3 {
	var normals []core.Vec3
	if pos.Y <= a.layout.FloorY+groundEpsilon {
		normals = append(normals, core.Up)
	}

	a.placeBody(pos.X, pos.Z)
	probes := []struct {
		dx, dz float64
		n      core.Vec3
	}{
		{contactSkin, 0, core.Vec3{X: -1}},
		{-contactSkin, 0, core.Vec3{X: 1}},
		{0, contactSkin, core.Vec3{Z: -1}},
		{0, -contactSkin, core.Vec3{Z: 1}},
	}
	for _, p := range probes {
		if a.blocked(p.dx, p.dz) {
			normals = append(normals, p.n)
		}
	}
	return normals
}

// blocked 碰撞体按 (dx, dz) 平移后是否与墙重叠
func (a *Arena) blocked(dx, dz float64) bool {
	check := a.body.Check(dx, dz, tagWall)
	if check == nil {
		return false
	}
	minX, minZ := a.body.X+dx, a.body.Y+dz
	maxX, maxZ := minX+a.body.W, minZ+a.body.H
	for _, w := range check.ObjectsByTags(tagWall) {
		if minX < w.X+w.W && maxX > w.X && minZ < w.Y+w.H && maxZ > w.Y {
			return true
		}
	}
	return false
}

// Integrate 先 X 后 Z 逐轴推进，撞墙时停在墙面并清零该轴速度；竖直方向夹在地面上
func (a *Arena) Integrate(pos, vel core.Vec3, dt float64) (core.Vec3, core.Vec3) {
	a.placeBody(pos.X, pos.Z)

	if dx := vel.X * dt; dx != 0 {
		if allowed, hit := a.sweepX(dx); hit {
			dx = allowed
			vel.X = 0
		}
		pos.X += dx
		a.placeBody(pos.X, pos.Z)
	}

	if dz := vel.Z * dt; dz != 0 {
		if allowed, hit := a.sweepZ(dz); hit {
			dz = allowed
			vel.Z = 0
		}
		pos.Z += dz
	}

	pos.Y += vel.Y * dt
	if pos.Y < a.layout.FloorY {
		pos.Y = a.layout.FloorY
		if vel.Y < 0 {
			vel.Y = 0
		}
	}
	return pos, vel
}

func (a *Arena) sweepX(dx float64) (float64, bool) {
	check := a.body.Check(dx, 0, tagWall)
	if check == nil {
		return dx, false
	}
	b := a.body
	allowed, hit := dx, false
	for _, w := range check.ObjectsByTags(tagWall) {
		if b.Y >= w.Y+w.H || b.Y+b.H <= w.Y {
			continue
		}
		if dx > 0 && b.X+b.W <= w.X+contactSkin {
			if limit := math.Max(0, w.X-(b.X+b.W)); limit < allowed {
				allowed, hit = limit, true
			}
		}
		if dx < 0 && b.X >= w.X+w.W-contactSkin {
			if limit := math.Min(0, w.X+w.W-b.X); limit > allowed {
				allowed, hit = limit, true
			}
		}
	}
	return allowed, hit
}

func (a *Arena) sweepZ(dz float64) (float64, bool) {
	check := a.body.Check(0, dz, tagWall)
	if check == nil {
		return dz, false
	}
	b := a.body
	allowed, hit := dz, false
	for _, w := range check.ObjectsByTags(tagWall) {
		if b.X >= w.X+w.W || b.X+b.W <= w.X {
			continue
		}
		if dz > 0 && b.Y+b.H <= w.Y+contactSkin {
			if limit := math.Max(0, w.Y-(b.Y+b.H)); limit < allowed {
				allowed, hit = limit, true
			}
		}
		if dz < 0 && b.Y >= w.Y+w.H-contactSkin {
			if limit := math.Min(0, w.Y+w.H-b.Y); limit > allowed {
				allowed, hit = limit, true
			}
		}
	}
	return allowed, hit
}

// Raycast 水平射线检测墙体。resolv 负责粗筛，精确命中用 slab 法计算。
func (a *Arena) Raycast(origin, dir core.Vec3, maxDist float64) (core.Hit, bool) {
	dir = dir.Horizontal().Normalized()
	if dir == (core.Vec3{}) || maxDist <= 0 {
		return core.Hit{}, false
	}

	a.placeBody(origin.X, origin.Z)
	check := a.body.Check(dir.X*maxDist, dir.Z*maxDist, tagWall)
	if check == nil {
		return core.Hit{}, false
	}

	best := core.Hit{Distance: math.Inf(1)}
	found := false
	for _, w := range check.ObjectsByTags(tagWall) {
		t, n, ok := raySlab(origin.X, origin.Z, dir.X, dir.Z, w.X, w.Y, w.X+w.W, w.Y+w.H)
		if !ok || t > maxDist || t >= best.Distance {
			continue
		}
		best = core.Hit{
			Point:    core.Vec3{X: origin.X + dir.X*t, Y: origin.Y, Z: origin.Z + dir.Z*t},
			Normal:   n,
			Distance: t,
		}
		found = true
	}
	return best, found
}

// raySlab 二维射线与轴对齐矩形求交，返回进入距离与命中面法线
func raySlab(ox, oz, dx, dz, minX, minZ, maxX, maxZ float64) (float64, core.Vec3, bool) {
	tmin, tmax := math.Inf(-1), math.Inf(1)
	var nEnter core.Vec3

	axis := func(o, d, lo, hi float64, negN, posN core.Vec3) bool {
		if d == 0 {
			return o >= lo && o <= hi
		}
		t1, t2 := (lo-o)/d, (hi-o)/d
		n := negN
		if t1 > t2 {
			t1, t2 = t2, t1
			n = posN
		}
		if t1 > tmin {
			tmin = t1
			nEnter = n
		}
		if t2 < tmax {
			tmax = t2
		}
		return tmin <= tmax
	}

	if !axis(ox, dx, minX, maxX, core.Vec3{X: -1}, core.Vec3{X: 1}) {
		return 0, core.Vec3{}, false
	}
	if !axis(oz, dz, minZ, maxZ, core.Vec3{Z: -1}, core.Vec3{Z: 1}) {
		return 0, core.Vec3{}, false
	}
	if tmax < 0 || tmin < 0 {
		// 起点在墙内或墙在身后
		return 0, core.Vec3{}, false
	}
	return tmin, nEnter, true
}
