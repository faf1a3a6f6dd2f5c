package core

// Hit 射线命中信息
type Hit struct {
	Point    Vec3
	Normal   Vec3
	Distance float64
}

// Physics 外部物理/碰撞协作者。
// 模拟步只读取接触信息并提交速度，碰撞求解由实现方负责。
type Physics interface {
	// ContactNormals 返回角色位于 pos 时的接触法线
	ContactNormals(pos Vec3) []Vec3
	// Raycast 从 origin 沿 dir 探测 maxDist 内的墙体
	Raycast(origin, dir Vec3, maxDist float64) (Hit, bool)
	// Integrate 按速度推进一个 dt，返回解决碰撞后的位置与速度
	Integrate(pos, vel Vec3, dt float64) (Vec3, Vec3)
}

// IsGrounded 任一接触法线与上方向点积超过阈值即着地
func IsGrounded(normals []Vec3) bool {
	for _, n := range normals {
		if n.Dot(Up) > GroundNormalThreshold {
			return true
		}
	}
	return false
}
