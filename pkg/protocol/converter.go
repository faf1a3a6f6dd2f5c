package protocol

import "arenaball/pkg/core"

// ========== 向量转换 ==========

func CoreVec3ToProto(v core.Vec3) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func ProtoVec3ToCore(v Vector3) core.Vec3 {
	return core.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func CoreQuatToProto(q core.Quat) Quaternion {
	return Quaternion{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
}

// ProtoQuatToCore 缺省（全零）四元数视为无旋转
func ProtoQuatToCore(q Quaternion) core.Quat {
	out := core.Quat{X: q.X, Y: q.Y, Z: q.Z, W: q.W}
	if out == (core.Quat{}) {
		return core.IdentityQuat
	}
	return out
}

// ========== 状态转换 ==========

// CoreStateToProto 将 core.KinematicState 转换为线格式
func CoreStateToProto(s core.KinematicState) KinematicState {
	return KinematicState{
		Tick:            int64(s.Tick),
		Position:        CoreVec3ToProto(s.Position),
		Orientation:     CoreQuatToProto(s.Orientation),
		Velocity:        CoreVec3ToProto(s.Velocity),
		Grounded:        s.Grounded,
		JumpCooldown:    s.JumpCooldown,
		WallRunCooldown: s.WallRunCooldown,
		WallSide:        int32(s.WallSide),
		WallNormal:      CoreVec3ToProto(s.WallNormal),
	}
}

// ProtoStateToCore 将线格式状态转换为 core.KinematicState
func ProtoStateToCore(s KinematicState) core.KinematicState {
	return core.KinematicState{
		Tick:            core.Tick(s.Tick),
		Position:        ProtoVec3ToCore(s.Position),
		Orientation:     ProtoQuatToCore(s.Orientation),
		Velocity:        ProtoVec3ToCore(s.Velocity),
		Grounded:        s.Grounded,
		JumpCooldown:    s.JumpCooldown,
		WallRunCooldown: s.WallRunCooldown,
		WallSide:        core.WallSide(s.WallSide),
		WallNormal:      ProtoVec3ToCore(s.WallNormal),
	}
}

// ========== 输入转换 ==========

// CoreInputToProto 将 core.InputSample 转换为 InputData
func CoreInputToProto(in core.InputSample) *InputData {
	return &InputData{
		Tick:  int64(in.Tick),
		MoveX: in.Move.X,
		MoveY: in.Move.Y,
		LookX: in.Look.X,
		LookY: in.Look.Y,
		Jump:  in.Jump,
	}
}

// ProtoInputToCore 转换并重新归一化，网络输入不可信
func ProtoInputToCore(in *InputData) core.InputSample {
	if in == nil {
		return core.InputSample{}
	}
	return core.NewInputSample(
		core.Tick(in.Tick),
		core.Vec2{X: in.MoveX, Y: in.MoveY},
		core.Vec2{X: in.LookX, Y: in.LookY},
		in.Jump,
	)
}

// ========== 事件转换 ==========

func CoreEventToProto(ev core.Event) *EventData {
	return &EventData{
		Kind:        int32(ev.Kind),
		PlayerID:    ev.PlayerID,
		Tick:        int64(ev.Tick),
		ImpactSpeed: ev.ImpactSpeed,
	}
}

func ProtoEventToCore(ev *EventData) core.Event {
	if ev == nil {
		return core.Event{}
	}
	return core.Event{
		Kind:        core.EventKind(ev.Kind),
		PlayerID:    ev.PlayerID,
		Tick:        core.Tick(ev.Tick),
		ImpactSpeed: ev.ImpactSpeed,
	}
}
