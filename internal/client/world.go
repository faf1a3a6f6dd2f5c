package client

import (
	"slices"
	"time"

	"arenaball/pkg/core"

	"github.com/yohamta/donburi"
)

// TransformData 渲染用的玩家变换
type TransformData struct {
	Position    core.Vec3
	Orientation core.Quat
	Velocity    core.Vec3
	Grounded    bool
	WallSide    core.WallSide
}

// PlayerData 玩家信息
type PlayerData struct {
	ID   int32
	Name string
}

// RemoteData 远端玩家的平滑器
type RemoteData struct {
	Smoother *RemoteSmoother
}

var (
	Transform = donburi.NewComponentType[TransformData]()
	Player    = donburi.NewComponentType[PlayerData]()
	Remote    = donburi.NewComponentType[RemoteData]()
	LocalTag  = donburi.NewTag().SetName("Local")
)

// World 客户端已知玩家的 ECS 世界
type World struct {
	world    donburi.World
	entities map[int32]donburi.Entity
}

// NewWorld 创建空世界
func NewWorld() *World {
	return &World{
		world:    donburi.NewWorld(),
		entities: make(map[int32]donburi.Entity),
	}
}

func transformOf(s core.KinematicState) TransformData {
	return TransformData{
		Position:    s.Position,
		Orientation: s.Orientation,
		Velocity:    s.Velocity,
		Grounded:    s.Grounded,
		WallSide:    s.WallSide,
	}
}

// AddLocal 添加本地玩家
func (w *World) AddLocal(id int32, name string, state core.KinematicState) {
	w.Remove(id)
	entity := w.world.Create(Player, Transform, LocalTag)
	entry := w.world.Entry(entity)
	Player.Set(entry, &PlayerData{ID: id, Name: name})
	t := transformOf(state)
	Transform.Set(entry, &t)
	w.entities[id] = entity
}

// AddRemote 添加远端玩家，已存在时保持原有平滑器
func (w *World) AddRemote(id int32, name string, smoother *RemoteSmoother) {
	if _, ok := w.entities[id]; ok {
		return
	}
	entity := w.world.Create(Player, Transform, Remote)
	entry := w.world.Entry(entity)
	Player.Set(entry, &PlayerData{ID: id, Name: name})
	t := transformOf(smoother.Latest())
	Transform.Set(entry, &t)
	Remote.Set(entry, &RemoteData{Smoother: smoother})
	w.entities[id] = entity
}

// Has 是否存在该玩家
func (w *World) Has(id int32) bool {
	entity, ok := w.entities[id]
	return ok && w.world.Valid(entity)
}

// Remove 移除玩家
func (w *World) Remove(id int32) {
	entity, ok := w.entities[id]
	if !ok {
		return
	}
	if w.world.Valid(entity) {
		w.world.Remove(entity)
	}
	delete(w.entities, id)
}

// Smoother 远端玩家的平滑器
func (w *World) Smoother(id int32) (*RemoteSmoother, bool) {
	entity, ok := w.entities[id]
	if !ok || !w.world.Valid(entity) {
		return nil, false
	}
	entry := w.world.Entry(entity)
	if !entry.HasComponent(Remote) {
		return nil, false
	}
	return Remote.Get(entry).Smoother, true
}

// SetLocal 更新本地玩家的显示变换
func (w *World) SetLocal(id int32, state core.KinematicState, offset core.Vec3) {
	entity, ok := w.entities[id]
	if !ok || !w.world.Valid(entity) {
		return
	}
	t := transformOf(state)
	t.Position = t.Position.Add(offset)
	Transform.Set(w.world.Entry(entity), &t)
}

// UpdateRemotes 推进所有远端平滑器并写回变换
func (w *World) UpdateRemotes(now time.Time, dt float64) {
	Remote.Each(w.world, func(entry *donburi.Entry) {
		sm := Remote.Get(entry).Smoother
		pose := sm.Update(now, dt)
		t := Transform.Get(entry)
		latest := sm.Latest()
		t.Position = pose.Position
		t.Orientation = pose.Orientation
		t.Velocity = latest.Velocity
		t.Grounded = latest.Grounded
		t.WallSide = latest.WallSide
	})
}

// Each 按玩家 ID 顺序遍历
func (w *World) Each(fn func(p PlayerData, t TransformData, local bool)) {
	ids := make([]int32, 0, len(w.entities))
	for id := range w.entities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		entity := w.entities[id]
		if !w.world.Valid(entity) {
			continue
		}
		entry := w.world.Entry(entity)
		fn(*Player.Get(entry), *Transform.Get(entry), entry.HasComponent(LocalTag))
	}
}

// Len 玩家数
func (w *World) Len() int { return len(w.entities) }
