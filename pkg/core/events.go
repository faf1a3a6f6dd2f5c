package core

import "sync"

// Events 单次模拟步产生的状态转换
type Events struct {
	Jumped         bool
	Landed         bool
	Airborne       bool
	WallRunStarted bool
	WallRunEnded   bool
	WallJumped     bool

	ImpactSpeed float64 // 着地前的下落速度（m/s），仅 Landed 时有效
}

// Any 是否有任一事件
func (e Events) Any() bool {
	return e.Jumped || e.Landed || e.Airborne || e.WallRunStarted || e.WallRunEnded || e.WallJumped
}

// EventKind 事件类型
type EventKind int

const (
	EventJumped EventKind = iota + 1
	EventLanded
	EventAirborne
	EventWallRunStarted
	EventWallRunEnded
	EventWallJumped
)

func (k EventKind) String() string {
	switch k {
	case EventJumped:
		return "jumped"
	case EventLanded:
		return "landed"
	case EventAirborne:
		return "airborne"
	case EventWallRunStarted:
		return "wallrun-start"
	case EventWallRunEnded:
		return "wallrun-end"
	case EventWallJumped:
		return "walljump"
	}
	return "unknown"
}

// Event 供表现层/规则层订阅的离散事件
type Event struct {
	Kind        EventKind
	PlayerID    int32
	Tick        Tick
	ImpactSpeed float64
}

// Split 按固定顺序展开为单个事件
func (e Events) Split(playerID int32, tick Tick) []Event {
	if !e.Any() {
		return nil
	}
	out := make([]Event, 0, 2)
	add := func(ok bool, kind EventKind) {
		if ok {
			out = append(out, Event{Kind: kind, PlayerID: playerID, Tick: tick})
		}
	}
	add(e.Airborne, EventAirborne)
	add(e.Jumped, EventJumped)
	add(e.WallRunEnded && !e.WallJumped, EventWallRunEnded)
	add(e.WallJumped, EventWallJumped)
	add(e.WallRunStarted, EventWallRunStarted)
	if e.Landed {
		out = append(out, Event{Kind: EventLanded, PlayerID: playerID, Tick: tick, ImpactSpeed: e.ImpactSpeed})
	}
	return out
}

type subscriber struct {
	id int
	fn func(Event)
}

// EventBus 观察者列表，多订阅者，发布不等待返回值
type EventBus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

// NewEventBus 创建事件总线
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe 订阅事件，返回取消订阅函数
func (b *EventBus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish 按订阅顺序通知
func (b *EventBus) Publish(ev Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

// PublishStep 发布一次模拟步的全部事件
func (b *EventBus) PublishStep(playerID int32, tick Tick, ev Events) {
	for _, e := range ev.Split(playerID, tick) {
		b.Publish(e)
	}
}

// Len 当前订阅者数量
func (b *EventBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
