package core

import (
	"errors"
	"fmt"
)

// ErrInvalidCapacity 缓冲区容量必须为正
var ErrInvalidCapacity = errors.New("缓冲区容量必须为正")

type ringSlot[T any] struct {
	tick  Tick
	valid bool
	value T
}

// RingBuffer 按 tick 取模寻址的定长环形缓冲区。
// 每个槽位记录写入时的逻辑 tick，读取时校验，回绕覆盖后的旧数据不会被误读。
type RingBuffer[T any] struct {
	slots []ringSlot[T]
}

// NewRingBuffer 创建容量为 capacity 的缓冲区
func NewRingBuffer[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &RingBuffer[T]{slots: make([]ringSlot[T], capacity)}, nil
}

// Cap 容量
func (b *RingBuffer[T]) Cap() int {
	return len(b.slots)
}

// Index tick 对应的槽位下标
func (b *RingBuffer[T]) Index(tick Tick) int {
	n := Tick(len(b.slots))
	i := tick % n
	if i < 0 {
		i += n
	}
	return int(i)
}

// Put 写入 tick 对应槽位，覆盖同余的旧 tick
func (b *RingBuffer[T]) Put(tick Tick, v T) {
	b.slots[b.Index(tick)] = ringSlot[T]{tick: tick, valid: true, value: v}
}

// Get 读取 tick 的值；槽位为空或已被其它 tick 覆盖时返回 false
func (b *RingBuffer[T]) Get(tick Tick) (T, bool) {
	s := b.slots[b.Index(tick)]
	if !s.valid || s.tick != tick {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Has tick 是否仍在缓冲区中
func (b *RingBuffer[T]) Has(tick Tick) bool {
	_, ok := b.Get(tick)
	return ok
}

// SlotTick 槽位当前保存的逻辑 tick
func (b *RingBuffer[T]) SlotTick(index int) (Tick, bool) {
	s := b.slots[index]
	return s.tick, s.valid
}

// Reset 清空所有槽位
func (b *RingBuffer[T]) Reset() {
	clear(b.slots)
}
