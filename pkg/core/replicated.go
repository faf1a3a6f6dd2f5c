package core

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotWriter 非指定写入方尝试写入
var ErrNotWriter = errors.New("无写入权限")

// Role 复制值的写入角色
type Role int

const (
	RoleServer Role = iota
	RoleOwner
)

func (r Role) String() string {
	if r == RoleOwner {
		return "owner"
	}
	return "server"
}

// Replicated 单写多读的复制值。写入方在构造时确定，运行时不可更改。
// 读取方通过原子指针获得完整快照，不会看到写了一半的值。
type Replicated[T any] struct {
	writer Role
	value  atomic.Pointer[T]

	mu        sync.Mutex
	observers []func(T)
}

// NewReplicated 创建复制值
func NewReplicated[T any](writer Role, initial T) *Replicated[T] {
	r := &Replicated[T]{writer: writer}
	r.value.Store(&initial)
	return r
}

// Writer 写入角色
func (r *Replicated[T]) Writer() Role {
	return r.writer
}

// Get 读取当前值
func (r *Replicated[T]) Get() T {
	return *r.value.Load()
}

// Set 以 role 身份写入并通知观察者
func (r *Replicated[T]) Set(role Role, v T) error {
	if role != r.writer {
		return ErrNotWriter
	}
	r.value.Store(&v)

	r.mu.Lock()
	observers := r.observers
	r.mu.Unlock()
	for _, fn := range observers {
		fn(v)
	}
	return nil
}

// OnChange 注册变更回调
func (r *Replicated[T]) OnChange(fn func(T)) {
	r.mu.Lock()
	r.observers = append(r.observers, fn)
	r.mu.Unlock()
}
