package core

import (
	"errors"
	"sync"
	"testing"
)

func TestReplicatedWriterRole(t *testing.T) {
	r := NewReplicated(RoleServer, KinematicState{Tick: 1})
	if err := r.Set(RoleOwner, KinematicState{Tick: 2}); !errors.Is(err, ErrNotWriter) {
		t.Fatalf("owner write err = %v, want ErrNotWriter", err)
	}
	if got := r.Get().Tick; got != 1 {
		t.Fatalf("tick = %d, want 1", got)
	}

	var seen []Tick
	r.OnChange(func(s KinematicState) { seen = append(seen, s.Tick) })
	if err := r.Set(RoleServer, KinematicState{Tick: 3}); err != nil {
		t.Fatal(err)
	}
	if r.Get().Tick != 3 || len(seen) != 1 || seen[0] != 3 {
		t.Fatalf("get=%d seen=%v", r.Get().Tick, seen)
	}
}

func TestReplicatedConcurrentReaders(t *testing.T) {
	r := NewReplicated(RoleServer, KinematicState{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				s := r.Get()
				// 写入方总是让 Position.X 与 Tick 一致
				if float64(s.Tick) != s.Position.X {
					t.Errorf("torn read: %+v", s)
					return
				}
			}
		}()
	}
	for i := 1; i <= 1000; i++ {
		_ = r.Set(RoleServer, KinematicState{Tick: Tick(i), Position: Vec3{X: float64(i)}})
	}
	wg.Wait()
}
