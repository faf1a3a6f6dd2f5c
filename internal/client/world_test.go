package client

import (
	"testing"
	"time"

	"arenaball/pkg/core"
)

func TestWorldTracksPlayers(t *testing.T) {
	w := NewWorld()
	w.AddLocal(2, "me", core.SpawnState(nil, 0, core.Vec3{X: 1}, 0))

	opts := DefaultSmootherOptions(core.TickRate)
	opts.Mode = SmoothingDisabled
	sm := NewRemoteSmoother(opts, core.SpawnState(nil, 0, core.Vec3{X: 5}, 0))
	w.AddRemote(1, "other", sm)

	var ids []int32
	var locals []bool
	w.Each(func(p PlayerData, tr TransformData, local bool) {
		ids = append(ids, p.ID)
		locals = append(locals, local)
	})
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 2 || locals[0] || !locals[1] {
		t.Fatalf("ids = %v, locals = %v", ids, locals)
	}

	if _, ok := w.Smoother(2); ok {
		t.Fatalf("local player has no smoother")
	}
	got, ok := w.Smoother(1)
	if !ok || got != sm {
		t.Fatalf("Smoother(1) = %v, %v", got, ok)
	}

	now := time.Now()
	sm.Push(core.SpawnState(nil, 3, core.Vec3{X: 7}, 0), now)
	w.UpdateRemotes(now, 0.016)
	w.SetLocal(2, core.SpawnState(nil, 1, core.Vec3{X: 2}, 0), core.Vec3{X: 0.5})

	w.Each(func(p PlayerData, tr TransformData, local bool) {
		switch p.ID {
		case 1:
			if tr.Position.X != 7 {
				t.Fatalf("remote X = %v, want 7", tr.Position.X)
			}
		case 2:
			if tr.Position.X != 2.5 {
				t.Fatalf("local X = %v, want 2.5", tr.Position.X)
			}
		}
	})

	w.Remove(1)
	if w.Has(1) || w.Len() != 1 {
		t.Fatalf("remote not removed")
	}
}
