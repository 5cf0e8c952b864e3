package pather

import (
	"math"
	"slices"
	"testing"
	"time"
)

type stubAgent struct {
	pos, dest Vec3
	sets      []Vec3
}

func (a *stubAgent) Position() Vec3    { return a.pos }
func (a *stubAgent) Destination() Vec3 { return a.dest }
func (a *stubAgent) SetDestination(v Vec3) {
	a.dest = v
	a.sets = append(a.sets, v)
}

func TestPather_WaitsBeforeMoving(t *testing.T) {
	agent := &stubAgent{}
	p := New(agent, []Vec3{{X: 0}, {X: 5}, {X: 10}})

	ticks := []struct {
		dt   time.Duration
		want bool
	}{
		{400 * time.Millisecond, false},
		{400 * time.Millisecond, false},
		{400 * time.Millisecond, true},
	}
	for i, tick := range ticks {
		if got := p.Tick(tick.dt); got != tick.want {
			t.Errorf("tick %d: got %v, want %v", i, got, tick.want)
		}
	}

	if p.Index() != 1 {
		t.Errorf("Expected index 1, got %d", p.Index())
	}
	if !slices.Equal(agent.sets, []Vec3{{X: 5}}) {
		t.Errorf("Expected one destination {5 0 0}, got %v", agent.sets)
	}
}

func TestPather_DoesNotCountWhileTravelling(t *testing.T) {
	agent := &stubAgent{dest: Vec3{X: 5}}
	p := New(agent, []Vec3{{X: 0}, {X: 5}})

	for i := range 10 {
		if p.Tick(time.Second) {
			t.Fatalf("tick %d advanced while the agent was still travelling", i)
		}
	}
	if len(agent.sets) != 0 {
		t.Errorf("Expected no destination changes, got %v", agent.sets)
	}

	agent.pos = Vec3{X: 4.9}
	if !p.Tick(time.Second) {
		t.Error("Expected advance once the agent is within the stop distance")
	}
}

func TestPather_WrapsAround(t *testing.T) {
	agent := &stubAgent{}
	p := New(agent, []Vec3{{X: 0}, {Y: 1}, {Z: 2}})
	p.WaitTime = 0

	var visited []int
	for range 4 {
		agent.pos = agent.dest
		p.Tick(time.Millisecond)
		visited = append(visited, p.Index())
	}
	if want := []int{1, 2, 0, 1}; !slices.Equal(visited, want) {
		t.Errorf("Expected visit order %v, got %v", want, visited)
	}
}

func TestPather_NoWaypoints(t *testing.T) {
	agent := &stubAgent{}
	p := New(agent, nil)
	if p.Tick(time.Hour) {
		t.Error("Expected no advance without waypoints")
	}
	if len(agent.sets) != 0 {
		t.Errorf("Expected no destination changes, got %v", agent.sets)
	}
}

func TestVec3_Distance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{"same point", Vec3{X: 1, Y: 2, Z: 3}, Vec3{X: 1, Y: 2, Z: 3}, 0},
		{"3-4-5 triangle", Vec3{X: 3, Y: 4}, Vec3{}, 5},
		{"along z", Vec3{Z: -2}, Vec3{Z: 2}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Distance(tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}
