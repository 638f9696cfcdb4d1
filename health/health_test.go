package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestWorstOf(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty is up", nil, StatusUp},
		{"up only", []Status{StatusUp, StatusUp}, StatusUp},
		{"unknown beats up", []Status{StatusUp, StatusUnknown}, StatusUnknown},
		{"out of service beats unknown", []Status{StatusUnknown, StatusOutOfService}, StatusOutOfService},
		{"down beats everything", []Status{StatusUp, StatusOutOfService, StatusDown, StatusUnknown}, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WorstOf(tt.statuses...); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAggregateEmpty(t *testing.T) {
	r := NewRegistry()
	result := r.Aggregate(context.Background())
	if result.Status != StatusUp {
		t.Fatalf("unexpected status: %v", result.Status)
	}
	if len(result.Components) != 0 {
		t.Fatalf("unexpected components: %v", result.Components)
	}
}

func TestAggregateWorstWins(t *testing.T) {
	r := NewRegistry()
	r.Register(NewIndicatorFunc("ok", func(context.Context) Check { return Up() }))
	r.Register(NewIndicatorFunc("broken", func(context.Context) Check {
		return Down(errors.New("connection refused"))
	}))
	r.Register(NewIndicatorFunc("odd", func(context.Context) Check {
		return Check{Status: StatusUnknown}
	}))

	result := r.Aggregate(context.Background())
	if result.Status != StatusDown {
		t.Fatalf("unexpected status: %v", result.Status)
	}
	if len(result.Components) != 3 {
		t.Fatalf("unexpected component count: %d", len(result.Components))
	}
	if result.Components["broken"].Details["error"] != "connection refused" {
		t.Fatalf("error detail lost: %v", result.Components["broken"])
	}
}

func TestAggregateTimeout(t *testing.T) {
	r := NewRegistry(WithTimeout(30 * time.Millisecond))
	r.Register(NewIndicatorFunc("slow", func(context.Context) Check {
		time.Sleep(300 * time.Millisecond)
		return Up()
	}))
	r.Register(NewIndicatorFunc("fast", func(context.Context) Check { return Up() }))

	start := time.Now()
	result := r.Aggregate(context.Background())
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("aggregate blocked on slow indicator: %v", elapsed)
	}

	if result.Status != StatusDown {
		t.Fatalf("unexpected status: %v", result.Status)
	}
	slow := result.Components["slow"]
	if slow.Status != StatusDown || slow.Details["error"] != "check timed out" {
		t.Fatalf("unexpected slow result: %+v", slow)
	}
	if result.Components["fast"].Status != StatusUp {
		t.Fatalf("fast indicator affected: %+v", result.Components["fast"])
	}
}

func TestAggregatePanic(t *testing.T) {
	r := NewRegistry()
	r.Register(NewIndicatorFunc("explosive", func(context.Context) Check {
		panic("boom")
	}))
	r.Register(NewIndicatorFunc("ok", func(context.Context) Check { return Up() }))

	result := r.Aggregate(context.Background())
	if result.Status != StatusUnknown {
		t.Fatalf("unexpected status: %v", result.Status)
	}
	if result.Components["explosive"].Status != StatusUnknown {
		t.Fatalf("panic not contained: %+v", result.Components["explosive"])
	}
	if result.Components["ok"].Status != StatusUp {
		t.Fatalf("healthy indicator affected: %+v", result.Components["ok"])
	}
}

func TestRegistryCheckOne(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPingIndicator())

	chk, ok := r.CheckOne(context.Background(), "ping")
	if !ok || chk.Status != StatusUp {
		t.Fatalf("unexpected result: %+v %v", chk, ok)
	}

	if _, ok := r.CheckOne(context.Background(), "ghost"); ok {
		t.Fatal("unknown indicator must report false")
	}
}

func TestRegistryRegisterReplacesSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(NewIndicatorFunc("db", func(context.Context) Check { return Up() }))
	r.Register(NewIndicatorFunc("db", func(context.Context) Check {
		return Down(errors.New("gone"))
	}))

	result := r.Aggregate(context.Background())
	if len(result.Components) != 1 {
		t.Fatalf("duplicate registration: %v", result.Components)
	}
	if result.Components["db"].Status != StatusDown {
		t.Fatalf("replacement not effective: %+v", result.Components["db"])
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(NewPingIndicator())
	r.Register(NewIndicatorFunc("db", func(context.Context) Check { return Up() }))

	r.Unregister("db")
	if got, want := r.Names(), []string{"ping"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected names: %v", got)
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewIndicatorFunc("redis", func(context.Context) Check { return Up() }))
	r.Register(NewIndicatorFunc("db", func(context.Context) Check { return Up() }))
	r.Register(NewPingIndicator())

	want := []string{"db", "ping", "redis"}
	if got := r.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected names: %v", got)
	}
}
