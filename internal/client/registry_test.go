package client

import (
	"context"
	"testing"
	"time"

	"github.com/example/campmeeting/internal/db"
	"github.com/example/campmeeting/internal/render"
	"github.com/example/campmeeting/internal/router"
)

func TestRegistryReusesAndEvicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.store.Set(ctx, db.ScheduleCollection, "s1", map[string]interface{}{"title": "Opening", "startTime": time.Now()})

	r := NewRegistry(f.deps, time.Minute)
	defer r.Close()

	a := r.Get(ctx, "browser-1")
	if r.Get(ctx, "browser-1") != a {
		t.Fatal("registry returned a different app for the same session")
	}
	v, err := a.Navigate(ctx, router.Location{Path: "/", Fragment: "#/schedule"}, render.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if v.Fragments["scheduleList"] == "" {
		t.Fatal("schedule not loaded on start")
	}

	r.Get(ctx, "browser-2")
	if r.Len() != 2 {
		t.Fatalf("len = %d", r.Len())
	}
	if n := r.Sweep(time.Now()); n != 0 {
		t.Fatalf("evicted %d fresh apps", n)
	}
	if n := r.Sweep(time.Now().Add(2 * time.Minute)); n != 2 {
		t.Fatalf("evicted %d, want 2", n)
	}
	select {
	case <-a.Done():
	default:
		t.Fatal("evicted app still running")
	}
	if _, ok := r.Lookup("browser-1"); ok {
		t.Fatal("evicted app still registered")
	}

	r.Get(ctx, "browser-3")
	r.Remove("browser-3")
	if r.Len() != 0 {
		t.Fatalf("len after remove = %d", r.Len())
	}
}
