package registry

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/marshallshelly/parcel-orm/pkg/geo"
	"github.com/marshallshelly/parcel-orm/pkg/model"
)

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()

	t.Run("register new model", func(t *testing.T) {
		if err := registry.Register(model.New("users")); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if !registry.Has("users") {
			t.Error("expected model to be registered")
		}
	})

	t.Run("register duplicate name", func(t *testing.T) {
		err := registry.Register(model.New("users"))
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("register nil", func(t *testing.T) {
		if err := registry.Register(nil); err == nil {
			t.Error("expected error for nil model")
		}
	})
}

func TestRegistry_Get(t *testing.T) {
	registry := NewRegistry()
	users := model.New("users")
	_ = registry.Register(users)

	got, err := registry.Get("users")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != users {
		t.Error("expected the registered model")
	}

	if _, err := registry.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected MustGet to panic")
		}
	}()
	registry.MustGet("missing")
}

func TestRegistry_Geo(t *testing.T) {
	registry := NewRegistry()
	shapes := geo.New(geo.Config{Table: "shapes", Columns: []string{"id"}})

	if err := registry.RegisterGeo(shapes); err != nil {
		t.Fatalf("RegisterGeo failed: %v", err)
	}
	if got, err := registry.Geo("shapes"); err != nil || got != shapes {
		t.Errorf("Geo(shapes) = %v, %v", got, err)
	}
	if got := registry.MustGet("shapes"); got != shapes.Base() {
		t.Error("expected the base model under the same name")
	}
	if _, err := registry.Geo("users"); err == nil {
		t.Error("expected error for non-geometry table")
	}
}

func TestRegistry_NamesAndClear(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"shapes", "forms", "users"} {
		_ = registry.Register(model.New(name))
	}

	names := registry.Names()
	if !slices.Equal(names, []string{"forms", "shapes", "users"}) {
		t.Errorf("unexpected names: %v", names)
	}

	registry.Clear()
	if len(registry.Names()) != 0 {
		t.Error("expected empty registry after Clear")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(model.New("users"))

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = registry.Get("users")
			_ = registry.Names()
		}()
	}
	wg.Wait()
}
