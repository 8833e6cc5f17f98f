package providers

import (
	"context"
	"testing"
)

type namedSource struct {
	name  string
	price float64
}

func (s *namedSource) Name() string { return s.name }

func (s *namedSource) GetPrice(context.Context, string, string, uint64) (float64, error) {
	return s.price, nil
}

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry(&namedSource{name: "Jupiter"}, &namedSource{name: "Orca"}, &namedSource{name: "Raydium"})

	all := r.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"Jupiter", "Orca", "Raydium"} {
		if all[i].Name() != want {
			t.Fatalf("source %d = %s, want %s", i, all[i].Name(), want)
		}
	}
}

func TestRegistryReplaceInPlace(t *testing.T) {
	r := NewRegistry(&namedSource{name: "Jupiter", price: 1}, &namedSource{name: "Orca", price: 2})
	r.Register(&namedSource{name: "Jupiter", price: 3})

	if r.Len() != 2 {
		t.Fatalf("len = %d, want 2", r.Len())
	}
	first := r.All()[0]
	if p, _ := first.GetPrice(context.Background(), "", "", 0); p != 3 {
		t.Fatalf("replaced source price = %v, want 3", p)
	}
	if _, ok := r.Get("Orca"); !ok {
		t.Fatalf("Orca should still be registered")
	}
}
