package frontdoor

import (
	"context"
	"strings"
	"testing"
)

type stubIngress struct{}

func (stubIngress) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (stubIngress) Handlers() []HandlerRegistration { return nil }

func TestRegistry(t *testing.T) {
	ClearFactories()
	t.Cleanup(ClearFactories)

	var got HandlerConfig
	RegisterFactory(Factory{
		Mode:        "stub",
		Description: "test ingress",
		Create: func(cfg HandlerConfig) (Ingress, error) {
			got = cfg
			return stubIngress{}, nil
		},
	})
	RegisterFactory(Factory{
		Mode:   "another",
		Create: func(HandlerConfig) (Ingress, error) { return stubIngress{}, nil },
	})

	if !IsRegistered("stub") {
		t.Fatal("IsRegistered(stub) = false")
	}
	if modes := ListModes(); len(modes) != 2 || modes[0] != "another" || modes[1] != "stub" {
		t.Errorf("ListModes() = %v, want [another stub]", modes)
	}

	ing, err := New("stub", HandlerConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if ing == nil {
		t.Fatal("New() returned nil ingress")
	}
	if got.Logger == nil {
		t.Error("New() did not default the logger")
	}

	_, err = New("missing", HandlerConfig{})
	if err == nil || !strings.Contains(err.Error(), "registered modes") {
		t.Errorf("New(missing) error = %v, want unknown mode", err)
	}
}

func TestRegisterFactory_Panics(t *testing.T) {
	ClearFactories()
	t.Cleanup(ClearFactories)

	tests := []struct {
		name    string
		factory Factory
	}{
		{"empty mode", Factory{Create: func(HandlerConfig) (Ingress, error) { return nil, nil }}},
		{"nil create", Factory{Mode: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("RegisterFactory() did not panic")
				}
			}()
			RegisterFactory(tt.factory)
		})
	}

	RegisterFactory(Factory{Mode: "dup", Create: func(HandlerConfig) (Ingress, error) { return nil, nil }})
	defer func() {
		if recover() == nil {
			t.Error("duplicate RegisterFactory() did not panic")
		}
	}()
	RegisterFactory(Factory{Mode: "dup", Create: func(HandlerConfig) (Ingress, error) { return nil, nil }})
}
