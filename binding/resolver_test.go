package binding

import (
	"testing"

	"github.com/goliatone/go-receivers/core"
)

func TestResolve_ExplicitBindingWins(t *testing.T) {
	explicit := &Binding{Source: SourceQuery, Key: "override"}
	got, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{
		Name:     "event",
		Type:     TypeText,
		Explicit: explicit,
	})
	if !ok || got != *explicit {
		t.Fatalf("expected explicit binding, got %+v ok=%v", got, ok)
	}
}

func TestResolve_EventAliases(t *testing.T) {
	for _, name := range []string{
		"action", "Actions", "actionName", "actionnames",
		"event", "events", "EventName", "eventnames",
	} {
		got, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: name, Type: TypeText})
		if !ok || got.Source != SourceEvent {
			t.Fatalf("expected %q to bind to event source, got %+v ok=%v", name, got, ok)
		}
	}

	got, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "events", Type: TypeTextSequence})
	if !ok || got.Source != SourceEvent {
		t.Fatalf("expected text sequence event binding, got %+v ok=%v", got, ok)
	}

	if _, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "event", Type: TypeJSONContainer}); ok {
		t.Fatalf("container-typed event parameter must stay unresolved")
	}
}

func TestResolve_WellKnownNames(t *testing.T) {
	got, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "data", Type: TypeJSONContainer})
	if !ok || got.Source != SourceBody {
		t.Fatalf("expected data to bind to body, got %+v ok=%v", got, ok)
	}

	got, ok = Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "id", Type: TypeText})
	if !ok || got.Source != SourceID {
		t.Fatalf("expected id binding, got %+v ok=%v", got, ok)
	}
	if _, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "id", Type: TypeJSONContainer}); ok {
		t.Fatalf("non-text id must stay unresolved")
	}

	got, ok = Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "Receiver", Type: TypeText})
	if !ok || got.Source != SourceReceiver {
		t.Fatalf("expected receiver binding, got %+v ok=%v", got, ok)
	}
	got, ok = Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "webhookreceiver", Type: TypeText})
	if !ok || got.Source != SourceReceiver {
		t.Fatalf("expected webhookreceiver binding, got %+v ok=%v", got, ok)
	}
}

func TestResolve_DescriptorDeclaredBindings(t *testing.T) {
	descriptor := core.ReceiverDescriptor{
		Name: "github",
		Bindings: []core.BindingParameter{
			{Name: "delivery", Source: core.BindingSourceHeader, Key: "X-GitHub-Delivery"},
			{Name: "hookToken", Source: core.BindingSourceQuery, Key: "hook_token"},
		},
	}

	got, ok := Resolve(descriptor, ParameterSpec{Name: "Delivery", Type: TypeText})
	if !ok || got.Source != SourceHeader || got.Key != "X-GitHub-Delivery" {
		t.Fatalf("expected declared header binding, got %+v ok=%v", got, ok)
	}

	got, ok = Resolve(descriptor, ParameterSpec{Name: "hooktoken", Type: TypeText})
	if !ok || got.Source != SourceQuery || got.Key != "hook_token" {
		t.Fatalf("expected declared query binding, got %+v ok=%v", got, ok)
	}
}

func TestResolve_ContainerFallbackAndUnresolved(t *testing.T) {
	for _, paramType := range []ParameterType{TypeFormCollection, TypeJSONContainer, TypeXMLElement} {
		got, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "payload", Type: paramType})
		if !ok || got.Source != SourceBody {
			t.Fatalf("expected container fallback to body for %q, got %+v ok=%v", paramType, got, ok)
		}
	}

	if _, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "mystery", Type: TypeText}); ok {
		t.Fatalf("unrecognized text parameter must stay unresolved")
	}
	if _, ok := Resolve(core.ReceiverDescriptor{}, ParameterSpec{Name: "  ", Type: TypeText}); ok {
		t.Fatalf("blank parameter name must stay unresolved")
	}
}
