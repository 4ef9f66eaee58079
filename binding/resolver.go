// Package binding resolves well-known logical handler parameter names onto
// concrete request locations for the host's argument construction.
package binding

import (
	"strings"

	"github.com/goliatone/go-receivers/core"
)

type ParameterType string

const (
	// TypeText is a single text value.
	TypeText ParameterType = "text"
	// TypeTextSequence is an ordered sequence of text values.
	TypeTextSequence ParameterType = "text_sequence"
	// TypeFormCollection is a generic form-value container.
	TypeFormCollection ParameterType = "form_collection"
	// TypeJSONContainer is a generic JSON document container.
	TypeJSONContainer ParameterType = "json_container"
	// TypeXMLElement is a generic XML element container.
	TypeXMLElement ParameterType = "xml_element"
	// TypeOther is any declared type the resolver has no rule for.
	TypeOther ParameterType = "other"
)

type SourceKind string

const (
	SourceEvent    SourceKind = "event"
	SourceID       SourceKind = "id"
	SourceReceiver SourceKind = "receiver"
	SourceBody     SourceKind = "body"
	SourceHeader   SourceKind = "header"
	SourceQuery    SourceKind = "query"
)

// Binding names the request location a parameter reads from. Key is set
// for header and query sources.
type Binding struct {
	Source SourceKind
	Key    string
}

// ParameterSpec describes one declared handler parameter. Explicit, when
// set, is a caller-specified binding the resolver must not override.
type ParameterSpec struct {
	Name     string
	Type     ParameterType
	Explicit *Binding
}

// Resolve maps a parameter onto a binding. The bool result is false when
// no rule applies; unsupported name/type combinations are left unresolved
// rather than erroring so exploratory handler signatures stay tolerated.
func Resolve(descriptor core.ReceiverDescriptor, param ParameterSpec) (Binding, bool) {
	if param.Explicit != nil {
		return *param.Explicit, true
	}
	name := strings.TrimSpace(strings.ToLower(param.Name))
	if name == "" {
		return Binding{}, false
	}

	switch name {
	case "action", "actions", "actionname", "actionnames",
		"event", "events", "eventname", "eventnames":
		if param.Type == TypeText || param.Type == TypeTextSequence {
			return Binding{Source: SourceEvent}, true
		}
		return Binding{}, false
	case "data":
		return Binding{Source: SourceBody}, true
	case "id", "receiverid":
		if param.Type == TypeText {
			return Binding{Source: SourceID}, true
		}
		return Binding{}, false
	case "receiver", "receivername", "webhookreceiver":
		if param.Type == TypeText {
			return Binding{Source: SourceReceiver}, true
		}
		return Binding{}, false
	}

	for _, declared := range descriptor.Bindings {
		if !strings.EqualFold(strings.TrimSpace(declared.Name), name) {
			continue
		}
		switch declared.Source {
		case core.BindingSourceQuery:
			return Binding{Source: SourceQuery, Key: declared.Key}, true
		default:
			return Binding{Source: SourceHeader, Key: declared.Key}, true
		}
	}

	// Compatibility shim, not a guaranteed contract: container-typed
	// parameters with unrecognized names fall back to the body, matching
	// the implicit "data" resolution legacy handlers rely on.
	switch param.Type {
	case TypeFormCollection, TypeJSONContainer, TypeXMLElement:
		return Binding{Source: SourceBody}, true
	}

	return Binding{}, false
}
