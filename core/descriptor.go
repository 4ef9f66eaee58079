package core

import (
	"fmt"
	"strings"
)

type BodyType string

const (
	BodyTypeNone BodyType = "none"
	BodyTypeForm BodyType = "form"
	BodyTypeJSON BodyType = "json"
	BodyTypeXML  BodyType = "xml"
)

type SecuritySchemeKind string

const (
	SecuritySchemeNone        SecuritySchemeKind = "none"
	SecuritySchemeHMACHeader  SecuritySchemeKind = "hmac_header"
	SecuritySchemeTokenHeader SecuritySchemeKind = "token_header"
	SecuritySchemeCodeQuery   SecuritySchemeKind = "code_query"
)

const (
	HMACAlgorithmSHA1   = "sha1"
	HMACAlgorithmSHA256 = "sha256"

	SignatureEncodingHex    = "hex"
	SignatureEncodingBase64 = "base64"
)

// SecurityScheme selects how a receiver authenticates inbound requests.
// MinSecretLength/MaxSecretLength of zero defer to the configured defaults.
type SecurityScheme struct {
	Kind   SecuritySchemeKind
	Header string
	Prefix string
	// TimestampHeader, when set on an HMAC scheme, switches the signed
	// content from the raw body to "<version>:<timestamp>:<body>", where
	// version is Prefix without its trailing "=" and timestamp is read
	// from this header. This is the Slack signing convention.
	TimestampHeader string
	Algorithm       string
	Encoding        string
	QueryKey        string
	MinSecretLength int
	MaxSecretLength int
}

func (s SecurityScheme) RequiresSecret() bool {
	switch s.Kind {
	case SecuritySchemeHMACHeader, SecuritySchemeTokenHeader, SecuritySchemeCodeQuery:
		return true
	default:
		return false
	}
}

type EventSourceKind string

const (
	EventSourceNone     EventSourceKind = "none"
	EventSourceConstant EventSourceKind = "constant"
	EventSourceHeader   EventSourceKind = "header"
	EventSourceQuery    EventSourceKind = "query"
)

// EventSource declares where the event name for a request is read from.
// EventSourceNone means the receiver accepts all events.
type EventSource struct {
	Kind  EventSourceKind
	Value string
}

// RequiredValue names a header or query parameter the receiver insists on.
// A present-but-empty value counts as missing.
type RequiredValue struct {
	Name    string
	IsQuery bool
}

type BindingSourceKind string

const (
	BindingSourceHeader BindingSourceKind = "header"
	BindingSourceQuery  BindingSourceKind = "query"
)

// BindingParameter maps a provider-declared handler parameter name onto a
// concrete header or query location.
type BindingParameter struct {
	Name   string
	Source BindingSourceKind
	Key    string
}

// ReceiverDescriptor is the complete static description of one named
// provider convention. Descriptors are values: copy freely, never mutate
// after registration.
type ReceiverDescriptor struct {
	Name           string
	BodyType       BodyType
	Security       SecurityScheme
	RequiredValues []RequiredValue
	EventSource    EventSource
	PingEvent      string
	// AllowGetHead admits GET/HEAD requests for providers whose handshake
	// uses them; the pipeline short-circuits such requests after the
	// required-value stage.
	AllowGetHead bool
	Bindings     []BindingParameter
}

func (d ReceiverDescriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("core: receiver name is required")
	}
	switch d.BodyType {
	case BodyTypeNone, BodyTypeForm, BodyTypeJSON, BodyTypeXML:
	default:
		return fmt.Errorf("core: receiver %q has unknown body type %q", d.Name, d.BodyType)
	}
	switch d.Security.Kind {
	case SecuritySchemeNone:
	case SecuritySchemeHMACHeader:
		if strings.TrimSpace(d.Security.Header) == "" {
			return fmt.Errorf("core: receiver %q hmac scheme requires a signature header", d.Name)
		}
		switch strings.ToLower(strings.TrimSpace(d.Security.Algorithm)) {
		case HMACAlgorithmSHA1, HMACAlgorithmSHA256:
		default:
			return fmt.Errorf("core: receiver %q has unsupported hmac algorithm %q", d.Name, d.Security.Algorithm)
		}
	case SecuritySchemeTokenHeader:
		if strings.TrimSpace(d.Security.Header) == "" {
			return fmt.Errorf("core: receiver %q token scheme requires a header", d.Name)
		}
	case SecuritySchemeCodeQuery:
		if strings.TrimSpace(d.Security.QueryKey) == "" {
			return fmt.Errorf("core: receiver %q code scheme requires a query key", d.Name)
		}
	default:
		return fmt.Errorf("core: receiver %q has unknown security scheme %q", d.Name, d.Security.Kind)
	}
	switch d.EventSource.Kind {
	// The zero value reads as "no event source": such receivers accept
	// every event.
	case EventSourceNone, "":
	case EventSourceConstant, EventSourceHeader, EventSourceQuery:
		if strings.TrimSpace(d.EventSource.Value) == "" {
			return fmt.Errorf("core: receiver %q event source requires a value", d.Name)
		}
	default:
		return fmt.Errorf("core: receiver %q has unknown event source %q", d.Name, d.EventSource.Kind)
	}
	for _, required := range d.RequiredValues {
		if strings.TrimSpace(required.Name) == "" {
			return fmt.Errorf("core: receiver %q declares an unnamed required value", d.Name)
		}
	}
	for _, binding := range d.Bindings {
		if strings.TrimSpace(binding.Name) == "" {
			return fmt.Errorf("core: receiver %q declares an unnamed binding parameter", d.Name)
		}
		switch binding.Source {
		case BindingSourceHeader, BindingSourceQuery:
		default:
			return fmt.Errorf(
				"core: receiver %q binding %q has unknown source %q",
				d.Name, binding.Name, binding.Source,
			)
		}
		if strings.TrimSpace(binding.Key) == "" {
			return fmt.Errorf("core: receiver %q binding %q requires a key", d.Name, binding.Name)
		}
	}
	if d.PingEvent != "" && (d.EventSource.Kind == EventSourceNone || d.EventSource.Kind == "") {
		return fmt.Errorf("core: receiver %q declares a ping event without an event source", d.Name)
	}
	return nil
}

// NormalizedName returns the registry key for the descriptor.
func (d ReceiverDescriptor) NormalizedName() string {
	return strings.TrimSpace(strings.ToLower(d.Name))
}
