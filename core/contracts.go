package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

// InboundRequest is the transport-neutral view of one webhook delivery the
// pipeline decides on. The routing layer resolves Receiver and InstanceID
// before the pipeline runs.
type InboundRequest struct {
	Receiver    string
	InstanceID  string
	Method      string
	Secure      bool
	Loopback    bool
	ContentType string
	Headers     map[string]string
	Query       map[string]string
	Body        []byte
	Metadata    map[string]any
}

type Decision string

const (
	DecisionAdmitted       Decision = "admitted"
	DecisionRejected       Decision = "rejected"
	DecisionShortCircuited Decision = "short_circuited"
)

// Outcome is the pipeline's verdict for one request. Rejections carry the
// HTTP status and a reason naming the receiver and the offending field;
// short-circuits carry the fixed response status.
type Outcome struct {
	ID         string
	Decision   Decision
	Receiver   string
	InstanceID string
	Events     []string
	StatusCode int
	Reason     string
	Stage      string
	Metadata   map[string]any
}

func (o Outcome) Admitted() bool {
	return o.Decision == DecisionAdmitted
}

func (o Outcome) Rejected() bool {
	return o.Decision == DecisionRejected
}

func (o Outcome) ShortCircuited() bool {
	return o.Decision == DecisionShortCircuited
}

// SecretSource resolves the shared secret configured for a receiver
// instance. A false second return means no secret is configured; whether
// that is fatal depends on the receiver's security scheme.
type SecretSource interface {
	Lookup(ctx context.Context, receiver string, instanceID string) (string, bool, error)
}

// OutcomeObserver is notified after the pipeline produces an outcome.
// Observers must not block admission; failures are logged, not surfaced.
type OutcomeObserver interface {
	ObserveOutcome(ctx context.Context, req InboundRequest, outcome Outcome) error
}

type Registry interface {
	Register(descriptor ReceiverDescriptor) error
	Get(name string) (ReceiverDescriptor, bool)
	List() []ReceiverDescriptor
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
