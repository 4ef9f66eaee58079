package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/goliatone/go-receivers/core"
)

// Orchestrator runs the verification chain against a registry of
// descriptors. It holds no per-request state; one orchestrator serves
// concurrent requests.
type Orchestrator struct {
	registry  core.Registry
	secrets   core.SecretSource
	config    core.Config
	logger    core.Logger
	observers []core.OutcomeObserver
	newID     func() string
}

type Option func(*Orchestrator)

func WithConfig(cfg core.Config) Option {
	return func(o *Orchestrator) {
		o.config = cfg
	}
}

func WithLogger(logger core.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithObserver(observer core.OutcomeObserver) Option {
	return func(o *Orchestrator) {
		if observer != nil {
			o.observers = append(o.observers, observer)
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

func NewOrchestrator(registry core.Registry, secrets core.SecretSource, opts ...Option) *Orchestrator {
	orchestrator := &Orchestrator{
		registry: registry,
		secrets:  secrets,
		config:   core.DefaultConfig(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(orchestrator)
	}
	return orchestrator
}

// Run decides one request. Rejections and short-circuits return a terminal
// outcome; rejections additionally return the error envelope carrying the
// same status. Configuration defects return a zero outcome and an error
// with the config-fatal text code.
func (o *Orchestrator) Run(ctx context.Context, req core.InboundRequest) (core.Outcome, error) {
	if o == nil || o.registry == nil {
		return core.Outcome{}, pipelineInternal("pipeline: orchestrator requires a registry", nil)
	}
	receiver := strings.TrimSpace(req.Receiver)
	if receiver == "" {
		return core.Outcome{}, pipelineBadInput("pipeline: receiver name is required", nil)
	}
	req.Receiver = receiver

	descriptor, ok := o.registry.Get(receiver)
	if !ok {
		reason := fmt.Sprintf("receiver %q is not registered", receiver)
		outcome := core.Outcome{
			ID:         o.newID(),
			Decision:   core.DecisionRejected,
			Receiver:   receiver,
			InstanceID: req.InstanceID,
			StatusCode: 404,
			Reason:     reason,
			Stage:      "lookup",
		}
		err := pipelineNotFound("pipeline: "+reason, map[string]any{"receiver": receiver})
		o.logRejection(ctx, req, outcome)
		o.notify(ctx, req, outcome)
		return outcome, err
	}

	x := &exchange{
		req:        req,
		descriptor: descriptor,
		events:     ResolveEvents(descriptor, req),
	}

	for _, stage := range verificationStages() {
		outcome, err := stage.run(ctx, o, x)
		if err != nil && outcome == nil {
			// Configuration or programming fault: no request-level verdict.
			o.logFault(ctx, req, stage.name, err)
			return core.Outcome{}, err
		}
		if outcome != nil {
			if outcome.Rejected() {
				o.logRejection(ctx, req, *outcome)
			} else {
				o.logShortCircuit(ctx, req, *outcome)
			}
			o.notify(ctx, req, *outcome)
			return *outcome, err
		}
	}

	admitted := core.Outcome{
		ID:         o.newID(),
		Decision:   core.DecisionAdmitted,
		Receiver:   descriptor.Name,
		InstanceID: req.InstanceID,
		Events:     append([]string(nil), x.events...),
		StatusCode: 200,
	}
	o.logAdmission(ctx, req, admitted)
	o.notify(ctx, req, admitted)
	return admitted, nil
}

func (o *Orchestrator) reject(x *exchange, stage string, status int, reason string) *core.Outcome {
	return &core.Outcome{
		ID:         o.newID(),
		Decision:   core.DecisionRejected,
		Receiver:   x.descriptor.Name,
		InstanceID: x.req.InstanceID,
		Events:     append([]string(nil), x.events...),
		StatusCode: status,
		Reason:     reason,
		Stage:      stage,
	}
}

func (o *Orchestrator) shortCircuit(x *exchange, stage string, status int) *core.Outcome {
	return &core.Outcome{
		ID:         o.newID(),
		Decision:   core.DecisionShortCircuited,
		Receiver:   x.descriptor.Name,
		InstanceID: x.req.InstanceID,
		Events:     append([]string(nil), x.events...),
		StatusCode: status,
		Stage:      stage,
	}
}

func (o *Orchestrator) notify(ctx context.Context, req core.InboundRequest, outcome core.Outcome) {
	for _, observer := range o.observers {
		if observer == nil {
			continue
		}
		if err := observer.ObserveOutcome(ctx, req, outcome); err != nil {
			o.logWithLevel(ctx, "error", "outcome observer failed", map[string]any{
				"receiver":   outcome.Receiver,
				"outcome_id": outcome.ID,
				"error":      err.Error(),
			})
		}
	}
}

func (o *Orchestrator) logRejection(ctx context.Context, req core.InboundRequest, outcome core.Outcome) {
	o.logWithLevel(ctx, "info", "webhook rejected", map[string]any{
		"receiver":    outcome.Receiver,
		"instance_id": req.InstanceID,
		"stage":       outcome.Stage,
		"status_code": outcome.StatusCode,
		"reason":      outcome.Reason,
	})
}

func (o *Orchestrator) logShortCircuit(ctx context.Context, req core.InboundRequest, outcome core.Outcome) {
	o.logWithLevel(ctx, "info", "webhook short-circuited", map[string]any{
		"receiver":    outcome.Receiver,
		"instance_id": req.InstanceID,
		"stage":       outcome.Stage,
		"status_code": outcome.StatusCode,
	})
}

func (o *Orchestrator) logAdmission(ctx context.Context, req core.InboundRequest, outcome core.Outcome) {
	o.logWithLevel(ctx, "info", "webhook admitted", map[string]any{
		"receiver":    outcome.Receiver,
		"instance_id": req.InstanceID,
		"events":      strings.Join(outcome.Events, ","),
	})
}

func (o *Orchestrator) logFault(ctx context.Context, req core.InboundRequest, stage string, err error) {
	o.logWithLevel(ctx, "error", "webhook verification fault", map[string]any{
		"receiver":    req.Receiver,
		"instance_id": req.InstanceID,
		"stage":       stage,
		"error":       err.Error(),
	})
}

func (o *Orchestrator) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if o == nil || o.logger == nil {
		return
	}
	logger := o.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(fields)
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
