// Package command exposes registration and admission recording as go-command
// messages so hosts can route them through their dispatcher.
package command

import (
	"context"
	"strings"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-receivers/core"
)

type RegisterReceiverCommand struct {
	registry core.Registry
}

func NewRegisterReceiverCommand(registry core.Registry) *RegisterReceiverCommand {
	return &RegisterReceiverCommand{registry: registry}
}

func (c *RegisterReceiverCommand) Execute(ctx context.Context, msg RegisterReceiverMessage) error {
	if c == nil || c.registry == nil {
		return commandDependencyError("command: receiver registry is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	if err := c.registry.Register(msg.Descriptor); err != nil {
		return err
	}
	storeResult(ctx, msg.Descriptor.NormalizedName())
	return nil
}

type RecordAdmissionCommand struct {
	observer core.OutcomeObserver
}

func NewRecordAdmissionCommand(observer core.OutcomeObserver) *RecordAdmissionCommand {
	return &RecordAdmissionCommand{observer: observer}
}

func (c *RecordAdmissionCommand) Execute(ctx context.Context, msg RecordAdmissionMessage) error {
	if c == nil || c.observer == nil {
		return commandDependencyError("command: outcome observer is required")
	}
	if err := msg.Validate(); err != nil {
		return commandInvalidInputError(err.Error())
	}
	if err := c.observer.ObserveOutcome(ctx, msg.Request, msg.Outcome); err != nil {
		return err
	}
	storeResult(ctx, strings.TrimSpace(msg.Outcome.ID))
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
