package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-receivers/core"
)

const (
	TypeRegisterReceiver = "receivers.command.register"
	TypeRecordAdmission  = "receivers.command.admission.record"
)

type RegisterReceiverMessage struct {
	Descriptor core.ReceiverDescriptor
}

func (RegisterReceiverMessage) Type() string { return TypeRegisterReceiver }

func (m RegisterReceiverMessage) Validate() error {
	if strings.TrimSpace(m.Descriptor.Name) == "" {
		return fmt.Errorf("command: receiver name is required")
	}
	return nil
}

type RecordAdmissionMessage struct {
	Request core.InboundRequest
	Outcome core.Outcome
}

func (RecordAdmissionMessage) Type() string { return TypeRecordAdmission }

func (m RecordAdmissionMessage) Validate() error {
	if strings.TrimSpace(m.Outcome.Receiver) == "" {
		return fmt.Errorf("command: outcome receiver is required")
	}
	if m.Outcome.Decision == "" {
		return fmt.Errorf("command: outcome decision is required")
	}
	return nil
}
