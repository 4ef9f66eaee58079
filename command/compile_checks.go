package command

import gocmd "github.com/goliatone/go-command"

var (
	_ gocmd.Commander[RegisterReceiverMessage] = (*RegisterReceiverCommand)(nil)
	_ gocmd.Commander[RecordAdmissionMessage]  = (*RecordAdmissionCommand)(nil)
)
