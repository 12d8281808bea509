package log

// Field names shared across packages.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldChannelID  = "channel_id"
	FieldProgramID  = "program_id"
	FieldScheduleID = "schedule_id"
	FieldRoute      = "route"
)
