package log

// Canonical field names shared by every component logger.
const (
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldEvent     = "event"

	FieldAdapterID = "adapter_id"
	FieldOldState  = "old_state"
	FieldNewState  = "new_state"
	FieldPlugin    = "plugin_state"
	FieldOperation = "operation"
	FieldTask      = "task"
	FieldDRM       = "drm"
	FieldURL       = "url"
	FieldRenderer  = "renderer"
	FieldMethod    = "method"
	FieldErrorCode = "error_code"
)
