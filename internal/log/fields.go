package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldPeriod      = "period"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldAmountMinor = "amount_minor"
	FieldFile        = "file"
	FieldLine        = "line"
	FieldRaw         = "raw"
	FieldImported    = "imported"
	FieldSkipped     = "skipped"
	FieldEventID     = "event_id"
	FieldEventType   = "event_type"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentStorage = "storage"
	ComponentImport  = "import"
	ComponentBackup  = "backup"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpAppend   = "append"
	OpLoad     = "load"
	OpRewrite  = "rewrite"
	OpUpsert   = "upsert"
	OpParse    = "parse"
	OpImport   = "import"
	OpExport   = "export"
	OpBackup   = "backup"
	OpRestore  = "restore"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds transaction-related fields
func (f LogFields) WithTransaction(kind, category string, amountMinor int64) LogFields {
	f[FieldKind] = kind
	f[FieldCategory] = category
	f[FieldAmountMinor] = amountMinor
	return f
}

// maxRawLen caps the raw text logged for a bad line
const maxRawLen = 256

// WithLine adds the position and raw text of a persisted record
func (f LogFields) WithLine(file string, line int, raw string) LogFields {
	f[FieldFile] = file
	f[FieldLine] = line
	if len(raw) > maxRawLen {
		raw = raw[:maxRawLen] + "..."
	}
	f[FieldRaw] = raw
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
