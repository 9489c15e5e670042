package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldVersion     = "version"
	FieldReason      = "reason"
	FieldTxID        = "transaction_id"
	FieldTxType      = "transaction_type"
	FieldCategory    = "category"
	FieldAmount      = "amount"
	FieldGoalID      = "goal_id"
	FieldCurrency    = "currency"
	FieldRecordCount = "count"
)

// Component names
const (
	ComponentApp        = "app"
	ComponentLedger     = "ledger"
	ComponentScheduler  = "scheduler"
	ComponentAnalytics  = "analytics"
	ComponentAllocation = "allocation"
	ComponentStorage    = "storage"
	ComponentBackend    = "backend"
	ComponentCache      = "cache"
	ComponentAMQP       = "amqp"
	ComponentExport     = "export"
	ComponentHTTP       = "http"
	ComponentWorker     = "worker"
	ComponentTrace      = "trace"
	ComponentSecurity   = "security"
)

// Operations
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpAllocate = "allocate"
	OpExport   = "export"
	OpReset    = "reset"
	OpCatchUp  = "catch_up"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// Error type categories, attached to failed requests.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeAmount        = "invalid_amount_error"
	ErrorTypeBalance       = "insufficient_balance_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeStorage       = "storage_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeInternal      = "internal_error"
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

// WithRequestID adds request ID field
func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

// WithClientIP adds client IP field
func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType tags the error category.
func (f LogFields) WithErrorType(kind string) LogFields {
	f[FieldErrorType] = kind
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds the fields describing a ledger transaction.
func (f LogFields) WithTransaction(id int64, kind, category, amount string) LogFields {
	f[FieldTxID] = id
	f[FieldTxType] = kind
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// WithVersion adds the ledger version and the reason it changed.
func (f LogFields) WithVersion(version uint64, reason string) LogFields {
	f[FieldVersion] = version
	if reason != "" {
		f[FieldReason] = reason
	}
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
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
