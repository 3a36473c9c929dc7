package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldSessionID  = "session_id"
	FieldCategory   = "category"
	FieldAmount     = "amount"
	FieldAction     = "action"
	FieldRevision   = "revision"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentChat      = "chat"
	ComponentBudget    = "budget"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations
const (
	OpRead     = "read"
	OpUpdate   = "update"
	OpReplace  = "replace"
	OpChat     = "chat"
	OpReset    = "reset"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields is a builder for structured log attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithSession(id string) LogFields {
	f[FieldSessionID] = id
	return f
}

// WithUpdate adds the fields of one category change.
func (f LogFields) WithUpdate(category string, amount int64, action string) LogFields {
	f[FieldCategory] = category
	f[FieldAmount] = amount
	f[FieldAction] = action
	return f
}

func (f LogFields) WithHTTPRequest(method, path, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
