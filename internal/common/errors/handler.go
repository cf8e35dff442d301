// internal/common/errors/handler.go
package errors

// ErrorHandler normalizes failures and logs them with their category.
type ErrorHandler struct {
	logger Logger
}

// Logger is the subset of logger.Logger the handler needs. Declared here so
// this package stays free of a logger import.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err, logs it and returns the normalized form. Retryable
// failures log at warn level, everything else at error level.
func (h *ErrorHandler) Handle(operation string, err error, fields map[string]interface{}) *StandardError {
	stdErr := Classify(err)
	if stdErr == nil {
		return nil
	}

	entry := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	for k, v := range fields {
		entry[k] = v
	}

	if stdErr.Retryable {
		h.logger.Warn("operation failed", entry)
	} else {
		h.logger.Error("operation failed", entry)
	}
	return stdErr
}
