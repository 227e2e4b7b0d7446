package logger

import (
	"regexp"
	"strings"

	"github.com/trussworks/userauth/pkg/domain"
)

// Redaction replaces PII values
const Redaction = "***"

// PIIFields are the log fields that are always redacted
var PIIFields = []string{"name", "email", "phone", "ssn", "password"}

// FilterDatum replaces the value of every "field=value" pair in message with redaction.
// Values run up to the next separator, or the next whitespace when separator is empty.
func FilterDatum(fields []string, redaction string, message string, separator string) string {
	if len(fields) == 0 {
		return message
	}

	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = regexp.QuoteMeta(f)
	}
	value := `\S*`
	if separator != "" {
		value = `[^` + regexp.QuoteMeta(separator) + `]*`
	}

	pattern := regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)=` + value)
	return pattern.ReplaceAllString(message, "${1}="+strings.ReplaceAll(redaction, "$", "$$"))
}

// RedactingLogger scrubs PII out of the fields and message before passing them on.
type RedactingLogger struct {
	next      domain.LogService
	fields    []string
	separator string
}

// NewRedactingLogger wraps next. With no fields given it redacts PIIFields.
func NewRedactingLogger(next domain.LogService, fields ...string) RedactingLogger {
	if len(fields) == 0 {
		fields = PIIFields
	}
	return RedactingLogger{
		next:      next,
		fields:    fields,
		separator: ";",
	}
}

func (l RedactingLogger) redactFields(fields domain.LogFields) domain.LogFields {
	redacted := domain.LogFields{}
	for k, v := range fields {
		redacted[k] = v
		for _, f := range l.fields {
			if k == f {
				redacted[k] = Redaction
				break
			}
		}
	}
	return redacted
}

// Info logs a redacted line at info level
func (l RedactingLogger) Info(message string, fields domain.LogFields) {
	l.next.Info(FilterDatum(l.fields, Redaction, message, l.separator), l.redactFields(fields))
}

// WarnError logs a redacted line at warn level
func (l RedactingLogger) WarnError(message string, err error, fields domain.LogFields) {
	if err != nil {
		err = redactedError{cause: err, message: FilterDatum(l.fields, Redaction, err.Error(), l.separator)}
	}
	l.next.WarnError(FilterDatum(l.fields, Redaction, message, l.separator), err, l.redactFields(fields))
}

// redactedError reports a scrubbed message but still unwraps to the original error.
type redactedError struct {
	cause   error
	message string
}

func (e redactedError) Error() string {
	return e.message
}

func (e redactedError) Unwrap() error {
	return e.cause
}
