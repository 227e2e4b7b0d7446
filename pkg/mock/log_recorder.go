package mock

import (
	"fmt"
	"sync"

	"github.com/trussworks/userauth/pkg/domain"
)

// Log Recorder

// LogLine is a mock log line
type LogLine struct {
	Level   string
	Message string
	Err     error
	Fields  domain.LogFields
}

// LogRecorder records every line it is given before passing it on to the wrapped LogService.
type LogRecorder struct {
	domain.LogService
	mu      sync.Mutex
	lines   []LogLine
	globals domain.LogFields
}

// NewLogRecorder wraps service. A nil service records without printing.
func NewLogRecorder(service domain.LogService) *LogRecorder {
	return &LogRecorder{
		LogService: service,
	}
}

// RecordLine records and returns a new LogLine with its level, message, and fields.
func (r *LogRecorder) RecordLine(level string, message string, err error, fields domain.LogFields) LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	newLine := LogLine{
		Level:   level,
		Message: message,
		Err:     err,
		Fields:  domain.LogFields{},
	}

	for k, v := range r.globals {
		newLine.Fields[k] = v
	}

	for k, v := range fields {
		newLine.Fields[k] = v
	}

	r.lines = append(r.lines, newLine)

	return newLine
}

// Info records new LogLine as INFO level
func (r *LogRecorder) Info(message string, fields domain.LogFields) {
	line := r.RecordLine("INFO", message, nil, fields)
	if r.LogService != nil {
		r.LogService.Info(line.Message, line.Fields)
	}
}

// WarnError records new LogLine as WARN level
func (r *LogRecorder) WarnError(message string, err error, fields domain.LogFields) {
	line := r.RecordLine("WARN", message, err, fields)
	if r.LogService != nil {
		r.LogService.WarnError(line.Message, err, line.Fields)
	}
}

// AddField adds new fields to LogRecorder's globals field
func (r *LogRecorder) AddField(name string, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.globals == nil {
		r.globals = domain.LogFields{}
	}
	r.globals[name] = value
}

// GetOnlyMatchingMessage returns singular LogLine that matches message or errors
func (r *LogRecorder) GetOnlyMatchingMessage(message string) (LogLine, error) {
	messages := r.MatchingMessages(message)
	if len(messages) != 1 {
		return LogLine{}, fmt.Errorf("Didn't find only one line for message: %s (%v) ", message, messages)
	}
	return messages[0], nil
}

// MatchingMessages compares message to LogLines to seek those LogLines that match on LogRecorder
func (r *LogRecorder) MatchingMessages(message string) []LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	matches := []LogLine{}
	for _, line := range r.lines {
		if line.Message == message {
			matches = append(matches, line)
		}
	}
	return matches
}

// Lines returns a copy of every recorded line
func (r *LogRecorder) Lines() []LogLine {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]LogLine(nil), r.lines...)
}
