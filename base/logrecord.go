package base

// LogRecord defines the structure of a log record received from upstream
type LogRecord struct {
	Fields LogFields // Named fields. A record without fields carries nothing to forward.
}

// LogFields represents named fields in LogRecord
//
// Values are rendered through their textual representation by outputs
type LogFields map[string]interface{}

// NewLogRecord creates a LogRecord from the given fields
func NewLogRecord(fields LogFields) *LogRecord {
	return &LogRecord{Fields: fields}
}

// IsEmpty checks whether the record is nil or has no field at all
func (record *LogRecord) IsEmpty() bool {
	return record == nil || len(record.Fields) == 0
}
