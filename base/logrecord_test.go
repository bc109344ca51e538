package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogRecordIsEmpty(t *testing.T) {
	var nilRecord *LogRecord
	assert.True(t, nilRecord.IsEmpty())
	assert.True(t, NewLogRecord(nil).IsEmpty())
	assert.True(t, NewLogRecord(LogFields{}).IsEmpty())
	assert.False(t, NewLogRecord(LogFields{"a": "1"}).IsEmpty())
	assert.False(t, NewLogRecord(LogFields{"msg": nil}).IsEmpty())
}
