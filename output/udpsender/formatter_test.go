package udpsender

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/relex/udpsender/base"
	"github.com/stretchr/testify/assert"
)

type stringerValue struct{ name string }

func (v stringerValue) String() string { return "<" + v.name + ">" }

func TestFormatterScenarios(t *testing.T) {
	pipe := NewFormatter("a,b,c", "|", "10.0.0.1", 514)

	t.Run("basic", func(t *testing.T) {
		d := pipe.Format(base.NewLogRecord(base.LogFields{"a": "1", "b": "2", "c": "3"}))
		assert.Equal(t, []byte{0x31, 0x7C, 0x32, 0x7C, 0x33, 0x0D, 0x0A}, d.Payload)
		assert.Equal(t, "10.0.0.1", d.Host)
		assert.Equal(t, 514, d.Port)
	})

	t.Run("missing field", func(t *testing.T) {
		d := pipe.Format(base.NewLogRecord(base.LogFields{"a": "1", "c": "3"}))
		assert.Equal(t, "1||3\r\n", string(d.Payload))
	})

	t.Run("extra field ignored", func(t *testing.T) {
		d := pipe.Format(base.NewLogRecord(base.LogFields{"a": "1", "b": "2", "c": "3", "d": "4"}))
		assert.Equal(t, "1|2|3\r\n", string(d.Payload))
	})

	t.Run("empty separator", func(t *testing.T) {
		f := NewFormatter("a,b", "", "10.0.0.1", 514)
		d := f.Format(base.NewLogRecord(base.LogFields{"a": "x", "b": "y"}))
		assert.Equal(t, "xy\r\n", string(d.Payload))
	})
}

func TestFormatterInvariants(t *testing.T) {
	f := NewFormatter("host,app,level,msg", " ; ", "collector", 12999)
	records := []base.LogFields{
		{"host": "h1", "app": "a1", "level": "info", "msg": "hello"},
		{"msg": "only message"},
		{"unrelated": "x"},
		{"host": "h2", "level": 3},
	}
	for i, fields := range records {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			d := f.Format(base.NewLogRecord(fields))
			assert.True(t, bytes.HasSuffix(d.Payload, []byte{0x0D, 0x0A}))
			assert.Equal(t, 3, bytes.Count(d.Payload, []byte(" ; ")))
			assert.Equal(t, d.Payload, f.Format(base.NewLogRecord(fields)).Payload, "deterministic")
		})
	}
}

func TestFormatterFieldOrder(t *testing.T) {
	f := NewFormatter("c,a,b", ",", "h", 1)
	r1 := base.LogFields{}
	r1["a"] = "1"
	r1["b"] = "2"
	r1["c"] = "3"
	r2 := base.LogFields{}
	r2["c"] = "3"
	r2["b"] = "2"
	r2["a"] = "1"
	for i := 0; i < 20; i++ {
		assert.Equal(t, "3,1,2\r\n", string(f.Format(base.NewLogRecord(r1)).Payload))
		assert.Equal(t, "3,1,2\r\n", string(f.Format(base.NewLogRecord(r2)).Payload))
	}
}

func TestFormatterValues(t *testing.T) {
	f := NewFormatter("s,i,f,b,n,bytes,str,time,ctl", "|", "h", 1)
	tm := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	d := f.Format(base.NewLogRecord(base.LogFields{
		"s":     "text",
		"i":     42,
		"f":     1.5,
		"b":     true,
		"n":     nil,
		"bytes": []byte("raw"),
		"str":   stringerValue{"x"},
		"time":  tm,
		"ctl":   "line1\nline2\ttab",
	}))
	assert.Equal(t, "text|42|1.5|true||raw|<x>|"+tm.String()+"|line1\nline2\ttab\r\n", string(d.Payload))
}

func TestParseParams(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, ParseParams("a,b,c"))
	assert.Equal(t, []string{"a", "b"}, ParseParams("a,b,,"))
	assert.Equal(t, []string{"", "a"}, ParseParams(",a"))
	assert.Equal(t, []string{"a", "", "b"}, ParseParams("a,,b"))
	assert.Equal(t, []string{"a", "b"}, ParseParams("a,b,a"))
	assert.Equal(t, []string{" a", "b "}, ParseParams(" a,b "))
	assert.Empty(t, ParseParams(",,,"))
	assert.Empty(t, ParseParams(""))
}

func TestFormatterEdgeCases(t *testing.T) {
	t.Run("no field names", func(t *testing.T) {
		f := NewFormatter(",,", "|", "h", 1)
		assert.Equal(t, "\r\n", string(f.Format(base.NewLogRecord(base.LogFields{"a": "1"})).Payload))
	})

	t.Run("repeated field name", func(t *testing.T) {
		f := NewFormatter("a,b,a", "|", "h", 1)
		assert.Equal(t, []string{"a", "b"}, f.FieldNames())
		assert.Equal(t, "1|2\r\n", string(f.Format(base.NewLogRecord(base.LogFields{"a": "1", "b": "2"})).Payload))
	})

	t.Run("empty field name", func(t *testing.T) {
		f := NewFormatter("a,,b", "|", "h", 1)
		assert.Equal(t, "1||2\r\n", string(f.Format(base.NewLogRecord(base.LogFields{"a": "1", "b": "2"})).Payload))
	})

	t.Run("nil record", func(t *testing.T) {
		f := NewFormatter("a,b", "|", "h", 1)
		assert.Equal(t, "|\r\n", string(f.Format(nil).Payload))
	})

	t.Run("field names are copied", func(t *testing.T) {
		f := NewFormatter("a,b", "|", "h", 1)
		names := f.FieldNames()
		names[0] = "z"
		assert.Equal(t, []string{"a", "b"}, f.FieldNames())
	})
}
