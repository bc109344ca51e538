package recordreader

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/relex/udpsender/base"
	"github.com/vmihailenco/msgpack/v4"
)

// ErrInvalidRecord is returned (wrapped) for an input entry which cannot be decoded as a record
//
// Decoding may continue with the next entry.
var ErrInvalidRecord = errors.New("invalid record")

// Decoder reads records one by one from a stream
type Decoder interface {
	// Decode returns the next record, or io.EOF at the end of stream
	Decode() (*base.LogRecord, error)
}

// NewDecoder creates a Decoder of the given format
//
// maxLineSize limits the length of lines in line-based formats
func NewDecoder(format Format, reader io.Reader, maxLineSize int) (Decoder, error) {
	if maxLineSize <= 0 {
		return nil, fmt.Errorf("invalid max line size %d", maxLineSize)
	}
	switch format {
	case FormatJSON:
		scanner := bufio.NewScanner(reader)
		initialSize := 4096
		if maxLineSize < initialSize {
			initialSize = maxLineSize
		}
		scanner.Buffer(make([]byte, 0, initialSize), maxLineSize)
		return &jsonLineDecoder{scanner: scanner, lineNumber: 0}, nil
	case FormatMsgpack:
		return &msgpackDecoder{decoder: msgpack.NewDecoder(reader), index: 0}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

type jsonLineDecoder struct {
	scanner    *bufio.Scanner
	lineNumber int
}

func (dec *jsonLineDecoder) Decode() (*base.LogRecord, error) {
	for dec.scanner.Scan() {
		dec.lineNumber++
		line := bytes.TrimSpace(dec.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		fields := base.LogFields{}
		jdec := json.NewDecoder(bytes.NewReader(line))
		jdec.UseNumber() // keep numbers as they are written
		if err := jdec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidRecord, dec.lineNumber, err.Error())
		}
		if jdec.More() {
			return nil, fmt.Errorf("%w: line %d: trailing data", ErrInvalidRecord, dec.lineNumber)
		}
		return base.NewLogRecord(fields), nil
	}
	if err := dec.scanner.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", dec.lineNumber+1, err)
	}
	return nil, io.EOF
}

type msgpackDecoder struct {
	decoder *msgpack.Decoder
	index   int
}

func (dec *msgpackDecoder) Decode() (*base.LogRecord, error) {
	var fields map[string]interface{}
	if err := dec.decoder.Decode(&fields); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		// the stream cannot be resynchronized after a broken entry
		return nil, fmt.Errorf("entry %d: %w", dec.index, err)
	}
	dec.index++
	return base.NewLogRecord(fields), nil
}
