package resp

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

const (
	// DefaultMaxBulkLength mirrors the proto-max-bulk-len default of redis
	DefaultMaxBulkLength = 512 * 1024 * 1024

	maxNestingDepth = 1024
	maxIntegerWidth = 20        // digits of math.MinInt64
	maxPrealloc     = 1024      // array elements reserved before they arrive
	maxBulkPrealloc = 64 * 1024 // bulk bytes reserved before they arrive
)

// Decoder reads RESP values one at a time from a ByteSource.
// Every call consumes exactly the bytes of one value, so a single Decoder
// parses a pipeline of requests arriving on the same connection
type Decoder struct {
	rd         ByteSource
	maxBulkLen int64
}

// NewDecoder wraps rd in a buffered reader unless it already is a ByteSource
func NewDecoder(rd io.Reader) *Decoder {
	src, ok := rd.(ByteSource)
	if !ok {
		src = bufio.NewReader(rd)
	}

	return &Decoder{
		rd:         src,
		maxBulkLen: DefaultMaxBulkLength,
	}
}

// SetMaxBulkLength limits the declared length of bulk strings. n <= 0 restores the default
func (d *Decoder) SetMaxBulkLength(n int64) {
	if n <= 0 {
		n = DefaultMaxBulkLength
	}
	d.maxBulkLen = n
}

// Buffered returns the number of bytes already pulled from the transport but not yet decoded
func (d *Decoder) Buffered() int {
	if b, ok := d.rd.(interface{ Buffered() int }); ok {
		return b.Buffered()
	}
	if b, ok := d.rd.(interface{ Len() int }); ok {
		return b.Len()
	}
	return 0
}

// Read decodes the next value.
// io.EOF before the first byte and transport failures are returned as is,
// malformed input is reported as *ProtocolError
func (d *Decoder) Read() (Value, error) {
	tag, err := d.rd.ReadByte()
	if err != nil {
		return Value{}, err
	}

	return d.readValue(tag, 0)
}

// Decode parses one value from b and returns the unconsumed remainder
func Decode(b []byte) (Value, []byte, error) {
	buf := bytes.NewBuffer(b)
	val, err := NewDecoder(buf).Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = protocolError(io.ErrUnexpectedEOF)
		}
		return Value{}, nil, err
	}
	return val, buf.Bytes(), nil
}

func (d *Decoder) readValue(tag byte, depth int) (Value, error) {
	val := Value{
		Type: tag,
	}

	switch tag {
	case TypeSimpleString, TypeError:
		str, err := d.readLine()
		if err != nil {
			return Value{}, err
		}

		val.String = str
		return val, nil
	case TypeInteger:
		num, err := d.readInteger()
		if err != nil {
			return Value{}, err
		}

		val.Integer = num
		return val, nil
	case TypeBulkString:
		return d.readBulkString()
	case TypeArray:
		return d.readArray(depth)
	}

	return Value{}, protocolError(&UnknownTypeError{Tag: tag})
}

// readLine reads a Simple String or Error payload up to CRLF
func (d *Decoder) readLine() ([]byte, error) {
	line, err := d.rd.ReadBytes('\n')
	if err != nil {
		return nil, truncated(err)
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return nil, protocolError(ErrInvalidEnding)
	}

	return line[:len(line)-2], nil
}

// readInteger reads [+|-]digits\r\n. The byte after CR is discarded
func (d *Decoder) readInteger() (int64, error) {
	var buf [maxIntegerWidth + 1]byte
	n := 0

	for i := 0; ; i++ {
		b, err := d.rd.ReadByte()
		if err != nil {
			return 0, truncated(err)
		}

		if b == '\r' {
			break
		}

		switch {
		case i == 0 && (b == '+' || b == '-'):
			if b == '-' {
				buf[n] = b
				n++
			}
		case b >= '0' && b <= '9':
			if n == len(buf) {
				return 0, protocolError(ErrInvalidInteger)
			}
			buf[n] = b
			n++
		case b == '\n':
			return 0, protocolError(ErrInvalidEnding)
		default:
			return 0, protocolError(ErrInvalidInteger)
		}
	}

	if _, err := d.rd.ReadByte(); err != nil {
		return 0, truncated(err)
	}

	num, err := strconv.ParseInt(string(buf[:n]), 10, 64)
	if err != nil {
		return 0, protocolError(ErrInvalidInteger)
	}

	return num, nil
}

func (d *Decoder) readBulkString() (Value, error) {
	size, err := d.readInteger()
	if err != nil {
		return Value{}, err
	}

	if size < 0 {
		return MakeNilBulkString(), nil
	}

	if size > d.maxBulkLen {
		return Value{}, protocolError(ErrBulkLengthExceeded)
	}

	buf, err := d.readPayload(size + 2)
	if err != nil {
		return Value{}, err
	}

	if buf[size] != '\r' || buf[size+1] != '\n' {
		return Value{}, protocolError(ErrInvalidEnding)
	}

	return Value{
		Type:   TypeBulkString,
		String: buf[:size:size],
	}, nil
}

// readPayload reads exactly n bytes. Memory grows with the bytes that actually
// arrive, so a large declared length alone cannot reserve it up front
func (d *Decoder) readPayload(n int64) ([]byte, error) {
	if n <= maxBulkPrealloc {
		buf := make([]byte, n)
		if _, err := io.ReadFull(d.rd, buf); err != nil {
			return nil, truncated(err)
		}
		return buf, nil
	}

	var buf bytes.Buffer
	buf.Grow(maxBulkPrealloc)
	if _, err := io.CopyN(&buf, d.rd, n); err != nil {
		return nil, truncated(err)
	}
	return buf.Bytes(), nil
}

func (d *Decoder) readArray(depth int) (Value, error) {
	if depth >= maxNestingDepth {
		return Value{}, protocolError(ErrNestingTooDeep)
	}

	count, err := d.readInteger()
	if err != nil {
		return Value{}, err
	}

	if count < 0 {
		return Value{}, protocolError(ErrNegativeArrayLength)
	}

	items := make([]Value, 0, min(count, maxPrealloc))
	for i := int64(0); i < count; i++ {
		tag, err := d.rd.ReadByte()
		if err != nil {
			return Value{}, truncated(err)
		}

		item, err := d.readValue(tag, depth+1)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}

	return MakeArray(items), nil
}

// truncated turns an end of stream inside a value into a protocol error
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return protocolError(io.ErrUnexpectedEOF)
	}
	return err
}
