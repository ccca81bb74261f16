package resp

import "io"

// ByteSource is the cursor the Decoder consumes. *bufio.Reader and *bytes.Buffer satisfy it
type ByteSource interface {
	io.Reader
	io.ByteReader
	ReadBytes(delim byte) ([]byte, error)
}

type Reader interface {
	Read() (Value, error)
}

type Writer interface {
	Write(v Value) error
	Flush() error
}
