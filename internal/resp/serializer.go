package resp

import (
	"bytes"
)

// SerializeCommand uses a standard Encoder to convert a client request to bytes
func SerializeCommand(cmd string, args ...string) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	elements := make([]string, 0, 1+len(args))
	elements = append(elements, cmd)
	elements = append(elements, args...)

	if err := enc.Write(MakeBulkArray(elements...)); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
