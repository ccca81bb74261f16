package server

import (
	"io"
	"sync"

	"github.com/eternalApril/hanabi/internal/resp"
	"github.com/oklog/ulid/v2"
)

// Peer represents a connected client.
// It wraps a duplex stream and provides synchronized methods for reading and writing RESP-encoded data
type Peer struct {
	id     ulid.ULID
	conn   io.ReadWriteCloser
	reader *resp.Decoder
	writer *resp.Encoder
	mu     sync.Mutex
}

// NewPeer initializes a new client peer from a stream, usually a net.Conn
func NewPeer(conn io.ReadWriteCloser) *Peer {
	p := &Peer{
		id:     ulid.Make(),
		conn:   conn,
		writer: resp.NewEncoder(conn),
	}
	p.reader = resp.NewDecoder(flushOnRead{p})

	return p
}

// flushOnRead sends pending replies before the decoder waits on the connection,
// so a reply never sits behind a request that is only partly received
type flushOnRead struct {
	p *Peer
}

func (r flushOnRead) Read(b []byte) (int, error) {
	if err := r.p.Flush(); err != nil {
		return 0, err
	}
	return r.p.conn.Read(b)
}

// ID returns the unique id of the connection, used to correlate log lines
func (p *Peer) ID() string {
	return p.id.String()
}

// SetMaxBulkLength limits the size of bulk strings the client may send
func (p *Peer) SetMaxBulkLength(n int64) {
	p.reader.SetMaxBulkLength(n)
}

// Send encodes a RESP value into the output buffer.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(v resp.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(v)
}

// ReadCommand reads and decodes the next RESP value from the client's input stream
func (p *Peer) ReadCommand() (resp.Value, error) {
	return p.reader.Read()
}

// Close terminates the underlying connection
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// InputBuffered returns the number of bytes that can be read from the current buffer
func (p *Peer) InputBuffered() int {
	return p.reader.Buffered()
}
