package server

import (
	"fmt"
	"time"

	"github.com/eternalApril/hanabi/internal/resp"
	"github.com/eternalApril/hanabi/internal/storage"
	"go.uber.org/zap"
)

const (
	errNotCommand    = "WRONGTYPE wrong type, expected command name as a Bulk strings"
	errWrongTypeHash = "WRONGTYPE operation against a key holding non-hashmap"
	errDecode        = "ERR Could not deserialized command(s)"
	errInternal      = "ERR internal error while executing command"
)

// Engine maps decoded requests onto command handlers. It keeps no state between
// calls, everything lives in the storage it was built with
type Engine struct {
	commands map[string]command // Registry of available commands, matched case-sensitively
	storage  storage.Storage    // Interface to the underlying KV storage
	logger   *zap.Logger
	metrics  *Metrics
}

// Option customizes an Engine
type Option func(*Engine)

// WithMetrics makes the engine record per command metrics
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine initializes the engine and registers the command table
func NewEngine(s storage.Storage, logger *zap.Logger, opts ...Option) *Engine {
	engine := &Engine{
		commands: make(map[string]command),
		storage:  s,
		logger:   logger,
	}

	for _, opt := range opts {
		opt(engine)
	}

	engine.registerBasicCommand()

	return engine
}

// register adds a new command to the engine
func (e *Engine) register(name string, cmd command) {
	e.commands[name] = cmd
}

// registerBasicCommand fills the registry with standard commands
func (e *Engine) registerBasicCommand() {
	e.register("PING", commandFunc(ping))
	e.register("HELLO", commandFunc(hello))
	e.register("COMMAND", commandFunc(cmd))

	e.register("GET", commandFunc(get))
	e.register("SET", commandFunc(set))
	e.register("DEL", commandFunc(del))

	e.register("HSET", commandFunc(hset))
	e.register("HGET", commandFunc(hget))
	e.register("HGETALL", commandFunc(hgetall))
	e.register("HDEL", commandFunc(hdel))
}

// Dispatch executes a decoded request. Requests must be arrays whose first element is the command name
func (e *Engine) Dispatch(req resp.Value) resp.Value {
	if req.Type != resp.TypeArray {
		return resp.MakeError(errNotCommand)
	}

	return e.Execute(req.Array)
}

// Execute finds the command named by args[0] and runs it with the remaining arguments.
// Every failure is returned as a RESP error value
func (e *Engine) Execute(args []resp.Value) (res resp.Value) {
	if len(args) == 0 || !args[0].IsBulk() {
		return resp.MakeError(errNotCommand)
	}

	name := args[0].Text()

	if e.logger.Core().Enabled(zap.DebugLevel) {
		// Log the command name and number of args
		e.logger.Debug("executing command",
			zap.String("cmd", name),
			zap.Int("args_count", len(args)-1),
		)
	}

	cmd, ok := e.commands[name]
	if !ok {
		e.metrics.observe(unknownCommandLabel, true, 0)
		return resp.MakeError(fmt.Sprintf("ERR unknown command '%s'", name))
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("command panicked", zap.String("cmd", name), zap.Any("panic", r))
			res = resp.MakeError(errInternal)
		}
		e.metrics.observe(name, res.Type == resp.TypeError, time.Since(start))
	}()

	req := &request{
		name:    name,
		args:    args[1:],
		storage: e.storage,
		logger:  e.logger,
	}

	return cmd.execute(req)
}

// ProcessRequest performs one read, dispatch and write cycle on p.
// Malformed input gets a best-effort error reply and the *resp.ProtocolError is
// returned, since the position in the stream can no longer be trusted.
// Transport errors are returned as is without a reply
func (e *Engine) ProcessRequest(p *Peer) error {
	req, err := p.ReadCommand()
	if err != nil {
		if !resp.IsProtocolError(err) {
			return err
		}

		e.metrics.protocolError()
		e.logger.Warn("could not decode request", zap.String("peer", p.ID()), zap.Error(err))

		if sendErr := p.Send(resp.MakeError(errDecode)); sendErr == nil {
			p.Flush() //nolint:errcheck
		}
		return err
	}

	reply := e.Dispatch(req)

	if err = p.Send(reply); err != nil {
		return err
	}

	// replies of a pipeline stay buffered while complete input is waiting,
	// the peer flushes them before it blocks on a partial request
	if p.InputBuffered() == 0 {
		return p.Flush()
	}
	return nil
}
