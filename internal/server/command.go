package server

import (
	"errors"

	"github.com/eternalApril/hanabi/internal/resp"
	"github.com/eternalApril/hanabi/internal/storage"
	"go.uber.org/zap"
)

// request carries everything a handler may touch. Handlers get the storage
// explicitly so they can run without a network server
type request struct {
	name    string
	args    []resp.Value
	storage storage.Storage
	logger  *zap.Logger
}

type command interface {
	execute(req *request) resp.Value
}

type commandFunc func(req *request) resp.Value

func (c commandFunc) execute(req *request) resp.Value {
	return c(req)
}

// bulkArg returns the i-th argument if it is a bulk string
func (r *request) bulkArg(i int) (string, bool) {
	if i >= len(r.args) || !r.args[i].IsBulk() {
		return "", false
	}
	return r.args[i].Text(), true
}

// bulkArgs returns the bulk string arguments starting at from, skipping anything else
func (r *request) bulkArgs(from int) []string {
	if from >= len(r.args) {
		return nil
	}

	out := make([]string, 0, len(r.args)-from)
	for _, a := range r.args[from:] {
		if a.IsBulk() {
			out = append(out, a.Text())
		}
	}
	return out
}

// storageError converts a storage failure into the reply sent to the client.
// action is the verb used in the system error message: getting, inserting or deleting
func (r *request) storageError(action string, err error) resp.Value {
	if errors.Is(err, storage.ErrWrongType) {
		return resp.MakeError(errWrongTypeHash)
	}

	r.logger.Error("storage failure",
		zap.String("cmd", r.name),
		zap.String("action", action),
		zap.Error(err),
	)
	return resp.MakeErrorf("ERR system error while %s data", action)
}
