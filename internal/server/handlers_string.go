package server

import (
	"github.com/eternalApril/hanabi/internal/resp"
)

// set handles SET key value. Extra arguments are ignored
func set(req *request) resp.Value {
	key, ok := req.bulkArg(0)
	if !ok {
		return resp.MakeError("ARGERR no key are given for SET command")
	}

	value, ok := req.bulkArg(1)
	if !ok {
		return resp.MakeError("ARGERR no value are given for SET command")
	}

	if err := req.storage.Set(key, value); err != nil {
		return req.storageError("inserting", err)
	}

	return resp.MakeSimpleString("OK")
}

// get handles GET key. Missing keys and keys holding a hash reply null
func get(req *request) resp.Value {
	key, ok := req.bulkArg(0)
	if !ok {
		return resp.MakeError("ARGERR no key are given for GET command")
	}

	val, ok, err := req.storage.Get(key)
	if err != nil {
		return req.storageError("getting", err)
	}

	if !ok {
		return resp.MakeNilBulkString()
	}

	return resp.MakeBulkString(val)
}

// del handles DEL key [key ...]. Arguments that are not bulk strings are skipped
func del(req *request) resp.Value {
	if len(req.args) == 0 {
		return resp.MakeError("ARGERR no keys given for DEL command")
	}

	deleted, err := req.storage.Delete(req.bulkArgs(0)...)
	if err != nil {
		return req.storageError("deleting", err)
	}

	return resp.MakeInteger(deleted)
}
