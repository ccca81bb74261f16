package server

import (
	"github.com/eternalApril/hanabi/internal/resp"
	"github.com/eternalApril/hanabi/internal/storage"
)

// hset handles HSET key field value [field value ...].
// A trailing field without a value is dropped, as is any pair that is not two bulk strings
func hset(req *request) resp.Value {
	key, ok := req.bulkArg(0)
	if !ok {
		return resp.MakeError("ARGERR key are required for HSET")
	}

	rest := req.args[1:]
	if len(rest) == 0 {
		return resp.MakeError("ARGERR at least one field are required for HSET")
	}

	fields := make([]storage.HashField, 0, len(rest)/2)
	for i := 0; i+1 < len(rest); i += 2 {
		if !rest[i].IsBulk() || !rest[i+1].IsBulk() {
			continue
		}
		fields = append(fields, storage.HashField{
			Field: rest[i].Text(),
			Value: rest[i+1].Text(),
		})
	}

	applied, err := req.storage.HSet(key, fields)
	if err != nil {
		return req.storageError("inserting", err)
	}

	return resp.MakeInteger(applied)
}

// hget handles HGET key field. A key holding a string replies null, like a missing field
func hget(req *request) resp.Value {
	key, okKey := req.bulkArg(0)
	field, okField := req.bulkArg(1)
	if !okKey || !okField {
		return resp.MakeError("ARGERR key and field is required for HGET")
	}

	val, ok, err := req.storage.HGet(key, field)
	if err != nil {
		return req.storageError("getting", err)
	}

	if !ok {
		return resp.MakeNilBulkString()
	}

	return resp.MakeBulkString(val)
}

// hgetall handles HGETALL key, replying field, value, field, value... in field order
func hgetall(req *request) resp.Value {
	key, ok := req.bulkArg(0)
	if !ok {
		return resp.MakeError("ARGERR key are required for HGETALL")
	}

	fields, err := req.storage.HGetAll(key)
	if err != nil {
		return req.storageError("getting", err)
	}

	values := make([]resp.Value, 0, len(fields)*2)
	for _, f := range fields {
		values = append(values, resp.MakeBulkString(f.Field), resp.MakeBulkString(f.Value))
	}

	return resp.MakeArray(values)
}

// hdel handles HDEL key field [field ...]
func hdel(req *request) resp.Value {
	key, ok := req.bulkArg(0)
	if !ok {
		return resp.MakeError("ARGERR key are required for HDEL")
	}

	if len(req.args) < 2 {
		return resp.MakeError("ARGERR at least one field are required for HDEL")
	}

	deleted, err := req.storage.HDel(key, req.bulkArgs(1))
	if err != nil {
		return req.storageError("deleting", err)
	}

	return resp.MakeInteger(deleted)
}
