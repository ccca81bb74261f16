package server

import (
	"github.com/eternalApril/hanabi/internal/buildinfo"
	"github.com/eternalApril/hanabi/internal/resp"
)

// ping replies PONG, or echoes the message when one is given
func ping(req *request) resp.Value {
	if msg, ok := req.bulkArg(0); ok {
		return resp.MakeBulkString(msg)
	}

	return resp.MakeSimpleString("PONG")
}

// hello performs the handshake. Only RESP2 is spoken
func hello(req *request) resp.Value {
	if protover, ok := req.bulkArg(0); ok && protover != "2" {
		return resp.MakeError("NOPROTO sorry, this protocol version is not supported.")
	}

	return resp.MakeBulkArray(
		"server", buildinfo.Name,
		"version", buildinfo.Version,
		"version-name", buildinfo.VersionName,
		"proto", "2",
	)
}
