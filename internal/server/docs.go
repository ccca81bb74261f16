package server

import (
	"maps"
	"slices"
	"strings"

	"github.com/eternalApril/hanabi/internal/resp"
)

type commandMetadata struct {
	arity    int      // Arity includes the command name itself
	flags    []string // read, write, fast, denyoom, etc
	firstKey int      // 1-based index of the first key
	lastKey  int      // 1-based index of the last key
	step     int      // Step count for finding keys
}

var (
	commandRegistry = map[string]commandMetadata{
		"PING":    {-1, []string{"fast", "stale"}, 0, 0, 0},
		"HELLO":   {-1, []string{"noscript", "loading", "stale", "fast"}, 0, 0, 0},
		"GET":     {2, []string{"readonly", "fast"}, 1, 1, 1},
		"SET":     {-3, []string{"write", "denyoom"}, 1, 1, 1},
		"DEL":     {-2, []string{"write"}, 1, -1, 1},
		"HSET":    {-4, []string{"write", "denyoom", "fast"}, 1, 1, 1},
		"HGET":    {3, []string{"readonly", "fast"}, 1, 1, 1},
		"HGETALL": {2, []string{"readonly"}, 1, 1, 1},
		"HDEL":    {-3, []string{"write", "fast"}, 1, 1, 1},
		"COMMAND": {-1, []string{"random", "loading", "stale"}, 0, 0, 0},
	}
)

// commandDoc stores a description for the command
type commandDoc struct {
	summary    string
	complexity string
	group      string
	since      string
}

// commandDocsRegistry documentation registry
var commandDocsRegistry = map[string]commandDoc{
	"PING": {
		summary:    "Ping the server.",
		complexity: "O(1)",
		group:      "connection",
		since:      "0.1.0",
	},
	"HELLO": {
		summary:    "Handshake with the server, RESP2 only.",
		complexity: "O(1)",
		group:      "connection",
		since:      "0.1.0",
	},
	"GET": {
		summary:    "Get the value of a key.",
		complexity: "O(1)",
		group:      "string",
		since:      "0.1.0",
	},
	"SET": {
		summary:    "Set the string value of a key.",
		complexity: "O(1)",
		group:      "string",
		since:      "0.1.0",
	},
	"DEL": {
		summary:    "Delete a key.",
		complexity: "O(N) where N is the number of keys that will be removed.",
		group:      "generic",
		since:      "0.1.0",
	},
	"HSET": {
		summary:    "Set the string value of one or more hash fields.",
		complexity: "O(N log M) where N is the number of pairs and M the size of the hash.",
		group:      "hash",
		since:      "0.1.0",
	},
	"HGET": {
		summary:    "Get the value of a hash field.",
		complexity: "O(log M) where M is the size of the hash.",
		group:      "hash",
		since:      "0.1.0",
	},
	"HGETALL": {
		summary:    "Get all the fields and values in a hash, ordered by field.",
		complexity: "O(N) where N is the size of the hash.",
		group:      "hash",
		since:      "0.1.0",
	},
	"HDEL": {
		summary:    "Delete one or more hash fields. The key is removed with its last field.",
		complexity: "O(N log M) where N is the number of fields to be removed.",
		group:      "hash",
		since:      "0.1.0",
	},
	"COMMAND": {
		summary:    "Get array of command details.",
		complexity: "O(N) where N is the number of commands to look up.",
		group:      "server",
		since:      "0.1.0",
	},
}

// cmd handles COMMAND, COMMAND COUNT, COMMAND INFO name... and COMMAND DOCS [name...]
func cmd(req *request) resp.Value {
	sub, ok := req.bulkArg(0)
	if !ok {
		return getAllCommands()
	}

	switch strings.ToUpper(sub) {
	case "COUNT":
		return resp.MakeInteger(int64(len(commandRegistry)))
	case "INFO":
		return getCommandsInfo(req.bulkArgs(1))
	case "DOCS":
		return getCommandsDocs(req.bulkArgs(1))
	}

	return resp.MakeErrorf("ERR unknown subcommand '%s'", sub)
}

func makeFlagsArray(flags []string) resp.Value {
	vals := make([]resp.Value, len(flags))
	for i, f := range flags {
		vals[i] = resp.MakeSimpleString(f)
	}
	return resp.MakeArray(vals)
}

func makeInfoCmdArray(name string) []resp.Value {
	meta := commandRegistry[name]
	return []resp.Value{
		resp.MakeBulkString(strings.ToLower(name)),
		resp.MakeInteger(int64(meta.arity)),
		makeFlagsArray(meta.flags),
		resp.MakeInteger(int64(meta.firstKey)),
		resp.MakeInteger(int64(meta.lastKey)),
		resp.MakeInteger(int64(meta.step)),
	}
}

func getAllCommands() resp.Value {
	names := slices.Sorted(maps.Keys(commandRegistry))

	cmdArray := make([]resp.Value, 0, len(names))
	for _, name := range names {
		cmdArray = append(cmdArray, resp.MakeArray(makeInfoCmdArray(name)))
	}
	return resp.MakeArray(cmdArray)
}

// getCommandsInfo returns details for the named commands, null for unknown ones
func getCommandsInfo(names []string) resp.Value {
	result := make([]resp.Value, 0, len(names))
	for _, name := range names {
		name = strings.ToUpper(name)
		if _, ok := commandRegistry[name]; !ok {
			result = append(result, resp.MakeNilBulkString())
			continue
		}
		result = append(result, resp.MakeArray(makeInfoCmdArray(name)))
	}
	return resp.MakeArray(result)
}

// getCommandsDocs returns documentation for specified commands or all commands
// Format: [Name, [Summary, val, Since, val...], Name, [...]]
func getCommandsDocs(names []string) resp.Value {
	var targets []string

	if len(names) == 0 {
		targets = slices.Sorted(maps.Keys(commandDocsRegistry))
	} else {
		targets = make([]string, 0, len(names))
		for _, name := range names {
			targets = append(targets, strings.ToUpper(name))
		}
	}

	result := make([]resp.Value, 0, len(targets)*2)

	for _, name := range targets {
		doc, ok := commandDocsRegistry[name]
		if !ok {
			continue
		}

		result = append(result, resp.MakeBulkString(strings.ToLower(name)))

		props := resp.MakeBulkArray(
			"summary", doc.summary,
			"since", doc.since,
			"group", doc.group,
			"complexity", doc.complexity,
		)

		result = append(result, props)
	}

	return resp.MakeArray(result)
}
