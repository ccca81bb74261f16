package resp_test

import (
	"errors"
	"io"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/eternalApril/hanabi/internal/resp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{
			name:  "Valid positive",
			input: ":1000\r\n",
			want:  1000,
		},
		{
			name:  "Valid positive with +",
			input: ":+1230\r\n",
			want:  1230,
		},
		{
			name:  "Valid negative",
			input: ":-15\r\n",
			want:  -15,
		},
		{
			name:  "Valid zero",
			input: ":0\r\n",
			want:  0,
		},
		{
			name:  "Min int64",
			input: ":-9223372036854775808\r\n",
			want:  -9223372036854775808,
		},
		{
			name:    "Invalid ending",
			input:   ":1000\n",
			wantErr: resp.ErrInvalidEnding,
		},
		{
			name:    "Non numeric",
			input:   ":12a\r\n",
			wantErr: resp.ErrInvalidInteger,
		},
		{
			name:    "Sign in the middle",
			input:   ":1-2\r\n",
			wantErr: resp.ErrInvalidInteger,
		},
		{
			name:    "Empty",
			input:   ":\r\n",
			wantErr: resp.ErrInvalidInteger,
		},
		{
			name:    "Sign only",
			input:   ":-\r\n",
			wantErr: resp.ErrInvalidInteger,
		},
		{
			name:    "Overflow",
			input:   ":9223372036854775808\r\n",
			wantErr: resp.ErrInvalidInteger,
		},
		{
			name:    "Truncated",
			input:   ":12",
			wantErr: io.ErrUnexpectedEOF,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resp.NewDecoder(strings.NewReader(tt.input))

			val, err := r.Read()

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Read() expected error %v, got %v", tt.wantErr, err)
				}
				if !resp.IsProtocolError(err) {
					t.Errorf("Read() error %v is not a protocol error", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Read() unexpected error %v", err)
			}

			if val.Type != resp.TypeInteger {
				t.Errorf("Read() type = %v, want %v", val.Type, resp.TypeInteger)
			}

			if val.Integer != tt.want {
				t.Errorf("Read() num = %v, want %v", val.Integer, tt.want)
			}
		})
	}
}

func TestDecoder_Read(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  resp.Value
	}{
		{"Simple string", "+OK\r\n", resp.MakeSimpleString("OK")},
		{"Empty simple string", "+\r\n", resp.MakeSimpleString("")},
		{"Error", "-ERR boom\r\n", resp.MakeError("ERR boom")},
		{"Bulk string", "$5\r\nhello\r\n", resp.MakeBulkString("hello")},
		{"Empty bulk string", "$0\r\n\r\n", resp.MakeBulkString("")},
		{"Bulk string with CRLF inside", "$4\r\na\r\nb\r\n", resp.MakeBulkString("a\r\nb")},
		{"Null bulk string", "$-1\r\n", resp.MakeNilBulkString()},
		{"Null with other negative length", "$-5\r\n", resp.MakeNilBulkString()},
		{"Empty array", "*0\r\n", resp.MakeArray(nil)},
		{
			"Command",
			"*3\r\n$3\r\nSET\r\n$3\r\nHII\r\n$11\r\nHELLO WORLD\r\n",
			resp.MakeBulkArray("SET", "HII", "HELLO WORLD"),
		},
		{
			"Mixed nested array",
			"*4\r\n:1\r\n*2\r\n+inner\r\n$-1\r\n-ERR x\r\n$0\r\n\r\n",
			resp.MakeArray([]resp.Value{
				resp.MakeInteger(1),
				resp.MakeArray([]resp.Value{resp.MakeSimpleString("inner"), resp.MakeNilBulkString()}),
				resp.MakeError("ERR x"),
				resp.MakeBulkString(""),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resp.NewDecoder(strings.NewReader(tt.input)).Read()
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got.Inspect(), tt.want.Inspect())
		})
	}
}

func TestDecoder_ReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"Simple string without CR", "+OK\n", resp.ErrInvalidEnding},
		{"Simple string truncated", "+OK", io.ErrUnexpectedEOF},
		{"Bulk truncated payload", "$5\r\nhel", io.ErrUnexpectedEOF},
		{"Bulk missing trailing CRLF", "$5\r\nhelloXY", resp.ErrInvalidEnding},
		{"Bulk non numeric length", "$x\r\nhello\r\n", resp.ErrInvalidInteger},
		{"Array negative count", "*-1\r\n", resp.ErrNegativeArrayLength},
		{"Array truncated", "*2\r\n$1\r\na\r\n", io.ErrUnexpectedEOF},
		{"Array element bad", "*1\r\n$1\r\nab\r\n", resp.ErrInvalidEnding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resp.NewDecoder(strings.NewReader(tt.input)).Read()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, resp.IsProtocolError(err))
		})
	}
}

func TestDecoder_UnknownType(t *testing.T) {
	_, err := resp.NewDecoder(strings.NewReader("PING\r\n")).Read()

	var ute *resp.UnknownTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, byte('P'), ute.Tag)
	assert.True(t, resp.IsProtocolError(err))
}

func TestDecoder_CleanEOF(t *testing.T) {
	_, err := resp.NewDecoder(strings.NewReader("")).Read()
	assert.Equal(t, io.EOF, err)
	assert.False(t, resp.IsProtocolError(err))
}

func TestDecoder_TransportErrorIsRaw(t *testing.T) {
	errBoom := errors.New("boom")
	_, err := resp.NewDecoder(io.MultiReader(strings.NewReader("$5\r\nhe"), &failingReader{err: errBoom})).Read()
	assert.ErrorIs(t, err, errBoom)
	assert.False(t, resp.IsProtocolError(err))
}

func TestDecoder_MaxBulkLength(t *testing.T) {
	d := resp.NewDecoder(strings.NewReader("$6\r\nabcdef\r\n"))
	d.SetMaxBulkLength(5)

	_, err := d.Read()
	assert.ErrorIs(t, err, resp.ErrBulkLengthExceeded)
}

func TestDecoder_DeclaredLengthIsNotReserved(t *testing.T) {
	input := "*1\r\n$500000000\r\nab"

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)

	_, err := resp.NewDecoder(strings.NewReader(input)).Read()

	runtime.ReadMemStats(&after)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, resp.IsProtocolError(err))

	allocated := after.TotalAlloc - before.TotalAlloc
	assert.Less(t, allocated, uint64(8<<20), "allocated %d bytes for a %d byte request", allocated, len(input))
}

func TestDecoder_LargeBulkString(t *testing.T) {
	payload := strings.Repeat("x", 300*1024)
	input := "$" + strconv.Itoa(len(payload)) + "\r\n" + payload + "\r\n:1\r\n"
	d := resp.NewDecoder(strings.NewReader(input))

	got, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, payload, got.Text())

	next, err := d.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Integer)

	_, err = resp.NewDecoder(strings.NewReader("$" + strconv.Itoa(len(payload)) + "\r\n" + payload + "XY")).Read()
	assert.ErrorIs(t, err, resp.ErrInvalidEnding)
}

func TestDecoder_NestingLimit(t *testing.T) {
	input := strings.Repeat("*1\r\n", 2000) + ":1\r\n"

	_, err := resp.NewDecoder(strings.NewReader(input)).Read()
	assert.ErrorIs(t, err, resp.ErrNestingTooDeep)
}

func TestDecoder_Pipeline(t *testing.T) {
	input := "*1\r\n$4\r\nPING\r\n*2\r\n$3\r\nGET\r\n$1\r\nk\r\n:7\r\n"
	d := resp.NewDecoder(strings.NewReader(input))

	want := []resp.Value{
		resp.MakeBulkArray("PING"),
		resp.MakeBulkArray("GET", "k"),
		resp.MakeInteger(7),
	}

	for i, w := range want {
		got, err := d.Read()
		require.NoError(t, err, "value %d", i)
		assert.True(t, w.Equal(got), "value %d: got %s, want %s", i, got.Inspect(), w.Inspect())
	}

	_, err := d.Read()
	assert.Equal(t, io.EOF, err)
}

func TestDecode_Remainder(t *testing.T) {
	val, rest, err := resp.Decode([]byte("+OK\r\n:1\r\n"))
	require.NoError(t, err)
	assert.True(t, resp.MakeSimpleString("OK").Equal(val))
	assert.Equal(t, []byte(":1\r\n"), rest)

	_, _, err = resp.Decode(nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestRoundTrip(t *testing.T) {
	values := []resp.Value{
		resp.MakeSimpleString("PONG"),
		resp.MakeSimpleString(""),
		resp.MakeError("WRONGTYPE operation against a key holding non-hashmap"),
		resp.MakeInteger(0),
		resp.MakeInteger(-42),
		resp.MakeInteger(9223372036854775807),
		resp.MakeBulkString("HELLO WORLD"),
		resp.MakeBulkString(""),
		resp.MakeNilBulkString(),
		resp.MakeArray(nil),
		resp.MakeArray([]resp.Value{
			resp.MakeBulkString("f"),
			resp.MakeInteger(3),
			resp.MakeArray([]resp.Value{resp.MakeNilBulkString(), resp.MakeSimpleString("x")}),
		}),
	}

	for _, v := range values {
		t.Run(v.Inspect(), func(t *testing.T) {
			encoded := resp.Encode(v)

			decoded, rest, err := resp.Decode(encoded)
			require.NoError(t, err)
			assert.Empty(t, rest)
			assert.True(t, v.Equal(decoded), "got %s, want %s", decoded.Inspect(), v.Inspect())
			assert.Equal(t, encoded, resp.Encode(decoded))
		})
	}
}

func FuzzDecoder(f *testing.F) {
	f.Add([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	f.Add([]byte("$-1\r\n"))
	f.Add([]byte(":+12\r\n"))
	f.Add([]byte("*1\r\n*0\r\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		val, _, err := resp.Decode(data)
		if err != nil {
			return
		}

		again, _, err := resp.Decode(resp.Encode(val))
		if err != nil {
			t.Fatalf("re-decoding %q failed: %v", resp.Encode(val), err)
		}
		if !val.Equal(again) {
			t.Errorf("round trip mismatch: %s != %s", val.Inspect(), again.Inspect())
		}
	})
}

type failingReader struct {
	err error
}

func (r *failingReader) Read(_ []byte) (int, error) {
	return 0, r.err
}
