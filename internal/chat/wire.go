package chat

import (
	"bufio"
	"io"
	"net"
	"strings"
)

const (
	FramingChunk = "chunk"
	FramingLine  = "line"

	Welcome     = "Welcome to the chat room!\nPlease Enter your name: "
	QuitKeyword = "quit"

	defaultReadChunk = 1024
)

func departureText(name string) string {
	return "[" + name + "] has left chat server"
}

// messageReader yields one inbound message per call. An empty message with a
// nil error means nothing arrived.
type messageReader interface {
	ReadMessage() (string, error)
}

func newMessageReader(conn net.Conn, framing string, chunk int) messageReader {
	if chunk <= 0 {
		chunk = defaultReadChunk
	}
	if framing == FramingLine {
		return &lineReader{r: bufio.NewReaderSize(conn, chunk)}
	}
	return &chunkReader{conn: conn, buf: make([]byte, chunk)}
}

// chunkReader treats whatever a single Read returns as one message.
type chunkReader struct {
	conn net.Conn
	buf  []byte
}

func (r *chunkReader) ReadMessage() (string, error) {
	n, err := r.conn.Read(r.buf)
	if n > 0 {
		return strings.ToValidUTF8(string(r.buf[:n]), "�"), nil
	}
	return "", err
}

// lineReader splits on '\n'. A line longer than the buffer is returned in
// buffer-sized pieces so one message never exceeds the read chunk.
type lineReader struct {
	r *bufio.Reader
}

func (r *lineReader) ReadMessage() (string, error) {
	line, err := r.r.ReadSlice('\n')
	switch {
	case err == nil:
		return trimLineEnd(string(line)), nil
	case err == bufio.ErrBufferFull:
		return string(line), nil
	case err == io.EOF && len(line) > 0:
		// last line without newline
		return trimLineEnd(string(line)), nil
	}
	return "", err
}

// EncodeMessage renders an outbound message for the wire.
func EncodeMessage(framing, msg string) string {
	if framing == FramingLine {
		return msg + "\n"
	}
	return msg
}

func trimLineEnd(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// IsQuit reports whether text ends a session. Only a trailing line ending is
// ignored; surrounding spaces make it an ordinary message.
func IsQuit(text string) bool {
	return strings.EqualFold(trimLineEnd(text), QuitKeyword)
}
