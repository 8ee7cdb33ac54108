package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/ClassicalDude/swift-mcp-server/middleware"
	"github.com/ClassicalDude/swift-mcp-server/protocol"
	"github.com/ClassicalDude/swift-mcp-server/value"
)

// DefaultMaxMessageSize bounds a single newline-delimited message.
const DefaultMaxMessageSize = 4 * middleware.MB

// Stdio serves newline-delimited JSON-RPC over stdin and stdout.
type Stdio struct {
	in             io.Reader
	out            io.Writer
	logger         middleware.Logger
	maxMessageSize int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStdioLogger sets the logger for transport events.
func WithStdioLogger(l middleware.Logger) StdioOption {
	return func(s *Stdio) {
		s.logger = l
	}
}

// WithMaxMessageSize sets the largest accepted message in bytes.
func WithMaxMessageSize(n int) StdioOption {
	return func(s *Stdio) {
		s.maxMessageSize = n
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:             os.Stdin,
		out:            os.Stdout,
		logger:         middleware.NopLogger{},
		maxMessageSize: DefaultMaxMessageSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// inbound is one line read from stdin. An over-limit line carries no data.
type inbound struct {
	data    []byte
	tooLong bool
}

// Serve reads one message per line until EOF or ctx is cancelled. On EOF it
// waits for in-flight requests to be answered before returning nil.
//
// A line longer than the message size limit is discarded and answered with
// an invalid request error; serving continues with the next line.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	session := NewSession(handler, s.writeLine,
		WithSessionLogger(s.logger),
		WithSessionOrigin(protocol.Origin{Transport: "stdio"}),
	)

	reader := bufio.NewReader(s.in)
	lines := make(chan inbound)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		for {
			data, tooLong, err := readLine(reader, s.maxMessageSize)
			if tooLong || len(data) > 0 {
				select {
				case lines <- inbound{data: data, tooLong: tooLong}:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					readErr <- err
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			session.Close()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				session.Wait()
				select {
				case err := <-readErr:
					s.logger.Error("read stdin failed", middleware.F("error", err.Error()))
					return err
				default:
					return nil
				}
			}
			if line.tooLong {
				s.rejectOversized()
				continue
			}
			if len(bytes.TrimSpace(line.data)) == 0 {
				continue
			}
			session.Dispatch(ctx, line.data)
		}
	}
}

func (s *Stdio) rejectOversized() {
	s.logger.Warn("message size limit exceeded", middleware.F("limit", s.maxMessageSize))
	resp := protocol.NewErrorResponse(protocol.AbsentID, protocol.NewInvalidRequest().WithData(value.Object(map[string]value.Value{
		"limit": value.Int(int64(s.maxMessageSize)),
	})))
	if err := s.writeLine(resp.Encode()); err != nil {
		s.logger.Error("write response failed", middleware.F("error", err.Error()))
	}
}

// readLine returns the next line without its line ending. A line longer
// than limit bytes is read to its end and dropped, with tooLong set. The last
// line of the input is returned together with io.EOF.
func readLine(r *bufio.Reader, limit int) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if limit > 0 && len(bytes.TrimRight(line, "\r\n")) > limit {
				line, tooLong = nil, true
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return bytes.TrimRight(line, "\r\n"), tooLong, rerr
	}
}

func (s *Stdio) writeLine(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(data); err != nil {
		return err
	}
	_, err := s.out.Write([]byte("\n"))
	return err
}
