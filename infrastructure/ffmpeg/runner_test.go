package ffmpeg

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// mockCommandRunner returns canned output per binary and records every call
type mockCommandRunner struct {
	mu       sync.Mutex
	outputs  map[string][]byte
	errs     map[string]error
	calls    [][]string
	stdins   map[string][]byte
	startErr error
	procs    []*echoProcess
	waitErr  error
	closeErr error
	killErr  error
}

func newMockRunner() *mockCommandRunner {
	return &mockCommandRunner{
		outputs: make(map[string][]byte),
		errs:    make(map[string]error),
		stdins:  make(map[string][]byte),
	}
}

func (m *mockCommandRunner) Output(ctx context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]string{name}, args...))
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		m.stdins[name] = data
	}
	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return m.outputs[name], nil
}

func (m *mockCommandRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]string{name}, args...))
	if m.startErr != nil {
		return nil, m.startErr
	}
	p := newEchoProcess(m.waitErr)
	p.closeErr = m.closeErr
	p.killErr = m.killErr
	m.procs = append(m.procs, p)
	return p, nil
}

func (m *mockCommandRunner) lastCall() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return ""
	}
	return strings.Join(m.calls[len(m.calls)-1], " ")
}

var errKilled = errors.New("killed")

// echoProcess copies everything written to stdin back out of stdout
type echoProcess struct {
	stdinR   *io.PipeReader
	stdinW   *io.PipeWriter
	stdoutR  *io.PipeReader
	stdoutW  *io.PipeWriter
	done     chan struct{}
	waitErr  error
	closeErr error
	killErr  error
	killed   bool
	waited   bool
}

func newEchoProcess(waitErr error) *echoProcess {
	p := &echoProcess{done: make(chan struct{}), waitErr: waitErr}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	go func() {
		_, err := io.Copy(p.stdoutW, p.stdinR)
		p.stdoutW.CloseWithError(err)
		close(p.done)
	}()
	return p
}

func (p *echoProcess) Stdin() io.WriteCloser {
	return &stdinCloser{WriteCloser: p.stdinW, err: p.closeErr}
}

func (p *echoProcess) Stdout() io.Reader { return p.stdoutR }

func (p *echoProcess) Wait() error {
	<-p.done
	p.waited = true
	if p.killed {
		return errKilled
	}
	return p.waitErr
}

func (p *echoProcess) Kill() error {
	p.killed = true
	p.stdinR.CloseWithError(errKilled)
	p.stdoutW.CloseWithError(errKilled)
	return p.killErr
}

// stdinCloser closes the pipe but reports err from Close
type stdinCloser struct {
	io.WriteCloser
	err error
}

func (c *stdinCloser) Close() error {
	_ = c.WriteCloser.Close()
	return c.err
}
