package pdf

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/peek-a-repo/peek/internal/log"
)

// ProcessTransport runs the surface as a child process speaking JSON lines on
// stdin/stdout, isolating document parsing from the UI process.
type ProcessTransport struct {
	*StreamTransport
	cmd  *exec.Cmd
	once sync.Once
}

// StartProcess launches command (typically `peek pdf-surface`).
func StartProcess(ctx context.Context, command string, args ...string) (*ProcessTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...) //nolint:gosec // G204: command comes from config
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("surface stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("surface stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting pdf surface: %w", err)
	}
	log.Info(log.CatPDF, "pdf surface started", "command", command, "pid", cmd.Process.Pid)

	return &ProcessTransport{
		StreamTransport: NewStreamTransport(stdout, stdin, stdin),
		cmd:             cmd,
	}, nil
}

// Close closes stdin and waits for the child to exit.
func (p *ProcessTransport) Close() error {
	var err error
	p.once.Do(func() {
		_ = p.StreamTransport.Close()
		err = p.cmd.Wait()
		log.Debug(log.CatPDF, "pdf surface exited", "error", err)
	})
	return err
}

// PipeTransport runs a surface in-process over io.Pipe.
type PipeTransport struct {
	*StreamTransport
	hostW, surfW *io.PipeWriter
	cancel       context.CancelFunc
	served       chan error
}

// NewPipe serves renderer on an in-memory pipe.
func NewPipe(renderer Renderer) *PipeTransport {
	hostR, surfW := io.Pipe()
	surfR, hostW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	p := &PipeTransport{
		StreamTransport: NewStreamTransport(hostR, hostW, nil),
		hostW:           hostW,
		surfW:           surfW,
		cancel:          cancel,
		served:          make(chan error, 1),
	}
	go func() {
		err := Serve(ctx, surfR, surfW, renderer)
		_ = surfW.Close()
		p.served <- err
	}()
	return p
}

// Close stops the in-process surface.
func (p *PipeTransport) Close() error {
	_ = p.StreamTransport.Close()
	p.cancel()
	_ = p.hostW.Close()
	return nil
}
