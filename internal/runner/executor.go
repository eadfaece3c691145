package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/log"
)

type Request struct {
	Command string
	// Capture keeps stdout and stderr in the result.
	Capture bool
	// Stream copies output line by line into the debug log.
	Stream bool
}

// Executor runs a shell command line to completion.
type Executor interface {
	Execute(ctx context.Context, req Request) Result
}

// ShellExecutor runs commands through a shell with the installer's stdin
// attached, so sudo can prompt for a password.
type ShellExecutor struct {
	Shell string
	Stdin io.Reader
	Env   func() []string
}

func NewShellExecutor() *ShellExecutor {
	return &ShellExecutor{Shell: "bash", Stdin: os.Stdin}
}

func (s *ShellExecutor) Execute(ctx context.Context, req Request) Result {
	shell := s.Shell
	if shell == "" {
		shell = "bash"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", req.Command)
	cmd.Stdin = s.Stdin
	if s.Env != nil {
		cmd.Env = s.Env()
	}

	var stdout, stderr bytes.Buffer
	res := Result{Command: req.Command}

	var err error
	if req.Stream {
		err = s.runStreaming(cmd, req, &stdout, &stderr)
	} else {
		if req.Capture {
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr
		}
		err = cmd.Run()
	}

	if req.Capture {
		res.Stdout = strings.TrimSpace(stdout.String())
		res.Stderr = strings.TrimSpace(stderr.String())
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		res.ExitCode = -1
		res.Err = ctx.Err()
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		res.ExitCode = -1
		res.Err = err
	}
	return res
}

func (s *ShellExecutor) runStreaming(cmd *exec.Cmd, req Request, stdout, stderr *bytes.Buffer) error {
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return err
	}

	var wg sync.WaitGroup
	scan := func(r io.Reader, buf *bytes.Buffer, stream string) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := scanner.Text()
			log.Debug(line, "stream", stream)
			if req.Capture {
				buf.WriteString(line)
				buf.WriteByte('\n')
			}
		}
	}

	wg.Add(2)
	go scan(outPipe, stdout, "stdout")
	go scan(errPipe, stderr, "stderr")
	wg.Wait()

	return cmd.Wait()
}
