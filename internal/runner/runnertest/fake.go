// Package runnertest provides a scripted Executor for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/Hardhat-Enterprises/ddtinstall/internal/runner"
)

// FakeExecutor records every request and answers from Results, falling back
// to Handler and then to a successful empty result.
type FakeExecutor struct {
	mu       sync.Mutex
	requests []runner.Request

	Results map[string]runner.Result
	Handler func(req runner.Request) runner.Result
}

func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{Results: map[string]runner.Result{}}
}

func (f *FakeExecutor) Execute(_ context.Context, req runner.Request) runner.Result {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	res, ok := f.Results[req.Command]
	handler := f.Handler
	f.mu.Unlock()

	if ok {
		return res
	}
	if handler != nil {
		return handler(req)
	}
	return runner.Result{}
}

// Set scripts the result for an exact command line.
func (f *FakeExecutor) Set(command string, res runner.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results[command] = res
}

// Fail makes command exit with the given status.
func (f *FakeExecutor) Fail(command string, code int) {
	f.Set(command, runner.Result{ExitCode: code})
}

func (f *FakeExecutor) Requests() []runner.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Request(nil), f.requests...)
}

func (f *FakeExecutor) Commands() []string {
	reqs := f.Requests()
	cmds := make([]string, len(reqs))
	for i, r := range reqs {
		cmds[i] = r.Command
	}
	return cmds
}

// Count returns how many requests contained substr.
func (f *FakeExecutor) Count(substr string) int {
	n := 0
	for _, c := range f.Commands() {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}
