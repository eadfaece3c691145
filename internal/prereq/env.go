package prereq

import (
	"os"
	"sync"
)

// Environment is the variable store PATH changes are applied to. Commands
// started by the installer inherit it.
type Environment interface {
	Getenv(key string) string
	Setenv(key, value string) error
	Home() (string, error)
}

// ProcessEnvironment reads and writes the installer's own environment.
type ProcessEnvironment struct{}

func (ProcessEnvironment) Getenv(key string) string       { return os.Getenv(key) }
func (ProcessEnvironment) Setenv(key, value string) error { return os.Setenv(key, value) }
func (ProcessEnvironment) Home() (string, error)          { return os.UserHomeDir() }

// MapEnvironment is an in-memory Environment.
type MapEnvironment struct {
	mu   sync.Mutex
	vars map[string]string
	home string
}

func NewMapEnvironment(home string, vars map[string]string) *MapEnvironment {
	m := &MapEnvironment{vars: map[string]string{}, home: home}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

func (m *MapEnvironment) Getenv(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vars[key]
}

func (m *MapEnvironment) Setenv(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[key] = value
	return nil
}

func (m *MapEnvironment) Home() (string, error) { return m.home, nil }
