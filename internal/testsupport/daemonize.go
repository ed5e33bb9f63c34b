package testsupport

import (
	"sync"
)

// SpawnCall records one detached start.
type SpawnCall struct {
	Path    string
	Argv    []string
	Env     []string
	DevNull string
}

// System fakes the calls made while detaching. Exit panics with ExitCode.
type System struct {
	Env         map[string]string
	SpawnErr    error
	RedirectErr error

	mu        sync.Mutex
	spawns    []SpawnCall
	umasks    []int
	redirects []string
}

func (s *System) Getenv(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Env[key]
}

func (s *System) Unsetenv(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Env, key)
	return nil
}

func (s *System) Environ() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Env))
	for k, v := range s.Env {
		out = append(out, k+"="+v)
	}
	return out
}

func (s *System) Spawn(path string, argv []string, env []string, devNull string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SpawnErr != nil {
		return s.SpawnErr
	}
	s.spawns = append(s.spawns, SpawnCall{Path: path, Argv: argv, Env: env, DevNull: devNull})
	return nil
}

func (s *System) Umask(mask int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.umasks = append(s.umasks, mask)
	return 0o022
}

func (s *System) RedirectStdio(devNull string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RedirectErr != nil {
		return s.RedirectErr
	}
	s.redirects = append(s.redirects, devNull)
	return nil
}

func (s *System) Exit(code int) { panic(ExitCode(code)) }

func (s *System) Spawns() []SpawnCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpawnCall(nil), s.spawns...)
}

func (s *System) Umasks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.umasks...)
}

func (s *System) Redirects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.redirects...)
}
