package storage

import (
	"context"
	"sync"

	"PPClient/tools/errs"
)

// Memory 进程内 KV，测试和无盘运行用
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", errs.ErrRecordNotFound.WrapMsg("memory get", "key", key)
	}
	return v, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Close() error { return nil }
