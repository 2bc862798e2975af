package kaleido

import "github.com/llir/llvm/ir/value"

// Scope is a stack of name→value frames. Lookups walk from the innermost
// frame outwards, so inner bindings shadow outer ones until their frame is
// popped.
type Scope struct {
	frames []map[string]value.Value
}

func NewScope() *Scope {
	return &Scope{
		frames: []map[string]value.Value{make(map[string]value.Value)},
	}
}

func (s *Scope) Push() {
	s.frames = append(s.frames, make(map[string]value.Value))
}

// Pop drops the innermost frame. The outermost frame is never removed.
func (s *Scope) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Set binds id in the innermost frame.
func (s *Scope) Set(id string, val value.Value) {
	s.frames[len(s.frames)-1][id] = val
}

// Declared reports whether id is bound in the innermost frame.
func (s *Scope) Declared(id string) bool {
	_, ok := s.frames[len(s.frames)-1][id]
	return ok
}

func (s *Scope) Get(id string) (value.Value, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if val, ok := s.frames[i][id]; ok {
			return val, true
		}
	}

	return nil, false
}
