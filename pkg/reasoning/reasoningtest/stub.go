// Package reasoningtest provides a scripted reasoning client for tests.
package reasoningtest

import (
	"context"
	"sync"
)

type Reply struct {
	Text string
	Err  error
}

type Call struct {
	SystemInstruction string
	UserContext       string
}

// Stub answers by system instruction. Unknown instructions get Fallback.
type Stub struct {
	mu       sync.Mutex
	replies  map[string]Reply
	Fallback Reply
	calls    []Call
}

func NewStub() *Stub {
	return &Stub{replies: make(map[string]Reply)}
}

// On scripts the reply for one system instruction and returns the stub.
func (s *Stub) On(systemInstruction string, reply Reply) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies[systemInstruction] = reply
	return s
}

func (s *Stub) Generate(ctx context.Context, systemInstruction, userContext string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{SystemInstruction: systemInstruction, UserContext: userContext})
	reply, ok := s.replies[systemInstruction]
	if !ok {
		reply = s.Fallback
	}
	return reply.Text, reply.Err
}

func (s *Stub) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallsFor returns the calls made with one system instruction.
func (s *Stub) CallsFor(systemInstruction string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.SystemInstruction == systemInstruction {
			out = append(out, c)
		}
	}
	return out
}
