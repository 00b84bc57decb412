package llm

import (
	"sort"
	"strings"
)

// ToolCallFragment is one partial tool-call delta from a streamed chunk.
// Vendors emit the id and function name on the first fragment for an index and
// argument JSON spread across subsequent fragments.
type ToolCallFragment struct {
	Index          int
	ID             string
	Name           string
	ArgumentsDelta string
}

// StreamData accumulates a streamed response. It exists only for the duration
// of one streamed call and is folded into a single assistant Message when the
// stream ends.
type StreamData struct {
	content   strings.Builder
	pending   map[int]*pendingToolCall
	seenOrder []int
}

type pendingToolCall struct {
	id   string
	name string
	args strings.Builder
}

// NewStreamData creates an empty stream accumulator.
func NewStreamData() *StreamData {
	return &StreamData{pending: make(map[int]*pendingToolCall)}
}

// AddContent appends one incremental content delta.
func (s *StreamData) AddContent(delta string) {
	s.content.WriteString(delta)
}

// AddToolCall folds one partial tool-call fragment into the accumulator,
// merging fragments that share an index.
func (s *StreamData) AddToolCall(f ToolCallFragment) {
	p, ok := s.pending[f.Index]
	if !ok {
		p = &pendingToolCall{}
		s.pending[f.Index] = p
		s.seenOrder = append(s.seenOrder, f.Index)
	}
	if f.ID != "" {
		p.id = f.ID
	}
	if f.Name != "" {
		p.name = f.Name
	}
	p.args.WriteString(f.ArgumentsDelta)
}

// Content returns the concatenation of every content delta seen so far.
func (s *StreamData) Content() string {
	return s.content.String()
}

// HasToolCalls reports whether any tool-call fragments were accumulated.
func (s *StreamData) HasToolCalls() bool {
	return len(s.pending) > 0
}

// ToolCalls assembles the accumulated fragments into complete tool calls,
// ordered by fragment index as the vendor emitted them.
func (s *StreamData) ToolCalls() []ToolCall {
	if len(s.pending) == 0 {
		return nil
	}
	indexes := make([]int, len(s.seenOrder))
	copy(indexes, s.seenOrder)
	sort.Ints(indexes)

	out := make([]ToolCall, 0, len(indexes))
	for _, idx := range indexes {
		p := s.pending[idx]
		out = append(out, ToolCall{
			ID:        p.id,
			Name:      p.name,
			Arguments: p.args.String(),
		})
	}
	return out
}
