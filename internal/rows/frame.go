package rows

import "github.com/dbsmedya/formrows/internal/schema"

const noData = -1

// frame is the traversal state of one depth level. All parts of it are
// pushed and popped together, so depth is always len(stack.frames).
type frame struct {
	field     *schema.Field // nil inside an ignored subtree
	path      string        // dot path from the root; empty when field is nil
	data      int           // tree node receiving writes, or noData
	iteration string
	live      bool // iteration is set
	namespace string
}

type stack struct {
	frames []frame
}

func (s *stack) push(f frame) {
	s.frames = append(s.frames, f)
}

func (s *stack) pop() {
	if len(s.frames) == 0 {
		panic("rows: traversal stack underflow")
	}
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *stack) top() frame {
	return s.frames[len(s.frames)-1]
}

func (s *stack) depth() int {
	return len(s.frames)
}

// ancestry returns one step per frame. Only valid while every frame has a
// field, which holds whenever the top frame has one.
func (s *stack) ancestry() []Step {
	steps := make([]Step, len(s.frames), len(s.frames)+1)
	for i, f := range s.frames {
		if f.field == nil {
			panic("rows: ancestry through an ignored frame")
		}
		steps[i] = Step{Field: f.field, Iteration: f.iteration, Live: f.live}
	}
	return steps
}
