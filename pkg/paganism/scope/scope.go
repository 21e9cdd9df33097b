// Package scope implements the symbol tables of the evaluator.
//
// A program has four tables (variables, functions, enums and structures),
// all sharing one Arena of activation frames. Each table has three tiers:
//
//   - language: built-ins installed by the host, read-only to scripts
//   - global: names declared at the top level of a program
//   - frames: locals of an executing block, one frame per activation
//
// Frames are keyed by the block that owns them. Because a block may be
// active more than once (recursion), the arena keeps a stack of frame ids
// per block and names always resolve in the innermost activation.
//
// Lookup differs by tier. At the top level the language tier wins over the
// global tier. Inside a block a local shadows a built-in of the same name,
// then the language tier is consulted, then the enclosing frames.
package scope

import (
	"sort"

	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
)

// FrameID identifies one activation of a block.
type FrameID int

// Global is the frame id of the top level.
const Global FrameID = -1

type frame struct {
	block  *ast.Block
	parent FrameID
	live   bool
}

// Arena tracks the live frames of every executing block.
type Arena struct {
	frames  []frame
	free    []FrameID
	active  map[*ast.Block][]FrameID
	release []func(FrameID)
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{active: make(map[*ast.Block][]FrameID)}
}

// Push activates b. Its parent frame is the innermost activation of the
// block that lexically encloses b.
func (a *Arena) Push(b *ast.Block) FrameID {
	parent := a.Resolve(b.Scope)
	var id FrameID
	if n := len(a.free); n > 0 {
		id = a.free[n-1]
		a.free = a.free[:n-1]
		a.frames[id] = frame{block: b, parent: parent, live: true}
	} else {
		id = FrameID(len(a.frames))
		a.frames = append(a.frames, frame{block: b, parent: parent, live: true})
	}
	a.active[b] = append(a.active[b], id)
	return id
}

// Pop ends the activation id and drops every local bound in it.
func (a *Arena) Pop(id FrameID) {
	if id == Global || int(id) >= len(a.frames) || !a.frames[id].live {
		return
	}
	f := a.frames[id]
	stack := a.active[f.block]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == id {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(a.active, f.block)
	} else {
		a.active[f.block] = stack
	}
	for _, fn := range a.release {
		fn(id)
	}
	a.frames[id] = frame{}
	a.free = append(a.free, id)
}

// Resolve returns the innermost live frame of b, walking outwards through
// enclosing blocks that are not currently active. A nil block is the top
// level.
func (a *Arena) Resolve(b *ast.Block) FrameID {
	for b != nil {
		if stack := a.active[b]; len(stack) > 0 {
			return stack[len(stack)-1]
		}
		b = b.Scope
	}
	return Global
}

// Active reports whether b has a live frame.
func (a *Arena) Active(b *ast.Block) bool {
	return len(a.active[b]) > 0
}

// Parent returns the frame enclosing id.
func (a *Arena) Parent(id FrameID) FrameID {
	if id == Global || int(id) >= len(a.frames) {
		return Global
	}
	return a.frames[id].parent
}

// Depth returns the number of live frames.
func (a *Arena) Depth() int {
	return len(a.frames) - len(a.free)
}

// Reset drops every frame.
func (a *Arena) Reset() {
	for id := range a.frames {
		if a.frames[id].live {
			for _, fn := range a.release {
				fn(FrameID(id))
			}
		}
	}
	a.frames = nil
	a.free = nil
	a.active = make(map[*ast.Block][]FrameID)
}

// Storage is one symbol table.
type Storage[T any] struct {
	Name     string // "Variable", "Function", ... used in fault messages
	arena    *Arena
	language map[string]T
	global   map[string]T
	locals   map[FrameID]map[string]T
}

// New creates a table attached to arena. language may be nil.
func New[T any](name string, arena *Arena, language map[string]T) *Storage[T] {
	if language == nil {
		language = make(map[string]T)
	}
	s := &Storage[T]{
		Name:     name,
		arena:    arena,
		language: language,
		global:   make(map[string]T),
		locals:   make(map[FrameID]map[string]T),
	}
	arena.release = append(arena.release, func(id FrameID) { delete(s.locals, id) })
	return s
}

// Define installs a language-level built-in.
func (s *Storage[T]) Define(name string, v T) {
	s.language[name] = v
}

// IsLanguage reports whether name is a built-in.
func (s *Storage[T]) IsLanguage(name string) bool {
	_, ok := s.language[name]
	return ok
}

// Get resolves name as seen from a node enclosed by scope.
func (s *Storage[T]) Get(scope *ast.Block, name string) (T, error) {
	if v, ok := s.TryGet(scope, name); ok {
		return v, nil
	}
	var zero T
	return zero, perrors.NewNotFound(s.Name, name, s.Names(scope))
}

// TryGet is Get without a fault.
func (s *Storage[T]) TryGet(scope *ast.Block, name string) (T, bool) {
	v, _, ok := s.lookup(s.arena.Resolve(scope), name)
	return v, ok
}

// Where returns the frame that binds name, as seen from scope.
func (s *Storage[T]) Where(scope *ast.Block, name string) (FrameID, bool) {
	_, id, ok := s.lookup(s.arena.Resolve(scope), name)
	return id, ok
}

func (s *Storage[T]) lookup(id FrameID, name string) (T, FrameID, bool) {
	for id != Global {
		if v, ok := s.locals[id][name]; ok {
			return v, id, true
		}
		if v, ok := s.language[name]; ok {
			return v, Global, true
		}
		id = s.arena.Parent(id)
	}
	if v, ok := s.language[name]; ok {
		return v, Global, true
	}
	v, ok := s.global[name]
	return v, Global, ok
}

// Add binds name in the innermost frame of scope, or globally at the top
// level. An existing binding in that frame is replaced.
func (s *Storage[T]) Add(scope *ast.Block, name string, v T) {
	s.AddIn(s.arena.Resolve(scope), name, v)
}

// AddIn binds name directly in frame id.
func (s *Storage[T]) AddIn(id FrameID, name string, v T) {
	if id == Global {
		s.global[name] = v
		return
	}
	m := s.locals[id]
	if m == nil {
		m = make(map[string]T)
		s.locals[id] = m
	}
	m[name] = v
}

// Set replaces the binding of name where it is visible from scope. It
// reports false when name is not bound anywhere or is a built-in.
func (s *Storage[T]) Set(scope *ast.Block, name string, v T) bool {
	id := s.arena.Resolve(scope)
	for id != Global {
		if _, ok := s.locals[id][name]; ok {
			s.locals[id][name] = v
			return true
		}
		id = s.arena.Parent(id)
	}
	if _, ok := s.global[name]; ok {
		s.global[name] = v
		return true
	}
	return false
}

// Remove unbinds name from the innermost frame of scope.
func (s *Storage[T]) Remove(scope *ast.Block, name string) {
	id := s.arena.Resolve(scope)
	if id == Global {
		delete(s.global, name)
		return
	}
	delete(s.locals[id], name)
}

// Clear drops every binding of the innermost frame of scope, or every
// global when scope is nil.
func (s *Storage[T]) Clear(scope *ast.Block) {
	id := s.arena.Resolve(scope)
	if id == Global {
		s.global = make(map[string]T)
		return
	}
	delete(s.locals, id)
}

// Reset drops all globals and locals. Built-ins are kept.
func (s *Storage[T]) Reset() {
	s.global = make(map[string]T)
	s.locals = make(map[FrameID]map[string]T)
}

// Names returns the sorted names visible from scope.
func (s *Storage[T]) Names(scope *ast.Block) []string {
	seen := make(map[string]bool)
	for id := s.arena.Resolve(scope); id != Global; id = s.arena.Parent(id) {
		for name := range s.locals[id] {
			seen[name] = true
		}
	}
	for name := range s.global {
		seen[name] = true
	}
	for name := range s.language {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Globals returns the top-level bindings, excluding built-ins.
func (s *Storage[T]) Globals() map[string]T {
	out := make(map[string]T, len(s.global))
	for k, v := range s.global {
		out[k] = v
	}
	return out
}
