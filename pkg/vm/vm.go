// Package vm implements the instruction-set-generic program runtime
// described in spec.md §4.1: given an InstructionSet[S] capable of cloning
// and advancing a state S, it provides step/stepMutate/evaluate/debug with
// identical plumbing for any concrete instruction set — the Bitcoin Cash
// opcode set in pkg/opcodes, or the toy demo set in pkg/demovm.
package vm

// State is the minimum capability every program state must expose to the
// runtime: an instruction pointer, the script being executed, and an error
// facet. Concrete instruction sets embed this alongside their own stack and
// external-state facets (spec.md §3's MinimumState/ErrorState split).
type State interface {
	// IP returns the current instruction pointer: a byte index into
	// Script(). Between instructions, 0 <= IP() <= len(Script()).
	IP() int
	// Script returns the script bytes being executed in this pass.
	Script() []byte
	// Error returns the latched error, or nil if none has been set.
	Error() error
}

// Rendering is a human-readable label for a debug step. It is either a
// constant string or computed from the post-instruction state, mirroring
// the source's asm/description fields which may be a literal or a function
// of state (spec.md §9).
type Rendering[S State] func(state S) string

// Static returns a Rendering that ignores its state and always yields s.
func Static[S State](s string) Rendering[S] {
	return func(S) string { return s }
}

// Operator is a single opcode's behavior: how it renders in a disassembly
// (Asm), how it explains itself in a debug trace (Description), and how it
// mutates state (Operation).
type Operator[S State] struct {
	Asm         Rendering[S]
	Description Rendering[S]
	Operation   func(state S) S
}

// InstructionSet is the contract a concrete VM (BCH opcodes, the demo VM)
// implements to plug into the generic runtime.
type InstructionSet[S State] interface {
	// Before runs before dispatch on every instruction; canonically it
	// advances IP by one so operator bodies observe the post-opcode IP,
	// per spec.md §4.1's dispatch policy.
	Before(state S) S
	// Clone produces a deep copy of state: mutating the clone must never
	// affect the original (spec.md invariant 5).
	Clone(state S) S
	// Continue is the dispatch loop's predicate; once false (because an
	// error is set, or IP reached the end of the script) the loop stops.
	Continue(state S) bool
	// Undefined is dispatched when no Operator is registered for the
	// opcode byte at script[ip-1].
	Undefined() Operator[S]
	// Operator looks up the handler for an opcode byte. ok is false iff
	// no entry is registered, in which case callers should dispatch to
	// Undefined instead.
	Operator(opcode byte) (Operator[S], bool)
}

// Step is one entry in a debug trace: a rendering of the opcode that
// produced this state, paired with the resulting state snapshot.
type Step[S State] struct {
	Asm         string
	Description string
	State       S
}

// dispatch applies Before to state, resolves the Operator for the opcode
// byte it just consumed (script[ip-1]), and returns both the resolved
// operator and the state Before produced, without yet applying the
// operator's Operation. Shared by StepMutate and Debug so both agree on
// exactly which operator ran for a given instruction.
func dispatch[S State](set InstructionSet[S], state S) (Operator[S], S) {
	advanced := set.Before(state)
	ip := advanced.IP()
	script := advanced.Script()

	if ip <= 0 || ip > len(script) {
		// Before is expected to have advanced ip into [1, len(script)];
		// an instruction set that violates this has nothing valid to
		// dispatch on, so fall back to Undefined rather than index out
		// of bounds.
		return set.Undefined(), advanced
	}
	opcode := script[ip-1]
	if op, ok := set.Operator(opcode); ok {
		return op, advanced
	}
	return set.Undefined(), advanced
}

// StepMutate applies Before, then dispatches on the opcode byte just
// consumed (script[ip-1] after Before runs) to the matching Operator, or to
// Undefined if none matches. It mutates state in place and returns it. A
// state whose error is already set is returned unchanged.
func StepMutate[S State](set InstructionSet[S], state S) S {
	if state.Error() != nil {
		return state
	}
	op, advanced := dispatch(set, state)
	return op.Operation(advanced)
}

// Step clones state and applies StepMutate to the clone, leaving the
// original untouched: Step(s) == StepMutate(Clone(s)).
func Step[S State](set InstructionSet[S], state S) S {
	return StepMutate(set, set.Clone(state))
}

// Evaluate clones state, then repeatedly applies StepMutate while Continue
// holds, returning the final state. It never materializes a trace, making
// it cheaper than Debug for pure pass/fail evaluation.
func Evaluate[S State](set InstructionSet[S], state S) S {
	working := set.Clone(state)
	for set.Continue(working) {
		working = StepMutate(set, working)
	}
	return working
}

// Debug clones state, records an initial synthetic step carrying
// initialDescription, then repeatedly applies StepMutate, snapshotting
// (via Clone) after every instruction and tagging each snapshot with the
// Operator's Asm/Description evaluated against the post-instruction state.
func Debug[S State](set InstructionSet[S], state S, initialDescription string) []Step[S] {
	working := set.Clone(state)
	steps := []Step[S]{{
		Asm:         "",
		Description: initialDescription,
		State:       set.Clone(working),
	}}

	for set.Continue(working) {
		op, advanced := dispatch(set, working)
		next := op.Operation(advanced)
		snapshot := set.Clone(next)
		steps = append(steps, Step[S]{
			Asm:         op.Asm(snapshot),
			Description: op.Description(snapshot),
			State:       snapshot,
		})
		working = next
	}

	return steps
}
