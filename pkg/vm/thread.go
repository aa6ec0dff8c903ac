package vm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

// StackFrame is one active call. Saved holds the callee's bindings as they
// were at the call and is written back when the frame is popped.
type StackFrame struct {
	ReturnAddr  int
	Result      value.ID
	ArgScope    uint32
	LocalScope  uint32
	CallerScope uint32

	fn    *value.Function
	saved []*value.Value
}

func (f *StackFrame) restore(t *Thread) {
	for i, id := range f.fn.Vars {
		if v := t.slot(id); v != nil {
			v.Assign(f.saved[i])
		}
	}
}

// Thread is one execution context. Only the spawning thread touches a child
// before it starts and after it is joined.
type Thread struct {
	id  uint32
	vm  *VM
	ctx context.Context

	pc     int
	scope  uint32
	frames []StackFrame

	pending []*value.Value
	overlay map[value.ID]*value.Value

	children []*Thread
	group    *errgroup.Group

	native *value.Function
	args   []*value.Value
	into   value.ID
	retval *value.Value
	err    error
	halted bool
}

func (t *Thread) ID() uint32 {
	return t.id
}

func (t *Thread) slot(id value.ID) *value.Value {
	if t.overlay != nil {
		if v, ok := t.overlay[id]; ok {
			return v
		}
	}

	return t.vm.code.values.Get(id)
}

func (t *Thread) fetch(op ir.Operand) (*value.Value, error) {
	if op.Kind != ir.FetchVal {
		return nil, fmt.Errorf("%w: expected value, got %v", ErrBadOperand, op)
	}

	v := t.slot(op.Value())
	if v == nil {
		return nil, fmt.Errorf("%w: no value %v", ErrBadOperand, op)
	}

	return v, nil
}

// result returns the slot an instruction writes to. Instructions without a
// result slot write to scratch space so slot 0 stays empty.
func (t *Thread) result(in *ir.Instruction) (*value.Value, error) {
	if in.Result == value.None {
		return value.New(), nil
	}

	v := t.slot(in.Result)
	if v == nil {
		return nil, fmt.Errorf("%w: no result slot v%d", ErrBadOperand, in.Result)
	}

	return v, nil
}

func (t *Thread) takeArgs() []*value.Value {
	args := t.pending
	t.pending = nil
	return args
}

func (t *Thread) run(ctx context.Context) (err error) {
	t.ctx = ctx
	logger := t.vm.logger.With(slog.Uint64("thread", uint64(t.id)))

	defer func() {
		joinErr := t.join()
		if err == nil && joinErr != nil {
			err = &RuntimeFault{Thread: t.id, PC: t.pc, Op: ir.OpReturn, Err: joinErr}
		} else if joinErr != nil {
			logger.Debug("child thread fault while unwinding", slog.Any("err", joinErr))
		}
	}()

	code := t.vm.code.instructions
	for !t.halted {
		select {
		case <-ctx.Done():
			t.unwind()
			return ctx.Err()
		default:
		}

		pc := t.pc
		if pc < 0 || pc >= t.vm.code.Len() {
			t.unwind()
			return &RuntimeFault{Thread: t.id, PC: pc, Err: ErrBadAddress}
		}

		in := &code[pc]
		if t.vm.config.Trace {
			logger.Debug("exec",
				slog.Int("pc", pc),
				slog.String("instr", in.String()),
				slog.Int("depth", len(t.frames)),
				slog.Uint64("scope", uint64(t.scope)),
			)
		}

		t.pc++

		if !in.Op.Valid() {
			return t.fault(pc, in, fmt.Errorf("%w: %v", ErrBadOpcode, in.Op))
		}

		if err := dispatch[in.Op](t, in); err != nil {
			return t.fault(pc, in, err)
		}
	}

	return nil
}

func (t *Thread) fault(pc int, in *ir.Instruction, err error) error {
	t.unwind()

	return &RuntimeFault{
		Thread: t.id,
		PC:     pc,
		Op:     in.Op,
		Line:   in.Line,
		Err:    err,
	}
}

// unwind pops every frame, restoring the bindings each one saved.
func (t *Thread) unwind() {
	for len(t.frames) > 0 {
		f := t.frames[len(t.frames)-1]
		t.frames = t.frames[:len(t.frames)-1]
		f.restore(t)
		t.scope = f.CallerScope
	}
	t.pending = nil
}

func (t *Thread) call(fn *value.Function, args []*value.Value, retAddr int, result value.ID) error {
	if len(args) != len(fn.Params) {
		return fmt.Errorf("%w: %s expects %d, got %d", ErrArity, fn.Name, len(fn.Params), len(args))
	}

	if len(t.frames) >= t.vm.config.MaxCallDepth {
		return fmt.Errorf("%w: depth %d calling %s", ErrStackOverflow, len(t.frames), fn.Name)
	}

	saved := make([]*value.Value, len(fn.Vars))
	for i, id := range fn.Vars {
		v := t.slot(id)
		if v == nil {
			return fmt.Errorf("%w: %s has no slot v%d", ErrBadOperand, fn.Name, id)
		}
		saved[i] = v.Clone()
	}

	t.frames = append(t.frames, StackFrame{
		ReturnAddr:  retAddr,
		Result:      result,
		ArgScope:    fn.ArgScope,
		LocalScope:  fn.LocalScope,
		CallerScope: t.scope,
		fn:          fn,
		saved:       saved,
	})

	for i, id := range fn.Params {
		t.slot(id).Assign(args[i])
	}

	t.scope = fn.LocalScope
	t.pc = fn.Addr

	return nil
}

// ret pops the current frame. The return value is captured before the
// callee's bindings are restored, since it may live in one of them.
func (t *Thread) ret(rv *value.Value) {
	if len(t.frames) == 0 {
		t.retval = rv
		t.halted = true
		return
	}

	f := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	f.restore(t)
	t.scope = f.CallerScope

	if f.ReturnAddr < 0 {
		t.retval = rv
		t.halted = true
		return
	}

	if f.Result != value.None {
		if dst := t.slot(f.Result); dst != nil {
			dst.Assign(rv)
		}
	}

	t.pc = f.ReturnAddr
}

// spawn creates a child seeded with this thread's current view of every
// function and thread owned slot. Globals stay shared.
func (t *Thread) spawn(into value.ID) *Thread {
	child := t.vm.newThread()
	child.into = into
	child.scope = t.scope

	owned := t.vm.code.owned
	child.overlay = make(map[value.ID]*value.Value, len(owned))
	for _, id := range owned {
		child.overlay[id] = t.slot(id).Clone()
	}

	return child
}

func (t *Thread) start(child *Thread) {
	if t.group == nil {
		t.group = new(errgroup.Group)
	}
	t.children = append(t.children, child)

	ctx := t.ctx
	t.group.Go(func() error {
		child.err = child.exec(ctx)
		return child.err
	})
}

func (t *Thread) exec(ctx context.Context) error {
	if t.native == nil {
		return t.run(ctx)
	}

	t.retval = value.New()
	if err := t.native.Native(t.retval, t.args); err != nil {
		return &RuntimeFault{Thread: t.id, PC: -1, Op: ir.OpThreadCall, Err: fmt.Errorf("%s: %w", t.native.QualifiedName(), err)}
	}

	return nil
}

// join waits for every child spawned since the last join and delivers their
// results. Faults from all children are reported together.
func (t *Thread) join() error {
	if t.group == nil {
		return nil
	}

	_ = t.group.Wait()

	var errs []error
	for _, child := range t.children {
		if child.err != nil {
			errs = append(errs, child.err)
			continue
		}

		if child.into != value.None {
			if dst := t.slot(child.into); dst != nil {
				dst.Assign(child.retval)
			}
		}
	}

	t.children = nil
	t.group = nil

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrThreadFault, errors.Join(errs...))
	}

	return nil
}
