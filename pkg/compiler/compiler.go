package compiler

import (
	"fmt"
	"log/slog"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

const (
	defaultValueHint = 64
	defaultScopeHint = 16
)

type Config struct {
	File string

	// capacity hints for the pools
	ValueHint int
	ScopeHint int

	Importer Importer
}

func (c *Config) Validate(logger *slog.Logger) error {
	if c.ValueHint < 0 {
		return fmt.Errorf("value hint must not be negative, got %d", c.ValueHint)
	}
	if c.ScopeHint < 0 {
		return fmt.Errorf("scope hint must not be negative, got %d", c.ScopeHint)
	}

	if c.ValueHint == 0 {
		c.ValueHint = defaultValueHint
	}
	if c.ScopeHint == 0 {
		c.ScopeHint = defaultScopeHint
	}

	if c.Importer == nil {
		logger.Debug("no importer configured, imports will fail")
	}

	return nil
}

type blockKind int

const (
	functionBlock blockKind = iota
	threadBlock
)

type block struct {
	kind  blockKind
	fn    *value.Function
	end   ir.Label
	outer *Scope
	floor *Scope
}

// Compiler lowers a call sequence from the parser into IR, allocating scopes
// and value slots as it goes. It is not safe for concurrent use.
type Compiler struct {
	logger *slog.Logger
	Config Config

	code      ir.Vector
	values    *value.Pool
	types     *value.TypePool
	scopes    *ScopePool
	functions []*value.Function
	imports   []string

	current *Scope
	floor   *Scope
	blocks  []block

	owners    []value.Owner
	nextOwner value.Owner
	ownedVars map[value.Owner][]value.ID

	labels []int
	loc    Location

	err       error
	finalized bool
}

func New(logger *slog.Logger, config Config) (*Compiler, error) {
	err := config.Validate(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to validate compiler config: %w", err)
	}

	scopes := NewScopePool(config.ScopeHint)

	return &Compiler{
		logger:    logger,
		Config:    config,
		values:    value.NewPool(config.ValueHint),
		types:     value.NewTypePool(),
		scopes:    scopes,
		current:   scopes.Root(),
		floor:     scopes.Root(),
		owners:    []value.Owner{value.Global},
		ownedVars: make(map[value.Owner][]value.ID),
		loc:       Location{File: config.File},
	}, nil
}

// At sets the source location recorded on subsequently emitted instructions
// and errors.
func (c *Compiler) At(loc Location) {
	if loc.File == "" {
		loc.File = c.Config.File
	}
	c.loc = loc
}

func (c *Compiler) Err() error {
	return c.err
}

// Scope returns the current scope.
func (c *Compiler) Scope() *Scope {
	return c.current
}

func (c *Compiler) Types() *value.TypePool {
	return c.types
}

func (c *Compiler) Value(id value.ID) *value.Value {
	return c.values.Get(id)
}

func (c *Compiler) Code() ir.Vector {
	return c.code
}

func (c *Compiler) fail(err error) error {
	if c.err == nil {
		c.err = &CompileError{Loc: c.loc, Err: err}
		c.logger.Debug("compile error", slog.String("loc", c.loc.String()), slog.Any("err", err))
	}

	return c.err
}

func (c *Compiler) check() error {
	if c.err != nil {
		return c.err
	}
	if c.finalized {
		return ErrFinalized
	}

	return nil
}

func (c *Compiler) owner() value.Owner {
	return c.owners[len(c.owners)-1]
}

func (c *Compiler) pushOwner() value.Owner {
	c.nextOwner++
	c.owners = append(c.owners, c.nextOwner)
	return c.nextOwner
}

func (c *Compiler) popOwner() {
	c.owners = c.owners[:len(c.owners)-1]
}

func (c *Compiler) alloc(v *value.Value) value.ID {
	owner := c.owner()
	id := c.values.Insert(v, owner)
	if owner != value.Global {
		c.ownedVars[owner] = append(c.ownedVars[owner], id)
	}

	return id
}

func (c *Compiler) emit(in ir.Instruction) int {
	in.Line = c.loc.Line
	c.code = append(c.code, in)
	return len(c.code) - 1
}

func (c *Compiler) resolve(name string) (value.ID, error) {
	sym, ok := c.current.get(name)
	if !ok {
		return value.None, c.fail(fmt.Errorf("%w %q", ErrUnboundVariable, name))
	}

	return sym.Value, nil
}

// DeclareVariable binds name in the current scope to a fresh placeholder slot
// and emits the assignment of init into it. A none init allocates an empty
// initializer. Redeclaring a name in the same scope shadows it.
func (c *Compiler) DeclareVariable(name string, init value.ID) value.ID {
	if c.check() != nil {
		return value.None
	}

	placeholder := c.alloc(value.New())
	if init == value.None {
		init = c.alloc(value.New())
	}

	c.current.put(Symbol{Name: name, Value: placeholder})
	c.emit(ir.New(ir.OpAssign, ir.ValueOperand(placeholder), ir.ValueOperand(init)))

	return placeholder
}

func (c *Compiler) Assign(name string, v value.ID, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	id, err := c.resolve(name)
	if err != nil {
		return err
	}

	c.emit(ir.New(ir.OpAssign, ir.ValueOperand(id), ir.ValueOperand(v)))

	return nil
}

// AssignValue emits an assignment into an already resolved slot.
func (c *Compiler) AssignValue(dst, src value.ID) {
	if c.check() != nil {
		return
	}

	c.emit(ir.New(ir.OpAssign, ir.ValueOperand(dst), ir.ValueOperand(src)))
}

// BinaryOp emits op over lhs and rhs into a freshly allocated result slot and
// returns it for further composition.
func (c *Compiler) BinaryOp(op ir.Opcode, lhs, rhs value.ID) (value.ID, error) {
	if err := c.check(); err != nil {
		return value.None, err
	}
	if !op.IsBinary() {
		return value.None, c.fail(fmt.Errorf("%w: %v", ErrBadOpcode, op))
	}

	result := c.alloc(value.New())
	c.emit(ir.New(op, ir.ValueOperand(lhs), ir.ValueOperand(rhs)).WithResult(result))

	return result, nil
}

func (c *Compiler) UnaryNot(v value.ID) value.ID {
	if c.check() != nil {
		return value.None
	}

	result := c.alloc(value.New())
	c.emit(ir.New(ir.OpNot, ir.ValueOperand(v)).WithResult(result))

	return result
}

func (c *Compiler) Negate(v value.ID) value.ID {
	zero := c.Literal(value.Int(0))
	result, _ := c.BinaryOp(ir.OpSub, zero, v)
	return result
}

func (c *Compiler) Literal(v *value.Value) value.ID {
	if c.check() != nil {
		return value.None
	}

	return c.alloc(v)
}

func (c *Compiler) Reference(name string, loc Location) (value.ID, error) {
	if err := c.check(); err != nil {
		return value.None, err
	}
	c.At(loc)

	return c.resolve(name)
}

func (c *Compiler) Increment(name string, loc Location) error {
	return c.step(ir.OpInc, name, loc)
}

func (c *Compiler) Decrement(name string, loc Location) error {
	return c.step(ir.OpDec, name, loc)
}

func (c *Compiler) step(op ir.Opcode, name string, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	id, err := c.resolve(name)
	if err != nil {
		return err
	}

	c.emit(ir.New(op, ir.ValueOperand(id)))

	return nil
}

func (c *Compiler) Print(name string, loc Location) error {
	if err := c.check(); err != nil {
		return err
	}
	c.At(loc)

	id, err := c.resolve(name)
	if err != nil {
		return err
	}

	c.emit(ir.New(ir.OpPrint, ir.ValueOperand(id)))

	return nil
}

// PrintValue emits a print of an expression result.
func (c *Compiler) PrintValue(v value.ID) {
	if c.check() != nil {
		return
	}

	c.emit(ir.New(ir.OpPrint, ir.ValueOperand(v)))
}

func (c *Compiler) EnterScope() {
	if c.check() != nil {
		return
	}

	c.current = c.scopes.New(c.current, "")
	c.emit(ir.New(ir.OpSwitchScope, ir.ScopeOperand(uint32(c.current.id))))
}

func (c *Compiler) ExitScope() error {
	if err := c.check(); err != nil {
		return err
	}
	if c.current == c.floor || c.current.parent == nil {
		return c.fail(ErrScopeUnderflow)
	}

	c.current = c.current.parent
	c.emit(ir.New(ir.OpSwitchScope, ir.ScopeOperand(uint32(c.current.id))))

	return nil
}

func (c *Compiler) NewLabel() ir.Label {
	c.labels = append(c.labels, -1)
	return ir.Label(len(c.labels) - 1)
}

// Mark binds l to the address of the next emitted instruction.
func (c *Compiler) Mark(l ir.Label) {
	c.labels[l] = len(c.code)
}

func (c *Compiler) Jump(l ir.Label) {
	if c.check() != nil {
		return
	}

	c.emit(ir.New(ir.OpJmp, ir.LabelOperand(l)))
}

func (c *Compiler) JumpIfZero(cond value.ID, l ir.Label) {
	if c.check() != nil {
		return
	}

	c.emit(ir.New(ir.OpJmpz, ir.ValueOperand(cond), ir.LabelOperand(l)))
}

// Finalize appends the terminal return, resolves labels and hands over the
// compiled program. The compiler accepts no further calls.
func (c *Compiler) Finalize() (*Program, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	if len(c.blocks) > 0 {
		b := c.blocks[len(c.blocks)-1]
		what := "thread block"
		if b.kind == functionBlock {
			what = "function " + b.fn.Name
		}
		return nil, c.fail(fmt.Errorf("%w: %s", ErrUnterminated, what))
	}

	c.emit(ir.New(ir.OpReturn))

	errs := newErrorSet()
	for addr := range c.code {
		in := &c.code[addr]
		for _, op := range []*ir.Operand{&in.Op1, &in.Op2} {
			if op.Kind != ir.LabelRef {
				continue
			}

			target := c.labels[op.Index]
			if target < 0 {
				errs.Add(fmt.Errorf("%w %v at %d", ErrUnmarkedLabel, ir.Label(op.Index), addr))
				continue
			}

			*op = ir.AddrOperand(target)
		}
	}
	if err := errs.Defer(nil); err != nil {
		return nil, c.fail(err)
	}

	c.finalized = true

	c.logger.Debug("compiled",
		slog.Int("instructions", len(c.code)),
		slog.Int("values", c.values.Len()),
		slog.Int("scopes", c.scopes.Len()),
	)

	return &Program{
		File:      c.Config.File,
		Code:      c.code,
		Values:    c.values,
		Types:     c.types,
		Scopes:    c.scopes,
		Functions: c.functions,
		Imports:   c.imports,
	}, nil
}
