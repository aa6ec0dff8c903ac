package compiler

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/value"
)

const imageVersion = 1

var (
	ErrImageVersion     = errors.New("unsupported image version")
	ErrImageUnsupported = errors.New("value cannot be stored in an image")
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Resolver supplies the native functions and types an image refers to by
// name.
type Resolver interface {
	ResolveFunction(module, name string) (*value.Function, error)
	ResolveType(name string) (value.Type, error)
}

type image struct {
	Version   int             `cbor:"1,keyasint"`
	File      string          `cbor:"2,keyasint,omitempty"`
	Code      ir.Vector       `cbor:"3,keyasint"`
	Values    []imageValue    `cbor:"4,keyasint"`
	Scopes    []imageScope    `cbor:"5,keyasint"`
	Functions []imageFunction `cbor:"6,keyasint"`
	Imports   []string        `cbor:"7,keyasint,omitempty"`
}

type imageValue struct {
	Kind   kinds.Kind  `cbor:"1,keyasint"`
	Owner  value.Owner `cbor:"2,keyasint,omitempty"`
	Int    int64       `cbor:"3,keyasint,omitempty"`
	Double float64     `cbor:"4,keyasint,omitempty"`
	Str    string      `cbor:"5,keyasint,omitempty"`
	Func   int         `cbor:"6,keyasint,omitempty"`
}

type imageScope struct {
	Parent  int                 `cbor:"1,keyasint"`
	Name    string              `cbor:"2,keyasint,omitempty"`
	Symbols map[string]value.ID `cbor:"3,keyasint,omitempty"`
}

type imageFunction struct {
	Name       string      `cbor:"1,keyasint"`
	Module     string      `cbor:"2,keyasint,omitempty"`
	Native     bool        `cbor:"3,keyasint,omitempty"`
	Addr       int         `cbor:"4,keyasint,omitempty"`
	Params     []value.ID  `cbor:"5,keyasint,omitempty"`
	Vars       []value.ID  `cbor:"6,keyasint,omitempty"`
	ArgScope   uint32      `cbor:"7,keyasint,omitempty"`
	LocalScope uint32      `cbor:"8,keyasint,omitempty"`
	Owner      value.Owner `cbor:"9,keyasint,omitempty"`
}

// WriteImage serializes a finalized program. Native functions and types are
// stored by name and must be resolvable when the image is read back.
func WriteImage(w io.Writer, p *Program) error {
	img := image{
		Version: imageVersion,
		File:    p.File,
		Code:    p.Code,
		Imports: p.Imports,
	}

	funcIndex := make(map[*value.Function]int, len(p.Functions))
	for i, fn := range p.Functions {
		funcIndex[fn] = i
		img.Functions = append(img.Functions, imageFunction{
			Name:       fn.Name,
			Module:     fn.Module,
			Native:     fn.IsNative(),
			Addr:       fn.Addr,
			Params:     fn.Params,
			Vars:       fn.Vars,
			ArgScope:   fn.ArgScope,
			LocalScope: fn.LocalScope,
			Owner:      fn.Owner,
		})
	}

	for id := 1; id < p.Values.Len(); id++ {
		v := p.Values.Get(value.ID(id))
		iv := imageValue{
			Kind:  v.Kind(),
			Owner: p.Values.Owner(value.ID(id)),
		}

		switch v.Kind() {
		case kinds.Void:
		case kinds.Int:
			iv.Int = v.Int()
		case kinds.Bool:
			if v.Bool() {
				iv.Int = 1
			}
		case kinds.Double:
			iv.Double = v.Double()
		case kinds.String:
			iv.Str = v.Str()
		case kinds.Function:
			idx, ok := funcIndex[v.Function()]
			if !ok {
				return fmt.Errorf("%w: value %d refers to unknown function %s", ErrImageUnsupported, id, v.Function())
			}
			iv.Func = idx
		case kinds.Type:
			iv.Str = v.TypeRef().Name()
		default:
			return fmt.Errorf("%w: value %d of kind %v", ErrImageUnsupported, id, v.Kind())
		}

		img.Values = append(img.Values, iv)
	}

	for id := 0; id < p.Scopes.Len(); id++ {
		s := p.Scopes.Get(ScopeID(id))
		is := imageScope{
			Parent:  -1,
			Name:    s.Name(),
			Symbols: make(map[string]value.ID),
		}
		if s.Parent() != nil {
			is.Parent = int(s.Parent().ID())
		}
		for _, sym := range s.Symbols() {
			is.Symbols[sym.Name] = sym.Value
		}

		img.Scopes = append(img.Scopes, is)
	}

	err := cborEncMode.NewEncoder(w).Encode(img)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	return nil
}

// ReadImage rebuilds a program written by WriteImage.
func ReadImage(r io.Reader, resolver Resolver) (*Program, error) {
	var img image
	if err := cbor.NewDecoder(r).Decode(&img); err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if img.Version != imageVersion {
		return nil, fmt.Errorf("%w: %d", ErrImageVersion, img.Version)
	}

	prog := &Program{
		File:    img.File,
		Code:    img.Code,
		Values:  value.NewPool(len(img.Values)),
		Types:   value.NewTypePool(),
		Scopes:  NewScopePool(len(img.Scopes)),
		Imports: img.Imports,
	}

	for _, f := range img.Functions {
		if f.Native {
			fn, err := resolver.ResolveFunction(f.Module, f.Name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve native %s.%s: %w", f.Module, f.Name, err)
			}
			prog.Functions = append(prog.Functions, fn)
			continue
		}

		prog.Functions = append(prog.Functions, &value.Function{
			Name:       f.Name,
			Module:     f.Module,
			Addr:       f.Addr,
			Params:     f.Params,
			Vars:       f.Vars,
			ArgScope:   f.ArgScope,
			LocalScope: f.LocalScope,
			Owner:      f.Owner,
		})
	}

	for i, iv := range img.Values {
		v, err := prog.decodeValue(iv, resolver)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value %d: %w", i+1, err)
		}
		prog.Values.Insert(v, iv.Owner)
	}

	for i, is := range img.Scopes {
		s := prog.Scopes.Root()
		if i > 0 {
			parent := prog.Scopes.Get(ScopeID(is.Parent))
			if is.Parent < 0 || parent == nil {
				return nil, fmt.Errorf("scope %d has invalid parent %d", i, is.Parent)
			}
			s = prog.Scopes.New(parent, is.Name)
		}
		for name, id := range is.Symbols {
			s.put(Symbol{Name: name, Value: id})
		}
	}

	return prog, nil
}

func (p *Program) decodeValue(iv imageValue, resolver Resolver) (*value.Value, error) {
	switch iv.Kind {
	case kinds.Void:
		return value.New(), nil
	case kinds.Int:
		return value.Int(iv.Int), nil
	case kinds.Bool:
		return value.Bool(iv.Int != 0), nil
	case kinds.Double:
		return value.Double(iv.Double), nil
	case kinds.String:
		return value.String(iv.Str), nil
	case kinds.Function:
		if iv.Func < 0 || iv.Func >= len(p.Functions) {
			return nil, fmt.Errorf("function index %d out of range", iv.Func)
		}
		return value.Func(p.Functions[iv.Func]), nil
	case kinds.Type:
		t, ok := p.Types.Lookup(iv.Str)
		if !ok {
			var err error
			t, err = resolver.ResolveType(iv.Str)
			if err != nil {
				return nil, err
			}
			if _, err := p.Types.Register(t); err != nil {
				return nil, err
			}
		}
		return value.TypeRef(t), nil
	default:
		return nil, fmt.Errorf("%w: kind %v", ErrImageUnsupported, iv.Kind)
	}
}
