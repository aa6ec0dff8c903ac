// Package collection provides the std.collection module: growable Arrays and
// string or int keyed Maps. Both are safe to share between threads.
package collection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"fortio.org/safecast"

	"github.com/rhino1998/clever/pkg/compiler/kinds"
	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/value"
)

const Name = "std.collection"

var (
	ArrayType = value.NewNativeType("Array")
	MapType   = value.NewNativeType("Map")
)

func init() {
	ArrayType.SetConstructor(func(result *value.Value, args []*value.Value) error {
		result.SetObject(ArrayType, newArray(args))
		return nil
	})
	ArrayType.
		AddMethod("push", arrayPush).
		AddMethod("pop", arrayPop).
		AddMethod("get", arrayGet).
		AddMethod("set", arraySet).
		AddMethod("size", arraySize)

	MapType.SetConstructor(func(result *value.Value, args []*value.Value) error {
		if err := value.CheckArgs(args, ""); err != nil {
			return err
		}
		result.SetObject(MapType, NewMap())
		return nil
	})
	MapType.
		AddMethod("set", mapSet).
		AddMethod("get", mapGet).
		AddMethod("has", mapHas).
		AddMethod("remove", mapRemove).
		AddMethod("size", mapSize).
		AddMethod("keys", mapKeys)
}

func Module() *modules.Module {
	return modules.New(Name).
		AddType(ArrayType).
		AddType(MapType)
}

type Array struct {
	mu    sync.Mutex
	items []*value.Value
}

func newArray(items []*value.Value) *Array {
	a := &Array{items: make([]*value.Value, 0, len(items))}
	for _, item := range items {
		a.items = append(a.items, item.Clone())
	}

	return a
}

// NewArray wraps clones of items in an Array value.
func NewArray(items []*value.Value) *value.Value {
	return value.Object(ArrayType, newArray(items))
}

func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.items)
}

func (a *Array) Items() []*value.Value {
	a.mu.Lock()
	defer a.mu.Unlock()

	items := make([]*value.Value, len(a.items))
	for i, item := range a.items {
		items[i] = item.Clone()
	}

	return items
}

func (a *Array) String() string {
	items := a.Items()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = item.String()
	}

	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *Array) index(v *value.Value) (int, error) {
	i, err := safecast.Conv[int](v.Int())
	if err != nil || i < 0 || i >= len(a.items) {
		return 0, fmt.Errorf("%w: index %d of %d", value.ErrOutOfRange, v.Int(), len(a.items))
	}

	return i, nil
}

func array(this *value.Value) (*Array, error) {
	return value.ObjectOf[*Array](this, ArrayType)
}

func arrayPush(result, this *value.Value, args []*value.Value) error {
	a, err := array(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "*"); err != nil {
		return err
	}

	a.mu.Lock()
	a.items = append(a.items, args[0].Clone())
	n := len(a.items)
	a.mu.Unlock()

	result.SetInt(int64(n))
	return nil
}

func arrayPop(result, this *value.Value, args []*value.Value) error {
	a, err := array(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, ""); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.items) == 0 {
		return fmt.Errorf("%w: pop from empty Array", value.ErrOutOfRange)
	}

	last := a.items[len(a.items)-1]
	a.items = a.items[:len(a.items)-1]
	result.Assign(last)

	return nil
}

func arrayGet(result, this *value.Value, args []*value.Value) error {
	a, err := array(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "i"); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i, err := a.index(args[0])
	if err != nil {
		return err
	}
	result.Assign(a.items[i])

	return nil
}

func arraySet(result, this *value.Value, args []*value.Value) error {
	a, err := array(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "i*"); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	i, err := a.index(args[0])
	if err != nil {
		return err
	}
	a.items[i] = args[1].Clone()
	result.Assign(args[1])

	return nil
}

func arraySize(result, this *value.Value, args []*value.Value) error {
	a, err := array(this)
	if err != nil {
		return err
	}

	result.SetInt(int64(a.Len()))
	return nil
}

type entry struct {
	key *value.Value
	val *value.Value
}

type Map struct {
	mu      sync.Mutex
	entries map[string]entry
}

func NewMap() *Map {
	return &Map{entries: make(map[string]entry)}
}

// Value wraps m as a Map value.
func (m *Map) Value() *value.Value {
	return value.Object(MapType, m)
}

func mapKey(k *value.Value) (string, error) {
	switch k.Kind() {
	case kinds.String:
		return "s" + k.Str(), nil
	case kinds.Int:
		return "i" + k.String(), nil
	default:
		return "", fmt.Errorf("%w: Map keys must be String or Int, got %s", value.ErrArgType, k.Kind())
	}
}

func (m *Map) Set(k, v *value.Value) error {
	key, err := mapKey(k)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{key: k.Clone(), val: v.Clone()}
	return nil
}

func (m *Map) Get(k *value.Value) (*value.Value, bool, error) {
	key, err := mapKey(k)
	if err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}

	return e.val.Clone(), true, nil
}

func (m *Map) Delete(k *value.Value) (bool, error) {
	key, err := mapKey(k)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.entries[key]
	delete(m.entries, key)

	return ok, nil
}

func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Keys returns the keys in ascending order of their text.
func (m *Map) Keys() []*value.Value {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(a[1:], b[1:])
	})

	vals := make([]*value.Value, len(keys))
	for i, key := range keys {
		vals[i] = m.entries[key].key.Clone()
	}

	return vals
}

func (m *Map) String() string {
	keys := m.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, _, _ := m.Get(k)
		parts = append(parts, k.String()+": "+v.String())
	}

	return "{" + strings.Join(parts, ", ") + "}"
}

func hashMap(this *value.Value) (*Map, error) {
	return value.ObjectOf[*Map](this, MapType)
}

func mapSet(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "**"); err != nil {
		return err
	}

	if err := m.Set(args[0], args[1]); err != nil {
		return err
	}
	result.Assign(args[1])

	return nil
}

func mapGet(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "*|*"); err != nil {
		return err
	}

	v, ok, err := m.Get(args[0])
	if err != nil {
		return err
	}

	switch {
	case ok:
		result.Assign(v)
	case len(args) == 2:
		result.Assign(args[1])
	default:
		result.SetNone()
	}

	return nil
}

func mapHas(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "*"); err != nil {
		return err
	}

	_, ok, err := m.Get(args[0])
	if err != nil {
		return err
	}
	result.SetBool(ok)

	return nil
}

func mapRemove(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}
	if err := value.CheckArgs(args, "*"); err != nil {
		return err
	}

	ok, err := m.Delete(args[0])
	if err != nil {
		return err
	}
	result.SetBool(ok)

	return nil
}

func mapSize(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}

	result.SetInt(int64(m.Len()))
	return nil
}

func mapKeys(result, this *value.Value, args []*value.Value) error {
	m, err := hashMap(this)
	if err != nil {
		return err
	}

	result.Assign(NewArray(m.Keys()))
	return nil
}
