package topological

import (
	"fmt"
	"slices"

	"golang.org/x/exp/constraints"
)

var ErrCycleDetected = fmt.Errorf("cycle detected")

func Sort[T constraints.Ordered](values []T, depFunc func(T) []T) ([]T, error) {
	return SortFunc(values, func(val T) T { return val }, depFunc)
}

// SortFunc orders values so that each one comes after everything it depends
// on. Ties are broken by key order, so the result is deterministic.
// Dependencies that are not themselves in values are ignored.
func SortFunc[T any, K constraints.Ordered](values []T, keyFunc func(T) K, depFunc func(T) []T) ([]T, error) {
	valuesByKey := make(map[K]T, len(values))
	for _, val := range values {
		valuesByKey[keyFunc(val)] = val
	}

	pending := make(map[K]int, len(valuesByKey))
	dependents := make(map[K][]K)
	for key, val := range valuesByKey {
		seen := make(map[K]struct{})
		for _, dep := range depFunc(val) {
			depKey := keyFunc(dep)
			if _, ok := valuesByKey[depKey]; !ok {
				continue
			}
			if _, dup := seen[depKey]; dup {
				continue
			}
			seen[depKey] = struct{}{}

			pending[key]++
			dependents[depKey] = append(dependents[depKey], key)
		}
	}

	var ready []K
	for key := range valuesByKey {
		if pending[key] == 0 {
			ready = append(ready, key)
		}
	}
	slices.Sort(ready)

	list := make([]T, 0, len(valuesByKey))
	for len(ready) > 0 {
		var key K
		key, ready = ready[0], ready[1:]
		list = append(list, valuesByKey[key])

		for _, dependent := range dependents[key] {
			pending[dependent]--
			if pending[dependent] == 0 {
				i, _ := slices.BinarySearch(ready, dependent)
				ready = slices.Insert(ready, i, dependent)
			}
		}
	}

	if len(list) < len(valuesByKey) {
		var stuck []K
		for key, n := range pending {
			if n > 0 {
				stuck = append(stuck, key)
			}
		}
		slices.Sort(stuck)
		return nil, fmt.Errorf("%w among %v", ErrCycleDetected, stuck)
	}

	return list, nil
}
