// Package testutil provides in-memory stores and an event recorder for
// engine tests. Stores honour the same conditional-update contracts as
// the Mongo repositories and accept injected faults per method.
package testutil

import (
	"errors"
	"sync"
)

// ErrInjected is the default fault returned by a failing store method.
var ErrInjected = errors.New("injected store failure")

type fault struct {
	err       error
	remaining int // <0 means forever
}

// Faults makes named store methods fail.
type Faults struct {
	mu     sync.Mutex
	faults map[string]*fault
}

// Fail makes method return err on every call until Clear.
func (f *Faults) Fail(method string, err error) {
	f.set(method, err, -1)
}

// FailOnce makes only the next call to method return err.
func (f *Faults) FailOnce(method string, err error) {
	f.set(method, err, 1)
}

func (f *Faults) Clear(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.faults, method)
}

func (f *Faults) set(method string, err error, n int) {
	if err == nil {
		err = ErrInjected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.faults == nil {
		f.faults = make(map[string]*fault)
	}
	f.faults[method] = &fault{err: err, remaining: n}
}

func (f *Faults) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ft, ok := f.faults[method]
	if !ok {
		return nil
	}
	if ft.remaining > 0 {
		ft.remaining--
		if ft.remaining == 0 {
			delete(f.faults, method)
		}
	}
	return ft.err
}
