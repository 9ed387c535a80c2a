// Package root runs a user-supplied compose function against a container
// exactly once per root type, guarding against duplicate execution when a
// composition root is wired from more than one entry point.
package root

import (
	"reflect"
	"sync"

	"github.com/feO2x/lightinject"
)

var (
	mu    sync.Mutex
	onces = make(map[reflect.Type]*onceResult)
)

type onceResult struct {
	once sync.Once
	err  error
}

// Compose runs fn against container exactly once for the Root marker type,
// no matter how many times Compose[Root] is called across the process —
// later calls are no-ops that return the first call's error. Root is any
// type unique to one composition root (typically an empty marker struct
// defined alongside the root's compose function).
func Compose[Root any](container *lightinject.Container, fn func(*lightinject.Container) error) error {
	t := reflect.TypeOf((*Root)(nil)).Elem()

	mu.Lock()
	r, ok := onces[t]
	if !ok {
		r = &onceResult{}
		onces[t] = r
	}
	mu.Unlock()

	r.once.Do(func() {
		r.err = fn(container)
	})
	return r.err
}
