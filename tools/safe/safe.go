package safe

import (
	"fmt"
	"reflect"
	"sync"

	"SupportChat/logger"
	"SupportChat/tools/errs"

	"go.uber.org/zap"
)

// MustNotNil panics if the given value is nil.
// Useful for enforcing required dependencies during wiring.
func MustNotNil(v any, name string) {
	if v == nil {
		panic(fmt.Sprintf("%s must not be nil", name))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		if rv.IsNil() {
			panic(fmt.Sprintf("%s must not be nil", name))
		}
	}
}

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(name string, f func()) {
	go Run(name, f)
}

// Run executes f on the current goroutine and turns a panic into an error log.
func Run(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[SafeGo] panic recovered",
				zap.String("task", name),
				zap.String("stack", fmt.Sprintf("%+v", errs.ErrPanic(r))))
		}
	}()
	f()
}

// Group tracks SafeGo goroutines so shutdown can wait for them.
type Group struct {
	wg sync.WaitGroup
}

func (g *Group) Go(name string, f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		Run(name, f)
	}()
}

func (g *Group) Wait() { g.wg.Wait() }
