package transfer

import (
	"context"
	"reflect"

	"github.com/rob-gra/go-deviceaccess/deverr"
)

// ReadAny starts an async read on every accessor, waits for the first
// underlying wire transfer to complete, runs PostRead on exactly that
// accessor, and returns its ID (spec.md §4.8). The other accessors' async
// reads stay active; a later ReadAny or synchronous read on them collects
// their result.
//
// Ordering: when several transfers have already completed by the time
// ReadAny waits, reflect.Select picks one of them uniformly at random;
// neither the order in which they completed nor their position in
// accessors decides which one is returned (see SPEC_FULL.md §5 for why
// reflect.Select, not a third-party fan-in primitive, is the right tool
// for a dynamic-arity wait set).
func ReadAny(ctx context.Context, accessors []Element) (ID, error) {
	if len(accessors) == 0 {
		return ID{}, deverr.New(deverr.WrongParameter, "readAny requires at least one accessor")
	}

	futures := make([]*Future, len(accessors))
	for i, a := range accessors {
		f, err := a.ReadAsync(ctx)
		if err != nil {
			return ID{}, err
		}
		futures[i] = f
	}

	cases := make([]reflect.SelectCase, len(futures)+1)
	for i, f := range futures {
		cases[i] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(f.Done())}
	}
	cases[len(futures)] = reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())}

	chosen, _, _ := reflect.Select(cases)
	if chosen == len(futures) {
		return ID{}, ctx.Err()
	}

	if err := futures[chosen].Wait(ctx); err != nil {
		return ID{}, err
	}
	return accessors[chosen].ID(), nil
}
