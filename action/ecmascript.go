package action

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Comcast/chatflow/flow"
	"github.com/Comcast/chatflow/nlu"

	"github.com/dop251/goja"
)

// ECMAScript compiles src into a Handler.
//
// The source is the body of a function that receives one argument,
// `_`, with fields userId, input, states (sorted current states), and
// next (sorted routed states).  Returning null or undefined keeps the
// routed result; returning {states: [...]} and/or
// {messages: [{text: [...], payload: {...}}]} overrides it.
//
//	ECMAScript(`return {states: _.next.concat(["surveyed"])};`)
//
// Each invocation runs in a fresh runtime, so handlers can't leak
// state into each other.
func ECMAScript(src string) (Handler, error) {
	code := "(function (_) {\n" + src + "\n})"
	prog, err := goja.Compile("action", code, true)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, inv Invocation) (*Outcome, error) {
		vm := goja.New()

		v, err := runProgram(vm, prog)
		if err != nil {
			return nil, err
		}
		fn, ok := goja.AssertFunction(v)
		if !ok {
			return nil, fmt.Errorf("action source did not compile to a function")
		}

		arg := vm.ToValue(map[string]interface{}{
			"userId": inv.UserID,
			"input":  inv.Input,
			"states": inv.Current.Sorted(),
			"next":   inv.Next.Sorted(),
		})

		res, err := fn(goja.Undefined(), arg)
		if err != nil {
			return nil, err
		}
		if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
			return nil, nil
		}

		return exportOutcome(res.Export())
	}, nil
}

// runProgram recovers from goja panics, which the runtime uses for
// some internal errors.
func runProgram(vm *goja.Runtime, prog *goja.Program) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ecmascript panic: %v", r)
		}
	}()
	return vm.RunProgram(prog)
}

// exportOutcome converts a script's return value to an Outcome via a
// JSON round-trip, which tolerates whatever mix of types the script
// produced.
func exportOutcome(x interface{}) (*Outcome, error) {
	js, err := json.Marshal(x)
	if err != nil {
		return nil, fmt.Errorf("action result not serializable: %w", err)
	}

	var raw struct {
		States   []string      `json:"states"`
		Messages []nlu.Message `json:"messages"`
	}
	if err := json.Unmarshal(js, &raw); err != nil {
		return nil, fmt.Errorf("action result has wrong shape: %w", err)
	}

	out := &Outcome{Messages: raw.Messages}
	if raw.States != nil {
		out.States = flow.NewStateSet(raw.States...)
	}
	return out, nil
}
