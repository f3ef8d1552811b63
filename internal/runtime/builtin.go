package runtime

import (
	"time"
)

// builtins are the native functions every global environment starts with.
var builtins = []*NativeFunction{
	{
		Name:   "clock",
		NArity: 0,
		Fn: func(args []Value) (Value, error) {
			return NumberVal(float64(time.Now().UnixMilli()) / 1000), nil
		},
	},
}

// RegisterBuiltins defines each native function in env under its name.
func RegisterBuiltins(env *Environment) {
	for _, fn := range builtins {
		env.Define(fn.Name, fn)
	}
}
