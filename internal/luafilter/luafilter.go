// Package luafilter evaluates a sandboxed Lua predicate against stage
// metadata. The predicate sees a global table `stage` with the fields
// name, id, options (kind -> attr -> value), results (attr -> value) and
// registered (whether the pipeline file declares the stage).
package luafilter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

var (
	// ErrTimeout reports a predicate that ran past its time budget.
	ErrTimeout = errors.New("sandbox timeout")
	// ErrInstructionLimit reports a predicate rejected by the instruction budget.
	ErrInstructionLimit = errors.New("sandbox instruction limit")
)

// Limits bounds predicate evaluation.
type Limits struct {
	Timeout          time.Duration
	InstructionLimit int
	Libs             Libs
}

// Libs selects the standard libraries opened in the sandbox.
type Libs struct {
	Base   bool
	Table  bool
	String bool
	Math   bool
}

// DefaultLimits matches the project configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		Timeout:          200 * time.Millisecond,
		InstructionLimit: 100000,
		Libs:             Libs{Base: true, Table: true, String: true, Math: true},
	}
}

// Filter is a compiled predicate.
type Filter struct {
	code   string
	proto  *lua.FunctionProto
	limits Limits
}

// New compiles expr. An expression is evaluated as `return (expr)`; anything
// that does not parse that way is compiled as a statement chunk.
func New(expr string, limits Limits) (*Filter, error) {
	code := strings.TrimSpace(expr)
	if code == "" {
		code = "return true"
	}
	if instructionLimitWouldTrip(code, limits.InstructionLimit) {
		return nil, ErrInstructionLimit
	}
	wrapped := "return (\n" + code + "\n)"
	chunk, err := parse.Parse(strings.NewReader(wrapped), "where")
	if err == nil {
		code = wrapped
	} else if chunk, err = parse.Parse(strings.NewReader(code), "where"); err != nil {
		return nil, fmt.Errorf("invalid predicate: %v", err)
	}
	proto, err := lua.Compile(chunk, "where")
	if err != nil {
		return nil, fmt.Errorf("invalid predicate: %v", err)
	}
	return &Filter{code: code, proto: proto, limits: limits}, nil
}

// Match evaluates the predicate for one stage. Any truthy result matches.
func (f *Filter) Match(ctx context.Context, stage map[string]any) (bool, error) {
	L := newSandboxState(f.limits.Libs)
	defer L.Close()

	if f.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.limits.Timeout)
		defer cancel()
	}
	L.SetContext(ctx)
	L.SetGlobal("stage", toLValue(L, stage))

	L.Push(L.NewFunctionFromProto(f.proto))
	if err := L.PCall(0, 1, nil); err != nil {
		if isTimeoutError(err) {
			return false, ErrTimeout
		}
		return false, fmt.Errorf("predicate: %v", err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return lua.LVAsBool(ret), nil
}

func newSandboxState(libs Libs) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:     true,
		RegistrySize:     256,
		RegistryMaxSize:  4096,
		RegistryGrowStep: 0,
	})
	openLib := func(name string, f lua.LGFunction) {
		L.Push(L.NewFunction(f))
		L.Push(lua.LString(name))
		L.Call(1, 0)
	}
	if libs.Base {
		openLib(lua.BaseLibName, lua.OpenBase)
	}
	if libs.String {
		openLib(lua.StringLibName, lua.OpenString)
	}
	if libs.Table {
		openLib(lua.TabLibName, lua.OpenTable)
	}
	if libs.Math {
		openLib(lua.MathLibName, lua.OpenMath)
	}
	return L
}

// instructionLimitWouldTrip estimates the cost of code. Loops are priced out
// since a listing predicate never needs one.
func instructionLimitWouldTrip(code string, instructionLimit int) bool {
	if instructionLimit <= 0 {
		return false
	}
	cost := len(code) * 10
	lower := strings.ToLower(code)
	if strings.Contains(lower, "while ") || strings.Contains(lower, "repeat") || strings.Contains(lower, "for ") {
		cost += 1000000
	}
	return cost > instructionLimit
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadline") || strings.Contains(msg, "context canceled")
}
