package block

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/conneroisu/statickit/pkg/address"
)

// EvalError reports a template expression that failed at render time.
// Scope methods panic with *EvalError; the page renderer recovers it and
// skips the block.
type EvalError struct {
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %q: %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// SlotPath selects how a render-slot derives the delegated block's address.
type SlotPath int

const (
	// SlotAddr passes the enclosing block's address unchanged.
	SlotAddr SlotPath = iota
	// SlotIndex appends "[i]" to the enclosing prop path.
	SlotIndex
	// SlotPropPath replaces the prop path with an explicit value.
	SlotPropPath
)

var programs sync.Map // expression source -> *vm.Program

func exprOptions() []expr.Option {
	return []expr.Option{
		expr.Function("encodeSchemaAddress", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("encodeSchemaAddress expects 1 argument, got %d", len(params))
			}
			a, err := toAddress(params[0])
			if err != nil {
				return nil, err
			}

			return address.Encode(a), nil
		}),
	}
}

// CompileExpr compiles a template expression, caching the program by
// source text. Compiled templates call it lazily; the compiler calls it
// up front to reject syntax errors at build time.
func CompileExpr(src string) (*vm.Program, error) {
	if p, ok := programs.Load(src); ok {
		return p.(*vm.Program), nil
	}
	p, err := expr.Compile(src, exprOptions()...)
	if err != nil {
		return nil, err
	}
	actual, _ := programs.LoadOrStore(src, p)

	return actual.(*vm.Program), nil
}

// Scope evaluates template expressions against a render input and the
// loop variables in effect.
type Scope struct {
	in  Input
	env map[string]any
}

// NewScope exposes props, ctx and addr to expressions. Struct props are
// converted to their JSON shape so templates address fields by JSON name.
func NewScope(in Input) *Scope {
	return &Scope{
		in: in,
		env: map[string]any{
			"props": exprValue(in.Props),
			"ctx":   contextMap(in.Ctx),
			"addr":  addressMap(in.Addr),
		},
	}
}

// Child returns a scope with vars layered over s. s is not modified.
func (s *Scope) Child(vars map[string]any) *Scope {
	env := make(map[string]any, len(s.env)+len(vars))
	for k, v := range s.env {
		env[k] = v
	}
	for k, v := range vars {
		env[k] = exprValue(v)
	}

	return &Scope{in: s.in, env: env}
}

// Eval evaluates src. It panics with *EvalError on failure.
func (s *Scope) Eval(src string) any {
	program, err := CompileExpr(src)
	if err != nil {
		panic(&EvalError{Expr: src, Err: err})
	}
	out, err := expr.Run(program, s.env)
	if err != nil {
		panic(&EvalError{Expr: src, Err: err})
	}

	return out
}

// Escape evaluates src and HTML-escapes the result.
func (s *Scope) Escape(src string) string {
	return EscapeHTML(s.Eval(src))
}

// Raw evaluates src and returns the result unescaped.
func (s *Scope) Raw(src string) string {
	return ToString(s.Eval(src))
}

// Truthy evaluates src as a condition.
func (s *Scope) Truthy(src string) bool {
	return Truthy(s.Eval(src))
}

// Attr renders ` name="value"` when src evaluates to a truthy value and
// nothing otherwise.
func (s *Scope) Attr(name, src string) string {
	v := s.Eval(src)
	if !Truthy(v) {
		return ""
	}

	return " " + name + `="` + EscapeAttr(v) + `"`
}

// Range evaluates src as a list. nil yields no items.
func (s *Scope) Range(src string) []any {
	v := s.Eval(src)
	switch x := v.(type) {
	case nil:
		return nil
	case []any:
		return x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}

		return out
	}

	panic(&EvalError{Expr: src, Err: fmt.Errorf("v-for needs a list, got %T", v)})
}

// Slot evaluates the render-slot bindings and delegates to RenderSlot.
// pathSrc is ignored for SlotAddr.
func (s *Scope) Slot(blockSrc, propsSrc string, mode SlotPath, pathSrc string, fallback func() string) string {
	blockType := ToString(s.Eval(blockSrc))
	props := s.Eval(propsSrc)

	addr := s.in.Addr
	switch mode {
	case SlotIndex:
		addr = address.WithPropPath(addr, addr.Path()+"["+ToString(s.Eval(pathSrc))+"]")
	case SlotPropPath:
		if p := s.Eval(pathSrc); p != nil {
			addr = address.WithPropPath(addr, ToString(p))
		} else {
			addr = address.WithoutPropPath(addr)
		}
	}

	return RenderSlot(blockType, props, s.in.Ctx, addr, fallback)
}

func contextMap(ctx Context) map[string]any {
	return map[string]any{
		"pageId":    ctx.PageID,
		"assetBase": ctx.AssetBase,
		"isDev":     ctx.IsDev,
		"layout":    ctx.Layout.Map(),
	}
}

func addressMap(a address.Address) map[string]any {
	m := map[string]any{
		"pageId":  a.PageID,
		"region":  a.Region,
		"blockId": a.BlockID,
	}
	if a.PropPath != nil {
		m["propPath"] = *a.PropPath
	}

	return m
}

func toAddress(v any) (address.Address, error) {
	switch x := v.(type) {
	case address.Address:
		return x, nil
	case map[string]any:
		a := address.Address{
			PageID:  ToString(x["pageId"]),
			Region:  ToString(x["region"]),
			BlockID: ToString(x["blockId"]),
		}
		if p, ok := x["propPath"]; ok && p != nil {
			path := ToString(p)
			a.PropPath = &path
		}

		return a, nil
	case string:
		return address.Decode(x)
	}

	return address.Address{}, fmt.Errorf("cannot use %T as a schema address", v)
}

// exprValue converts structs, and pointers to them, into generic maps so
// expressions can use JSON field names.
func exprValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct && !hasStructElems(rv) {
		return v
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}

	return out
}

func hasStructElems(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		elem := rv.Type().Elem()
		for elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}

		return elem.Kind() == reflect.Struct
	}

	return false
}
