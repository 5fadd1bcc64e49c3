package failure

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/storacha/go-esign/core/ipld"
	"github.com/storacha/go-esign/core/result/failure/datamodel"
)

// Named is an error that you can read a name from
type Named interface {
	Name() string
}

// WithStackTrace is an error that you can read a stack trace from
type WithStackTrace interface {
	Stack() string
}

type Failure interface {
	error
	Named
}

type NamedWithStackTrace interface {
	Named
	WithStackTrace
}

type namedWithStackTrace struct {
	name  string
	stack errors.StackTrace
}

func (n namedWithStackTrace) Name() string {
	return n.name
}

func (n namedWithStackTrace) Stack() string {
	return fmt.Sprintf("%+v", n.stack)
}

// NamedWithCurrentStackTrace captures the stack of the caller of the
// function that calls it, so constructors embedding it point at the code
// that produced the failure.
func NamedWithCurrentStackTrace(name string) NamedWithStackTrace {
	const depth = 32

	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	f := make(errors.StackTrace, n)
	for i := 0; i < n; i++ {
		f[i] = errors.Frame(pcs[i])
	}

	return namedWithStackTrace{name, f}
}

// Name returns the name of a named failure, or "" when err is not one.
func Name(err error) string {
	var named Failure
	if errors.As(err, &named) {
		return named.Name()
	}
	return ""
}

type failure struct {
	model datamodel.FailureModel
}

func (f failure) Name() string {
	if f.model.Name == nil {
		return ""
	}
	return *f.model.Name
}

func (f failure) Message() string {
	return f.model.Message
}

func (f failure) Error() string {
	return f.model.Message
}

func (f failure) Stack() string {
	if f.model.Stack == nil {
		return ""
	}
	return *f.model.Stack
}

func (f failure) ToIPLD() (ipld.Node, error) {
	return f.model.ToIPLD()
}

// FromError converts any error into a failure that can be encoded as IPLD,
// keeping its name and stack trace when it has them.
func FromError(err error) interface {
	Failure
	ipld.Builder
} {
	model := datamodel.FailureModel{Message: err.Error()}
	if name := Name(err); name != "" {
		model.Name = &name
	}
	if withStackTrace, ok := err.(WithStackTrace); ok {
		stack := withStackTrace.Stack()
		model.Stack = &stack
	}
	return failure{model: model}
}
