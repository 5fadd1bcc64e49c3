package ipld

import (
	"errors"
	"fmt"

	"github.com/ipld/go-ipld-prime"
	"github.com/ipld/go-ipld-prime/node/bindnode"
	"github.com/ipld/go-ipld-prime/schema"
	"github.com/storacha/go-esign/core/ipld/block"
)

type Link = ipld.Link
type Block = block.Block
type Node = ipld.Node

// Builder is a type that can convert itself into an IPLD node.
type Builder interface {
	ToIPLD() (Node, error)
}

// WrapWithRecovery wraps a Go value as an IPLD node, converting the panics
// bindnode raises for values that do not match the schema into errors.
func WrapWithRecovery(ptrVal any, typ schema.Type, opts ...bindnode.Option) (nd Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			if asErr, ok := r.(error); ok {
				err = asErr
			} else {
				err = errors.New(fmt.Sprint(r))
			}
		}
	}()
	nd = bindnode.Wrap(ptrVal, typ, opts...)
	return
}
