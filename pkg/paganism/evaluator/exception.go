package evaluator

import (
	"github.com/sambeau/paganism/pkg/paganism/ast"
	perrors "github.com/sambeau/paganism/pkg/paganism/errors"
	"github.com/sambeau/paganism/pkg/paganism/value"
)

// ExceptionDescriptor is the built-in structure bound as `exception` inside
// a catch block.
var ExceptionDescriptor = &value.StructureDescriptor{
	Name: "exception",
	Show: true,
	Members: []*ast.StructureMember{
		{Name: "name", Type: ast.TypeRef{Kind: ast.KindString}, Show: true},
		{Name: "description", Type: ast.TypeRef{Kind: ast.KindString}, Show: true},
	},
}

// NewException describes err for script code: name is the fault kind and
// description its full message, position included.
func NewException(err error) *value.Structure {
	f, ok := perrors.As(err)
	if !ok {
		f = perrors.Newf(perrors.KindInterpreter, "%v", err)
	}
	exc := ExceptionDescriptor.New()
	exc.Fields["name"] = &value.String{Value: string(f.Kind)}
	exc.Fields["description"] = &value.String{Value: f.Error()}
	return exc
}
