package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/structcms/structured-content/pkg/structcontent/capability"
)

// Bindings introspects the executable schema's root types into the shape the
// conformance check compares against the capability registry. Reading the
// compiled schema rather than a hand-kept list means a field added to the
// schema without a registry entry is caught as drift.
func Bindings(schema graphql.Schema) []capability.GraphField {
	var out []capability.GraphField
	collect := func(obj *graphql.Object, mutation bool) {
		if obj == nil {
			return
		}
		for name, field := range obj.Fields() {
			args := make([]string, 0, len(field.Args))
			for _, a := range field.Args {
				args = append(args, a.Name())
			}
			out = append(out, capability.GraphField{
				Name:     name,
				Mutation: mutation,
				Args:     args,
			})
		}
	}
	collect(schema.QueryType(), false)
	collect(schema.MutationType(), true)
	return out
}
