package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structcms/structured-content/internal/api"
	"github.com/structcms/structured-content/internal/graph"
	"github.com/structcms/structured-content/internal/mcp"
	"github.com/structcms/structured-content/pkg/structcontent"
	"github.com/structcms/structured-content/pkg/structcontent/capability"
	"github.com/structcms/structured-content/pkg/structcontent/repo/memory"
	"github.com/structcms/structured-content/pkg/structcontent/schemavalidator"
)

// TestSurfaceParity checks the real adapter bindings, not a copy: the REST
// route table, the compiled graph schema and the registered tool list are
// all compared against the capability registry. A capability missing a
// binding, a surface growing an unregistered operation, or a mutation whose
// dry-run parameter is absent anywhere fails here.
func TestSurfaceParity(t *testing.T) {
	svc, err := structcontent.New(
		structcontent.WithRepository(memory.New()),
		structcontent.WithValidator(schemavalidator.New()),
	)
	require.NoError(t, err)

	schema, err := graph.New(svc)
	require.NoError(t, err)

	violations := capability.Verify(capability.Registry(), capability.Bindings{
		REST:  api.NewHandler(svc).Bindings(),
		Graph: graph.Bindings(schema),
		Tools: mcp.NewHandler(svc).Bindings(),
	})

	for _, v := range violations {
		t.Errorf("parity violation: %s", v)
	}
	assert.Empty(t, violations)
}
