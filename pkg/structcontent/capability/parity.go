package capability

import "fmt"

// Bindings is what each protocol adapter actually declares, in a shape the
// conformance check can compare against the registry. Adapters export their
// real route tables, schema fields and tool definitions; the check never
// works from a copy.
type Bindings struct {
	REST  []RESTRoute
	Graph []GraphField
	Tools []Tool
}

// RESTRoute is one declared REST binding. DryRun means the route honors the
// mode=dry_run parameter.
type RESTRoute struct {
	Method string
	Path   string
	DryRun bool
}

// GraphField is one declared query or mutation field with its argument
// names.
type GraphField struct {
	Name     string
	Mutation bool
	Args     []string
}

// Tool is one declared tool with its input property names.
type Tool struct {
	Name       string
	Properties []string
}

// Violation describes one parity break between the registry and a surface.
type Violation struct {
	CapabilityID string
	Surface      string
	Detail       string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s [%s]: %s", v.CapabilityID, v.Surface, v.Detail)
}

// Verify structurally checks the declared bindings against the registry:
// every capability resolves to exactly one binding per surface; dry-run
// capabilities expose an equivalently shaped dry-run parameter everywhere
// and are mutations on the graph surface; and no surface carries a binding
// the registry does not know. An empty result means the three surfaces are
// in parity. Run this outside the request path (CI), not per request.
func Verify(registry []Capability, b Bindings) []Violation {
	var violations []Violation
	add := func(id, surface, format string, args ...any) {
		violations = append(violations, Violation{
			CapabilityID: id,
			Surface:      surface,
			Detail:       fmt.Sprintf(format, args...),
		})
	}

	boundREST := make(map[string]bool)
	boundGraph := make(map[string]bool)
	boundTools := make(map[string]bool)

	for _, c := range registry {
		if c.DryRun && !c.Mutation {
			add(c.ID, "registry", "dry-run capability must be a mutation")
		}

		// REST
		var rest []RESTRoute
		for _, rt := range b.REST {
			if rt.Method == c.RESTMethod && rt.Path == c.RESTPath {
				rest = append(rest, rt)
			}
		}
		key := c.RESTMethod + " " + c.RESTPath
		switch len(rest) {
		case 0:
			add(c.ID, "rest", "no route %s", key)
		case 1:
			boundREST[key] = true
			if c.DryRun && !rest[0].DryRun {
				add(c.ID, "rest", "route %s does not honor mode=dry_run", key)
			}
		default:
			add(c.ID, "rest", "%d routes match %s", len(rest), key)
		}

		// Graph
		var graph []GraphField
		for _, gf := range b.Graph {
			if gf.Name == c.GraphField {
				graph = append(graph, gf)
			}
		}
		switch len(graph) {
		case 0:
			add(c.ID, "graph", "no field %s", c.GraphField)
		case 1:
			boundGraph[c.GraphField] = true
			gf := graph[0]
			if gf.Mutation != c.Mutation {
				add(c.ID, "graph", "field %s mutation=%v, registry says %v",
					gf.Name, gf.Mutation, c.Mutation)
			}
			if c.DryRun {
				if !gf.Mutation {
					add(c.ID, "graph", "dry-run field %s must be a mutation, not a query", gf.Name)
				}
				if !contains(gf.Args, "dryRun") {
					add(c.ID, "graph", "field %s has no dryRun argument", gf.Name)
				}
			}
		default:
			add(c.ID, "graph", "%d fields named %s", len(graph), c.GraphField)
		}

		// Tools
		var tools []Tool
		for _, t := range b.Tools {
			if t.Name == c.ToolName {
				tools = append(tools, t)
			}
		}
		switch len(tools) {
		case 0:
			add(c.ID, "tool", "no tool %s", c.ToolName)
		case 1:
			boundTools[c.ToolName] = true
			if c.DryRun && !contains(tools[0].Properties, "dryRun") {
				add(c.ID, "tool", "tool %s has no dryRun input property", c.ToolName)
			}
		default:
			add(c.ID, "tool", "%d tools named %s", len(tools), c.ToolName)
		}
	}

	// A surface silently gaining an operation is drift too.
	for _, rt := range b.REST {
		key := rt.Method + " " + rt.Path
		if !boundREST[key] {
			add("(unregistered)", "rest", "route %s has no capability", key)
		}
	}
	for _, gf := range b.Graph {
		if !boundGraph[gf.Name] {
			add("(unregistered)", "graph", "field %s has no capability", gf.Name)
		}
	}
	for _, t := range b.Tools {
		if !boundTools[t.Name] {
			add("(unregistered)", "tool", "tool %s has no capability", t.Name)
		}
	}

	return violations
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
