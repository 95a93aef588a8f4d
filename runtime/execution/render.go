package execution

import (
	"fmt"
	"sort"
	"strings"
)

// Node is an id-free projection of an execution subtree, used to compare
// tree shapes across instances.
type Node struct {
	Activity      string
	Scope         bool
	Concurrent    bool
	Variables     map[string]interface{}
	Subscriptions []string
	Jobs          []string
	Children      []*Node
}

// Shape returns the id-free projection of the tree, nil for ended processes
func (p *Process) Shape() *Node {
	root := p.Root()
	if root == nil {
		return nil
	}
	return p.shape(root)
}

func (p *Process) shape(e *Execution) *Node {
	ret := &Node{
		Activity:   e.ActivityID,
		Scope:      e.IsScope,
		Concurrent: e.IsConcurrent,
		Variables:  cloneMap(e.Variables),
	}
	for _, subscription := range p.SubscriptionsOf(e.ID) {
		ret.Subscriptions = append(ret.Subscriptions, fmt.Sprintf("%v:%v:%v", subscription.ActivityID, subscription.Kind, subscription.Key))
	}
	for _, job := range p.JobsOf(e.ID) {
		ret.Jobs = append(ret.Jobs, job.ActivityID+":"+job.Due)
	}
	sort.Strings(ret.Subscriptions)
	sort.Strings(ret.Jobs)
	for _, child := range p.Children(e.ID) {
		ret.Children = append(ret.Children, p.shape(child))
	}
	sort.SliceStable(ret.Children, func(i, j int) bool {
		return ret.Children[i].Activity < ret.Children[j].Activity
	})
	return ret
}

// Render returns an indented text form of the tree
func (p *Process) Render() string {
	builder := &strings.Builder{}
	fmt.Fprintf(builder, "process %v (%v) %v\n", p.ID, p.DefinitionID, p.State)
	keys := make([]string, 0, len(p.Variables))
	for k := range p.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(builder, "  $%v = %v\n", k, p.Variables[k])
	}
	if root := p.Root(); root != nil {
		p.render(builder, root, 1)
	}
	return builder.String()
}

func (p *Process) render(builder *strings.Builder, e *Execution, depth int) {
	indent := strings.Repeat("  ", depth)
	name := e.ActivityID
	if e.IsRoot() {
		name = "<root>"
	}
	var flags []string
	if e.IsScope {
		flags = append(flags, "scope")
	}
	if e.IsConcurrent {
		flags = append(flags, "concurrent")
	}
	if e.State == StateWaiting {
		flags = append(flags, "waiting")
	}
	fmt.Fprintf(builder, "%v%v %v", indent, name, e.ID)
	if len(flags) > 0 {
		fmt.Fprintf(builder, " [%v]", strings.Join(flags, ","))
	}
	builder.WriteString("\n")
	keys := make([]string, 0, len(e.Variables))
	for k := range e.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(builder, "%v  $%v = %v\n", indent, k, e.Variables[k])
	}
	for _, subscription := range p.SubscriptionsOf(e.ID) {
		fmt.Fprintf(builder, "%v  ~%v %v(%v)\n", indent, subscription.ActivityID, subscription.Kind, subscription.Key)
	}
	for _, job := range p.JobsOf(e.ID) {
		fmt.Fprintf(builder, "%v  @%v %v\n", indent, job.ActivityID, job.Due)
	}
	for _, child := range p.Children(e.ID) {
		p.render(builder, child, depth+1)
	}
}
