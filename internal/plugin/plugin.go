// Package plugin defines the capability contracts of the collection
// pipeline and the registry that orders plugins by their declared
// dependencies.
//
// A plugin is any value with a stable name plus whichever capability
// interfaces it chooses to implement. The orchestrator checks capability
// presence with type assertions, so one plugin may fill several roles.
package plugin

import (
	"git.home.luguber.info/inful/sitetree/internal/docnode"
)

// Plugin is the minimal contract every plugin satisfies. The name keys the
// plugin in the registry and identifies it in error records.
type Plugin interface {
	Name() string
}

// Lifecycle hooks run on every registered plugin around a collection run,
// in dependency order, regardless of the plugin's other roles. An error
// from either hook is run-fatal.
type Lifecycle interface {
	BeforeCollect(ctx *Context) error
	AfterCollect(ctx *Context) error
}

// Processor plugins transform a section's parsed document tree, in place or
// by substitution. An error fails the section being processed.
type Processor interface {
	ProcessContent(tree *docnode.Node, ctx *Context) (*docnode.Node, error)
}

// Loader plugins resolve a front-matter `input` reference (a path or URL
// string, or a {url, path, revalidate, fallback} mapping) into plain data.
// Returning (nil, nil) declines the source; an error fails the section.
type Loader interface {
	LoadData(source any, ctx *Context) (any, error)
}

// Transformer plugins post-process the final assembled output. The core
// collector does not invoke this role; it is part of the contract surface
// for embedders that want output rewriting.
type Transformer interface {
	TransformOutput(output any, ctx *Context) (any, error)
}

// Base is an embeddable helper carrying the shared error-reporting behavior.
// Plugins are expected to prefer ReportError plus a graceful fallback over
// returning errors for anything recoverable.
type Base struct{}

// ReportError appends a non-fatal plugin error to the run's error log.
// It never panics; a nil context or nil error is ignored.
func (Base) ReportError(ctx *Context, pluginName string, err error) {
	if ctx == nil || err == nil {
		return
	}
	ctx.AppendError(ErrorRecord{Plugin: pluginName, Message: err.Error()})
}
