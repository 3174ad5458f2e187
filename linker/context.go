package linker

// ContextArgs is the link configuration a Context is created with.  It is
// produced by the command-line layer and never reparsed below it.
type ContextArgs struct {
	// Output is the path of the output file being produced.
	Output string

	// OutputKind is the kind of output being produced.  Must be one of the
	// enumerated output kinds.
	OutputKind OutputKind

	// Plugin is the path to the LTO plugin backend library.  Empty if no
	// plugin was configured.
	Plugin string

	// PluginOpts is the ordered list of option strings passed through to the
	// plugin backend.
	PluginOpts []string
}

// Enumeration of output kinds.  The kinds are mutually exclusive.
type OutputKind int

const (
	OutputExec   OutputKind = iota // A position-dependent executable.
	OutputPIE                      // A position-independent executable.
	OutputShared                   // A shared library.
)

// Repr returns the string used to name the output kind in messages.
func (ok OutputKind) Repr() string {
	switch ok {
	case OutputPIE:
		return "pie"
	case OutputShared:
		return "shared"
	default:
		return "exec"
	}
}

// -----------------------------------------------------------------------------

// Context is the global state of one link: the set of input objects, the
// link-wide symbol table, and the counter used to order inputs.  One Context
// exists per link and is passed by reference into every operation.
type Context struct {
	// Args is the link configuration.
	Args ContextArgs

	// Objs is the active object set: every input object currently
	// participating in the link, in priority order of discovery.
	Objs []*ObjectFile

	// SymbolMap is the link-wide symbol table.  Symbols are interned by name:
	// every object referring to a name shares the one Symbol for it.
	SymbolMap map[string]*Symbol

	// priority is the monotonic counter behind NextPriority.
	priority int64
}

// NewContext creates a new link context for the given configuration.
func NewContext(args ContextArgs) *Context {
	return &Context{
		Args:      args,
		SymbolMap: make(map[string]*Symbol),
	}
}

// NextPriority allocates the next input ordering priority.  Priorities are
// strictly increasing over the life of the link, so an object introduced
// later always orders after every object introduced before it.
func (ctx *Context) NextPriority() int64 {
	ctx.priority++
	return ctx.priority
}
