package cmd

import (
	"weld/backend"
	"weld/irscan"
	"weld/linker"
	"weld/lto"
	"weld/report"
)

// Linker drives one link from a loaded profile to a fully resolved object
// set.  Output-file layout and writing are not implemented yet; the link
// stops after symbol resolution and LTO replacement.
type Linker struct {
	// profile is the link profile being executed.
	profile *LinkProfile

	// ctx is the link context.
	ctx *linker.Context

	// sess is the link's LTO session.
	sess *lto.Session
}

// NewLinker creates a new linker for the given profile.
func NewLinker(profile *LinkProfile) *Linker {
	ctx := linker.NewContext(linker.ContextArgs{
		Output:     profile.Output,
		OutputKind: profile.OutputKind,
		Plugin:     profile.Plugin,
		PluginOpts: profile.PluginOpts,
	})

	sess := lto.NewSession(ctx)
	if profile.Plugin == "builtin" {
		sess.UseBackend(backend.New().Onload)
	}

	return &Linker{profile: profile, ctx: ctx, sess: sess}
}

// Link discovers and resolves every input, runs final LTO compilation if any
// IR input was seen, and retires the IR placeholders.  When it returns
// without error, the active object set holds only machine-code objects.
func (l *Linker) Link() error {
	report.ReportLinkHeader(l.profile.Output, l.profile.OutputKind.Repr())

	for _, input := range l.profile.Inputs {
		mf, err := linker.OpenFile(input)
		if err != nil {
			return err
		}

		if irscan.IsIR(mf.Data) {
			_, err = l.sess.ReadIRObject(mf)
		} else {
			_, err = linker.LoadObject(l.ctx, mf)
		}
		if err != nil {
			return err
		}
	}

	if l.sess.Phase() == lto.PhaseCollecting {
		if err := l.sess.Compile(); err != nil {
			return err
		}
	}

	for _, obj := range l.ctx.Objs {
		if obj.IsIR() {
			return report.StateErrorf("%s: IR object survived final compilation", obj.Name)
		}
	}

	l.sess.Cleanup()
	return nil
}

// Objects exposes the active object set, primarily for inspection after a
// link.
func (l *Linker) Objects() []*linker.ObjectFile {
	return l.ctx.Objs
}
