package treewalk

import (
	"github.com/cljcore/cljc/internal/corelib"
	"github.com/cljcore/cljc/lang/env"
)

// InstallCorelib binds every entry registered in reg into ns as a
// tree-walk *BuiltinFn, this backend's counterpart to corelib.Install's
// *vm.BuiltinFn binding. Kept here rather than in internal/corelib so that
// package stays free to import either backend's callable type without the
// other backend needing to know about it.
func InstallCorelib(ns *env.Namespace, reg *corelib.Registry) {
	for _, name := range reg.Names() {
		fn, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		captured := fn
		v := ns.Intern(name)
		v.BindRoot(&BuiltinFn{Name: name, Fn: captured})
	}
}
