// Package schema validates pose graph definitions before they are built.
//
// A graph is a set of domain.NodeDef documents wired together by their named
// inputs. ValidateGraph checks the whole set at once and reports every problem
// it finds instead of stopping at the first one:
//
//	err := schema.ValidateGraph(defs, "root", clips)
//	for _, e := range schema.ValidationErrors(err) {
//	    fmt.Println(e)
//	}
//
// Each reported error is a *ValidationError that unwraps to one of the
// configuration sentinels of package domain (ErrMissingChild, ErrNotLeaf,
// ErrCycle, ...), so callers can use errors.Is on the aggregate.
package schema
