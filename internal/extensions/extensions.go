package extensions

import "sort"

// Extension describes a PGlite extension as the launcher script needs it:
// the node module that ships it and the name it is exported under.
type Extension struct {
	Export string
	Module string
}

var supported = map[string]Extension{
	"pgvector":      {Export: "vector", Module: "@electric-sql/pglite/vector"},
	"fuzzystrmatch": {Export: "fuzzystrmatch", Module: "@electric-sql/pglite/contrib/fuzzystrmatch"},
}

// Lookup returns the extension registered under name.
func Lookup(name string) (Extension, bool) {
	e, ok := supported[name]
	return e, ok
}

// Names returns the sorted list of supported extension names.
func Names() []string {
	names := make([]string, 0, len(supported))
	for n := range supported {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
