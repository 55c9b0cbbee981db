package example

import (
	"path/filepath"
	"strings"
)

// distributedToken is the file-name token that opts an example into the
// distributed launcher.
const distributedToken = "mpi"

// RequiresDistributedLaunch reports whether an example must run under the
// distributed launcher. An example opts in by carrying a delimited "mpi"
// token in its file name: the base name without extension is split on "-"
// and "_", and the example is distributed iff one of the tokens equals
// "mpi" exactly. Matching is case-sensitive and never fires on incidental
// substrings ("mpich.py" and "simpi.py" are serial).
//
// Pure function of the name; no file is opened and no process is started.
func RequiresDistributedLaunch(path string) bool {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	for _, tok := range strings.FieldsFunc(base, isTokenDelim) {
		if tok == distributedToken {
			return true
		}
	}
	return false
}

func isTokenDelim(r rune) bool {
	return r == '-' || r == '_'
}
