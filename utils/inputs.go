package utils

import (
	"os"
	"path/filepath"
	"sort"
)

// ExpandInputs replaces each directory in paths with the files directly inside
// it for which accept returns true, sorted by name.  Subdirectories are not
// walked.  Plain paths, including ones that do not exist, pass through so the
// caller can report them per file.
func ExpandInputs(paths []string, accept func(name string) bool) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, e := range entries {
			if e.IsDir() || (accept != nil && !accept(e.Name())) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)
		for _, n := range names {
			out = append(out, filepath.Join(p, n))
		}
	}
	return out, nil
}
