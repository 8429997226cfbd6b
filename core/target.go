package core

import "path/filepath"

// ResolveTarget picks the (format, quality) pair for one file.  In single mode
// the batch defaults always win; in per-file mode the override wins and a
// missing override falls back to DefaultFormat/DefaultQuality, never to a
// value left over from another file.
func ResolveTarget(s BatchSettings, ov *Override) (Format, int) {
	if s.Mode != ModePerFile {
		return s.Format, s.Quality
	}
	if ov != nil {
		return ov.Format, ov.Quality
	}
	return DefaultFormat, DefaultQuality
}

// BuildJobs turns the file list into immutable jobs.  Paths are made absolute
// here so the worker never depends on the caller's working directory.
func BuildJobs(s BatchSettings, files []string, overrides Overrides) []ConversionJob {
	jobs := make([]ConversionJob, 0, len(files))
	for i, f := range files {
		src := OverrideKey(f)
		var ovp *Override
		if ov, ok := overrides.Lookup(src); ok {
			ovp = &ov
		}
		format, quality := ResolveTarget(s, ovp)
		jobs = append(jobs, ConversionJob{
			Index:     i,
			Source:    src,
			Name:      filepath.Base(src),
			Format:    format,
			Quality:   quality,
			Resize:    s.Resize,
			OutputDir: s.OutputDir,
		})
	}
	return jobs
}
