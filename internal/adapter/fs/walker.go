package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"clusterform/internal/port"
)

// Walker finds model definition files under a directory.
type Walker struct {
	includes []string
	excludes []string
}

var _ port.ModelFinder = (*Walker)(nil)

func NewWalker(includes, excludes []string) *Walker {
	if len(includes) == 0 {
		includes = []string{"**/*.json", "**/*.yaml", "**/*.yml"}
	}
	return &Walker{
		includes: includes,
		excludes: excludes,
	}
}

// Walk returns matching files sorted by path.
func (w *Walker) Walk(root string) ([]port.FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsys := os.DirFS(root)

	seen := make(map[string]bool)
	var files []port.FileInfo
	for _, pattern := range w.includes {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, rel := range matches {
			if seen[rel] || w.shouldExclude(rel) {
				continue
			}
			seen[rel] = true

			path := filepath.Join(root, filepath.FromSlash(rel))
			info, err := os.Stat(path)
			if err != nil {
				return nil, err
			}
			files = append(files, port.FileInfo{
				Path:    path,
				ModTime: info.ModTime().Unix(),
				Size:    info.Size(),
			})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func (w *Walker) shouldExclude(path string) bool {
	for _, pattern := range w.excludes {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}
