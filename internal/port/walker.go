package port

// ModelFinder lists candidate model definition files under a directory.
type ModelFinder interface {
	Walk(root string) ([]FileInfo, error)
}

type FileInfo struct {
	Path    string
	ModTime int64
	Size    int64
}
