package storage

type File struct {
	Kind string
	Path string
}
