package token

// File associates a name with a source so that positions can be reported
// with a filename. This language has no equivalent of `load`, so a File is
// always a single compilation unit; FileSet exists only to give the parser
// and CLI a stable place to look one up by name without threading the
// filename through every call.
type File struct {
	name string
	src  []byte
}

// NewFile creates a File for the given name and source bytes.
func NewFile(name string, src []byte) *File {
	return &File{name: name, src: src}
}

// Name returns the file's name, as supplied to NewFile.
func (f *File) Name() string { return f.name }

// Source returns the file's source bytes.
func (f *File) Source() []byte { return f.src }

// FileSet is a small registry of Files by name.
type FileSet struct {
	files map[string]*File
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: make(map[string]*File)}
}

// AddFile registers f under its name and returns it.
func (fs *FileSet) AddFile(f *File) *File {
	fs.files[f.Name()] = f
	return f
}

// File looks up a previously registered file by name.
func (fs *FileSet) File(name string) *File {
	return fs.files[name]
}
