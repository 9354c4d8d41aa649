package layout

import "strings"

// Folder is a node in the directory tree derived from file paths.
// The root folder has an empty Path. Children keep first-seen order,
// which is the sole non-spatial tie-break for the layout and must be
// preserved for reproducible output.
type Folder struct {
	Name     string
	Path     string
	Children []*Folder

	index map[string]*Folder
}

// BuildTree groups a flat, ordered list of POSIX-style relative file
// paths into a nested folder tree. Every directory component on every
// path appears exactly once. Paths must be non-empty and relative;
// callers validate upstream.
func BuildTree(paths []string) *Folder {
	root := &Folder{Name: "root", Path: ""}
	for _, p := range paths {
		parts := strings.Split(p, "/")
		current := root
		for i := 0; i < len(parts)-1; i++ {
			current = current.child(parts[i], strings.Join(parts[:i+1], "/"))
		}
	}
	return root
}

// child returns the named subfolder, creating it on first sight.
func (f *Folder) child(name, path string) *Folder {
	if c, ok := f.index[name]; ok {
		return c
	}
	c := &Folder{Name: name, Path: path}
	if f.index == nil {
		f.index = make(map[string]*Folder)
	}
	f.index[name] = c
	f.Children = append(f.Children, c)
	return c
}

// Walk visits f and all descendants depth-first in child order.
func (f *Folder) Walk(visit func(*Folder)) {
	visit(f)
	for _, c := range f.Children {
		c.Walk(visit)
	}
}

// parentFolder returns the directory portion of a file path, or ""
// for files at the root.
func parentFolder(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return ""
}

// baseName returns the final path component.
func baseName(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
