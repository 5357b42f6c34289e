package util

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// HasExt reports whether fileName ends with ext, ext including the leading dot.
func HasExt(fileName, ext string) bool {
	return len(fileName) > len(ext) && strings.EqualFold(filepath.Ext(fileName), ext)
}

// ReplaceExt swaps the extension of path for ext. A path without extension
// simply gets ext appended.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// UnitName is the file name of path without directory and extension, e.g.
// "dir/Main.vm" -> "Main".
func UnitName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CollectInputs returns the files a tool should process for path. A regular
// file must carry ext; a directory yields every direct child with ext, sorted
// by name so repeated runs see the same order. Sub directories are ignored.
func CollectInputs(path, ext string) (files []string, isDir bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("cannot access input %s: %w", path, err)
	}
	if !info.IsDir() {
		if !HasExt(path, ext) {
			return nil, false, fmt.Errorf("input %s is not a %s file", path, ext)
		}
		return []string{path}, false, nil
	}
	entries, err := ioutil.ReadDir(path)
	if err != nil {
		return nil, true, fmt.Errorf("cannot read directory %s: %w", path, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !HasExt(entry.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(path, entry.Name()))
	}
	if len(files) == 0 {
		return nil, true, fmt.Errorf("no %s files found in %s", ext, path)
	}
	sort.Strings(files)
	return files, true, nil
}

// DirOutput names the single output file of a directory input: the directory's
// own name with ext, placed inside the directory (dir/Prog -> dir/Prog/Prog.asm).
func DirOutput(dir, ext string) string {
	clean := filepath.Clean(dir)
	abs, err := filepath.Abs(clean)
	if err == nil {
		clean = abs
	}
	return filepath.Join(clean, filepath.Base(clean)+ext)
}
