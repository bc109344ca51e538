package recordreader

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// StdinPath is the path which refers to standard input
const StdinPath = "-"

const globMetaChars = "*?[{\\"

// OpenFile opens the file for reading, decompressing it by extension (.gz or .zst)
func OpenFile(path string) (io.ReadCloser, error) {
	if path == StdinPath {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		reader, gerr := gzip.NewReader(file)
		if gerr != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open gzip %s: %w", path, gerr)
		}
		return &decompressingFile{Reader: reader, closeReader: reader.Close, file: file}, nil
	case ".zst":
		reader, zerr := zstd.NewReader(file)
		if zerr != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open zstd %s: %w", path, zerr)
		}
		return &decompressingFile{Reader: reader, closeReader: func() error { reader.Close(); return nil }, file: file}, nil
	default:
		return file, nil
	}
}

// decompressingFile closes both the decompressor and the underlying file
type decompressingFile struct {
	io.Reader
	closeReader func() error
	file        *os.File
}

func (df *decompressingFile) Close() error {
	rerr := df.closeReader()
	ferr := df.file.Close()
	if rerr != nil {
		return rerr
	}
	return ferr
}

// ListFiles lists regular files matching the glob pattern, sorted by path
//
// The pattern supports "*" (within a path segment), "**" (across segments), "?", character classes and "{a,b}".
// A pattern without any of those that names a directory lists the files directly under it.
func ListFiles(pattern string) ([]string, error) {
	if pattern == StdinPath {
		return []string{StdinPath}, nil
	}
	pattern = filepath.Clean(pattern)

	if !strings.ContainsAny(pattern, globMetaChars) {
		return listPlainPath(pattern)
	}

	matcher, err := glob.Compile(pattern, filepath.Separator)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	root := staticDirPrefix(pattern)
	var pathList []string
	werr := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() && matcher.Match(path) {
			pathList = append(pathList, path)
		}
		return nil
	})
	if werr != nil {
		return nil, werr
	}
	sort.Strings(pathList)
	return pathList, nil
}

func listPlainPath(path string) ([]string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	pathList := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			pathList = append(pathList, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(pathList)
	return pathList, nil
}

// staticDirPrefix returns the deepest directory in the pattern before any wildcard
func staticDirPrefix(pattern string) string {
	metaIndex := strings.IndexAny(pattern, globMetaChars)
	dirEnd := strings.LastIndexByte(pattern[:metaIndex], filepath.Separator)
	switch {
	case dirEnd < 0:
		return "."
	case dirEnd == 0:
		return string(filepath.Separator)
	default:
		return pattern[:dirEnd]
	}
}
