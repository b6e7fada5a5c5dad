package driver

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"weft/internal/diag"
	"weft/internal/project"
)

// Source is the set of parsed Go files a run works on.
type Source struct {
	Fset  *token.FileSet
	Files []*ast.File
	Paths []string
	// Digest covers the content of every file, in path order.
	Digest project.Digest
}

// listGoFiles returns the sorted non-test Go files under dir. Directories
// named testdata or starting with "_" or "." are skipped.
func listGoFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != dir && (name == "testdata" || strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// expandPaths resolves files and directories into a sorted, deduplicated
// list of Go files.
func expandPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		list := []string{p}
		if info.IsDir() {
			if list, err = listGoFiles(p); err != nil {
				return nil, err
			}
		}
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ParseFiles parses every Go file named by paths in parallel. Syntax errors
// are reported to bag and the file is left out; I/O errors abort.
func ParseFiles(ctx context.Context, paths []string, bag *diag.Bag, jobs int) (*Source, error) {
	files, err := expandPaths(paths)
	if err != nil {
		return nil, err
	}
	src := &Source{Fset: token.NewFileSet()}
	if len(files) == 0 {
		return src, nil
	}

	contents := make([][]byte, len(files))
	digests := make([]project.Digest, len(files))
	for i, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load file: %w", err)
		}
		contents[i] = data
		digests[i] = project.HashBytes(data)
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns its index.
	parsed := make([]*ast.File, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			f, err := parser.ParseFile(src.Fset, path, contents[i], parser.ParseComments|parser.SkipObjectResolution)
			if err != nil {
				reportParseError(bag, err)
				return nil
			}
			parsed[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, f := range parsed {
		if f == nil {
			continue
		}
		src.Files = append(src.Files, f)
		src.Paths = append(src.Paths, files[i])
	}
	src.Digest = project.Combine(project.HashBytes([]byte(strings.Join(files, "\x00"))), digests...)
	return src, nil
}

func reportParseError(bag *diag.Bag, err error) {
	list, ok := err.(scanner.ErrorList)
	if !ok {
		bag.Add(diag.NewError(diag.IOLoadFileError, token.Position{}, err.Error()))
		return
	}
	for _, e := range list {
		bag.Add(diag.NewError(diag.SynParseError, e.Pos, e.Msg))
	}
}
