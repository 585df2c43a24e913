package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/reorder/internal/compiler"
	"github.com/roach88/reorder/internal/model"
)

// Error codes shared by every command. Validation codes (E1xx) come from
// the compiler package.
const (
	ErrCodeGeneric     = "E001"
	ErrCodeScanError   = "E002" // walking the surfaces directory failed
	ErrCodeNoFiles     = "E003"
	ErrCodeLoadFailed  = "E004" // cue/load rejected the package
	ErrCodeNotFound    = "E005"
	ErrCodeBuildFailed = "E006" // CUE evaluation failed
	ErrCodeWriteFailed = "E007"
	ErrCodeInvalidType = "E008" // a field has the wrong CUE type
	ErrCodeStore       = "E009"
	ErrCodeEngine      = "E010"
)

// LoadMode selects whether LoadSurfaces stops at the first compile error.
type LoadMode int

const (
	LoadModeFailFast LoadMode = iota
	LoadModeCollectAll
)

// LoadResult holds the surfaces that compiled and validated cleanly.
type LoadResult struct {
	Surfaces  []model.Surface // sorted by id
	Warnings  []compiler.CycleWarning
	FileCount int
}

// Surface returns the loaded surface with the given id.
func (r *LoadResult) Surface(id string) (model.Surface, bool) {
	i := slices.IndexFunc(r.Surfaces, func(s model.Surface) bool { return s.ID == id })
	if i < 0 {
		return model.Surface{}, false
	}
	return r.Surfaces[i], true
}

// LoadError is a coded loading failure, positioned when CUE knows where.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if !e.Pos.IsValid() {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
}

func loadErrorf(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// LoadSurfaces compiles and validates every `surface: <id>: {...}` entry of
// the CUE package in dir.
//
// A nil result means the directory itself could not be loaded and errs holds
// exactly that one failure. Otherwise result carries the surfaces that
// passed and errs lists the ones that did not.
func LoadSurfaces(dir string, mode LoadMode) (*LoadResult, []error) {
	files, lerr := scanSurfaceDir(dir)
	if lerr != nil {
		return nil, []error{lerr}
	}
	root, lerr := buildPackage(dir)
	if lerr != nil {
		return nil, []error{lerr}
	}

	result := &LoadResult{
		Surfaces:  []model.Surface{},
		Warnings:  []compiler.CycleWarning{},
		FileCount: len(files),
	}
	errs := compileEntries(root.LookupPath(cue.ParsePath("surface")), mode, result)

	slices.SortFunc(result.Surfaces, func(a, b model.Surface) int {
		return strings.Compare(a.ID, b.ID)
	})
	if len(result.Surfaces) == 0 && len(errs) == 0 {
		errs = append(errs, loadErrorf(ErrCodeGeneric, "no surfaces found"))
	}
	return result, errs
}

func scanSurfaceDir(dir string) ([]string, *LoadError) {
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, loadErrorf(ErrCodeNotFound, "surfaces directory not found: %s", dir)
	case err != nil:
		return nil, loadErrorf(ErrCodeNotFound, "error accessing surfaces directory: %v", err)
	case !info.IsDir():
		return nil, loadErrorf(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, loadErrorf(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, loadErrorf(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}
	return files, nil
}

func buildPackage(dir string) (cue.Value, *LoadError) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, loadErrorf(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if err := instances[0].Err; err != nil {
		return cue.Value{}, loadErrorf(ErrCodeLoadFailed, "loading CUE files: %v", err)
	}

	v := cuecontext.New().BuildInstance(instances[0])
	if err := v.Err(); err != nil {
		return cue.Value{}, loadErrorf(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return v, nil
}

// compileEntries appends every surface under entries that compiles and
// validates to result and returns the errors of the rest.
func compileEntries(entries cue.Value, mode LoadMode, result *LoadResult) []error {
	if !entries.Exists() {
		return nil
	}
	iter, err := entries.Fields()
	if err != nil {
		return []error{loadErrorf(ErrCodeGeneric, "iterating surfaces: %v", err)}
	}

	var errs []error
	for iter.Next() {
		label := "surface." + iter.Label()

		s, err := compiler.CompileSurface(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, label))
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}

		invalid := compiler.Validate(s)
		for _, ve := range invalid {
			errs = append(errs, &LoadError{
				Code:    ve.Code,
				Message: fmt.Sprintf("%s.%s: %s", label, ve.Field, ve.Message),
				Pos:     iter.Value().Pos(),
			})
		}
		if len(invalid) > 0 {
			if mode == LoadModeFailFast {
				return errs
			}
			continue
		}

		result.Warnings = append(result.Warnings, compiler.AnalyzeNesting(s)...)
		result.Surfaces = append(result.Surfaces, *s)
	}
	return errs
}

// FindCUEFiles returns every .cue file under dir.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".cue") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, label string) *LoadError {
	var ce *compiler.CompileError
	if !errors.As(err, &ce) {
		return loadErrorf(ErrCodeGeneric, "%s: %v", label, err)
	}
	return &LoadError{
		Code:    MapFieldToErrorCode(ce.Field),
		Message: fmt.Sprintf("%s.%s: %s", label, ce.Field, ce.Message),
		Pos:     ce.Pos,
	}
}

// typeCheckedFields are decoded straight from CUE; a compile error on one
// of them means the value had the wrong type.
var typeCheckedFields = []string{"allow_cross_group", "max_items", "min_items", "predicate", "items"}

// MapFieldToErrorCode picks the error code for a compile error on field.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "surface":
		return compiler.ErrSurfaceIDEmpty
	case strings.HasPrefix(field, "allowed_drop_kinds"):
		return compiler.ErrInvalidAllowedSet
	case strings.HasSuffix(field, ".kind"):
		return compiler.ErrInvalidItemKind
	case strings.HasSuffix(field, ".id"):
		return compiler.ErrItemIDEmpty
	case slices.Contains(typeCheckedFields, field),
		strings.HasSuffix(field, ".parent_group_id"),
		strings.HasSuffix(field, ".payload"):
		return ErrCodeInvalidType
	}
	return ErrCodeGeneric
}

// reportLoadErrors writes the errors from LoadSurfaces and returns the
// command error.
func reportLoadErrors(formatter *OutputFormatter, result *LoadResult, errs []error) error {
	if result != nil {
		return outputCompileErrors(formatter, errs)
	}
	code, message := parseCompileError(errs[0])
	return formatter.Fail(ExitCommandError, code, message, nil, nil)
}
