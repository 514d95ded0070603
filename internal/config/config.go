package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaSource string

// CurrentVersion is the only mapping layout this build understands.
const CurrentVersion = "1.0"

// Error codes for configuration loading.
const (
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeSchema      = "E008" // Value does not satisfy #Config
	ErrCodeVersion     = "E009" // Layout version mismatch
)

// File is a decoded mapping file.
type File struct {
	Version string  `json:"version"`
	Mapping Mapping `json:"mapping"`

	// Path is where the file was loaded from, if anywhere.
	Path string `json:"-"`
}

// Mapping holds the event bindings.
type Mapping struct {
	Config []Entry `json:"config"`
}

// Entry binds one chat event to a list of action expressions.
type Entry struct {
	Source   string   `json:"source"`
	ID       string   `json:"id"`
	Actions  []string `json:"actions"`
	Category string   `json:"category"`
	Pause    string   `json:"pause"`

	// Pos is the entry's position in the source file.
	Pos token.Pos `json:"-"`
}

// LoadError represents a configuration loading failure.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads a mapping from path. A directory is loaded as a CUE package,
// so a mapping may be split over several files.
func Load(path string) (*File, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("config not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing config: %v", err)}
	}

	ctx := cuecontext.New()

	var v cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
		}
		if err := instances[0].Err; err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", err)}
		}
		v = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading config: %v", err)}
		}
		v = ctx.CompileBytes(data, cue.Filename(path))
	}

	f, err := decode(ctx, v)
	if err != nil {
		return nil, err
	}
	f.Path = path
	return f, nil
}

// Parse decodes a mapping from CUE source. filename is used in positions.
func Parse(data []byte, filename string) (*File, error) {
	ctx := cuecontext.New()
	return decode(ctx, ctx.CompileBytes(data, cue.Filename(filename)))
}

func decode(ctx *cue.Context, v cue.Value) (*File, error) {
	if err := v.Err(); err != nil {
		return nil, cueError(ErrCodeBuildFailed, err)
	}

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling embedded schema: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	var f File
	if err := unified.Decode(&f); err != nil {
		return nil, cueError(ErrCodeSchema, err)
	}

	if f.Version != CurrentVersion {
		return nil, &LoadError{
			Code:    ErrCodeVersion,
			Message: fmt.Sprintf("configuration layout changed (got version %q, want %q), update the config file", f.Version, CurrentVersion),
			Pos:     unified.LookupPath(cue.ParsePath("version")).Pos(),
		}
	}

	// Decode drops positions; walk the source list to recover them.
	iter, err := v.LookupPath(cue.ParsePath("mapping.config")).List()
	if err == nil {
		for i := 0; iter.Next() && i < len(f.Mapping.Config); i++ {
			f.Mapping.Config[i].Pos = iter.Value().Pos()
		}
	}

	return &f, nil
}

// cueError extracts position info from CUE errors.
func cueError(code string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: code, Message: err.Error()}
	}

	first := errs[0]
	le := &LoadError{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
