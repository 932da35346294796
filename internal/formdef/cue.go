package formdef

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// LoadCUE evaluates a CUE form definition against the #Form schema and
// decodes the concrete result. filename is used in error positions.
func LoadCUE(filename string, src []byte) (*Definition, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile form schema: %w", err)
	}

	val := ctx.CompileBytes(src, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, cueError(filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Form")).Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(filename, err)
	}

	data, err := unified.MarshalJSON()
	if err != nil {
		return nil, cueError(filename, err)
	}
	return DecodeJSON(data)
}

func cueError(filename string, err error) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, filename, cueerrors.Details(err, nil))
}
