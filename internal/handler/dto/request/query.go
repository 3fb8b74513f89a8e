package request

import (
	_ "embed"

	"feasibility-backend/internal/pkg/errs"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed structured_query.schema.json
var structuredQuerySchema []byte

var ErrInvalidStructuredQuery = errs.New("structured query does not match its schema")

// ValidationError lists every schema violation found in a structured query body.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "structured query is invalid"
}

type StructuredQueryValidator struct {
	schema *gojsonschema.Schema
}

func NewStructuredQueryValidator() (*StructuredQueryValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(structuredQuerySchema))
	if err != nil {
		return nil, errs.Wrap(err, "failed to load structured query schema")
	}
	return &StructuredQueryValidator{schema: schema}, nil
}

func (v *StructuredQueryValidator) Validate(body []byte) error {
	res, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errs.Mark(&ValidationError{Violations: []string{err.Error()}}, ErrInvalidStructuredQuery)
	}
	if res.Valid() {
		return nil
	}
	violations := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		violations = append(violations, e.String())
	}
	return errs.Mark(&ValidationError{Violations: violations}, ErrInvalidStructuredQuery)
}
