package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jeanpaul/studentmodel/internal/model"
)

//go:embed document.schema.json
var documentSchema []byte

// Validator checks candidate documents against the document schema and
// the cross-field invariants the schema cannot express.
// It is safe for concurrent use and never mutates its input.
type Validator struct {
	once   sync.Once
	schema *gojsonschema.Schema
	err    error
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Decode validates raw document bytes and returns the typed document.
func (v *Validator) Decode(data []byte) (*model.Document, error) {
	schema, err := v.compiled()
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &model.ValidationError{Field: "(root)", Reason: fmt.Sprintf("malformed document: %v", err)}
	}
	if !result.Valid() {
		return nil, firstSchemaError(result.Errors())
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &model.ValidationError{Field: "(root)", Reason: fmt.Sprintf("malformed document: %v", err)}
	}
	if err := checkInvariants(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate runs the same checks as Decode on an in-memory document.
func (v *Validator) Validate(doc *model.Document) error {
	if doc == nil {
		return &model.ValidationError{Field: "(root)", Reason: "document is nil"}
	}
	if err := checkEncoding(doc); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return &model.ValidationError{Field: "(root)", Reason: fmt.Sprintf("cannot encode document: %v", err)}
	}
	_, err = v.Decode(data)
	return err
}

func (v *Validator) compiled() (*gojsonschema.Schema, error) {
	v.once.Do(func() {
		v.schema, v.err = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
		if v.err != nil {
			v.err = fmt.Errorf("invalid schema definition: %w", v.err)
		}
	})
	return v.schema, v.err
}

// firstSchemaError picks a stable "first" violation; gojsonschema does not
// guarantee an order across object properties.
func firstSchemaError(errs []gojsonschema.ResultError) error {
	if len(errs) == 0 {
		return &model.ValidationError{Field: "(root)", Reason: "schema validation failed"}
	}
	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].Field() != errs[j].Field() {
			return errs[i].Field() < errs[j].Field()
		}
		return errs[i].Description() < errs[j].Description()
	})
	first := errs[0]
	return &model.ValidationError{Field: first.Field(), Reason: first.Description()}
}
