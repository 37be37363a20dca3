// Package schema validates incoming execute requests against an
// embedded JSON schema before they reach the dispatcher.
package schema

import (
	_ "embed"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed request-execute.json
var executeRequest json.RawMessage

var executeRequestLoader = gojsonschema.NewBytesLoader(executeRequest)

type Schema struct {
	execute *gojsonschema.Schema
}

func NewRequestSchema() (*Schema, error) {
	executeSchema, err := gojsonschema.NewSchema(executeRequestLoader)
	if err != nil {
		return nil, err
	}

	return &Schema{execute: executeSchema}, nil
}

// Validate checks raw request JSON against the execute request schema.
func (s *Schema) Validate(data []byte) (*gojsonschema.Result, error) {
	return s.execute.Validate(gojsonschema.NewBytesLoader(data))
}
