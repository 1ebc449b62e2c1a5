package protocol

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	//go:embed schemas/act.schema.json
	actSchemaJSON string
	//go:embed schemas/hello.schema.json
	helloSchemaJSON string
)

const schemaBase = "https://reactorcalc.ai/schemas/"

var (
	schemasOnce sync.Once
	actSchema   *jsonschema.Schema
	helloSchema *jsonschema.Schema
	schemasErr  error
)

func loadSchemas() error {
	schemasOnce.Do(func() {
		if actSchema, schemasErr = jsonschema.CompileString(schemaBase+"act.schema.json", actSchemaJSON); schemasErr != nil {
			return
		}
		helloSchema, schemasErr = jsonschema.CompileString(schemaBase+"hello.schema.json", helloSchemaJSON)
	})
	return schemasErr
}

// ValidateAct checks a raw ACT message against the embedded schema.
func ValidateAct(raw []byte) error { return validate(raw, func() *jsonschema.Schema { return actSchema }) }

// ValidateHello checks a raw HELLO message against the embedded schema.
func ValidateHello(raw []byte) error {
	return validate(raw, func() *jsonschema.Schema { return helloSchema })
}

func validate(raw []byte, schema func() *jsonschema.Schema) error {
	if err := loadSchemas(); err != nil {
		return fmt.Errorf("compile schemas: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema().Validate(v)
}
