package validation

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/timmy/ordermonitor/internal/domain"
)

const transactionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["Supplier", "Customer"],
  "properties": {
    "Supplier": {"$ref": "#/$defs/party"},
    "Customer": {"$ref": "#/$defs/party"}
  },
  "$defs": {
    "party": {
      "type": "object",
      "required": ["Name", "Quantity", "Price"],
      "properties": {
        "Name": {"type": "string"},
        "Quantity": {"type": "integer"},
        "Price": {"type": ["number", "string"]}
      }
    }
  }
}`

const cancellationSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["Customer", "Supplier", "Quantity"],
  "properties": {
    "Customer": {"type": "string"},
    "Supplier": {"type": "string"},
    "Quantity": {"type": "integer"}
  }
}`

// Schema checks the structure of decoded drop file documents. Business rules
// such as non-empty names and price bounds are left to Rules so that their
// evaluation order stays in one place.
type Schema struct {
	schemas map[domain.Kind]*jsonschema.Schema
}

// NewSchema compiles the built-in payload schemas.
// Parameters: none.
// Returns:
//   - *Schema: compiled schema set.
//   - error: non-nil if a built-in schema fails to compile.
func NewSchema() (*Schema, error) {
	sources := map[domain.Kind]string{
		domain.KindTransaction:  transactionSchema,
		domain.KindCancellation: cancellationSchema,
	}

	c := jsonschema.NewCompiler()
	s := &Schema{schemas: make(map[domain.Kind]*jsonschema.Schema, len(sources))}
	for kind, src := range sources {
		url := string(kind) + ".schema.json"
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s schema: %w", kind, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("failed to add %s schema: %w", kind, err)
		}
		compiled, err := c.Compile(url)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", kind, err)
		}
		s.schemas[kind] = compiled
	}
	return s, nil
}

// Decode parses raw JSON into the generic document form the schema works on.
// A non-nil error means the input is not well-formed JSON.
func Decode(raw []byte) (interface{}, error) {
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// Check validates a decoded document against the schema for kind.
// Parameters:
//   - kind: payload kind selecting the schema.
//   - doc: document returned by Decode.
// Returns:
//   - Result: verdict; the reason lists the structural violations.
func (s *Schema) Check(kind domain.Kind, doc interface{}) Result {
	sch, ok := s.schemas[kind]
	if !ok {
		return Fail("no schema for payload kind %q", kind)
	}
	if err := sch.Validate(doc); err != nil {
		return Fail("schema violation: %s", flatten(err.Error()))
	}
	return OK()
}

// flatten folds the multi-line validator output into a single log-friendly line.
func flatten(msg string) string {
	lines := strings.Split(msg, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}
