// Package nlp provides named-entity extraction for task titles.
package nlp

import "context"

// Entity is a labelled span of text. Labels follow the OntoNotes scheme
// (ORG, FAC, GPE, LOC, PRODUCT, PERSON, ...).
type Entity struct {
	Text  string `json:"text" jsonschema_description:"Exact span copied from the input"`
	Label string `json:"label" jsonschema:"enum=ORG,enum=FAC,enum=GPE,enum=LOC,enum=PRODUCT,enum=PERSON,enum=DATE,enum=OTHER"`
}

// Extractor finds entities in free text.
type Extractor interface {
	Entities(ctx context.Context, text string) ([]Entity, error)
}
