// Package uuid derives stable document directory identifiers.
package uuid

import (
	"github.com/google/uuid"
)

// Namespace seeds every stable ID; changing it moves every evid directory.
var Namespace = uuid.MustParse("6d1f3b8e-2c4a-5b7e-9f10-4a8c2e6d0b31")

// Generator creates name-based (version 5) UUID strings.
type Generator struct {
	namespace uuid.UUID
}

// New creates a Generator using Namespace.
func New() *Generator {
	return &Generator{namespace: Namespace}
}

// StableID returns the same UUID for the same (subsite, docID) on every run.
func (g Generator) StableID(subsite, docID string) string {
	return uuid.NewSHA1(g.namespace, []byte(subsite+":"+docID)).String()
}
