package schema

import (
	"fmt"

	"github.com/google/uuid"
)

// IDSource hands out element identifiers.
type IDSource interface {
	NewID(typeName string) string
}

// RandomIDs generates random (version 4) UUIDs.
type RandomIDs struct{}

func (RandomIDs) NewID(string) string { return uuid.NewString() }

// NamespaceDocumentIdentity is the UUID v5 namespace for stable element ids,
// derived from "metafmt/document-identity/v1" under the URL namespace.
var NamespaceDocumentIdentity = uuid.NewSHA1(uuid.NameSpaceURL, []byte("metafmt/document-identity/v1"))

// StableIDs generates deterministic UUID v5 identifiers. The n-th element
// of a type built from the same seed always receives the same id, so
// rebuilding a document from unchanged metadata yields identical output.
// Not safe for concurrent use.
type StableIDs struct {
	namespace uuid.UUID
	counts    map[string]int
}

// NewStableIDs derives a namespace from seed (typically the template path
// and document selectors).
func NewStableIDs(seed string) *StableIDs {
	return &StableIDs{
		namespace: uuid.NewSHA1(NamespaceDocumentIdentity, []byte(seed)),
		counts:    make(map[string]int),
	}
}

func (s *StableIDs) NewID(typeName string) string {
	n := s.counts[typeName]
	s.counts[typeName] = n + 1
	return uuid.NewSHA1(s.namespace, []byte(fmt.Sprintf("%s/%d", typeName, n))).String()
}
