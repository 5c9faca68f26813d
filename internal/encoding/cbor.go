package encoding

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/vvka-141/metafmt/internal/schema"
)

// cborMode uses Core Deterministic Encoding (RFC 8949 section 4.2), so the
// same tree always encodes to the same bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("encoding: CBOR encoder initialization failed: " + err.Error())
	}
}

func encodeCBOR(root *schema.Element) ([]byte, error) {
	return cborMode.Marshal(plain(tree(root)))
}

// plain converts ordered mappings to maps. Key order is restored by the
// deterministic encoder's sort.
func plain(v interface{}) interface{} {
	switch x := v.(type) {
	case ordered:
		m := make(map[string]interface{}, len(x))
		for _, e := range x {
			m[e.Key] = plain(e.Value)
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, item := range x {
			out[i] = plain(item)
		}
		return out
	}
	return v
}
