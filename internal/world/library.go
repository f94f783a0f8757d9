package world

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/conneroisu/imprint/internal/value"
)

// Global names of the input scope.
const (
	GlobalData   = "data"
	GlobalInputs = "inputs"
)

// fingerprintKey is the 32-byte blake3 key for library fingerprints: the
// ASCII domain name, zero padded.
var fingerprintKey = [32]byte{
	'i', 'm', 'p', 'r', 'i', 'n', 't', '.', 'l', 'i', 'b', 'r', 'a', 'r', 'y',
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("world: CBOR encoder initialization failed: " + err.Error())
	}
}

// Library is the input scope snapshot built once per host.
type Library struct {
	Globals map[string]value.Value
	// Fingerprint identifies the globals. Two libraries with equal globals
	// have equal fingerprints.
	Fingerprint [32]byte
}

// NewLibrary builds a library from the given globals and fingerprints it.
func NewLibrary(globals map[string]value.Value) (*Library, error) {
	copied := make(map[string]value.Value, len(globals))
	native := make(map[string]interface{}, len(globals))
	for name, v := range globals {
		copied[name] = v
		native[name] = v.Native()
	}

	encoded, err := encMode.Marshal(native)
	if err != nil {
		return nil, fmt.Errorf("encode library: %w", err)
	}

	hasher, err := blake3.NewKeyed(fingerprintKey[:])
	if err != nil {
		return nil, fmt.Errorf("init library hash: %w", err)
	}
	_, _ = hasher.Write(encoded)

	lib := &Library{Globals: copied}
	copy(lib.Fingerprint[:], hasher.Sum(nil))
	return lib, nil
}

// Global returns the value bound to name.
func (l *Library) Global(name string) (value.Value, bool) {
	v, ok := l.Globals[name]
	return v, ok
}

// FingerprintHex returns the fingerprint as lowercase hex.
func (l *Library) FingerprintHex() string {
	return hex.EncodeToString(l.Fingerprint[:])
}
