package monitor

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// swarmHashLength is the byte length of a Swarm bzzr1 content hash.
const swarmHashLength = 32

// decodeFooter scans deployed bytecode for the trailing CBOR-encoded
// metadata footer the Solidity compiler appends, and extracts the
// reference to the off-chain metadata document. Recognized footer keys are
// "bzzr1" (a 32-byte Swarm content hash) and "ipfs" (a raw IPFS multihash).
// When both are present bzzr1 wins, matching the compiler's historical
// preference (see DESIGN.md for why this is frozen rather than unioned).
//
// Any malformed footer (too short, a trailing length pointing past the start
// of the code, undecodable CBOR, or neither recognized key present) is
// reported as an error; callers drop the contract silently on error, per
// the decoder's "yields nothing" contract.
func decodeFooter(code []byte) (metadataEntry, error) {
	raw, err := extractFooterCBOR(code)
	if err != nil {
		return metadataEntry{}, err
	}

	var footer map[string]interface{}
	if err := cbor.Unmarshal(raw, &footer); err != nil {
		return metadataEntry{}, fmt.Errorf("decode cbor footer: %w", err)
	}

	if v, ok := footer["bzzr1"]; ok {
		hash, ok := v.([]byte)
		if !ok || len(hash) != swarmHashLength {
			return metadataEntry{}, fmt.Errorf("bzzr1 footer key is not a %d-byte hash", swarmHashLength)
		}
		return metadataEntry{variant: VariantSwarm, hash: fmt.Sprintf("%x", hash)}, nil
	}
	if v, ok := footer["ipfs"]; ok {
		digest, ok := v.([]byte)
		if !ok || len(digest) == 0 {
			return metadataEntry{}, fmt.Errorf("ipfs footer key is not a multihash")
		}
		cid, err := encodeCID(digest)
		if err != nil {
			return metadataEntry{}, fmt.Errorf("encode ipfs multihash: %w", err)
		}
		return metadataEntry{variant: VariantIPFS, hash: cid}, nil
	}
	return metadataEntry{}, fmt.Errorf("footer contains neither bzzr1 nor ipfs key")
}

// extractFooterCBOR locates the CBOR-encoded byte range within code. The
// compiler writes a big-endian uint16 byte length as the final two bytes
// of deployed bytecode; the CBOR map occupies the length bytes immediately
// before it.
func extractFooterCBOR(code []byte) ([]byte, error) {
	if len(code) < 2 {
		return nil, fmt.Errorf("bytecode too short to contain a metadata footer")
	}
	length := int(binary.BigEndian.Uint16(code[len(code)-2:]))
	if length <= 0 || length+2 > len(code) {
		return nil, fmt.Errorf("metadata footer length %d exceeds bytecode size %d", length, len(code))
	}
	return code[len(code)-2-length : len(code)-2], nil
}
