package monitor

import "github.com/mr-tron/base58"

// encodeCID renders a raw IPFS multihash (function code, length, digest) as
// the Base58 CIDv0 string used both in repository paths and in dweb gateway
// URLs. The Base58 codec itself is an out-of-scope external primitive (see
// SPEC_FULL.md); this function only decides which bytes get encoded.
func encodeCID(multihash []byte) (string, error) {
	if len(multihash) < 2 {
		return "", errShortMultihash
	}
	return base58.Encode(multihash), nil
}

var errShortMultihash = multihashError("multihash too short to be valid")

type multihashError string

func (e multihashError) Error() string { return string(e) }
