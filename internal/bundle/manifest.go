package bundle

import (
	"encoding/json"
	"time"

	dErrors "attestry/pkg/domain-errors"
)

// ManifestFormatVersion is written into every manifest. Bump only with a
// migration story for readers of old manifests.
const ManifestFormatVersion = 1

// Manifest lists the content addresses of one registrant's sealed documents.
// It is itself sealed and stored; its address is what the ledger records.
// Never mutated after creation.
type Manifest struct {
	FormatVersion     int       `json:"formatVersion"`
	CreatedAt         time.Time `json:"createdAt"`
	DocumentAddresses []string  `json:"documentAddresses"`
}

// NewManifest builds a manifest for addrs stamped at now (UTC).
func NewManifest(addrs []string, now time.Time) Manifest {
	return Manifest{
		FormatVersion:     ManifestFormatVersion,
		CreatedAt:         now.UTC(),
		DocumentAddresses: addrs,
	}
}

// Encode serializes the manifest for sealing.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode manifest")
	}
	return data, nil
}

// DecodeManifest parses a decrypted manifest payload and checks its format
// version.
func DecodeManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "decode manifest")
	}
	if m.FormatVersion != ManifestFormatVersion {
		return Manifest{}, dErrors.New(dErrors.CodeInvalidInput, "unsupported manifest format version")
	}
	return m, nil
}
