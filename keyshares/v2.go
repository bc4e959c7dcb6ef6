package keyshares

import (
	"errors"
	"fmt"
	"slices"

	"github.com/holiman/uint256"
)

// OperatorV2 is one cluster member.
type OperatorV2 struct {
	ID          uint64 `json:"id"`
	OperatorKey string `json:"operatorKey"`
}

// SharesV2 holds one share public key and one operator-encrypted share per
// operator, in operator order.
type SharesV2 struct {
	PublicKeys    []string `json:"publicKeys"`
	EncryptedKeys []string `json:"encryptedKeys"`
}

// DataV2 is the v2 data unit: the validator public key, its cluster and the
// shares produced for it.
type DataV2 struct {
	PublicKey string       `json:"publicKey"`
	Operators []OperatorV2 `json:"operators"`
	Shares    *SharesV2    `json:"shares"`
}

func (d *DataV2) Version() string { return Version2 }

func (d *DataV2) Clone() Data {
	if d == nil {
		return nil
	}
	c := &DataV2{
		PublicKey: d.PublicKey,
		Operators: slices.Clone(d.Operators),
	}
	if d.Shares != nil {
		c.Shares = &SharesV2{
			PublicKeys:    slices.Clone(d.Shares.PublicKeys),
			EncryptedKeys: slices.Clone(d.Shares.EncryptedKeys),
		}
	}
	return c
}

// OperatorIDs returns the operator ids in cluster order.
func (d *DataV2) OperatorIDs() []uint64 {
	ids := make([]uint64, 0, len(d.Operators))
	for _, op := range d.Operators {
		ids = append(ids, op.ID)
	}
	return ids
}

// Validate checks field shapes, then cluster size, id uniqueness, share
// counts and that every public key is a BLS12-381 G1 point.
func (d *DataV2) Validate() error {
	return d.schema().validate()
}

func (d *DataV2) schema() schema {
	n := len(d.Operators)
	s := schema{
		structural: []rule{
			checkValue("publicKey", d.PublicKey, blsPublicKeyHex),
			notEmpty("operators", d.Operators),
			required("shares", d.Shares != nil),
		},
		semantic: []rule{
			checkValue("operators", n, clusterSize),
			checkValue("operators", d.OperatorIDs(), unique[uint64]),
			checkValue("publicKey", d.PublicKey, validBLSPublicKey),
		},
	}
	for i, op := range d.Operators {
		field := fmt.Sprintf("operators[%d]", i)
		s.structural = append(s.structural,
			checkValue(field+".id", op.ID, positiveID),
			checkValue(field+".operatorKey", op.OperatorKey, validBase64),
		)
	}
	if d.Shares != nil {
		s.structural = append(s.structural,
			notEmpty("shares.publicKeys", d.Shares.PublicKeys),
			notEmpty("shares.encryptedKeys", d.Shares.EncryptedKeys),
			each("shares.publicKeys", d.Shares.PublicKeys, blsPublicKeyHex),
			each("shares.encryptedKeys", d.Shares.EncryptedKeys, validBase64),
		)
		s.semantic = append(s.semantic,
			checkValue("shares.publicKeys", len(d.Shares.PublicKeys), sameLength(n, "share public keys")),
			checkValue("shares.encryptedKeys", len(d.Shares.EncryptedKeys), sameLength(n, "encrypted shares")),
			each("shares.publicKeys", d.Shares.PublicKeys, validBLSPublicKey),
		)
	}
	return s
}

// ReadablePayloadV2 is the decoded form of the registration transaction
// arguments.
type ReadablePayloadV2 struct {
	PublicKey        string   `json:"publicKey"`
	OperatorIDs      []uint64 `json:"operatorIds"`
	SharePublicKeys  []string `json:"sharePublicKeys"`
	SharePrivateKeys []string `json:"sharePrivateKeys"`
	Amount           string   `json:"amount"`
	Cluster          string   `json:"cluster,omitempty"`
}

// PayloadV2 is the v2 payload unit. Raw carries the encoded transaction
// data when it has been produced.
type PayloadV2 struct {
	Readable *ReadablePayloadV2 `json:"readable"`
	Raw      string             `json:"raw,omitempty"`
}

var errNoReadablePayload = errors.New("payload has no readable section")

func (p *PayloadV2) Version() string { return Version2 }

func (p *PayloadV2) Clone() Payload {
	if p == nil {
		return nil
	}
	c := &PayloadV2{Raw: p.Raw}
	if p.Readable != nil {
		r := *p.Readable
		r.OperatorIDs = slices.Clone(p.Readable.OperatorIDs)
		r.SharePublicKeys = slices.Clone(p.Readable.SharePublicKeys)
		r.SharePrivateKeys = slices.Clone(p.Readable.SharePrivateKeys)
		c.Readable = &r
	}
	return c
}

// Amount returns the parsed token amount.
func (p *PayloadV2) Amount() (*uint256.Int, error) {
	if p.Readable == nil {
		return nil, errNoReadablePayload
	}
	return uint256.FromDecimal(p.Readable.Amount)
}

// Threshold returns how many of the cluster's shares are needed to sign.
func (p *PayloadV2) Threshold() (int, error) {
	if p.Readable == nil {
		return 0, errNoReadablePayload
	}
	return Threshold(len(p.Readable.OperatorIDs))
}

// Validate checks field shapes, then that operator ids are sorted and
// unique, the cluster size and that share counts match it.
func (p *PayloadV2) Validate() error {
	return p.schema().validate()
}

func (p *PayloadV2) schema() schema {
	s := schema{
		structural: []rule{
			required("readable", p.Readable != nil),
			checkValue("raw", p.Raw, optionalHex),
		},
	}
	r := p.Readable
	if r == nil {
		return s
	}

	n := len(r.OperatorIDs)
	s.structural = append(s.structural,
		checkValue("readable.publicKey", r.PublicKey, blsPublicKeyHex),
		notEmpty("readable.operatorIds", r.OperatorIDs),
		each("readable.operatorIds", r.OperatorIDs, positiveID),
		notEmpty("readable.sharePublicKeys", r.SharePublicKeys),
		each("readable.sharePublicKeys", r.SharePublicKeys, blsPublicKeyHex),
		notEmpty("readable.sharePrivateKeys", r.SharePrivateKeys),
		each("readable.sharePrivateKeys", r.SharePrivateKeys, hexString),
		checkValue("readable.amount", r.Amount, decimalAmount),
		checkValue("readable.cluster", r.Cluster, optionalHex),
	)
	s.semantic = []rule{
		checkValue("readable.operatorIds", r.OperatorIDs, sortedUnique[uint64]),
		checkValue("readable.operatorIds", n, clusterSize),
		checkValue("readable.sharePublicKeys", len(r.SharePublicKeys), sameLength(n, "share public keys")),
		checkValue("readable.sharePrivateKeys", len(r.SharePrivateKeys), sameLength(n, "encrypted shares")),
	}
	return s
}
