package keyshares

import (
	"cmp"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/ruteri/validator-keyshares/cryptoutils"
)

// MaxFaultTolerance is the largest number of faulty operators a cluster can
// be sized for.
const MaxFaultTolerance = 4

// rule records zero or more failures.
type rule func(f *failures)

// schema is the explicit validation description of one unit. Semantic rules
// only run once every structural rule has passed, since they assume the
// shapes the structural rules check.
type schema struct {
	structural []rule
	semantic   []rule
}

func (s schema) validate() error {
	var f failures
	for _, r := range s.structural {
		r(&f)
	}
	if !f.empty() {
		return f.err()
	}
	for _, r := range s.semantic {
		r(&f)
	}
	return f.err()
}

func required(field string, present bool) rule {
	return func(f *failures) {
		if !present {
			f.add(field, "is required")
		}
	}
}

func notEmpty[T any](field string, values []T) rule {
	return func(f *failures) {
		switch {
		case values == nil:
			f.add(field, "is required")
		case len(values) == 0:
			f.add(field, "must not be empty")
		}
	}
}

// each applies check to every element, naming failures field[i].
func each[T any](field string, values []T, check func(T) error) rule {
	return func(f *failures) {
		for i, v := range values {
			if err := check(v); err != nil {
				f.add(fmt.Sprintf("%s[%d]", field, i), err.Error())
			}
		}
	}
}

// checkValue applies check to value when the rule runs.
func checkValue[T any](field string, value T, check func(T) error) rule {
	return func(f *failures) {
		if err := check(value); err != nil {
			f.add(field, err.Error())
		}
	}
}

// FaultTolerance returns f for a cluster of 3f+1 operators.
func FaultTolerance(operators int) (int, error) {
	if operators < 4 || (operators-1)%3 != 0 {
		return 0, fmt.Errorf("operator count %d is not of the form 3f+1", operators)
	}
	f := (operators - 1) / 3
	if f > MaxFaultTolerance {
		return 0, fmt.Errorf("operator count %d exceeds the maximum of %d", operators, 3*MaxFaultTolerance+1)
	}
	return f, nil
}

// Threshold returns the number of shares needed to sign, 2f+1.
func Threshold(operators int) (int, error) {
	f, err := FaultTolerance(operators)
	if err != nil {
		return 0, err
	}
	return 2*f + 1, nil
}

func clusterSize(operators int) error {
	_, err := FaultTolerance(operators)
	return err
}

func sameLength(want int, what string) func(n int) error {
	return func(n int) error {
		if n != want {
			return fmt.Errorf("has %d %s, expected %d", n, what, want)
		}
		return nil
	}
}

// decodeHex decodes a 0x-prefixed hex string, requiring size bytes when size
// is positive.
func decodeHex(value string, size int) ([]byte, error) {
	if value == "" {
		return nil, errors.New("is required")
	}
	if !strings.HasPrefix(value, "0x") && !strings.HasPrefix(value, "0X") {
		return nil, errors.New("must be 0x-prefixed hex")
	}
	decoded, err := hexutil.Decode(value)
	if err != nil {
		return nil, fmt.Errorf("must be 0x-prefixed hex: %w", err)
	}
	if size > 0 && len(decoded) != size {
		return nil, fmt.Errorf("must be %d bytes, got %d", size, len(decoded))
	}
	return decoded, nil
}

func blsPublicKeyHex(value string) error {
	_, err := decodeHex(value, cryptoutils.BLSPublicKeySize)
	return err
}

func validBLSPublicKey(value string) error {
	decoded, err := decodeHex(value, cryptoutils.BLSPublicKeySize)
	if err != nil {
		return err
	}
	return cryptoutils.ValidateBLSPublicKey(decoded)
}

func validBase64(value string) error {
	if value == "" {
		return errors.New("is required")
	}
	if _, err := base64.StdEncoding.DecodeString(value); err != nil {
		return fmt.Errorf("must be base64: %w", err)
	}
	return nil
}

func unique[T comparable](values []T) error {
	seen := make(map[T]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("contains duplicate %v", v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func sortedUnique[T cmp.Ordered](values []T) error {
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1] {
			return fmt.Errorf("contains duplicate %v", values[i])
		}
		if values[i] < values[i-1] {
			return fmt.Errorf("must be sorted in ascending order, %v follows %v", values[i], values[i-1])
		}
	}
	return nil
}

func positiveID(id uint64) error {
	if id == 0 {
		return errors.New("must be a positive operator id")
	}
	return nil
}

func hexString(value string) error {
	_, err := decodeHex(value, 0)
	return err
}

func optionalHex(value string) error {
	if value == "" {
		return nil
	}
	return hexString(value)
}

func decimalAmount(value string) error {
	if value == "" {
		return errors.New("is required")
	}
	if _, err := uint256.FromDecimal(value); err != nil {
		return fmt.Errorf("must be a decimal amount: %w", err)
	}
	return nil
}
