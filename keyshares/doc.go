/*
Package keyshares implements the KeyShares envelope, a versioned container
bundling validator key material (data) with the material submitted on chain
(payload).

An envelope is only ever handed out after both of its units have passed
validation. Each unit version describes its checks as a schema of
structural rules (required fields, formats) followed by semantic rules
(cluster size, share counts, BLS point validity). All failures of a run are
reported together in a ValidationAggregateError:

	ks, err := keyshares.FromData(raw)
	var verr *keyshares.ValidationAggregateError
	if errors.As(err, &verr) {
		for _, f := range verr.Failures() {
			fmt.Println(f.Field, f.Reason)
		}
	}

Versions are resolved through a Registry. DefaultRegistry knows "v2";
additional versions are registered on a caller-owned Registry with
Register. SetData and SetPayload validate a copy of the new unit before
replacing the old one, so a failed call leaves the envelope unchanged.
*/
package keyshares
