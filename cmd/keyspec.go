package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/psn-tools/pkgcheck/ecc"
	"github.com/psn-tools/pkgcheck/keys"
)

// PublicKeyOverrides holds public keys given on the command line. A nil field
// keeps the key from the base set.
type PublicKeyOverrides struct {
	Current *ecc.Point
	Legacy  *ecc.Point
}

// ParsePublicKeys parses a public key specification string in the format
// "current:<hex>,legacy:<hex>". Either entry may be omitted. Keys are X‖Y hex
// and must lie on curve.
//
// Example input: "current:E6792E44...C3C9,legacy:D9AAEB60...7C5A"
func ParsePublicKeys(curve *ecc.Curve, spec string) (*PublicKeyOverrides, error) {
	out := &PublicKeyOverrides{}
	if spec == "" {
		return out, nil
	}

	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid public key specification '%s': expected format 'name:hex_value'", entry)
		}

		name := strings.ToLower(strings.TrimSpace(parts[0]))
		point, err := keys.ParsePublicKey(curve, parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid %s public key: %w", name, err)
		}

		switch name {
		case "current":
			out.Current = &point
		case "legacy":
			out.Legacy = &point
		default:
			return nil, fmt.Errorf("unknown public key name '%s': expected current or legacy", parts[0])
		}
	}

	return out, nil
}

// Apply returns set with the overridden keys replaced.
func (o *PublicKeyOverrides) Apply(set *keys.Set) (*keys.Set, error) {
	if o.Current == nil && o.Legacy == nil {
		return set, nil
	}
	current, legacy := set.Current, set.Legacy
	if o.Current != nil {
		current = *o.Current
	}
	if o.Legacy != nil {
		legacy = *o.Legacy
	}
	return set.WithPublicKeys(current, legacy)
}

// loadKeySet returns the key set from keyringPath, or the embedded keys when
// it is empty, with any public key overrides applied.
func loadKeySet(ctx context.Context, keyringPath, publicKeys string) (*keys.Set, error) {
	var provider keys.KeyProvider = keys.EmbeddedProvider{}
	if keyringPath != "" {
		provider = &keys.FileKeyProvider{Path: keyringPath}
	}

	set, err := provider.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}

	overrides, err := ParsePublicKeys(set.Curve, publicKeys)
	if err != nil {
		return nil, err
	}
	return overrides.Apply(set)
}
