// Package cryptox converts wallet entropy to and from recovery phrases.
package cryptox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// Entropy sizes accepted by NewEntropy, in bits.
const (
	MinEntropyBits     = 128
	MaxEntropyBits     = 256
	DefaultEntropyBits = 128
)

var ErrInvalidPhrase = errors.New("invalid recovery phrase")

// NewEntropy returns bits of fresh entropy. bits must be a multiple of 32
// between MinEntropyBits and MaxEntropyBits.
func NewEntropy(bits int) ([]byte, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return nil, fmt.Errorf("new entropy: %w", err)
	}
	return entropy, nil
}

// Mnemonic renders entropy as a BIP-39 English recovery phrase.
func Mnemonic(entropy []byte) (string, error) {
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("mnemonic: %w", err)
	}
	return phrase, nil
}

// EntropyFromMnemonic recovers the entropy of a recovery phrase. Whitespace
// between words is normalised and the checksum is verified.
func EntropyFromMnemonic(phrase string) ([]byte, error) {
	phrase = strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
	entropy, err := bip39.EntropyFromMnemonic(phrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPhrase, err)
	}
	return entropy, nil
}
