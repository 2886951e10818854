// Package id mints the prefixed Base62 identifiers stored on subscriptions
// and sent to the payment provider as checkout references.
package id

import (
	"crypto/rand"
	"fmt"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	DefaultLength = 12

	PrefixSubscription     = "sub"
	PrefixPaymentReference = "chk"
)

// 248 is the largest multiple of 62 below 256; bytes at or above it are
// rejected so every symbol is equally likely.
const rejectFrom = 256 - 256%len(alphabet)

// Generate returns length random Base62 symbols (DefaultLength when length
// is not positive).
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length+length/4+1)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectFrom {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

func withPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

func NewSubscriptionID() (string, error) {
	return withPrefix(PrefixSubscription, DefaultLength)
}

// NewPaymentReference returns a checkout reference. Paystack requires it to
// be unique per transaction.
func NewPaymentReference() (string, error) {
	return withPrefix(PrefixPaymentReference, 16)
}
