// Copyright 2025 LandingPress Authors
// SPDX-License-Identifier: Apache-2.0

package assets

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// RefKind classifies a string value by its prefix.
type RefKind int

const (
	RefNone RefKind = iota
	RefDataURI
	RefBlob
	RefRemote
)

func (k RefKind) String() string {
	switch k {
	case RefDataURI:
		return "data"
	case RefBlob:
		return "blob"
	case RefRemote:
		return "remote"
	default:
		return "none"
	}
}

// Ephemeral reports whether the reference only lives on the client.
func (k RefKind) Ephemeral() bool {
	return k == RefDataURI || k == RefBlob
}

// Classify sniffs s by prefix only; it does not validate the rest.
func Classify(s string) RefKind {
	s = strings.TrimSpace(s)
	switch {
	case hasPrefixFold(s, "data:"):
		return RefDataURI
	case hasPrefixFold(s, "blob:"):
		return RefBlob
	case hasPrefixFold(s, "http://"), hasPrefixFold(s, "https://"):
		return RefRemote
	default:
		return RefNone
	}
}

// Reference is a parsed image reference.
type Reference struct {
	Kind RefKind
	// MIME is the declared type of a data URI, if any.
	MIME string
	// Payload holds the decoded bytes of a data URI.
	Payload []byte
	// URL is what must be fetched for blob and remote references.
	URL string
}

// ParseReference validates s and decodes inline payloads.
func ParseReference(s string) (Reference, error) {
	s = strings.TrimSpace(s)
	switch Classify(s) {
	case RefDataURI:
		return parseDataURI(s)
	case RefBlob:
		inner := strings.TrimSpace(s[len("blob:"):])
		if inner == "" {
			return Reference{}, fmt.Errorf("%w: empty blob reference", ErrUnsupportedReference)
		}
		return Reference{Kind: RefBlob, URL: inner}, nil
	case RefRemote:
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return Reference{}, fmt.Errorf("%w: invalid url", ErrUnsupportedReference)
		}
		return Reference{Kind: RefRemote, URL: u.String()}, nil
	default:
		return Reference{}, fmt.Errorf("%w: unrecognized prefix", ErrUnsupportedReference)
	}
}

// parseDataURI accepts "data:<mime>[;param]*;base64,<payload>".
func parseDataURI(s string) (Reference, error) {
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return Reference{}, fmt.Errorf("%w: data uri without payload", ErrUnsupportedReference)
	}

	params := strings.Split(meta, ";")
	if len(params) < 2 || !strings.EqualFold(strings.TrimSpace(params[len(params)-1]), "base64") {
		return Reference{}, fmt.Errorf("%w: data uri is not base64 encoded", ErrUnsupportedReference)
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: %w", ErrDecodeFailed, err)
	}
	if len(data) == 0 {
		return Reference{}, fmt.Errorf("%w: empty payload", ErrDecodeFailed)
	}

	return Reference{
		Kind:    RefDataURI,
		MIME:    strings.ToLower(strings.TrimSpace(params[0])),
		Payload: data,
	}, nil
}

// decodeBase64 tolerates whitespace, missing padding and the URL-safe alphabet,
// all of which browsers and form libraries produce.
func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	if unescaped, err := url.PathUnescape(payload); err == nil {
		payload = unescaped
	}

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		data, err := enc.DecodeString(payload)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// isPersisted reports whether s already points at the public storage prefix.
func isPersisted(s, publicPrefix string) bool {
	return publicPrefix != "" && hasPrefixFold(strings.TrimSpace(s), publicPrefix)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
