package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainInput     = "predgen/input/v1"
	DomainOutput    = "predgen/output/v1"
	DomainConfig    = "predgen/config/v1"
	DomainExpansion = "predgen/expansion/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// hashText hashes NFC-normalised text, so canonically equivalent source
// (precomposed or decomposed accents in identifiers and strings) hashes the
// same.
func hashText(domain, text string) string {
	return hashWithDomain(domain, []byte(norm.NFC.String(text)))
}

// InputHash hashes the original text of a declaration.
func InputHash(text string) string {
	return hashText(DomainInput, text)
}

// OutputHash hashes generated text.
func OutputHash(text string) string {
	return hashText(DomainOutput, text)
}

// ConfigHash hashes the canonical JSON form of a configuration.
func ConfigHash(canonical []byte) string {
	return hashWithDomain(DomainConfig, canonical)
}

// ExpansionID computes the content-addressed ID of an expansion row.
// The same declaration expanded by the same macro in the same run always
// gets the same ID.
func ExpansionID(runID, file, macro string, line int, inputHash string) string {
	fields := []string{runID, file, macro, strconv.Itoa(line), inputHash}
	var data []byte
	for i, f := range fields {
		if i > 0 {
			data = append(data, 0x00)
		}
		data = append(data, f...)
	}
	return hashWithDomain(DomainExpansion, data)
}
