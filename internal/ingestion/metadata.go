package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata describes an extracted source document
type Metadata struct {
	Filename     string `json:"filename,omitempty"`
	DeclaredMIME string `json:"declared_mime,omitempty"`
	SniffedMIME  string `json:"sniffed_mime,omitempty"`
	DetectedVia  string `json:"detected_via,omitempty"` // sniff, extension, declared, sniff-text
	Timestamp    string `json:"timestamp"`              // RFC3339 format
	SourceHash   string `json:"source_hash"`            // SHA256 of the raw upload
	TextHash     string `json:"text_hash"`              // SHA256 of the normalized text
	ByteSize     int    `json:"byte_size"`
	Pages        int    `json:"pages,omitempty"`
	SkippedPages []int  `json:"skipped_pages,omitempty"`
	Permissive   bool   `json:"permissive_decode,omitempty"`
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(doc SourceDocument, text string) *Metadata {
	return &Metadata{
		Filename:     doc.Filename,
		DeclaredMIME: doc.DeclaredMIME,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		SourceHash:   computeHash(doc.Data),
		TextHash:     computeHash([]byte(text)),
		ByteSize:     len(doc.Data),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
