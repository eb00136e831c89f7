// Package scanner enumerates the protocol corpus directory and caches the
// extracted metadata records alongside raw file contents.
//
// The cache is built on the first Scan and treated as immutable afterwards;
// ClearCache exists for test isolation only and is never called while
// serving requests.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"protodex/internal/logging"
	"protodex/internal/protocol"
	"protodex/pkg/fileops"
)

// maxProtocolFileSize caps individual document reads at 10MB.
const maxProtocolFileSize = 10 * 1024 * 1024

// protocolExtension is the only document extension the scanner picks up.
const protocolExtension = ".md"

// Scanner reads the protocol directory and caches the resulting records.
type Scanner struct {
	root   string
	logger *logging.AppLogger

	records    []protocol.Metadata
	contents   map[string]string
	readErrors int
	scanned    bool
}

// New validates the protocols directory and returns a Scanner. Construction
// fails when the directory is missing, inaccessible, or not a directory;
// that is fatal at startup since no documents could ever be found.
func New(root string, logger *logging.AppLogger) (*Scanner, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("protocols directory not found at: %s", root)
		}
		return nil, fmt.Errorf("protocols directory is not accessible: %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("protocols path is not a directory: %s", root)
	}

	return &Scanner{
		root:   root,
		logger: logger,
	}, nil
}

// Root returns the validated protocols directory.
func (s *Scanner) Root() string {
	return s.root
}

// Scan returns the full protocol record collection, from cache if already
// built. Unreadable files are logged and skipped, never retried; the scan
// proceeds with whatever was read and records the failure count.
func (s *Scanner) Scan() ([]protocol.Metadata, error) {
	if s.scanned {
		return s.records, nil
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan protocols directory: %w", err)
	}

	var records []protocol.Metadata
	contents := make(map[string]string)
	readErrors := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), protocolExtension) {
			continue
		}

		absPath := filepath.Join(s.root, entry.Name())

		// Rejects symlinks whose target resolves outside the protocols
		// directory.
		if err := fileops.ValidateFileInDirectory(absPath, s.root); err != nil {
			s.logger.Warn("Skipping protocol file", "file", entry.Name(), "error", err)
			readErrors++
			continue
		}

		if err := fileops.ValidateFileSizeLimit(absPath, maxProtocolFileSize); err != nil {
			s.logger.Warn("Skipping protocol file", "file", entry.Name(), "error", err)
			readErrors++
			continue
		}

		data, err := os.ReadFile(absPath)
		if err != nil {
			s.logger.Warn("Failed to read protocol file, skipping",
				"file", entry.Name(), "error", err)
			readErrors++
			continue
		}

		meta := protocol.Extract(entry.Name(), string(data))
		records = append(records, meta)
		contents[meta.ContentKey()] = string(data)
	}

	s.records = records
	s.contents = contents
	s.readErrors = readErrors
	s.scanned = true

	s.logger.Info("Protocol scan completed",
		"protocols", len(records),
		"readErrors", readErrors,
	)
	if readErrors > 0 {
		s.logger.Warn("Some protocol files could not be read", "count", readErrors)
	}

	return s.records, nil
}

// Contents returns the raw file contents keyed by each record's ContentKey.
// Scan must have been called; an empty map is returned otherwise.
func (s *Scanner) Contents() map[string]string {
	if s.contents == nil {
		return map[string]string{}
	}
	return s.contents
}

// ReadErrors reports how many files were skipped during the last scan.
func (s *Scanner) ReadErrors() int {
	return s.readErrors
}

// GetByName finds a protocol by exact name. The input matches, in order of
// precedence: the file name, the file name with the extension appended, the
// record name, or the raw input.
func (s *Scanner) GetByName(name string) (*protocol.Metadata, error) {
	records, err := s.Scan()
	if err != nil {
		return nil, err
	}

	// Only remove one trailing .md extension
	normalized := strings.TrimSuffix(name, protocolExtension)

	for i := range records {
		p := &records[i]
		if p.FileName == name ||
			p.FileName == normalized+protocolExtension ||
			p.Name == normalized ||
			p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

// GetByTrigger finds the first protocol (in cache order) declaring the
// trigger, case-insensitively.
func (s *Scanner) GetByTrigger(trigger string) (*protocol.Metadata, error) {
	records, err := s.Scan()
	if err != nil {
		return nil, err
	}

	for i := range records {
		if records[i].HasTrigger(trigger) {
			return &records[i], nil
		}
	}
	return nil, nil
}

// ClearCache discards the cached records so the next Scan re-reads disk.
// For testing only.
func (s *Scanner) ClearCache() {
	s.records = nil
	s.contents = nil
	s.readErrors = 0
	s.scanned = false
}
