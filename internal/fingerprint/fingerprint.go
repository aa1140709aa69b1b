// Package fingerprint assigns a stable identity to a review issue so that
// repeated runs against the same change request recognize it as the same
// finding. The identity is a pure hash: no ordering, process state or clock
// input, so identical issues across runs collapse to one fingerprint.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
)

// fieldSep separates hash input fields. Unit separator cannot appear in
// paths or titles, so distinct tuples never concatenate to the same input.
const fieldSep = "\x1f"

// Compute returns the deterministic identity hash over all fingerprint
// inputs. Identical arguments always yield the identical value; changing any
// single argument changes the result.
func Compute(filePath string, line int, issueID, title string, iteration int, contentHash string) string {
	input := strings.Join([]string{
		filePath,
		strconv.Itoa(line),
		issueID,
		title,
		strconv.Itoa(iteration),
		contentHash,
	}, fieldSep)

	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ForFile returns the fingerprint for a file-anchored issue. The iteration
// input is pinned to zero: the file's content hash already changes the
// identity whenever the code changes, and binding the run's iteration would
// hand every issue a fresh identity on each push, so unchanged findings
// could never converge onto their existing threads.
func ForFile(filePath string, line int, issueID, title, contentHash string) string {
	return Compute(filePath, line, issueID, title, 0, contentHash)
}

// ForMeta returns the fingerprint for a change-request-level issue (no file
// or line). Here the iteration does participate: title, description and
// commit messages are reviewed anew on every push, and a finding on revised
// metadata is a new identity. Within one iteration, repeated runs collapse
// identical metadata issues to one fingerprint.
func ForMeta(issueID, title string, iteration int) string {
	return Compute("", 0, issueID, title, iteration, "")
}
