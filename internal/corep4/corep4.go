// Package corep4 embeds the core.p4 stub (packet_in, packet_out,
// NoAction, the built-in error type) as a virtual include directory, so
// `#include <core.p4>` resolves without the caller needing to vendor the
// architecture-independent core library onto disk.
package corep4

import (
	"embed"
	"io/fs"
)

//go:embed core.p4
var files embed.FS

// Name is the filename user programs reference via #include <core.p4>.
const Name = "core.p4"

// Source returns the embedded core.p4 text.
func Source() (string, error) {
	b, err := files.ReadFile(Name)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FS exposes the embedded stub as an fs.FS, for callers that want to
// mount it as an additional include search root rather than materializing
// it to a temp file.
func FS() fs.FS { return files }
