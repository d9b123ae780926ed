package monitoring

import (
	"encoding/hex"
	"log"
	"strings"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Hexdump logs a labelled hex dump of raw wire data through Logf. Intended
// for verbose tracing of muxed RX/TX traffic; callers gate it on their own
// verbosity flag.
func Hexdump(label string, data []byte) {
	dump := strings.TrimRight(hex.Dump(data), "\n")
	Logf("%s (%d bytes)\n%s", label, len(data), dump)
}
