//go:build windows

package lifecycle

import "os"

func TerminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// VisibilitySignals has no equivalent on windows; visibility comes from the
// host bridge only.
func VisibilitySignals() (hidden, visible []os.Signal) {
	return nil, nil
}
