// Package diagnostics reports the platform tools found on the host.
package diagnostics

import "os/exec"

var lookPath = exec.LookPath

type BinaryStatus struct {
	Found bool   `json:"found"`
	Path  string `json:"path,omitempty"`
}

// DependencyReport lists the device bridge and platform CLI used to reach a
// TV. Neither is needed when playback goes to a DLNA renderer.
type DependencyReport struct {
	SDB             BinaryStatus `json:"sdb"`
	TizenCLI        BinaryStatus `json:"tizen"`
	DeviceToolchain bool         `json:"device_toolchain"`
}

func DetectDependencies() DependencyReport {
	sdb := detectBinary("sdb")
	cli := detectBinary("tizen")

	return DependencyReport{
		SDB:             sdb,
		TizenCLI:        cli,
		DeviceToolchain: sdb.Found && cli.Found,
	}
}

func detectBinary(name string) BinaryStatus {
	path, err := lookPath(name)
	if err != nil {
		return BinaryStatus{}
	}
	return BinaryStatus{Found: true, Path: path}
}
