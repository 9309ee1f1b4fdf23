package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubLookPath(t *testing.T, found map[string]string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(file string) (string, error) {
		if p, ok := found[file]; ok {
			return p, nil
		}
		return "", errors.New("not found")
	}
}

func TestDetectDependenciesPartial(t *testing.T) {
	stubLookPath(t, map[string]string{"sdb": "/opt/tizen-studio/tools/sdb"})

	report := DetectDependencies()
	assert.Equal(t, BinaryStatus{Found: true, Path: "/opt/tizen-studio/tools/sdb"}, report.SDB)
	assert.False(t, report.TizenCLI.Found)
	assert.Empty(t, report.TizenCLI.Path)
	assert.False(t, report.DeviceToolchain)
}

func TestDetectDependenciesComplete(t *testing.T) {
	stubLookPath(t, map[string]string{
		"sdb":   "/opt/tizen-studio/tools/sdb",
		"tizen": "/opt/tizen-studio/tools/ide/bin/tizen",
	})

	report := DetectDependencies()
	assert.True(t, report.DeviceToolchain)
	assert.Equal(t, "/opt/tizen-studio/tools/ide/bin/tizen", report.TizenCLI.Path)
}
