package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })
	version = "v1.4.0"

	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if got := out.String(); !strings.HasPrefix(got, "spincoach v1.4.0 (scenario format up to v2)") {
		t.Errorf("output = %q", got)
	}
}

func TestBuildVersionFallsBack(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })
	version = ""

	if buildVersion() == "" {
		t.Error("buildVersion returned an empty string")
	}
}
