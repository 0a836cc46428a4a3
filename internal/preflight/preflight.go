// Package preflight verifies that the external tools the pipeline shells
// out to are present before the first cycle runs. A missing engine is an
// unrecoverable environment failure and must stop the process early.
package preflight

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tool names a required external binary.
type Tool struct {
	Name   string
	Binary string
}

// Check resolves every tool from PATH (or its configured absolute path)
// and returns an error naming all missing binaries at once.
func Check(tools []Tool) error {
	var missing []string
	for _, tool := range tools {
		if tool.Binary == "" {
			tool.Binary = tool.Name
		}
		if _, err := exec.LookPath(tool.Binary); err != nil {
			missing = append(missing, fmt.Sprintf("%s (%s)", tool.Name, tool.Binary))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required tools not found: %s", strings.Join(missing, ", "))
	}
	return nil
}
