package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement names an external program the pipeline shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of resolving one Requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool

	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// CheckBinaries resolves every requirement against PATH. Commands given as
// paths are checked directly.
func CheckBinaries(requirements []Requirement) []Status {
	statuses := make([]Status, len(requirements))
	for i, req := range requirements {
		statuses[i] = resolve(req)
	}
	return statuses
}

func resolve(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := lookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("%s not found in PATH", status.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// Missing filters statuses down to required dependencies that did not resolve.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if status.Optional || status.Available {
			continue
		}
		missing = append(missing, status)
	}
	return missing
}
