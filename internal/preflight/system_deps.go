package preflight

import (
	"memoryatlas/internal/config"
	"memoryatlas/internal/deps"
)

// CheckSystemDeps evaluates the binaries transcription shells out to.
func CheckSystemDeps(cfg *config.Config) []Result {
	requirements := []deps.Requirement{
		{
			Name:        "uvx",
			Command:     cfg.WhisperXBinary(),
			Description: "Required for WhisperX-driven transcription",
		},
	}
	statuses := deps.CheckBinaries(requirements)
	statuses = append(statuses, deps.ResolveFFmpeg())

	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, fromDependency(status))
	}
	return results
}

func fromDependency(status deps.Status) Result {
	detail := status.Detail
	if status.Available {
		detail = status.Command
		if status.Detail != "" {
			detail += " (" + status.Detail + ")"
		}
	}
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   detail,
	}
}
