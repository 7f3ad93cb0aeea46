// Package deps checks that the external tools bgmsync shells out to are installed.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"bgmsync/internal/config"
)

// Requirement defines an external dependency bgmsync relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// SyncRequirements lists the tools a sync run needs.
func SyncRequirements(cfg *config.Config) []Requirement {
	ffmpeg := cfg.Download.FFmpegBinary
	if strings.TrimSpace(ffmpeg) == "" {
		ffmpeg = "ffmpeg"
	}
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.Download.YtDlpBinary, Description: "Downloads track audio"},
		{Name: "FFmpeg", Command: ffmpeg, Description: "Converts downloaded audio to mp3"},
		{Name: "FFprobe", Command: cfg.Processing.FFprobeBinary, Description: "Measures track durations"},
	}
}

// PublishRequirements lists the tools a publish run needs.
func PublishRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "git", Command: cfg.Publish.GitBinary, Description: "Commits and pushes the data directory"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns an error naming every unavailable required dependency.
func Missing(statuses []Status) error {
	var names []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			names = append(names, fmt.Sprintf("%s (%s)", s.Name, s.Detail))
		}
	}
	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("missing dependencies: %s", strings.Join(names, ", "))
}
