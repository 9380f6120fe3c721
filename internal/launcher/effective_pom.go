package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// FetchEffectivePom runs `mvn help:effective-pom` against module and
// returns its raw XML output, the input DetectCapabilities parses.
// Respects a 30-second wall-clock timeout, the same budget
// internal/profile gives help:active-profiles.
func FetchEffectivePom(ctx context.Context, executable, workDir, module, settingsFile string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var args []string
	if settingsFile != "" {
		args = append(args, "--settings", settingsFile)
	}
	if module != "" && module != "." {
		args = append(args, "-pl", module)
	}
	args = append(args, "help:effective-pom")

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = workDir

	out, err := cmd.Output()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("fetching effective pom: %w", ctx.Err())
	}
	if err != nil {
		return nil, fmt.Errorf("help:effective-pom: %w", err)
	}
	return out, nil
}
