package launcher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// PackageLevel is one configured logging.packages entry.
type PackageLevel struct {
	Name  string
	Level string
}

// LoggingOverride is the subset of engine.Config driving override
// file generation (spec.md §6: logging.packages, logging.log_format).
type LoggingOverride struct {
	Packages  []PackageLevel
	LogFormat string // conversion pattern override, "" for default
}

// Active reports whether any override content would be generated.
func (o LoggingOverride) Active() bool {
	return len(o.Packages) > 0 || o.LogFormat != ""
}

// OverrideFiles is the result of GenerateOverrides: on-disk paths and
// their file:// URL form.
type OverrideFiles struct {
	Log4jPath  string
	Log4jURL   string
	SpringPath string
	SpringURL  string
}

const defaultLog4jPattern = "%d{ISO8601} %-5p [%t] %c{1}: %m%n"

// GenerateOverrides writes the Log4j 1.x properties file and, when a
// custom log format or package levels are configured, the Spring
// additional-location properties file, under scratchDir. Content is
// deterministic and content-addressed: filename = hex(sha256(payload))[:16].
// Returns a zero OverrideFiles (no paths, no error) when override is
// inactive.
func GenerateOverrides(scratchDir string, override LoggingOverride) (OverrideFiles, error) {
	if !override.Active() {
		return OverrideFiles{}, nil
	}
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return OverrideFiles{}, fmt.Errorf("creating override scratch dir: %w", err)
	}

	log4jContent := renderLog4jProperties(override)
	log4jPath, err := writeContentAddressed(filepath.Join(scratchDir, "log4j"), "log4j", log4jContent)
	if err != nil {
		return OverrideFiles{}, err
	}

	result := OverrideFiles{
		Log4jPath: log4jPath,
		Log4jURL:  fileURL(log4jPath),
	}

	springContent := renderSpringProperties(override)
	springPath, err := writeContentAddressed(filepath.Join(scratchDir, "spring"), "application", springContent)
	if err != nil {
		return OverrideFiles{}, err
	}
	result.SpringPath = springPath
	result.SpringURL = fileURL(springPath)

	return result, nil
}

func writeContentAddressed(dir, prefix, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	sum := sha256.Sum256([]byte(content))
	name := fmt.Sprintf("%s-%s.properties", prefix, hex.EncodeToString(sum[:])[:16])
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func renderLog4jProperties(override LoggingOverride) string {
	pattern := override.LogFormat
	if pattern == "" {
		pattern = defaultLog4jPattern
	}
	var sb strings.Builder
	sb.WriteString("log4j.rootLogger=INFO, stdout\n")
	sb.WriteString("log4j.appender.stdout=org.apache.log4j.ConsoleAppender\n")
	sb.WriteString("log4j.appender.stdout.layout=org.apache.log4j.PatternLayout\n")
	sb.WriteString("log4j.appender.stdout.layout.ConversionPattern=" + pattern + "\n")
	for _, pkg := range sortedPackages(override.Packages) {
		sb.WriteString("log4j.logger." + pkg.Name + "=" + pkg.Level + "\n")
	}
	return sb.String()
}

func renderSpringProperties(override LoggingOverride) string {
	var sb strings.Builder
	if override.LogFormat != "" {
		sb.WriteString("logging.pattern.console=" + override.LogFormat + "\n")
		sb.WriteString("logging.pattern.file=" + override.LogFormat + "\n")
	}
	for _, pkg := range sortedPackages(override.Packages) {
		sb.WriteString("logging.level." + pkg.Name + "=" + pkg.Level + "\n")
	}
	return sb.String()
}

// fileURL renders an absolute filesystem path as a file:// URL,
// normalizing Windows drive letters to file:///C:/... form.
func fileURL(path string) string {
	slashed := filepath.ToSlash(path)
	if runtime.GOOS == "windows" || len(slashed) >= 2 && slashed[1] == ':' {
		slashed = strings.TrimPrefix(slashed, "/")
		return "file:///" + slashed
	}
	return "file://" + slashed
}
