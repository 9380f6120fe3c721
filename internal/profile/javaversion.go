package profile

import (
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
)

// JavaVersion is one JDK installation discovered on the host,
// feeding IsAutoActive's currentJDK parameter.
type JavaVersion struct {
	Major     string // e.g. "17", "11", "8"
	Full      string // e.g. "17.0.8"
	Path      string
	Vendor    string
	IsCurrent bool // matches $JAVA_HOME
}

var javaVersionPattern = regexp.MustCompile(`version "([^"]+)"`)

// DetectCurrentJavaVersion runs `java -version` against the java
// binary resolved from JAVA_HOME (or PATH) and returns its major
// version string, the form IsAutoActive's jdk activation expects.
// Returns "" if no java executable can be run.
func DetectCurrentJavaVersion() string {
	javaExec := "java"
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := home + string(os.PathSeparator) + "bin" + string(os.PathSeparator) + "java"
		if runtime.GOOS == "windows" {
			candidate += ".exe"
		}
		if _, err := os.Stat(candidate); err == nil {
			javaExec = candidate
		}
	}
	v := detectJavaVersionFromExec(javaExec)
	return v.Major
}

func detectJavaVersionFromExec(javaExec string) JavaVersion {
	cmd := execCommand(javaExec, "-version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return JavaVersion{}
	}

	outputStr := string(out)
	matches := javaVersionPattern.FindStringSubmatch(outputStr)
	if len(matches) < 2 {
		return JavaVersion{}
	}
	full := matches[1]
	major := extractMajorVersion(full)

	vendor := "OpenJDK"
	switch {
	case strings.Contains(outputStr, "Oracle"):
		vendor = "Oracle"
	case strings.Contains(outputStr, "Temurin"), strings.Contains(outputStr, "Eclipse"):
		vendor = "Eclipse Temurin"
	case strings.Contains(outputStr, "Azul"), strings.Contains(outputStr, "Zulu"):
		vendor = "Azul Zulu"
	case strings.Contains(outputStr, "Corretto"), strings.Contains(outputStr, "Amazon"):
		vendor = "Amazon Corretto"
	case strings.Contains(outputStr, "GraalVM"):
		vendor = "GraalVM"
	}

	return JavaVersion{Major: major, Full: full, Vendor: vendor}
}

// extractMajorVersion maps a raw `java -version` string to its major
// component: "1.8.0_382" -> "8", "17.0.8" -> "17".
func extractMajorVersion(full string) string {
	if strings.HasPrefix(full, "1.8") {
		return "8"
	}
	parts := strings.Split(full, ".")
	if len(parts) > 0 {
		return parts[0]
	}
	return full
}

var execCommand = exec.Command
