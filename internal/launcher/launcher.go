// Package launcher decides between spring-boot:run and exec:java from
// an effective POM's detected capabilities, synthesizes the argument
// vector (including logging override injection), and produces the
// override files and JAVA_TOOL_OPTIONS environment needed so a
// logging override is visible before the forked JVM initializes its
// own logger.
package launcher

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// Packaging is the effective POM's packaging type.
type Packaging int

const (
	PackagingJar Packaging = iota
	PackagingWar
	PackagingPom
	PackagingOther
)

// Strategy is the chosen launch mechanism.
type Strategy int

const (
	SpringBootRun Strategy = iota
	ExecJava
)

// Capabilities is what the effective POM told us about the module.
type Capabilities struct {
	HasSpringBootPlugin bool
	SpringBootVersion   string // e.g. "1.2.2.RELEASE" or "2.7.1"
	HasExecPlugin       bool
	MainClass           string // FQCN, empty if unknown
	Packaging           Packaging
}

// ErrNoMainClass is returned when a Pom-packaged module has no
// runnable strategy.
var ErrNoMainClass = errors.New("no main class: cannot launch a pom-packaged module")

// DecideStrategy implements the strategy table from spec.md §4.C. The
// returned warning is non-empty when the decision is a guess that may
// fail later (SpringBootRun chosen with neither plugin nor main class).
func DecideStrategy(caps Capabilities) (Strategy, string, error) {
	if caps.Packaging == PackagingPom {
		return 0, "", ErrNoMainClass
	}
	if caps.HasSpringBootPlugin {
		return SpringBootRun, "", nil
	}
	if caps.HasExecPlugin || caps.MainClass != "" {
		return ExecJava, "", nil
	}
	return SpringBootRun, "no exec plugin, main class, or spring-boot plugin detected; spring-boot:run may fail", nil
}

// jvmArgsPropertyName and profilesPropertyName pick the version-sensitive
// Spring Boot Maven plugin system property names: 1.x uses run.*, 2.x+
// uses spring-boot.run.*.
func jvmArgsPropertyName(springBootVersion string) string {
	if majorVersion(springBootVersion) <= 1 {
		return "run.jvmArguments"
	}
	return "spring-boot.run.jvmArguments"
}

func profilesPropertyName(springBootVersion string) string {
	if majorVersion(springBootVersion) <= 1 {
		return "run.profiles"
	}
	return "spring-boot.run.profiles"
}

func majorVersion(v string) int {
	if v == "" {
		return 2
	}
	parts := strings.SplitN(v, ".", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return 2
	}
	return n
}

// BuildFlag is a pre-split build flag: argTokens is never re-split on
// space or comma by the builder.
type BuildFlag struct {
	Name      string
	ArgTokens []string
	Enabled   bool
}

// FilterForSpringBootRun removes --also-make and --also-make-dependents
// tokens from a flat token list when the goal is spring-boot:run
// (running the reactor would also execute the goal on parent/pom
// modules). For any other goal it is the identity (invariant 4).
func FilterForSpringBootRun(tokens []string, goal string) []string {
	if goal != "spring-boot:run" {
		return tokens
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "--also-make" || t == "-am" || t == "--also-make-dependents" || t == "-amd" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// PlanInput is everything BuildPlan needs to synthesize a Plan.
type PlanInput struct {
	SettingsFile   string
	ProfileArgs    []string // from profile.EffectiveCommandArguments, e.g. ["-P", "dev,!qa"]
	ActiveOnIDs    []string // Explicit-On profile ids, for the *.run.profiles property
	Module         string   // "." for the root/single module
	UseModuleFile  bool     // -f <module>/pom.xml instead of -pl <module>
	Flags          []BuildFlag
	Caps           Capabilities
	Override       LoggingOverride
	OverrideFiles  OverrideFiles // already generated, or zero value if none configured
	Windows        bool
}

// Plan is the fully resolved launch plan.
type Plan struct {
	Strategy      Strategy
	Args          []string
	Env           map[string]string
	OverrideFiles []string
	Warning       string
}

// BuildPlan constructs the argument vector in the exact order spec.md
// §4.C and scenario S3 require, and sets JAVA_TOOL_OPTIONS whenever a
// Log4j override URL is present in the generated arguments.
func BuildPlan(in PlanInput) (Plan, error) {
	strategy, warning, err := DecideStrategy(in.Caps)
	if err != nil {
		return Plan{}, err
	}

	var args []string

	if in.SettingsFile != "" {
		args = append(args, "--settings", in.SettingsFile)
	}

	if len(in.ProfileArgs) > 0 {
		args = append(args, in.ProfileArgs...)
	}

	if in.Module != "" && in.Module != "." {
		if in.UseModuleFile {
			args = append(args, "-f", in.Module+"/pom.xml")
		} else {
			args = append(args, "-pl", in.Module)
		}
	}

	goal := "exec:java"
	if strategy == SpringBootRun {
		goal = "spring-boot:run"
	}

	for _, f := range in.Flags {
		if !f.Enabled {
			continue
		}
		args = append(args, FilterForSpringBootRun(f.ArgTokens, goal)...)
	}

	if strategy == ExecJava && in.Caps.Packaging == PackagingWar {
		args = append(args, "-Dexec.classpathScope=compile", "-Dexec.cleanupDaemonThreads=false")
	}
	if strategy == ExecJava && in.Caps.MainClass != "" {
		args = append(args, "-Dexec.mainClass="+in.Caps.MainClass)
	}

	env := map[string]string{}

	if strategy == SpringBootRun {
		jvmArgValue := buildJVMArgsValue(in.Override, in.OverrideFiles)
		if jvmArgValue != "" {
			prop := jvmArgsPropertyName(in.Caps.SpringBootVersion)
			args = append(args, "-D"+prop+"="+jvmArgValue)
		}
		if len(in.ActiveOnIDs) > 0 {
			ids := append([]string(nil), in.ActiveOnIDs...)
			sort.Strings(ids)
			prop := profilesPropertyName(in.Caps.SpringBootVersion)
			args = append(args, "-D"+prop+"="+strings.Join(ids, ","))
		}
	}

	args = append(args, goal)

	var overrideFiles []string
	if in.OverrideFiles.Log4jPath != "" {
		overrideFiles = append(overrideFiles, in.OverrideFiles.Log4jPath)
	}
	if in.OverrideFiles.SpringPath != "" {
		overrideFiles = append(overrideFiles, in.OverrideFiles.SpringPath)
	}

	if url, ok := ExtractLog4jConfigURL(args); ok {
		env["JAVA_TOOL_OPTIONS"] = "-Dlog4j.ignoreTCL=true -Dlog4j.defaultInitOverride=true -Dlog4j.configuration=" + url
	}

	return Plan{
		Strategy:      strategy,
		Args:          args,
		Env:           env,
		OverrideFiles: overrideFiles,
		Warning:       warning,
	}, nil
}

// buildJVMArgsValue concatenates the Log4j/Spring override system
// properties into the single space-separated value carried by the
// *.run.jvmArguments property. Returns "" when no override is active.
func buildJVMArgsValue(override LoggingOverride, files OverrideFiles) string {
	if files.Log4jPath == "" {
		return ""
	}
	parts := []string{
		"-Dlog4j.ignoreTCL=true",
		"-Dlog4j.defaultInitOverride=true",
		"-Dlog4j.configuration=" + files.Log4jURL,
	}
	for _, pkg := range sortedPackages(override.Packages) {
		parts = append(parts, "-Dlog4j.logger."+pkg.Name+"="+pkg.Level)
		parts = append(parts, "-Dlogging.level."+pkg.Name+"="+pkg.Level)
	}
	if files.SpringPath != "" {
		parts = append(parts, "-Dspring.config.additional-location="+files.SpringURL)
	}
	return strings.Join(parts, " ")
}

func sortedPackages(pkgs []PackageLevel) []PackageLevel {
	out := append([]PackageLevel(nil), pkgs...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExtractLog4jConfigURL returns the log4j.configuration URL carried
// inside a *.run.jvmArguments property value, if any. It splits the
// property's value at its first '=' only — the value itself contains
// further '=' characters (e.g. further -D flags), so splitting at
// every '=' would corrupt the extracted URL (invariant 5).
func ExtractLog4jConfigURL(args []string) (string, bool) {
	for _, a := range args {
		if !strings.HasPrefix(a, "-D") {
			continue
		}
		body := a[2:]
		eq := strings.IndexByte(body, '=')
		if eq < 0 {
			continue
		}
		key, value := body[:eq], body[eq+1:]
		if !strings.HasSuffix(key, "jvmArguments") {
			continue
		}
		const marker = "-Dlog4j.configuration="
		idx := strings.Index(value, marker)
		if idx < 0 {
			continue
		}
		rest := value[idx+len(marker):]
		end := strings.Index(rest, " -D")
		if end < 0 {
			return rest, true
		}
		return rest[:end], true
	}
	return "", false
}

// RenderForDisplay renders args as a human-readable command line. On
// Windows, arguments containing '=' or whitespace get double-quoted
// for display only; the actual child is always spawned with a native
// argv array, never through a shell, so this never affects spawning.
func RenderForDisplay(args []string, windows bool) string {
	if !windows {
		return strings.Join(args, " ")
	}
	rendered := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, "= \t") {
			rendered[i] = `"` + a + `"`
		} else {
			rendered[i] = a
		}
	}
	return strings.Join(rendered, " ")
}
