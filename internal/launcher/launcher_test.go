package launcher

import (
	"strings"
	"testing"
)

func TestDecideStrategy(t *testing.T) {
	cases := []struct {
		name string
		caps Capabilities
		want Strategy
		err  bool
	}{
		{"pom packaging fails", Capabilities{Packaging: PackagingPom}, 0, true},
		{"war with spring boot", Capabilities{Packaging: PackagingWar, HasSpringBootPlugin: true}, SpringBootRun, false},
		{"jar with spring boot", Capabilities{Packaging: PackagingJar, HasSpringBootPlugin: true}, SpringBootRun, false},
		{"jar with exec plugin", Capabilities{Packaging: PackagingJar, HasExecPlugin: true}, ExecJava, false},
		{"war with main class, no plugins", Capabilities{Packaging: PackagingWar, MainClass: "com.example.App"}, ExecJava, false},
		{"nothing detected", Capabilities{Packaging: PackagingJar}, SpringBootRun, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, warning, err := DecideStrategy(c.caps)
			if c.err {
				if err == nil {
					t.Fatalf("DecideStrategy() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecideStrategy() error = %v", err)
			}
			if got != c.want {
				t.Errorf("DecideStrategy() = %v, want %v", got, c.want)
			}
			if c.name == "nothing detected" && warning == "" {
				t.Errorf("expected a warning when guessing SpringBootRun with nothing detected")
			}
		})
	}
}

// S3 — Spring Boot 1.x jar launch plan.
func TestBuildPlan_SpringBoot1x(t *testing.T) {
	overrideFiles := OverrideFiles{
		Log4jPath: "/scratch/log4j/log4j-XXXX.properties",
		Log4jURL:  "file:///scratch/log4j/log4j-XXXX.properties",
	}
	plan, err := BuildPlan(PlanInput{
		SettingsFile: "/p/settings.xml",
		ProfileArgs:  []string{"-P", "dev"},
		ActiveOnIDs:  []string{"dev"},
		Module:       "app",
		Flags: []BuildFlag{
			{Name: "skip-tests", ArgTokens: []string{"-DskipTests"}, Enabled: true},
		},
		Caps: Capabilities{
			HasSpringBootPlugin: true,
			SpringBootVersion:   "1.2.2.RELEASE",
			Packaging:            PackagingJar,
		},
		Override: LoggingOverride{
			Packages: []PackageLevel{{Name: "org.springframework", Level: "WARN"}},
		},
		OverrideFiles: overrideFiles,
	})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Strategy != SpringBootRun {
		t.Fatalf("Strategy = %v, want SpringBootRun", plan.Strategy)
	}

	want := []string{
		"--settings", "/p/settings.xml",
		"-P", "dev",
		"-pl", "app",
		"-DskipTests",
		"-Drun.jvmArguments=-Dlog4j.ignoreTCL=true -Dlog4j.defaultInitOverride=true -Dlog4j.configuration=file:///scratch/log4j/log4j-XXXX.properties -Dlog4j.logger.org.springframework=WARN -Dlogging.level.org.springframework=WARN",
		"-Drun.profiles=dev",
		"spring-boot:run",
	}
	if len(plan.Args) != len(want) {
		t.Fatalf("Args = %v\nwant %v", plan.Args, want)
	}
	for i := range want {
		if plan.Args[i] != want[i] {
			t.Errorf("Args[%d] = %q, want %q", i, plan.Args[i], want[i])
		}
	}

	if plan.Env["JAVA_TOOL_OPTIONS"] != "-Dlog4j.ignoreTCL=true -Dlog4j.defaultInitOverride=true -Dlog4j.configuration=file:///scratch/log4j/log4j-XXXX.properties" {
		t.Errorf("JAVA_TOOL_OPTIONS = %q", plan.Env["JAVA_TOOL_OPTIONS"])
	}
}

// S4 — exec:java with WAR packaging.
func TestBuildPlan_ExecJavaWar(t *testing.T) {
	plan, err := BuildPlan(PlanInput{
		Module: ".",
		Caps: Capabilities{
			Packaging: PackagingWar,
			MainClass: "com.example.App",
		},
	})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.Strategy != ExecJava {
		t.Fatalf("Strategy = %v, want ExecJava", plan.Strategy)
	}
	joined := strings.Join(plan.Args, " ")
	for _, want := range []string{"-Dexec.classpathScope=compile", "-Dexec.cleanupDaemonThreads=false", "-Dexec.mainClass=com.example.App"} {
		if !strings.Contains(joined, want) {
			t.Errorf("Args = %q, missing %q", joined, want)
		}
	}
	if plan.Args[len(plan.Args)-1] != "exec:java" {
		t.Errorf("last arg = %q, want exec:java", plan.Args[len(plan.Args)-1])
	}
	// Module "." never emits -pl/-f.
	if strings.Contains(joined, "-pl") || strings.Contains(joined, "-f ") {
		t.Errorf("Args should omit module flag for '.': %q", joined)
	}
}

// S7 — flag filtering for spring-boot:run.
func TestBuildPlan_FiltersReactorFlagsForSpringBootRun(t *testing.T) {
	plan, err := BuildPlan(PlanInput{
		Module: ".",
		Flags: []BuildFlag{
			{Name: "also-make", ArgTokens: []string{"--also-make"}, Enabled: true},
			{Name: "also-make-dependents", ArgTokens: []string{"--also-make-dependents"}, Enabled: true},
			{Name: "skip-tests", ArgTokens: []string{"-DskipTests"}, Enabled: true},
		},
		Caps: Capabilities{HasSpringBootPlugin: true, Packaging: PackagingJar},
	})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	joined := strings.Join(plan.Args, " ")
	if strings.Contains(joined, "also-make") {
		t.Errorf("Args should not contain reactor flags: %q", joined)
	}
	if !strings.Contains(joined, "-DskipTests") {
		t.Errorf("Args should retain -DskipTests: %q", joined)
	}
}

func TestFilterForSpringBootRun_IdentityForOtherGoals(t *testing.T) {
	tokens := []string{"--also-make", "-DskipTests"}
	got := FilterForSpringBootRun(tokens, "exec:java")
	if len(got) != len(tokens) {
		t.Fatalf("FilterForSpringBootRun() = %v, want identity for non spring-boot:run goal", got)
	}
}

// Invariant 5 — split-at-first-= only.
func TestExtractLog4jConfigURL(t *testing.T) {
	args := []string{
		"-Drun.jvmArguments=-Dlog4j.ignoreTCL=true -Dlog4j.defaultInitOverride=true -Dlog4j.configuration=file:///a/b=c/log4j.properties -Dspring.config.additional-location=file:///a/app.properties",
	}
	url, ok := ExtractLog4jConfigURL(args)
	if !ok {
		t.Fatal("ExtractLog4jConfigURL() ok = false, want true")
	}
	if url != "file:///a/b=c/log4j.properties" {
		t.Errorf("ExtractLog4jConfigURL() = %q", url)
	}
}

func TestExtractLog4jConfigURL_Absent(t *testing.T) {
	if _, ok := ExtractLog4jConfigURL([]string{"-DskipTests", "spring-boot:run"}); ok {
		t.Error("ExtractLog4jConfigURL() ok = true, want false when no override present")
	}
}

func TestRenderForDisplay_WindowsQuoting(t *testing.T) {
	args := []string{"-pl", "app", "-Drun.jvmArguments=-Dfoo=bar"}
	got := RenderForDisplay(args, true)
	want := `-pl app "-Drun.jvmArguments=-Dfoo=bar"`
	if got != want {
		t.Errorf("RenderForDisplay() = %q, want %q", got, want)
	}
}

func TestRenderForDisplay_NonWindowsNeverQuotes(t *testing.T) {
	args := []string{"-Drun.jvmArguments=-Dfoo=bar"}
	got := RenderForDisplay(args, false)
	if strings.Contains(got, `"`) {
		t.Errorf("RenderForDisplay() = %q, should never quote off Windows", got)
	}
}

func TestGenerateOverrides_ContentAddressedAndFileURL(t *testing.T) {
	dir := t.TempDir()
	files, err := GenerateOverrides(dir, LoggingOverride{
		Packages: []PackageLevel{{Name: "com.example", Level: "DEBUG"}},
	})
	if err != nil {
		t.Fatalf("GenerateOverrides: %v", err)
	}
	if files.Log4jPath == "" || files.SpringPath == "" {
		t.Fatalf("GenerateOverrides() = %+v, want both files populated", files)
	}
	if !strings.HasPrefix(files.Log4jURL, "file://") {
		t.Errorf("Log4jURL = %q, want file:// scheme", files.Log4jURL)
	}

	again, err := GenerateOverrides(dir, LoggingOverride{
		Packages: []PackageLevel{{Name: "com.example", Level: "DEBUG"}},
	})
	if err != nil {
		t.Fatalf("GenerateOverrides (again): %v", err)
	}
	if again.Log4jPath != files.Log4jPath {
		t.Errorf("content-addressed filename changed across identical input: %q vs %q", again.Log4jPath, files.Log4jPath)
	}
}

func TestGenerateOverrides_Inactive(t *testing.T) {
	files, err := GenerateOverrides(t.TempDir(), LoggingOverride{})
	if err != nil {
		t.Fatalf("GenerateOverrides: %v", err)
	}
	if files != (OverrideFiles{}) {
		t.Errorf("GenerateOverrides() = %+v, want zero value when inactive", files)
	}
}

func TestFileURL_WindowsDriveLetter(t *testing.T) {
	got := fileURL(`C:/Users/dev/project/scratch/log4j/log4j-abc.properties`)
	want := "file:///C:/Users/dev/project/scratch/log4j/log4j-abc.properties"
	if got != want {
		t.Errorf("fileURL() = %q, want %q", got, want)
	}
}
