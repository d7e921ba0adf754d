//go:build ignore

// build.go - pronafmonitor build script
// Usage: go run build.go [-target=TARGET]
// Targets: all, build, test, clean, package

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const (
	module     = "pronafmonitor"
	sourcePath = "./cmd/pronafmonitor"
)

var (
	rootDir string
	distDir string

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s, run the script from the repository root", rootDir))
	}
}

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	version := flag.String("version", "", "Version stamped into the binary (default: git describe)")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	switch *target {
	case "all":
		runTests(*verbose)
		buildBinary(resolveVersion(*version), *verbose)
	case "build":
		buildBinary(resolveVersion(*version), *verbose)
	case "test":
		runTests(*verbose)
	case "clean":
		clean()
	case "package":
		buildBinary(resolveVersion(*version), *verbose)
		createPackage()
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "       pronafmonitor - Build System        " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

func resolveVersion(v string) string {
	if v != "" {
		return v
	}
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		printWarning("git describe failed, stamping version \"dev\"")
		return "dev"
	}
	return string(trimNewline(out))
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func binaryName() string {
	if runtime.GOOS == "windows" {
		return module + ".exe"
	}
	return module
}

func buildBinary(version string, verbose bool) {
	printInfo(fmt.Sprintf("Building %s %s...", module, version))

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create dist directory: %v", err))
		os.Exit(1)
	}

	ldflags := fmt.Sprintf("-s -w -X %[1]s/internal/app.Version=%[2]s -X %[1]s/internal/app.BuildTime=%[3]s",
		module, version, time.Now().Format(time.RFC3339))

	args := []string{"build"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", filepath.Join(distDir, binaryName()), sourcePath)

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Build failed: %v", err))
		os.Exit(1)
	}
}

func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
}

func clean() {
	printInfo("Cleaning build artifacts...")
	if err := os.RemoveAll(distDir); err != nil {
		printError(fmt.Sprintf("Failed to clean dist directory: %v", err))
	}
	if err := os.RemoveAll(filepath.Join(rootDir, "logs")); err != nil {
		printError(fmt.Sprintf("Failed to clean logs: %v", err))
	}
}

// createPackage copies the sample configuration next to the binary.
func createPackage() {
	printInfo("Creating package...")
	for _, name := range []string{"config.yaml", "configs/config.yaml"} {
		src := filepath.Join(rootDir, name)
		data, err := os.ReadFile(src)
		if err != nil {
			continue
		}
		if err := os.WriteFile(filepath.Join(distDir, "config.yaml"), data, 0644); err != nil {
			printError(fmt.Sprintf("Failed to copy %s: %v", name, err))
			os.Exit(1)
		}
		return
	}
	printWarning("No config.yaml found, the package relies on PRONAF_* variables")
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-version=VERSION]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all      Run tests and build (default)")
	fmt.Println("  build    Build dist/" + module)
	fmt.Println("  test     Run go test -race ./...")
	fmt.Println("  clean    Remove dist and logs")
	fmt.Println("  package  Build and copy the sample configuration")
}
