package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/livefir/rsxhot/cmd/rsxhot/commands"
)

// Version information (can be overridden at build time with -ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error

	switch command {
	case "diff":
		err = commands.Diff(args)
	case "preview":
		err = commands.Preview(args)
	case "serve":
		err = commands.Serve(args)
	case "version", "--version", "-v":
		printVersion()
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, commands.ErrNotReloadable) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printVersion() {
	fmt.Printf("rsxhot version %s\n", version)

	if info, ok := debug.ReadBuildInfo(); ok {
		revision := commit
		if revision == "unknown" {
			for _, setting := range info.Settings {
				if setting.Key == "vcs.revision" {
					revision = setting.Value
				}
			}
		}
		if len(revision) > 12 {
			revision = revision[:12]
		}
		if revision != "" && revision != "unknown" {
			fmt.Printf("commit: %s\n", revision)
		}
		fmt.Printf("go: %s\n", info.GoVersion)
	}
}

func printUsage() {
	fmt.Println("rsxhot: hot reload for rsx templates")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  rsxhot diff [-json] <old> <new>      Compute the hot-reload templates for a change")
	fmt.Println("  rsxhot preview [-plain] <old> <new>  Render the changed templates to HTML")
	fmt.Println("  rsxhot serve [-config file]          Watch templates and push changes to clients")
	fmt.Println("  rsxhot version                       Show version information")
	fmt.Println()
	fmt.Println("Bodies are YAML documents; see internal/document for the format.")
}
