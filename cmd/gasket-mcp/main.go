package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/gasket-measure-mcp/internal/pipeline"
	"github.com/ironsheep/gasket-measure-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gasket-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("gasket-mcp - MCP server for measuring gaskets against a bank card")
			fmt.Println()
			fmt.Println("Usage: gasket-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  GASKET_LOG_LEVEL=debug    Enable debug logging (tool timings)")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("GASKET_LOG_LEVEL") == "debug" {
		log.Printf("Gasket MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if Version != "dev" {
		server.Version = Version
	}

	srv := server.New(pipeline.New(pipeline.DefaultConfig()))
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
