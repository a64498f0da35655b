/*
main.go - Application entry point

PURPOSE:
  Command-line entry for the crew scheduler: runs the HTTP server and a few
  offline tools that share its configuration and store.

COMMANDS:
  serve      Start the HTTP API (default when no command is given)
  estimate   Print a period's labor cost estimate as JSON
  export     Write a period's estimate to an xlsx or csv file
  seed       Load a demo scenario into the configured store

CONFIGURATION:
  Read from the environment and .env files (see config package). The
  persistent flags below override it:
    --store    memory | sqlite | postgres | redis
    --dsn      DATABASE_URL for sqlite/postgres, REDIS_URL for redis

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the store
  4. Exit

EXAMPLES:
  # Run with a file database
  ./server serve --store=sqlite --dsn=./data/crew.db

  # Run in memory with demo data
  LOAD_SCENARIO=small-team ./server serve --store=memory

  # Export June
  ./server export --month=2024-06 --format=xlsx --out=june.xlsx

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
*/
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
