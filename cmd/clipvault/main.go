// clipvault is a command-line client for self-hosted video vault servers.
// It manages the authenticated session (OAuth2 authorization-code + PKCE),
// saved upload destinations, and deep-link handling.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/clipvault/clipvault/internal/cmd"
	"github.com/clipvault/clipvault/internal/config"
	"github.com/clipvault/clipvault/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: clipvault [flags] <command>

Commands:
  login <vault-url>                   log in to a vault server
  logout                              clear the stored session
  status                              show the session state
  destinations list                   list saved upload destinations
  destinations add <server> <token>   save an upload destination
  destinations remove <id>            remove a saved destination
  link <url>                          handle a clipvault deep link

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", config.DefaultPath(), "path to the config file")
	noBrowser := flag.Bool("no-browser", false, "print the login URL instead of opening a browser")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Warnf("failed to configure logging: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "login":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: clipvault login <vault-url>")
			os.Exit(2)
		}
		cmd.DoLogin(cfg, args[1], &cmd.LoginOptions{NoBrowser: *noBrowser})
	case "logout":
		cmd.DoLogout(cfg)
	case "status":
		cmd.DoStatus(cfg)
	case "destinations":
		runDestinations(cfg, args[1:])
	case "link":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: clipvault link <url>")
			os.Exit(2)
		}
		cmd.DoLink(cfg, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		os.Exit(2)
	}
}

func runDestinations(cfg *config.Config, args []string) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		cmd.DoDestinationsList(cfg)
	case "add":
		if len(args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: clipvault destinations add <server> <token> [name]")
			os.Exit(2)
		}
		name := ""
		if len(args) > 3 {
			name = args[3]
		}
		cmd.DoDestinationsAdd(cfg, args[1], args[2], name)
	case "remove":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: clipvault destinations remove <id>")
			os.Exit(2)
		}
		cmd.DoDestinationsRemove(cfg, args[1])
	default:
		fmt.Fprintf(os.Stderr, "unknown destinations command %q\n", args[0])
		os.Exit(2)
	}
}
