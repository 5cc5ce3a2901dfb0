package cmd

import (
	"fmt"

	"github.com/clipvault/clipvault/internal/config"
	"github.com/clipvault/clipvault/internal/deeplink"
)

// DoDestinationsList prints the saved upload destinations in insertion order.
func DoDestinationsList(cfg *config.Config) {
	store := newDestinationStore(cfg)
	list, err := store.List()
	if err != nil {
		fmt.Printf("Failed to read destinations: %v\n", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No saved destinations.")
		return
	}
	for _, d := range list {
		fmt.Printf("%s  %-20s %s (expires %s)\n", d.ID, d.Name, d.Server, d.ExpiresAt)
	}
}

// DoDestinationsAdd saves a destination from explicit server/token/name values.
func DoDestinationsAdd(cfg *config.Config, server, token, name string) {
	store := newDestinationStore(cfg)
	dest, err := store.Add(server, token, name)
	if err != nil {
		fmt.Printf("Failed to add destination: %v\n", err)
		return
	}
	fmt.Printf("Saved destination %s (%s)\n", dest.Name, dest.Server)
}

// DoDestinationsRemove removes a destination by ID.
func DoDestinationsRemove(cfg *config.Config, id string) {
	store := newDestinationStore(cfg)
	if err := store.Remove(id); err != nil {
		fmt.Printf("Failed to remove destination: %v\n", err)
		return
	}
	fmt.Println("Destination removed.")
}

// DoLink dispatches a pasted deep link: destination-configuration links are
// stored, upload links are acknowledged for the upload pipeline, and OAuth
// callbacks are rejected here because the login flow consumes them directly.
func DoLink(cfg *config.Config, raw string) {
	link, err := deeplink.Parse(raw)
	if err != nil {
		fmt.Printf("Unrecognized link: %v\n", err)
		return
	}

	switch link.Kind {
	case deeplink.KindConfigureDestination:
		DoDestinationsAdd(cfg, link.Server, link.Token, link.Name)
	case deeplink.KindUpload:
		fmt.Printf("Upload link for draft %s on %s; run the upload command to use it.\n", link.DraftID, link.Server)
	case deeplink.KindOAuthCallback:
		fmt.Println("OAuth callbacks are handled by the login flow; run 'clipvault login' instead.")
	}
}
