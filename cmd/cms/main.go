// Command cms is a command-line client for a running cmsd.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/celerix-dev/celerix-cms/internal/activity"
	"github.com/celerix-dev/celerix-cms/pkg/engine"
	"github.com/celerix-dev/celerix-cms/pkg/schema"
	"github.com/celerix-dev/celerix-cms/pkg/sdk"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	addr := os.Getenv("CELERIX_STORE_ADDR")
	if addr == "" {
		addr = "localhost:7001"
	}

	client, err := sdk.Connect(addr, os.Getenv("CELERIX_DISABLE_TLS") == "true")
	if err != nil {
		log.Fatalf("Failed to connect to %s: %v", addr, err)
	}
	defer client.Close()

	command := strings.ToLower(os.Args[1])
	args := os.Args[2:]

	switch command {
	case "get":
		if len(args) < 2 {
			log.Fatal("Usage: cms get <collection> <id>")
		}
		doc, err := client.Get(args[0], args[1])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(doc)

	case "set":
		if len(args) < 3 {
			log.Fatal("Usage: cms set <collection> <id> <json>")
		}
		var doc schema.Document
		if err := json.Unmarshal([]byte(strings.Join(args[2:], " ")), &doc); err != nil {
			log.Fatalf("Document must be a JSON object: %v", err)
		}
		action := schema.ActionUpdate
		if _, err := client.Get(args[0], args[1]); errors.Is(err, schema.ErrNotFound) {
			action = schema.ActionCreate
		}
		if err := client.Set(args[0], args[1], doc); err != nil {
			log.Fatal(err)
		}
		record(client, action, args[0], args[1], doc)
		fmt.Println("OK")

	case "del":
		if len(args) < 2 {
			log.Fatal("Usage: cms del <collection> <id>")
		}
		prev, _ := client.Get(args[0], args[1])
		if err := client.Delete(args[0], args[1]); err != nil {
			log.Fatal(err)
		}
		record(client, schema.ActionDelete, args[0], args[1], prev)
		fmt.Println("OK")

	case "list":
		if len(args) < 1 {
			log.Fatal("Usage: cms list <collection>")
		}
		docs, err := client.List(args[0])
		if err != nil {
			log.Fatal(err)
		}
		printJSON(docs)

	case "collections":
		list, err := client.Collections()
		if err != nil {
			log.Fatal(err)
		}
		printJSON(list)

	case "recent":
		limit := activity.DefaultPageSize
		if len(args) > 0 {
			if limit, err = strconv.Atoi(args[0]); err != nil || limit < 1 {
				log.Fatalf("Invalid limit %q", args[0])
			}
		}
		records, err := activity.NewDocumentLog(client, clockwork.NewRealClock(), nil).Recent(context.Background(), min(limit, activity.MaxFetch))
		if err != nil {
			log.Fatal(err)
		}
		printJSON(records)

	case "seed":
		if len(args) < 1 {
			log.Fatal("Usage: cms seed <fixtures-dir>")
		}
		n, err := engine.SeedFixtures(args[0], client)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Seeded %d documents.\n", n)

	case "migrate":
		if len(args) < 1 {
			log.Fatal("Usage: cms migrate <data-dir>")
		}
		p, err := engine.NewPersistence(args[0])
		if err != nil {
			log.Fatal(err)
		}
		data, err := p.LoadAll()
		if err != nil {
			log.Fatal(err)
		}
		n, err := engine.Migrate(engine.NewMemStore(data, nil), client)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Migrated %d documents.\n", n)

	case "ping":
		if err := client.Ping(); err != nil {
			log.Fatal(err)
		}
		fmt.Println("PONG")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

// record appends an activity entry for a managed collection. Bulk commands
// (seed, migrate) load fixtures and backups and are not recorded.
func record(store sdk.DocumentStore, action schema.Action, collection, id string, doc schema.Document) {
	col, err := schema.ParseCollection(collection)
	if err != nil {
		return
	}
	rec := activity.NewRecorder(activity.NewDocumentLog(store, clockwork.NewRealClock(), nil), nil)
	rec.Record(context.Background(), action, col, id, activity.Title(doc), os.Getenv("CELERIX_USER"))
}

func printUsage() {
	fmt.Println("cms - command-line client for celerix-cms")
	fmt.Println("\nUsage:")
	fmt.Println("  cms get <collection> <id>")
	fmt.Println("  cms set <collection> <id> <json>")
	fmt.Println("  cms del <collection> <id>")
	fmt.Println("  cms list <collection>")
	fmt.Println("  cms collections")
	fmt.Println("  cms recent [limit]")
	fmt.Println("  cms seed <fixtures-dir>")
	fmt.Println("  cms migrate <data-dir>")
	fmt.Println("  cms ping")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  CELERIX_STORE_ADDR    Address of the daemon (default: localhost:7001)")
	fmt.Println("  CELERIX_DISABLE_TLS   Set to true to disable TLS")
	fmt.Println("  CELERIX_USER          Email recorded in the activity feed for set and del")
}

func printJSON(v any) {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(v)
		return
	}
	fmt.Println(string(bytes))
}
