// Command storectl drives the API store subscription resource.
//
//	storectl [-config file] create -app <applicationId> -api <apiIdentifier> [-tier Unlimited]
//	storectl [-config file] get <subscriptionId> [-if-none-match etag]
//	storectl [-config file] delete <subscriptionId> [-if-match etag]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/bark-labs/devicemgt/internal/config"
	"github.com/bark-labs/devicemgt/internal/logging"
	"github.com/bark-labs/devicemgt/internal/model"
	"github.com/bark-labs/devicemgt/internal/storeclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "storectl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("storectl", flag.ContinueOnError)
	configPath := global.String("config", "config.yaml", "Path to config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return fmt.Errorf("missing command: create, get or delete")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Output: "stderr", Pretty: true})
	if err != nil {
		return err
	}
	client, err := storeclient.New(cfg.StoreAPI.BaseURL, cfg.StoreAPI.Token, cfg.StoreAPI.RequestTimeout,
		storeclient.WithLogger(logging.Component(log, "storeclient")))
	if err != nil {
		return err
	}

	ctx := context.Background()
	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		app := fs.String("app", "", "Application id")
		api := fs.String("api", "", "API identifier")
		tier := fs.String("tier", "Unlimited", "Subscription tier")
		contentType := fs.String("content-type", "application/json", "Request media type")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *app == "" || *api == "" {
			return fmt.Errorf("create needs -app and -api")
		}
		sub, err := client.CreateSubscription(ctx, &model.Subscription{
			ApplicationID: *app,
			APIIdentifier: *api,
			Tier:          *tier,
		}, *contentType)
		if err != nil {
			return err
		}
		return printJSON(sub)
	case "get":
		fs := flag.NewFlagSet("get", flag.ContinueOnError)
		accept := fs.String("accept", "", "Accept header")
		ifNoneMatch := fs.String("if-none-match", "", "ETag of the cached variant")
		ifModifiedSince := fs.String("if-modified-since", "", "Last-Modified of the cached variant")
		id, err := parseWithID(fs, rest)
		if err != nil {
			return err
		}
		sub, err := client.GetSubscription(ctx, id, storeclient.GetOptions{
			Accept:          *accept,
			IfNoneMatch:     *ifNoneMatch,
			IfModifiedSince: *ifModifiedSince,
		})
		if storeclient.IsNotModified(err) {
			fmt.Println("not modified")
			return nil
		}
		if err != nil {
			return err
		}
		if !sub.Active() {
			fmt.Fprintf(os.Stderr, "storectl: subscription %s is %s\n", sub.SubscriptionID, sub.Status)
		}
		return printJSON(sub)
	case "delete":
		fs := flag.NewFlagSet("delete", flag.ContinueOnError)
		ifMatch := fs.String("if-match", "", "Expected ETag")
		ifUnmodifiedSince := fs.String("if-unmodified-since", "", "Expected Last-Modified")
		id, err := parseWithID(fs, rest)
		if err != nil {
			return err
		}
		return client.DeleteSubscription(ctx, id, storeclient.DeleteOptions{
			IfMatch:           *ifMatch,
			IfUnmodifiedSince: *ifUnmodifiedSince,
		})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// parseWithID accepts the subscription id before or after the flags.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", fmt.Errorf("%s needs a subscription id", fs.Name())
	}
	return id, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
