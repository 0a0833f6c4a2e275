// Copyright 2025, Daniel Nylander and the ddtp-translate contributors
// SPDX-License-Identifier: GPL-3.0-only

/*
ddtp-translate is a command-line client for submitting Debian package
description translations through the DDTSS.
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/yeager/ddtp-translate/config"
	"github.com/yeager/ddtp-translate/core/audit"
	"github.com/yeager/ddtp-translate/core/batch"
	"github.com/yeager/ddtp-translate/core/ddtss"
	"github.com/yeager/ddtp-translate/core/pofile"
	"github.com/yeager/ddtp-translate/core/queue"
	"github.com/yeager/ddtp-translate/core/session"
	"github.com/yeager/ddtp-translate/core/status"
)

const usage = `usage: ddtp-translate [-config FILE] COMMAND [ARGS]

Commands:
  login                     authenticate and store the session
  logout                    drop the stored session
  fetch [PACKAGE]           fetch a package to translate (server picks one
                            when no name is given)
  abandon PACKAGE           give a fetched package back without translating
  review PACKAGE            show the review form for a package
  review PACKAGE accept [COMMENT]
                            accept the translation as is
  review PACKAGE comment COMMENT
                            leave a comment without reviewing
  add PKG HASH SHORT        queue a translation; the long text is read from
                            standard input until EOF
  list                      show the queue
  remove PKG HASH           remove a queued item
  retry PKG HASH            move a failed item back to ready
  clear-sent                drop accepted items from the queue
  sort                      order the queue by package name
  send                      submit every ready item (Ctrl-C stops between
                            items)
  export FILE               write the queue as a PO file
  import FILE               add translated entries from a PO file
  stats                     show the team's overview counters
  status                    show the server-side status of listed packages
`

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func run() error {
	audit.SetDefaultLogger()

	if err := config.Global.LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	args := config.Global.Args()
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("no command given")
	}

	store := session.NewStore(config.Global.SessionFile())

	client := ddtss.NewClient(ddtss.Config{
		BaseURL:       config.Global.Basic.BaseURL,
		Language:      config.Global.Basic.Language,
		Store:         store,
		Timeout:       config.Global.Request.Timeout,
		SubmitTimeout: config.Global.Request.SubmitTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := args[0], args[1:]

	switch cmd {
	case "login":
		return cmdLogin(ctx, client)
	case "logout":
		return client.Logout()
	case "fetch":
		return cmdFetch(ctx, client, args)
	case "abandon":
		return cmdAbandon(ctx, client, args)
	case "review":
		return cmdReview(ctx, client, args)
	case "stats":
		return cmdStats(ctx, client)
	case "status":
		return cmdStatus(ctx, client)
	}

	// The remaining commands operate on the queue.
	qstore, err := queue.OpenStore(config.Global.QueueFile())
	if err != nil {
		return err
	}
	defer qstore.Close()

	q, err := queue.Load(qstore)
	if err != nil {
		return err
	}

	switch cmd {
	case "add":
		return cmdAdd(q, args)
	case "list":
		return cmdList(q)
	case "remove":
		return cmdRemove(q, args)
	case "retry":
		return cmdRetry(q, args)
	case "clear-sent":
		return cmdClearSent(q)
	case "sort":
		return q.SortByPackage()
	case "send":
		return cmdSend(ctx, client, q)
	case "export":
		return cmdExport(q, args)
	case "import":
		return cmdImport(q, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func credentials() (ddtss.Credentials, error) {
	creds := ddtss.Credentials{
		Alias:    config.Global.Basic.Alias,
		Password: config.Global.Basic.Password,
	}

	if creds.Alias == "" || creds.Password == "" {
		return creds, errors.New("alias and password must be set (config file or DDTP_ALIAS / DDTP_PASSWORD)")
	}

	return creds, nil
}

func cmdLogin(ctx context.Context, client *ddtss.Client) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	if err := client.Login(ctx, creds); err != nil {
		return err
	}

	fmt.Printf("Logged in as %s\n", creds.Alias)

	return nil
}

func cmdFetch(ctx context.Context, client *ddtss.Client, args []string) error {
	pkg := ""
	if len(args) > 0 {
		pkg = args[0]
	}

	desc, err := client.FetchPackage(ctx, pkg)
	if err != nil {
		return err
	}

	fmt.Printf("Package: %s\nMD5: %s\n\n%s\n\n%s\n", desc.Package, desc.ContentHash, desc.ShortOrig, desc.LongOrig)

	if desc.ShortTrans != "" || desc.LongTrans != "" {
		fmt.Printf("\n--- existing translation ---\n%s\n\n%s\n", desc.ShortTrans, desc.LongTrans)
	}

	return nil
}

func cmdAbandon(ctx context.Context, client *ddtss.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: abandon PACKAGE")
	}

	if err := client.Abandon(ctx, args[0]); err != nil {
		return err
	}

	fmt.Printf("Abandoned %s\n", args[0])

	return nil
}

func cmdReview(ctx context.Context, client *ddtss.Client, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: review PACKAGE [accept|comment] [COMMENT]")
	}

	pkg := args[0]

	if len(args) == 1 {
		rec, err := client.ReviewPage(ctx, pkg)
		if err != nil {
			return err
		}

		fmt.Printf("Package: %s\nOwner: %s\nMD5: %s\n\n%s\n\n%s\n", rec.Package, rec.Owner, rec.ContentHash, rec.ShortTrans, rec.LongTrans)

		if rec.Log != "" {
			fmt.Printf("\n--- log ---\n%s\n", rec.Log)
		}

		return nil
	}

	comment := ""
	if len(args) > 2 {
		comment = strings.Join(args[2:], " ")
	}

	switch args[1] {
	case "accept":
		if err := client.SubmitReview(ctx, pkg, ddtss.ReviewAccept, "", "", comment); err != nil {
			return err
		}

		fmt.Printf("Accepted %s\n", pkg)
	case "comment":
		if comment == "" {
			return errors.New("usage: review PACKAGE comment COMMENT")
		}

		if err := client.SubmitReview(ctx, pkg, ddtss.ReviewCommentOnly, "", "", comment); err != nil {
			return err
		}

		fmt.Printf("Comment left on %s\n", pkg)
	default:
		return fmt.Errorf("unknown review action %q", args[1])
	}

	return nil
}

func cmdAdd(q *queue.Queue, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: add PKG HASH SHORT (long text on stdin)")
	}

	long, err := readAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read long description: %w", err)
	}

	inserted, err := q.Upsert(queue.Item{
		Package:     args[0],
		ContentHash: args[1],
		Short:       args[2],
		Long:        long,
	})
	if err != nil {
		return err
	}

	if inserted {
		fmt.Printf("Queued %s\n", args[0])
	} else {
		fmt.Printf("Updated %s\n", args[0])
	}

	return nil
}

func cmdList(q *queue.Queue) error {
	items := q.Items()
	if len(items) == 0 {
		fmt.Println("Queue is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tMD5\tSTATUS\tSHORT")

	for _, item := range items {
		status := string(item.Status)
		if item.ErrorMsg != "" {
			status += ": " + item.ErrorMsg
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Package, item.ContentHash, status, item.Short)
	}

	return w.Flush()
}

func cmdRemove(q *queue.Queue, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: remove PKG HASH")
	}

	return q.Remove(args[0], args[1])
}

func cmdRetry(q *queue.Queue, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: retry PKG HASH")
	}

	return q.Requeue(args[0], args[1])
}

func cmdClearSent(q *queue.Queue) error {
	removed, err := q.ClearSent()
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d sent item(s)\n", removed)

	return nil
}

func cmdSend(ctx context.Context, client *ddtss.Client, q *queue.Queue) error {
	creds, err := credentials()
	if err != nil {
		return err
	}

	submitter := batch.NewSubmitter(client, q, creds, config.Global.Batch.Pacing)

	events, err := submitter.Start(ctx)
	if err != nil {
		return err
	}

	for ev := range events {
		switch ev.Type {
		case batch.ItemStarted:
			fmt.Printf("[%d/%d] sending %s...\n", ev.Index, ev.Total, ev.Package)
		case batch.ItemSent:
			fmt.Printf("[%d/%d] sent %s\n", ev.Index, ev.Total, ev.Package)
		case batch.ItemFailed:
			fmt.Printf("[%d/%d] FAILED %s: %v\n", ev.Index, ev.Total, ev.Package, ev.Err)
		case batch.Done:
			s := ev.Summary
			fmt.Printf("\n%d sent, %d failed, %d total", s.Sent, s.Failed, s.Total)
			if s.Cancelled {
				fmt.Print(" (cancelled)")
			}
			fmt.Println()
		}
	}

	return nil
}

func cmdExport(q *queue.Queue, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: export FILE")
	}

	items := q.Items()
	entries := make([]pofile.Entry, 0, len(items))

	for _, item := range items {
		entries = append(entries, pofile.Entry{
			Package:     item.Package,
			ContentHash: item.ContentHash,
			Short:       item.Short,
			Long:        item.Long,
		})
	}

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := pofile.Export(f, entries, config.Global.Basic.Language); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Printf("Exported %d entries to %s\n", len(entries), args[0])

	return nil
}

func cmdImport(q *queue.Queue, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: import FILE")
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	entries, err := pofile.Import(f)
	if err != nil {
		return err
	}

	added := 0

	for _, entry := range entries {
		inserted, err := q.Upsert(queue.Item{
			Package:     entry.Package,
			ContentHash: entry.ContentHash,
			Short:       entry.Short,
			Long:        entry.Long,
		})
		if err != nil {
			return err
		}

		if inserted {
			added++
		}
	}

	fmt.Printf("Imported %d entries (%d new)\n", len(entries), added)

	return nil
}

func cmdStats(ctx context.Context, client *ddtss.Client) error {
	stats, err := client.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Pending translation: %d\nPending review: %d\nSent: %d\n",
		stats.PendingTranslation, stats.PendingReview, stats.Sent)

	return nil
}

func cmdStatus(ctx context.Context, client *ddtss.Client) error {
	agg := status.NewAggregator(client)

	if err := agg.Refresh(ctx); err != nil {
		return err
	}

	all := agg.All()
	if len(all) == 0 {
		fmt.Println("No packages listed")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tSTATUS")

	for pkg, st := range all {
		fmt.Fprintf(w, "%s\t%s\n", pkg, st)
	}

	return w.Flush()
}

func readAll(f *os.File) (string, error) {
	var sb strings.Builder

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}
