// Command probe samples a catalog dump and reports how well it fits the
// steametl schema. With -emit it prints a starter pipeline file instead, meant
// to be hand-edited and then passed to steametl -config.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"steametl/internal/config"
	"steametl/internal/datasource"
	"steametl/internal/datasource/file"
	"steametl/internal/datasource/httpds"
	jsonparser "steametl/internal/parser/json"
	"steametl/internal/probe"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		flagPath    = fs.String("path", "", "local catalog file (.gz is decompressed)")
		flagURL     = fs.String("url", "", "HTTP(S) URL of the catalog dump")
		flagRecords = fs.Int("records", probe.DefaultMaxRecords, "number of records to inspect")
		flagShape   = fs.String("shape", "auto", "input shape: auto|array|ndjson|envelope|object_map")
		flagEmit    = fs.String("emit", "", "print a starter pipeline instead of the report: yaml|json")
		flagJob     = fs.String("job", "steametl", "job name for the emitted pipeline")
		flagBackend = fs.String("backend", "", "storage backend for the emitted pipeline: postgres|mssql|mysql|sqlite")
		flagInsec   = fs.Bool("allow-insecure", false, "skip TLS certificate verification")
		flagTimeout = fs.Duration("timeout", 2*time.Minute, "overall time limit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if (*flagPath == "") == (*flagURL == "") {
		fmt.Fprintln(stderr, "exactly one of -path or -url is required")
		fs.Usage()
		return 2
	}

	var (
		src    datasource.Source
		srcCfg config.Source
	)
	if *flagPath != "" {
		src = file.NewLocal(*flagPath)
		srcCfg = config.Source{Kind: "file", File: config.SourceFile{Path: *flagPath}}
	} else {
		client := httpds.NewClient(httpds.Config{InsecureSkipVerify: *flagInsec})
		src = httpds.NewSource(client, *flagURL)
		srcCfg = config.Source{Kind: "http", HTTP: config.SourceHTTP{
			URL: *flagURL, Timeout: 60 * time.Second, MaxRetries: 3, InsecureSkipVerify: *flagInsec,
		}}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *flagTimeout)
	defer cancel()

	shape := jsonparser.Shape(*flagShape)
	rep, err := probe.Run(ctx, src, probe.Options{
		MaxRecords: *flagRecords,
		Parser:     jsonparser.Options{Shape: shape},
	})
	if err != nil {
		fmt.Fprintf(stderr, "probe: %v\n", err)
		return 1
	}

	switch *flagEmit {
	case "":
		err = probe.WriteText(stdout, rep)
	case "yaml", "json":
		p := probe.Suggest(rep, probe.SuggestOptions{
			Job: *flagJob, Source: srcCfg, Shape: shape, Backend: *flagBackend,
		})
		if *flagEmit == "yaml" {
			enc := yaml.NewEncoder(stdout)
			enc.SetIndent(2)
			if err = enc.Encode(p); err == nil {
				err = enc.Close()
			}
		} else {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			err = enc.Encode(p)
		}
	default:
		fmt.Fprintf(stderr, "unknown -emit %q\n", *flagEmit)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "write: %v\n", err)
		return 1
	}
	return 0
}
