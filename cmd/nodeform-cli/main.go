package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/goliatone/go-nodeform"
	"github.com/goliatone/go-nodeform/pkg/fetch"
	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/model"
	"github.com/goliatone/go-nodeform/pkg/openapi"
	"github.com/goliatone/go-nodeform/pkg/schema"
	"github.com/goliatone/go-nodeform/pkg/schemastore"
	"github.com/goliatone/go-nodeform/pkg/session"
	"github.com/goliatone/go-nodeform/pkg/tui"
)

type assignments []string

func (a *assignments) String() string { return strings.Join(*a, ",") }

func (a *assignments) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected name=value, got %q", value)
	}
	*a = append(*a, value)
	return nil
}

type report struct {
	Context  string         `json:"context"`
	Form     model.Form     `json:"form"`
	Warnings []string       `json:"warnings,omitempty"`
	Payload  map[string]any `json:"payload,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

func main() {
	dataset := flag.String("dataset", "", "static dataset file (YAML or JSON)")
	server := flag.String("server", "", "server base URL")
	token := flag.String("token", "", "bearer token for -server")
	apiKey := flag.String("api-key", "", "API key for -server")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout for -server")
	schemaSource := flag.String("schema", "", "schema bundle or OpenAPI document path or URL; overrides the fetched schema")
	namespace := flag.String("namespace", "", "namespace applied to kinds imported from OpenAPI")
	branch := flag.String("branch", schemastore.DefaultBranch, "branch to read")
	kind := flag.String("kind", "", "object kind to edit")
	id := flag.String("id", "", "object id (empty compiles a create form)")
	interactive := flag.Bool("interactive", false, "edit fields in the terminal")
	output := flag.String("output", "", "output file (stdout if empty)")
	var sets assignments
	flag.Var(&sets, "set", "field assignment name=value; repeatable, comma separates peers of many relationships")
	flag.Parse()
	defer glog.Flush()

	if *kind == "" {
		log.Fatalf("-kind is required")
	}

	ctx := context.Background()

	fetcher, err := buildFetcher(ctx, *dataset, *server, *token, *apiKey, *timeout)
	if err != nil {
		log.Fatalf("Failed to configure fetcher: %v", err)
	}
	if *schemaSource != "" {
		fetcher, err = overrideSchema(ctx, fetcher, *schemaSource, *branch, *namespace)
		if err != nil {
			log.Fatalf("Failed to load schema: %v", err)
		}
	}
	if fetcher == nil {
		log.Fatalf("one of -dataset, -server or -schema is required")
	}

	sess := nodeform.NewSession(fetcher)
	state, err := sess.Load(ctx, session.Context{
		Branch:   *branch,
		At:       time.Now().UTC(),
		Kind:     *kind,
		ObjectID: *id,
	})
	if err != nil {
		log.Fatalf("Failed to load form: %v", err)
	}

	out := report{Context: state.Context.String(), Form: state.Form}
	for _, warning := range state.Form.Warnings {
		out.Warnings = append(out.Warnings, warning.Error())
	}

	var submitted map[string]any
	if *interactive {
		submitted, err = tui.New().Edit(ctx, state.Form)
		if err != nil {
			log.Fatalf("Failed to edit form: %v", err)
		}
	}
	if len(sets) > 0 {
		if submitted == nil {
			submitted = make(map[string]any, len(sets))
		}
		if err := applyAssignments(submitted, state.Form, sets); err != nil {
			log.Fatalf("Invalid -set: %v", err)
		}
	}

	blocked := false
	if submitted != nil {
		res, err := sess.Submit(state.Context, submitted)
		if err != nil {
			log.Fatalf("Failed to compute mutation: %v", err)
		}
		out.Payload = res.Payload()
		for _, fieldErr := range res.Errors {
			out.Errors = append(out.Errors, fieldErr.Error())
		}
		blocked = res.Blocked()
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode output: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", *output)
	} else {
		fmt.Println(string(payload))
	}
	if blocked {
		glog.Flush()
		os.Exit(1)
	}
}

func buildFetcher(ctx context.Context, dataset, server, token, apiKey string, timeout time.Duration) (fetch.Fetcher, error) {
	switch {
	case dataset != "" && server != "":
		return nil, fmt.Errorf("-dataset and -server are mutually exclusive")
	case dataset != "":
		return fetch.LoadStatic(dataset)
	case server != "":
		opts := []fetch.HTTPOption{fetch.WithTimeout(timeout)}
		if token != "" {
			opts = append(opts, fetch.WithToken(token))
		}
		if apiKey != "" {
			opts = append(opts, fetch.WithAPIKey(apiKey))
		}
		return fetch.NewHTTPClient(server, opts...)
	}
	return nil, nil
}

// schemaOverride serves a locally loaded bundle in place of the fetcher's own
// schema.
type schemaOverride struct {
	fetch.Fetcher
	bundle schema.Bundle
}

func (s schemaOverride) FetchObjectSchema(ctx context.Context, _ string) (schema.Bundle, error) {
	return s.bundle, ctx.Err()
}

func (s schemaOverride) FetchSchemaSummaryHash(ctx context.Context, _ string) (string, error) {
	return s.bundle.Hash, ctx.Err()
}

func overrideSchema(ctx context.Context, base fetch.Fetcher, raw, branch, namespace string) (fetch.Fetcher, error) {
	src, err := parseSource(raw, branch)
	if err != nil {
		return nil, err
	}
	doc, err := nodeform.NewLoader(schema.WithHTTPFallback(30*time.Second)).Load(ctx, src)
	if err != nil {
		return nil, err
	}

	var bundle schema.Bundle
	if openapi.IsDocument(doc.Raw()) {
		bundle, err = openapi.ImportDocument(ctx, doc, openapi.WithNamespace(namespace))
	} else {
		bundle, err = doc.Bundle()
	}
	if err != nil {
		return nil, err
	}
	glog.V(1).Infof("schema %s loaded: %d nodes, hash %s", doc.Location(), len(bundle.Nodes), bundle.Hash)

	if base == nil {
		return fetch.NewStatic(bundle, nil, nil), nil
	}
	return schemaOverride{Fetcher: base, bundle: bundle}, nil
}

func parseSource(raw, branch string) (schema.Source, error) {
	path := strings.TrimSpace(raw)
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return schema.SourceFromURL(path, branch)
	}
	return schema.SourceFromFile(path), nil
}

func applyAssignments(dst map[string]any, form model.Form, sets assignments) error {
	for _, set := range sets {
		name, value, _ := strings.Cut(set, "=")
		field, ok := form.Field(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		switch {
		case field.Cardinality.IsMany():
			var peers []fieldvalue.Peer
			for _, id := range strings.Split(value, ",") {
				if id = strings.TrimSpace(id); id != "" {
					peers = append(peers, fieldvalue.Peer{ID: id})
				}
			}
			dst[name] = peers
		case field.IsRelationship() && value == "":
			dst[name] = nil
		default:
			dst[name] = value
		}
	}
	return nil
}
