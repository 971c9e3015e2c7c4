// Command rfcread reads SAP tables over the ICF SOAP RFC gateway: it
// compiles filters into the table-read function's predicate lines, paginates
// large reads and decodes the returned row buffers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"sap-rfcread/internal/config"
	"sap-rfcread/internal/logging"
	"sap-rfcread/internal/observability"
	"sap-rfcread/internal/predicate"
	"sap-rfcread/internal/query"
	"sap-rfcread/internal/rfc"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

func main() {
	if err := run(); err != nil {
		slog.Error("rfcread error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	pflag.Bool("version", false, "Print version and exit")
	table := pflag.String("table", "", "Table or view to read")
	fields := pflag.StringSlice("fields", nil, "Fields to return, in order (default: all)")
	where := pflag.StringArray("where", nil, "Filter condition, repeatable; conditions are AND-joined")
	fromRow := pflag.Int("from-row", 0, "Zero-based offset of the first row to return")
	output := pflag.String("output", "tsv", "Output format (tsv, json)")
	describe := pflag.Bool("describe", false, "Show the table's description and fields instead of rows")
	count := pflag.Bool("count", false, "Count the table's rows instead of reading them")
	findTables := pflag.String("find-tables", "", "Search table descriptions with a LIKE pattern")
	ping := pflag.Bool("ping", false, "Check connectivity and credentials, then exit")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if showVersion, _ := pflag.CommandLine.GetBool("version"); showVersion {
		fmt.Printf("rfcread %s (%s)\n", Version, Commit)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	slog.SetDefault(logger.Logger)

	metrics, err := observability.InitMetrics(logger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	caller, err := rfc.NewSOAPCaller(rfc.SOAPConfig{
		BaseURL:            cfg.SAP.URL,
		Client:             cfg.SAP.Client,
		User:               cfg.SAP.User,
		Password:           cfg.SAP.Password,
		Language:           cfg.SAP.Language,
		Timeout:            cfg.SAP.Timeout,
		InsecureSkipVerify: cfg.SAP.InsecureSkipVerify,
	})
	if err != nil {
		return fmt.Errorf("failed to build gateway client: %w", err)
	}

	engine := query.New(caller,
		query.WithLogger(logger),
		query.WithMetrics(metrics),
		query.WithReadFunction(cfg.Query.ReadFunction),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	language := dictLanguage(cfg.SAP.Language)

	switch {
	case *ping:
		echo, err := engine.Echo(ctx, "rfcread connection test")
		if err != nil {
			return err
		}
		fmt.Println(echo)
		return nil

	case *findTables != "":
		matches, err := engine.FindTablesByDescription(ctx, *findTables, language)
		if err != nil {
			return err
		}
		for _, match := range matches {
			fmt.Printf("%s\t%s\n", match.Name, match.Description)
		}
		return nil

	case *count:
		if *table == "" {
			return fmt.Errorf("--count requires --table")
		}
		entries, err := engine.NumberEntries(ctx, *table)
		if err != nil {
			return err
		}
		fmt.Println(entries)
		return nil

	case *describe:
		if *table == "" {
			return fmt.Errorf("--describe requires --table")
		}
		return describeTable(ctx, engine, *table, language)

	default:
		if *table == "" {
			return fmt.Errorf("--table is required")
		}
		rows, err := engine.Query(ctx, query.Spec{
			Table:     *table,
			Fields:    *fields,
			Where:     rawConditions(*where),
			MaxRows:   cfg.Query.MaxRows,
			FromRow:   *fromRow,
			Delimiter: cfg.Query.Delimiter,
			BatchRows: cfg.Query.BatchRows,
			ChunkRows: cfg.Query.ChunkRows,
		})
		if err != nil {
			return err
		}
		return printRows(rows, *output)
	}
}

// rawConditions wraps each --where argument as verbatim predicate text.
func rawConditions(clauses []string) []predicate.Condition {
	conditions := make([]predicate.Condition, len(clauses))
	for i, clause := range clauses {
		conditions[i] = predicate.Raw(clause)
	}
	return conditions
}

// dictLanguage maps a logon language like "EN" to the one-letter dictionary
// language key.
func dictLanguage(language string) string {
	language = strings.ToUpper(strings.TrimSpace(language))
	if language == "" {
		return ""
	}
	return language[:1]
}

func describeTable(ctx context.Context, engine *query.Engine, table, language string) error {
	description, err := engine.TableDescription(ctx, table, language)
	if err != nil {
		return err
	}
	fields, err := engine.FieldInfo(ctx, table, true, language)
	if err != nil {
		return err
	}

	if description != "" {
		fmt.Printf("%s: %s\n", table, description)
	} else {
		fmt.Println(table)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return fields[names[i]].Position < fields[names[j]].Position
	})

	for _, name := range names {
		field := fields[name]
		key := " "
		if field.Key {
			key = "*"
		}
		fmt.Printf("%s %s\t%s(%d)\t%s\n", key, field.Name, field.DataType, field.Length, field.Description)
	}
	return nil
}

func printRows(rows []query.Row, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		return encoder.Encode(rows)
	case "tsv":
		for _, row := range rows {
			fmt.Println(formatRow(row))
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func formatRow(row query.Row) string {
	cells := make([]string, len(row))
	for i, cell := range row {
		cells[i] = fmt.Sprint(cell)
	}
	return strings.Join(cells, "\t")
}
