package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/callcharge-production/internal/api"
	"github.com/callcharge-production/internal/config"
	"github.com/callcharge-production/internal/database"
	apperrors "github.com/callcharge-production/internal/errors"
	"github.com/callcharge-production/internal/format"
	"github.com/callcharge-production/internal/logging"
	"github.com/callcharge-production/internal/models"
	"github.com/callcharge-production/internal/normalize"
	"github.com/callcharge-production/internal/rateconfig"
	"github.com/callcharge-production/internal/rating"
	"github.com/callcharge-production/internal/reference"
	"github.com/callcharge-production/internal/warehouse"
)

var (
	cfg      config.Config
	logger   *zap.Logger
	closeLog = func() {}
)

func main() {
	cfg = config.Load()

	var rootCmd = &cobra.Command{
		Use:   "callcharge",
		Short: "Classify and rate call detail records",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, closer, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			logger, closeLog = l, closer
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "Database host")
	rootCmd.PersistentFlags().IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "Database port")
	rootCmd.PersistentFlags().StringVar(&cfg.DBUser, "db-user", cfg.DBUser, "Database user")
	rootCmd.PersistentFlags().StringVar(&cfg.DBPass, "db-pass", cfg.DBPass, "Database password")
	rootCmd.PersistentFlags().StringVar(&cfg.DBName, "db-name", cfg.DBName, "Database name")
	rootCmd.PersistentFlags().StringVar(&cfg.ReferenceFile, "reference", cfg.ReferenceFile, "TOML file overriding the built-in reference tables")
	rootCmd.PersistentFlags().StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "Log level")

	// Add commands
	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(rateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(referenceCmd())

	err := rootCmd.Execute()
	closeLog()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getDB(ctx context.Context) (*database.DB, error) {
	db, err := database.NewDB(cfg.DSN())
	if err != nil {
		return nil, err
	}

	// Create tables
	if err := db.CreateTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func getManager(ctx context.Context, db *database.DB) (*rateconfig.Manager, error) {
	m := rateconfig.NewManager(db, logger)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func loadTables() (*reference.Tables, error) {
	if cfg.ReferenceFile == "" {
		return reference.Default(), nil
	}
	return reference.LoadFile(cfg.ReferenceFile)
}

func location() *time.Location {
	if cfg.TimezoneOffsetHours == 7 {
		return normalize.WIB
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", cfg.TimezoneOffsetHours), cfg.TimezoneOffsetHours*60*60)
}

func newRater() (*rating.Service, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	return rating.NewService(rating.Options{
		Tables:   tables,
		Location: location(),
		Workers:  cfg.Workers,
	}, logger), nil
}

func serverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the rating API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := getDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			// Initialize components
			m, err := getManager(ctx, db)
			if err != nil {
				return err
			}
			rater, err := newRater()
			if err != nil {
				return err
			}

			// Start API server
			server := api.NewServer(m, warehouse.NewSource(db), rater, cfg.HTTPPort, logger)
			return server.Start(ctx)
		},
	}

	cmd.Flags().IntVarP(&cfg.HTTPPort, "port", "p", cfg.HTTPPort, "Server port")

	return cmd
}

func rateCmd() *cobra.Command {
	var (
		tenant, start, end string
		input, configFile  string
		out                string
	)

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Rate a tenant's calls and export them as CSV",
		Long: `Rate a tenant's calls and write the charge sheet as CSV.

Calls come from the warehouse for --start..--end, or from a JSON array of
rows with --input. The rate configuration comes from the database, or from
a TOML file with --config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var db *database.DB
			needDB := input == "" || configFile == ""
			if needDB {
				var err error
				if db, err = getDB(ctx); err != nil {
					return err
				}
				defer db.Close()
			}

			tenantCfg, err := resolveConfig(ctx, db, tenant, configFile)
			if err != nil {
				return err
			}

			rows, err := resolveRows(ctx, db, tenant, start, end, input)
			if err != nil {
				return err
			}

			rater, err := newRater()
			if err != nil {
				return err
			}
			res, err := rater.RateBatch(ctx, rows, tenantCfg)
			if err != nil {
				return err
			}

			w := io.Writer(os.Stdout)
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			cw := format.NewCSVWriter(w)
			for i := range res.Calls {
				if err := cw.Write(format.Format(&res.Calls[i])); err != nil {
					return err
				}
			}
			if err := cw.Flush(); err != nil {
				return err
			}

			for _, e := range res.Errors {
				fmt.Fprintf(os.Stderr, "skipped %v\n", e)
			}
			fmt.Fprintf(os.Stderr, "Run %s: rated %d calls, skipped %d\n", res.RunID, len(res.Calls), len(res.Errors))
			return nil
		},
	}

	cmd.Flags().StringVar(&tenant, "tenant", "", "Tenant name (required)")
	cmd.Flags().StringVar(&start, "start", "", "First dial date, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "Last dial date, YYYY-MM-DD")
	cmd.Flags().StringVar(&input, "input", "", "JSON file of call rows instead of the warehouse")
	cmd.Flags().StringVar(&configFile, "config", "", "TOML rate configuration file instead of the database")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output CSV file (default stdout)")
	cmd.MarkFlagRequired("tenant")

	return cmd
}

func resolveConfig(ctx context.Context, db *database.DB, tenant, file string) (*rateconfig.Configuration, error) {
	if file == "" {
		m, err := getManager(ctx, db)
		if err != nil {
			return nil, err
		}
		return m.Get(tenant)
	}

	configs, err := rateconfig.LoadFile(file)
	if err != nil {
		return nil, err
	}
	c, ok := configs[tenant]
	if !ok {
		return nil, fmt.Errorf("tenant %s not found in %s", tenant, file)
	}
	return c, nil
}

func resolveRows(ctx context.Context, db *database.DB, tenant, start, end, file string) ([]models.CallRow, error) {
	if file != "" {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var rows []models.CallRow
		if err := json.Unmarshal(content, &rows); err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for i := range rows {
			if rows[i].Tenant == "" {
				rows[i].Tenant = tenant
			}
		}
		return rows, nil
	}

	from, err := warehouse.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := warehouse.ParseDate(end)
	if err != nil {
		return nil, err
	}
	source := warehouse.NewSource(db)
	exists, err := source.TenantExists(ctx, tenant)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("tenant", tenant)
	}
	return source.Fetch(ctx, tenant, from, to)
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage tenant rate configurations",
	}

	// Import configurations
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import rate configurations from a TOML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")

			configs, err := rateconfig.LoadFile(file)
			if err != nil {
				return err
			}

			db, err := getDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m := rateconfig.NewManager(db, logger)
			if err := m.Import(cmd.Context(), configs); err != nil {
				return err
			}

			fmt.Printf("Imported %d tenant configurations\n", len(configs))
			return nil
		},
	}
	importCmd.Flags().String("file", "", "TOML file with [tenant.<name>] tables (required)")
	importCmd.MarkFlagRequired("file")

	// List tenants
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := getManager(cmd.Context(), db)
			if err != nil {
				return err
			}

			fmt.Printf("%-20s %-12s %-12s %-10s\n", "TENANT", "RATE", "RATE TYPE", "OVERRIDES")
			fmt.Println(strings.Repeat("-", 58))

			for _, name := range m.List() {
				c, err := m.Get(name)
				if err != nil {
					continue
				}
				fmt.Printf("%-20s %-12s %-12s %-10d\n",
					name, c.DefaultRate().String(), c.DefaultRateType(), len(c.Overrides()))
			}

			return nil
		},
	}

	// Show one tenant
	showCmd := &cobra.Command{
		Use:   "show <tenant>",
		Short: "Print a tenant's rate configuration as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := getDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			m, err := getManager(cmd.Context(), db)
			if err != nil {
				return err
			}
			c, err := m.Get(args[0])
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	}

	cmd.AddCommand(importCmd)
	cmd.AddCommand(listCmd)
	cmd.AddCommand(showCmd)

	return cmd
}

func referenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Inspect the reference tables",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the reference tables in effect as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}
			return printJSON(tables.Data())
		},
	})

	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
