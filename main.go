// ABOUTME: Entry point for the leadline CLI, MCP server and web API
// ABOUTME: Loads config, opens the store and routes to subcommands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/leadline/charm"
	"github.com/harperreed/leadline/cli"
	"github.com/harperreed/leadline/config"
	"github.com/harperreed/leadline/db"
	"github.com/harperreed/leadline/kpi"
	"github.com/harperreed/leadline/logger"
	"github.com/harperreed/leadline/services"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/leadline/leadline.db)")
	configFile := flag.String("config", "", "Config file (default: <data dir>/config.yaml)")
	initOnly := flag.Bool("init", false, "Initialize database and exit")

	// Subcommands parse their own flags
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("leadline version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer appLog.Sync()

	// charm commands that never touch the local store
	if len(args) > 0 && args[0] == "charm" && len(args) > 1 {
		switch args[1] {
		case "link":
			exitOnErr(charm.LinkCommand(args[2:]))
			return
		case "status":
			exitOnErr(charm.StatusCommand(args[2:]))
			return
		case "config":
			exitOnErr(charm.ConfigCommand(args[2:]))
			return
		case "list":
			exitOnErr(charm.BackupListCommand(args[2:]))
			return
		case "prune":
			exitOnErr(charm.BackupPruneCommand(args[2:]))
			return
		}
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	if *initOnly {
		log.Printf("Database initialized: %s", cfg.DBPath)
		return
	}

	basis, err := kpi.ParseBasis(cfg.KPIBasis)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	crm := services.NewCRM(database, appLog, services.Options{
		Agent:     cfg.Agent,
		Basis:     basis,
		ExportDir: cfg.ExportDir(),
		BackupDir: cfg.BackupDir(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := crm.LoadSettings(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}

	if err := run(ctx, cfg, appLog, crm, args[0], args[1:]); err != nil {
		stop()
		_ = database.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, appLog *logger.Logger, crm *services.CRM, command string, args []string) error {
	switch command {
	case "mcp":
		return cli.MCPCommand(ctx, crm, version)
	case "serve":
		return cli.ServeCommand(ctx, crm, appLog, cfg.HTTPAddr, args)
	case "tui":
		return cli.TUICommand(ctx, crm, cfg.AutosaveSteps)

	case "leads":
		return runLeads(crm, args)

	case "log-activity":
		return cli.LogActivityCommand(crm, args)
	case "kpi-log":
		return cli.KPILogCommand(crm, args)
	case "kpi":
		return cli.KPICommand(crm, args)
	case "activities":
		return cli.ListActivitiesCommand(crm, args)

	case "add-task":
		return cli.AddTaskCommand(crm, args)
	case "list-tasks":
		return cli.ListTasksCommand(crm, args)
	case "bulk-tasks":
		return cli.BulkTasksCommand(crm, args)

	case "discovery":
		return runDiscovery(ctx, cfg, crm, args)

	case "import-csv":
		return cli.ImportCSVCommand(ctx, crm, args)
	case "export-csv":
		return cli.ExportCSVCommand(ctx, crm, args)

	case "backup":
		return cli.BackupCommand(ctx, crm, args)
	case "restore":
		return cli.RestoreCommand(ctx, crm, args)
	case "backups":
		return cli.ListBackupsCommand(crm, args)
	case "export-json":
		return cli.ExportJSONCommand(ctx, crm, args)

	case "settings":
		return cli.SettingsCommand(ctx, crm, args)

	case "viz":
		return runViz(crm, args)

	case "charm":
		return runCharm(ctx, crm, args)
	}

	fmt.Printf("Unknown command: %s\n\n", command)
	printUsage()
	os.Exit(1)
	return nil
}

func runLeads(crm *services.CRM, args []string) error {
	if len(args) == 0 {
		return cli.ListLeadsCommand(crm, nil)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		return cli.AddLeadCommand(crm, rest)
	case "list":
		return cli.ListLeadsCommand(crm, rest)
	case "update":
		return cli.UpdateLeadCommand(crm, rest)
	case "delete":
		return cli.DeleteLeadCommand(crm, rest)
	case "check-duplicate":
		return cli.CheckDuplicateCommand(crm, rest)
	}
	return fmt.Errorf("unknown leads command: %s", sub)
}

func runDiscovery(ctx context.Context, cfg *config.Config, crm *services.CRM, args []string) error {
	if len(args) == 0 {
		return cli.DiscoveryListCommand(ctx, crm, nil)
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "call":
		return cli.DiscoveryCallCommand(ctx, crm, cfg.AutosaveSteps, rest)
	case "list":
		return cli.DiscoveryListCommand(ctx, crm, rest)
	case "show":
		return cli.DiscoveryShowCommand(ctx, crm, rest)
	case "set":
		return cli.DiscoverySetCommand(ctx, crm, rest)
	case "note":
		return cli.DiscoveryNoteCommand(ctx, crm, rest)
	case "export":
		return cli.DiscoveryExportCommand(ctx, crm, rest)
	}
	return fmt.Errorf("unknown discovery command: %s", sub)
}

func runViz(crm *services.CRM, args []string) error {
	if len(args) == 0 {
		return cli.VizDashboardCommand(crm, nil)
	}
	switch args[0] {
	case "dashboard":
		return cli.VizDashboardCommand(crm, args[1:])
	case "graph":
		if len(args) < 2 {
			return fmt.Errorf("usage: viz graph <pipeline|lead> [flags]")
		}
		switch args[1] {
		case "pipeline":
			return cli.VizGraphPipelineCommand(crm, args[2:])
		case "lead":
			return cli.VizGraphLeadCommand(crm, args[2:])
		}
		return fmt.Errorf("unknown graph type: %s", args[1])
	}
	return fmt.Errorf("unknown viz command: %s", args[0])
}

func runCharm(ctx context.Context, crm *services.CRM, args []string) error {
	if len(args) == 0 {
		return charm.StatusCommand(nil)
	}
	switch args[0] {
	case "push":
		return charm.BackupPushCommand(ctx, crm, args[1:])
	case "pull":
		return charm.BackupPullCommand(ctx, crm, args[1:])
	}
	return fmt.Errorf("unknown charm command: %s", args[0])
}

func exitOnErr(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`leadline v%s - insurance lead desk

USAGE:
  leadline [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/leadline/leadline.db)
  --config <file>        Config file (default: ~/.local/share/leadline/config.yaml)
  --init                 Initialize database and exit

SERVERS:
  leadline mcp           Start MCP server (stdio)
  leadline serve         Start the JSON API
    --addr <addr>          Listen address (default: :8080)
  leadline tui           Browse leads and run discovery calls

LEADS:
  leadline leads add         --first --last [--email --phone --stage --source --state --zip --notes]
  leadline leads list        [--query <text>] [--stage <stage>] [--limit <n>]
  leadline leads update      [flags] <id>
  leadline leads delete      <id>
  leadline leads check-duplicate --email <email> | --phone <phone>

ACTIVITY & KPIS:
  leadline log-activity      --type <CALL|...> [--outcome --count --revenue --lead --notes]
  leadline kpi-log [--count --revenue --lead] <DIAL|CONNECT|CLOSE|REVENUE>
  leadline kpi               [--days <n> | --range today|week|7d|30d | --from --to]
  leadline activities        [--limit <n>]

TASKS:
  leadline add-task          --title <title> [--lead --label --priority --due]
  leadline list-tasks        [--status --stage --priority --lead --query --label --due-from --due-to --archived]
  leadline bulk-tasks update [filters|--global] [--set-status --set-due --set-priority --set-label --set-stage] [ids...]
  leadline bulk-tasks delete [filters|--global] [ids...]

DISCOVERY:
  leadline discovery call [--new] <lead-id>   Run the call wizard
  leadline discovery list [--limit <n>]
  leadline discovery show <session-id>        Print the YAML rendering
  leadline discovery set <session-id> <path> <value>
  leadline discovery note <session-id> <text>
  leadline discovery export <session-id>

IMPORT / EXPORT:
  leadline import-csv [--dry-run] <file.csv>
  leadline export-csv [--output <file>] [--stage <stage>]
  leadline export-json [--output <file>]

BACKUP:
  leadline backup                     Snapshot + database copy to the backup dir
  leadline backups                    List local backups
  leadline restore [--replace] <file> Import a snapshot
  leadline charm link|status|config   Charm Cloud account and settings
  leadline charm push                 Upload a snapshot to Charm KV
  leadline charm pull [--id] [--replace]
  leadline charm list|prune [--keep <n>]

SETTINGS:
  leadline settings [list]
  leadline settings get <key>
  leadline settings set kpi_basis <type|outcome>

VIZ:
  leadline viz dashboard
  leadline viz graph pipeline [--output <file>]
  leadline viz graph lead [--output <file>] <lead-id>

EXAMPLES:
  leadline leads add --first Travis --last Reed --phone 555-123-4567
  leadline kpi-log --count 25 DIAL
  leadline kpi --range week
  leadline discovery call <lead-id>

`, version)
}
