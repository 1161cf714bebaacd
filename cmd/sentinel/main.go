package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/edgesoc/sentinel/pkg/checkpoint"
	"github.com/edgesoc/sentinel/pkg/config"
	"github.com/edgesoc/sentinel/pkg/gitops"
	"github.com/edgesoc/sentinel/pkg/ingest"
	"github.com/edgesoc/sentinel/pkg/log"
	"github.com/edgesoc/sentinel/pkg/stack"
	"github.com/edgesoc/sentinel/pkg/state"
	"github.com/edgesoc/sentinel/pkg/vector"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var cfgPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel - supervisory control loop for the Suricata SOC pipeline",
	Long: `Sentinel supervises a Suricata -> Vector -> Redis/OpenSearch logging
pipeline on a resource-constrained host. It runs a fleet of independent
watcher processes (resource controller, connectivity checks, container
stack probe), aggregates their observations into a shared state store and
exposes the result as Prometheus metrics, including a discrete throttling
level that producers use as a backpressure signal.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Sentinel version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "path to the YAML config file")

	runCmd.Flags().Bool("watch-config", false, "reload the config file automatically on change")
	statusCmd.Flags().String("checkpoint", "", "checkpoint db path (overrides the config file)")
	renderConfigCmd.Flags().Bool("push", false, "commit and push the rendered config to the config repo")

	stackCmd.AddCommand(stackUpCmd)
	stackCmd.AddCommand(stackDownCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(renderConfigCmd)
	rootCmd.AddCommand(stackCmd)
	rootCmd.AddCommand(ingestCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the last checkpointed pipeline state",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("checkpoint")
		if path == "" {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			path = cfg.Checkpoint.Path
		}

		cp, err := checkpoint.Open(path)
		if err != nil {
			return err
		}
		defer cp.Close()

		snap, err := cp.Load()
		if err != nil {
			return err
		}
		if len(snap) == 0 {
			fmt.Println("no recorded state")
			return nil
		}

		keys := make([]string, 0, len(snap))
		for k := range snap {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			obs := snap[k]
			fmt.Printf("%-20s %-24v (updated %s)\n", k, obs.Value,
				obs.UpdatedAt.Format(time.RFC3339))
		}
		return nil
	},
}

var renderConfigCmd = &cobra.Command{
	Use:   "render-config",
	Short: "Render the vector.toml log-shipper configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		push, _ := cmd.Flags().GetBool("push")

		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})

		vec := vector.NewManager(vectorConfig(cfg), state.NewStore(), log.WithComponent("vector"))
		if err := vec.RenderConfig(); err != nil {
			return err
		}
		fmt.Printf("✓ Vector config written to %s\n", cfg.Vector.ConfigPath)

		if !push {
			return nil
		}
		if cfg.Git.RepoPath == "" {
			return fmt.Errorf("git.repo_path not configured")
		}
		wf := gitops.NewWorkflow(cfg.Git.RepoPath, cfg.Git.Remote, cfg.Git.Branch,
			log.WithComponent("gitops"))
		if err := wf.Commit(cmd.Context(), []string{cfg.Vector.ConfigPath},
			"Update vector configuration"); err != nil {
			return err
		}
		return wf.Push(cmd.Context())
	},
}

var stackCmd = &cobra.Command{
	Use:   "stack",
	Short: "Manage the pipeline container stack",
}

var stackUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Build and start the container stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := composeOrchestrator()
		if err != nil {
			return err
		}
		if err := orch.Ping(cmd.Context()); err != nil {
			return err
		}
		if err := orch.Build(cmd.Context()); err != nil {
			return err
		}
		if err := orch.Up(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Stack started")
		return nil
	},
}

var stackDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the container stack",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := composeOrchestrator()
		if err != nil {
			return err
		}
		if err := orch.Down(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("✓ Stack stopped")
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Replay a file of JSON documents through the bulk-ingest API",
	Long: `Reads newline-delimited JSON documents from a file (e.g. spooled
eve.json events) and ships them to the search engine in one bulk batch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})

		docs, err := loadDocs(args[0])
		if err != nil {
			return err
		}

		indexer, err := ingest.New(cfg.Search, indexLayout(cfg.Vector.IndexPattern),
			state.NewStore(), log.WithComponent("ingest"))
		if err != nil {
			return err
		}
		if err := indexer.Send(cmd.Context(), docs); err != nil {
			return err
		}
		fmt.Printf("✓ Ingested %d documents\n", len(docs))
		return nil
	},
}

func composeOrchestrator() (*stack.ComposeOrchestrator, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if cfg.Stack.Backend != "compose" {
		return nil, fmt.Errorf("stack lifecycle commands require the compose backend, got %q", cfg.Stack.Backend)
	}
	return stack.NewComposeOrchestrator(cfg.Stack.ComposeFile, cfg.Stack.NamePrefix), nil
}

// indexLayout converts vector's strftime index pattern to the Go time
// layout the bulk indexer formats with.
func indexLayout(pattern string) string {
	r := strings.NewReplacer("%Y", "2006", "%m", "01", "%d", "02")
	return r.Replace(pattern)
}

// loadDocs reads newline-delimited JSON objects, tolerating a single JSON
// array as well.
func loadDocs(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var docs []map[string]any
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return docs, nil
	}

	var docs []map[string]any
	for i, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", path, i+1, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
