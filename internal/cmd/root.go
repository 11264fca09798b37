package cmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"issue-lite/internal/config"
	"issue-lite/internal/config/yamlstore"
	"issue-lite/internal/diff"
	"issue-lite/internal/repository"
)

// AppProvider lazily initializes the App on first use.
type AppProvider struct {
	once sync.Once
	app  *App
	err  error

	// Config captured from flags before Execute()
	RepoPath   string
	JSONOutput bool
	Verbose    bool
	Out        io.Writer
	Err        io.Writer
}

// Get returns the App, initializing it on first call.
func (p *AppProvider) Get() (*App, error) {
	p.once.Do(func() {
		if p.app == nil {
			p.app, p.err = p.init()
		}
	})
	return p.app, p.err
}

// NewTestProvider creates a provider pre-initialized with the given App.
func NewTestProvider(app *App) *AppProvider {
	return &AppProvider{
		app:        app,
		JSONOutput: app.JSON,
		Out:        app.Out,
		Err:        app.Err,
	}
}

func (p *AppProvider) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

func (p *AppProvider) errOut() io.Writer {
	if p.Err == nil {
		return os.Stderr
	}
	return p.Err
}

func (p *AppProvider) start() (string, error) {
	if p.RepoPath != "" {
		return p.RepoPath, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get current directory: %w", err)
	}
	return cwd, nil
}

func (p *AppProvider) init() (*App, error) {
	start, err := p.start()
	if err != nil {
		return nil, err
	}
	repo, err := repository.Find(start)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(config.DefaultPaths(repo.Root()))
	if err != nil {
		return nil, err
	}
	logger := newLogger(p.errOut(), p.Verbose)
	app := newApp(repo, cfg, diff.RealClock{}, logger, p.out(), p.errOut())
	app.JSON = p.JSONOutput
	return app, nil
}

// loadConfig stacks the config layers, then applies defaults and
// environment overrides in memory. The repository YAML file is the last
// layer and receives writes.
func loadConfig(paths config.Paths) (*config.Layered, error) {
	legacyGlobal, err := config.LoadLegacyJSON(paths.LegacyGlobal)
	if err != nil {
		return nil, err
	}
	layers := []config.Store{legacyGlobal}
	if paths.Global != "" {
		global, err := yamlstore.New(paths.Global)
		if err != nil {
			return nil, err
		}
		layers = append(layers, global)
	}
	legacyLocal, err := config.LoadLegacyJSON(paths.LegacyLocal)
	if err != nil {
		return nil, err
	}
	layers = append(layers, legacyLocal)
	if paths.Local != "" {
		local, err := yamlstore.New(paths.Local)
		if err != nil {
			return nil, err
		}
		layers = append(layers, local)
	}

	cfg := config.NewLayered(layers...)
	config.ApplyDefaults(cfg)
	config.ApplyEnvOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Execute runs the CLI.
func Execute() error {
	provider := &AppProvider{
		Out: os.Stdout,
		Err: os.Stderr,
	}

	rootCmd := newRootCmd(provider)
	return rootCmd.Execute()
}

// newRootCmd creates the root command with all subcommands.
func newRootCmd(provider *AppProvider) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "issue",
		Short: "A distributed issue tracker that lives in your repo",
		Long: `issue keeps every issue as an append-only log of changes under .issue/.
The current state of an issue is rebuilt by replaying its log, and replicas
exchange logs with pull and push.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&provider.JSONOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&provider.Verbose, "verbose", "v", false, "Log debug messages to stderr")
	rootCmd.PersistentFlags().StringVar(&provider.RepoPath, "path", "", "Directory to search for .issue from (default: cwd)")

	rootCmd.AddCommand(newInitCmd(provider))
	rootCmd.AddCommand(newOpenCmd(provider))
	rootCmd.AddCommand(newReopenCmd(provider))
	rootCmd.AddCommand(newCloseCmd(provider))
	rootCmd.AddCommand(newListCmd(provider))
	rootCmd.AddCommand(newShowCmd(provider))
	rootCmd.AddCommand(newLogCmd(provider))
	rootCmd.AddCommand(newEditCmd(provider))
	rootCmd.AddCommand(newDropCmd(provider))
	rootCmd.AddCommand(newCommentCmd(provider))
	rootCmd.AddCommand(newTagCmd(provider))
	rootCmd.AddCommand(newParamCmd(provider))
	rootCmd.AddCommand(newChainCmd(provider))
	rootCmd.AddCommand(newParentCmd(provider))
	rootCmd.AddCommand(newChildrenCmd(provider))
	rootCmd.AddCommand(newStatusCmd(provider))
	rootCmd.AddCommand(newWorkCmd(provider))
	rootCmd.AddCommand(newIndexCmd(provider))
	rootCmd.AddCommand(newPackCmd(provider))
	rootCmd.AddCommand(newRemoteCmd(provider))
	rootCmd.AddCommand(newPullCmd(provider))
	rootCmd.AddCommand(newPushCmd(provider))
	rootCmd.AddCommand(newStatsCmd(provider))
	rootCmd.AddCommand(newReleaseCmd(provider))
	rootCmd.AddCommand(newConfigCmd(provider))
	rootCmd.AddCommand(newEventsCmd(provider))
	rootCmd.AddCommand(newWhereCmd(provider))
	rootCmd.AddCommand(newVersionCmd(provider))

	return rootCmd
}
