package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pixivarc/internal/pipeline"
	"pixivarc/pkg/archive"
	"pixivarc/pkg/auth"
	"pixivarc/pkg/config"
	"pixivarc/pkg/logger"
	"pixivarc/pkg/pixiv"
	"pixivarc/pkg/progress"
)

var (
	// Archive command flags
	seedUsers        []int64
	seedIllusts      []int64
	seedNovels       []int64
	seedIllustSeries []int64
	seedNovelSeries  []int64
	followedUsers    bool
	favorites        bool
	outputDir        string
	overwrite        bool
	rateLimit        int
	concurrent       int
	maxRetries       int
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Crawl the configured seeds into the local archive",
	Long: `Crawl pixiv starting from the configured seeds and store everything
reachable from them into the local archive.

Seeds can be individual illustrations or novels, whole users (all of
their public works), series, or the bookmarks and follows of the
logged-in account. Seeds from flags are merged with seeds from the
config file.

This command requires a valid PHPSESSID cookie, configured either through:
  - Stored session (use 'pixivarc auth login' to store)
  - The PIXIVARC_SESSION environment variable
  - The config file`,
	Example: `  # Archive two illustrations and one user's whole profile
  pixivarc archive --illust 129899459 --illust 130034400 --user 2179695

  # Archive a novel series into a specific directory
  pixivarc archive --novel-series 13584559 --output ~/pixiv

  # Archive everything the logged-in account has bookmarked or follows
  pixivarc archive --favorites --followed`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runArchive(cmd)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)

	// Local flags for archive command
	archiveCmd.Flags().Int64SliceVar(&seedUsers, "user", nil, "user ID whose works to archive (repeatable)")
	archiveCmd.Flags().Int64SliceVar(&seedIllusts, "illust", nil, "illustration ID to archive (repeatable)")
	archiveCmd.Flags().Int64SliceVar(&seedNovels, "novel", nil, "novel ID to archive (repeatable)")
	archiveCmd.Flags().Int64SliceVar(&seedIllustSeries, "illust-series", nil, "illustration series ID to archive (repeatable)")
	archiveCmd.Flags().Int64SliceVar(&seedNovelSeries, "novel-series", nil, "novel series ID to archive (repeatable)")
	archiveCmd.Flags().BoolVar(&followedUsers, "followed", false, "archive every user the logged-in account follows")
	archiveCmd.Flags().BoolVar(&favorites, "favorites", false, "archive the logged-in account's bookmarks")
	archiveCmd.Flags().StringVarP(&outputDir, "output", "o", "", "archive directory (default: ./archive)")
	archiveCmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace files that already exist on disk")
	archiveCmd.Flags().IntVar(&rateLimit, "rate-limit", 30, "requests per minute")
	archiveCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of file batches downloaded at once")
	archiveCmd.Flags().IntVar(&maxRetries, "max-retries", 3, "maximum number of retry attempts")
}

func runArchive(cmd *cobra.Command) {
	// Load configuration, layering flag values over file and environment
	cfg, err := config.Load(configFile, func(cfg *config.Config) {
		cfg.Targets.Users = append(cfg.Targets.Users, toUint64(seedUsers)...)
		cfg.Targets.Illusts = append(cfg.Targets.Illusts, toUint64(seedIllusts)...)
		cfg.Targets.Novels = append(cfg.Targets.Novels, toUint64(seedNovels)...)
		cfg.Targets.IllustSeries = append(cfg.Targets.IllustSeries, toUint64(seedIllustSeries)...)
		cfg.Targets.NovelSeries = append(cfg.Targets.NovelSeries, toUint64(seedNovelSeries)...)
		if followedUsers {
			cfg.Targets.FollowedUsers = true
		}
		if favorites {
			cfg.Targets.Favorites = true
		}
		if outputDir != "" {
			cfg.Output.Directory = outputDir
		}
		if overwrite {
			cfg.Output.OverwriteExisting = true
		}
		if cmd.Flags().Changed("rate-limit") {
			cfg.RateLimit.RequestsPerMinute = rateLimit
		}
		if cmd.Flags().Changed("concurrent") {
			cfg.Download.ConcurrentBatches = concurrent
		}
		if cmd.Flags().Changed("max-retries") {
			cfg.RateLimit.MaxRetries = maxRetries
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("pixivarc starting")

	// Fall back to the stored session when none was configured
	if cfg.Pixiv.Session == "" {
		manager, err := auth.NewManager()
		if err == nil {
			if session, err := manager.Retrieve(); err == nil {
				cfg.Pixiv.Session = session.Cookie
				if session.UserAgent != "" && cfg.Pixiv.UserAgent == "" {
					cfg.Pixiv.UserAgent = session.UserAgent
				}
				log.Info("Using stored session")
			}
		}
	}

	if cfg.Pixiv.Session == "" {
		log.Error("Missing pixiv session")
		fmt.Fprintln(os.Stderr, "No pixiv session found")
		fmt.Fprintln(os.Stderr, "\nTo store your session securely, run:")
		fmt.Fprintln(os.Stderr, "  pixivarc auth login")
		fmt.Fprintln(os.Stderr, "\nYou can also set an environment variable:")
		fmt.Fprintln(os.Stderr, "  export PIXIVARC_SESSION=your_phpsessid_cookie")
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}

	if cfg.Targets.Empty() {
		log.Warn("No seeds configured")
		fmt.Println("Nothing to archive: no seeds configured.")
		fmt.Println("Pass seeds with flags (see 'pixivarc archive --help') or set them in the config file.")
		return
	}

	printRunSummary(cfg)

	// Open the archive before touching the network
	store, err := archive.Open(cfg.Output.Directory, log)
	if err != nil {
		log.WithError(err).Error("Failed to open archive")
		fmt.Fprintln(os.Stderr, "Failed to open archive:", err)
		os.Exit(1)
	}
	defer store.Close()

	client := pixiv.NewClient(pixiv.ClientOptions{
		Session:           cfg.Pixiv.Session,
		UserAgent:         cfg.Pixiv.UserAgent,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Timeout:           cfg.Download.DownloadTimeout,
		MaxRetries:        cfg.RateLimit.MaxRetries,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewTracker(!noProgress)
	run := pipeline.New(cfg, client, client, pipeline.WrapStore(store), tracker, log)

	if err := run.Run(ctx); err != nil {
		log.WithError(err).Error("Archive run failed")
		fmt.Fprintln(os.Stderr, "Archive run failed:", err)
		os.Exit(1)
	}

	log.Info("Archive run completed")
}

// printRunSummary prints the effective settings and seeds for this run
func printRunSummary(cfg *config.Config) {
	fmt.Printf("pixivarc %s\n", version)
	fmt.Printf("  output:     %s\n", cfg.Output.Directory)
	fmt.Printf("  overwrite:  %s\n", yesNo(cfg.Output.OverwriteExisting))
	fmt.Printf("  rate limit: %d req/min\n", cfg.RateLimit.RequestsPerMinute)
	if n := len(cfg.Targets.Users); n > 0 {
		fmt.Printf("  users:      %d\n", n)
	}
	if n := len(cfg.Targets.Illusts); n > 0 {
		fmt.Printf("  illusts:    %d\n", n)
	}
	if n := len(cfg.Targets.Novels); n > 0 {
		fmt.Printf("  novels:     %d\n", n)
	}
	if n := len(cfg.Targets.IllustSeries) + len(cfg.Targets.NovelSeries); n > 0 {
		fmt.Printf("  series:     %d\n", n)
	}
	fmt.Printf("  followed:   %s\n", yesNo(cfg.Targets.FollowedUsers))
	fmt.Printf("  favorites:  %s\n", yesNo(cfg.Targets.Favorites))
	fmt.Println()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func toUint64(ids []int64) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			out = append(out, uint64(id))
		}
	}
	return out
}
