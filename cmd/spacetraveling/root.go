package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/spacetraveling"
)

var (
	cfgFile   string
	appConfig spacetraveling.Config
	logger    *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "spacetraveling",
	Short: "Static blog generator for Prismic or Markdown posts",
	Long: `spacetraveling fetches posts from a Prismic repository (or a local
directory of Markdown files) and writes a static site: a paginated listing
with a load-more button, one page per post with read time and neighbour
navigation, plus sitemap and RSS feed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations["config"] == "skip" {
			return nil
		}
		return initializeConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text or json)")

	rootCmd.AddCommand(buildCmd, serveCmd, pathsCmd, newCmd, versionCmd)
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":   "log.level",
	"log-format":  "log.format",
	"clean":       "build.clean",
	"concurrency": "build.concurrency",
	"addr":        "serve.addr",
	"fallback":    "serve.fallback",
}

// envAliases binds the conventional variable names next to the
// SPACETRAVELING_* ones.
var envAliases = map[string]string{
	"content.endpoint":     "PRISMIC_API_ENDPOINT",
	"content.access_token": "PRISMIC_ACCESS_TOKEN",
}

func initializeConfig(cmd *cobra.Command) error {
	loadEnv(logrus.StandardLogger())

	v := viper.New()
	setDefaults(v, spacetraveling.DefaultConfig())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SPACETRAVELING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "SPACETRAVELING_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return err
		}
	}
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	readErr := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	switch {
	case readErr == nil:
	case errors.As(readErr, &notFound) && cfgFile == "":
	default:
		return fmt.Errorf("failed to read config file: %w", readErr)
	}

	if err := v.Unmarshal(&appConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	l, err := spacetraveling.NewLogger(appConfig.Log.Level, appConfig.Log.Format)
	if err != nil {
		return err
	}
	logger = l
	if used := v.ConfigFileUsed(); readErr == nil && used != "" {
		logger.WithField("file", used).Debug("using config file")
	} else {
		logger.Debug("no config file found, using defaults and environment")
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d spacetraveling.Config) {
	v.SetDefault("site.name", d.Site.Name)
	v.SetDefault("site.url", d.Site.URL)
	v.SetDefault("site.description", d.Site.Description)
	v.SetDefault("site.author", d.Site.Author)
	v.SetDefault("site.locale", d.Site.Locale)
	v.SetDefault("site.timezone", d.Site.Timezone)
	v.SetDefault("site.logo", d.Site.Logo)

	v.SetDefault("content.source", d.Content.Source)
	v.SetDefault("content.endpoint", d.Content.Endpoint)
	v.SetDefault("content.access_token", d.Content.AccessToken)
	v.SetDefault("content.document_type", d.Content.DocumentType)
	v.SetDefault("content.page_size", d.Content.PageSize)
	v.SetDefault("content.local_dir", d.Content.LocalDir)
	v.SetDefault("content.sanitize", d.Content.Sanitize)
	v.SetDefault("content.timeout", d.Content.Timeout)
	v.SetDefault("content.max_retries", d.Content.MaxRetries)
	v.SetDefault("content.requests_per_second", d.Content.RequestsPerSecond)

	v.SetDefault("build.output_dir", d.Build.OutputDir)
	v.SetDefault("build.static_dir", d.Build.StaticDir)
	v.SetDefault("build.manifest_path", d.Build.ManifestPath)
	v.SetDefault("build.concurrency", d.Build.Concurrency)
	v.SetDefault("build.clean", d.Build.Clean)
	v.SetDefault("build.archive_pages", d.Build.ArchivePages)
	v.SetDefault("build.localize_banners", d.Build.LocalizeBanners)
	v.SetDefault("build.banner_max_width", d.Build.BannerMaxWidth)

	v.SetDefault("comments.enabled", d.Comments.Enabled)
	v.SetDefault("comments.src", d.Comments.Src)
	v.SetDefault("comments.repo", d.Comments.Repo)
	v.SetDefault("comments.issue_term", d.Comments.IssueTerm)
	v.SetDefault("comments.theme", d.Comments.Theme)

	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.fallback", d.Serve.Fallback)
	v.SetDefault("serve.fallback_limit", d.Serve.FallbackLimit)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// loadEnv loads .env files from the working directory. Later files win.
func loadEnv(log *logrus.Logger) {
	files := []string{".env", ".env.local"}
	loaded := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Overload(file); err != nil {
			log.WithError(err).Warnf("Failed to load %s", file)
			continue
		}
		loaded = append(loaded, file)
	}
	if len(loaded) > 0 {
		log.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}
}

func newApp() (*spacetraveling.App, error) {
	return spacetraveling.New(appConfig, spacetraveling.WithLogger(logger))
}
