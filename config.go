/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Seednode/argunet/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	scorerLocal  = "local"
	scorerRemote = "remote"
)

type Config struct {
	bind           string
	envFile        string
	playerTimeout  time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	store     string
	storePath string
	threshold int

	scorer       string
	judgeURL     string
	judgeModel   string
	judgeTimeout time.Duration
	apiKey       string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}

	return c.validateGame()
}

// validateGame covers the flags shared by the server and the play command.
func (c *Config) validateGame() error {
	c.store = strings.ToLower(c.store)

	if !slices.Contains(storage.Kinds(), c.store) {
		return fmt.Errorf("invalid store %q (must be one of %s)", c.store, strings.Join(storage.Kinds(), ", "))
	}
	if c.store != storage.KindMemory && c.storePath == "" {
		return fmt.Errorf("--store-path is required for store %q", c.store)
	}
	if c.threshold < 1 {
		return fmt.Errorf("invalid threshold (must be positive): %d", c.threshold)
	}

	return c.validateScorer()
}

func (c *Config) validateScorer() error {
	c.scorer = strings.ToLower(c.scorer)

	switch c.scorer {
	case scorerLocal:
	case scorerRemote:
		if c.apiKey == "" {
			return errors.New("--api-key (or OPENROUTER_API_KEY) is required when --scorer=remote")
		}
		if c.judgeTimeout <= 0 {
			return fmt.Errorf("invalid judge timeout: %s", c.judgeTimeout)
		}
	default:
		return fmt.Errorf("invalid scorer %q (must be %s or %s)", c.scorer, scorerLocal, scorerRemote)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadEnv reads the optional .env file, then copies environment values into
// every flag that was not set on the command line.
func loadEnv(cfg *Config, v *viper.Viper, set *pflag.FlagSet) error {
	if cfg.envFile != "" {
		if err := godotenv.Load(cfg.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", cfg.envFile, err)
		}
	}

	set.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = set.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	if cfg.apiKey == "" {
		_ = v.BindEnv("openrouter-api-key", "OPENROUTER_API_KEY")
		cfg.apiKey = v.GetString("openrouter-api-key")
	}

	return nil
}

func normalize(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ARGUNET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "argunet",
		Short:         "A two-player debate arena, scored argument by argument.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnv(cfg, v, cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	pfs := cmd.PersistentFlags()
	pfs.SetNormalizeFunc(normalize)

	pfs.StringVar(&cfg.apiKey, "api-key", "", "api key for the remote judge (env: ARGUNET_API_KEY or OPENROUTER_API_KEY)")
	pfs.StringVar(&cfg.envFile, "env-file", ".env", "file of KEY=value pairs to load into the environment, if present (env: ARGUNET_ENV_FILE)")
	pfs.StringVar(&cfg.judgeModel, "judge-model", "", "model used by the remote judge (env: ARGUNET_JUDGE_MODEL)")
	pfs.DurationVar(&cfg.judgeTimeout, "judge-timeout", 30*time.Second, "time allowed for a single remote evaluation (env: ARGUNET_JUDGE_TIMEOUT)")
	pfs.StringVar(&cfg.judgeURL, "judge-url", "", "base url of an OpenAI-compatible api for the remote judge (env: ARGUNET_JUDGE_URL)")
	pfs.StringVar(&cfg.scorer, "scorer", scorerLocal, "argument scorer to use: local or remote (env: ARGUNET_SCORER)")
	pfs.StringVar(&cfg.store, "store", storage.KindBolt, "session store backend: bolt, sqlite or memory (env: ARGUNET_STORE)")
	pfs.StringVar(&cfg.storePath, "store-path", "argunet.db", "path to the session store file (env: ARGUNET_STORE_PATH)")
	pfs.IntVarP(&cfg.threshold, "threshold", "t", 30, "default points needed to win a debate (env: ARGUNET_THRESHOLD)")
	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: ARGUNET_VERBOSE)")

	fs := cmd.Flags()
	fs.SetNormalizeFunc(normalize)

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: ARGUNET_BIND)")
	fs.DurationVar(&cfg.playerTimeout, "player-timeout", 10*time.Minute, "time before a disconnected host gives up their seat (env: ARGUNET_PLAYER_TIMEOUT)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: ARGUNET_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: ARGUNET_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: ARGUNET_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are unloaded (env: ARGUNET_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: ARGUNET_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: ARGUNET_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: ARGUNET_VERSION)")

	cmd.AddCommand(newPlayCmd(cfg), newScoreCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("argunet v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
