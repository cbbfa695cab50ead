package main

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gocorr/internal"
	"gocorr/internal/config"
	apperrors "gocorr/internal/errors"
)

// cli carries state shared by every command
type cli struct {
	out        io.Writer
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	logger     *internal.Logger
}

// flagKeys maps CLI flags onto configuration keys
var flagKeys = map[string]string{
	"method":          "analysis.method",
	"p-adjust":        "analysis.p_adjust",
	"ci":              "analysis.ci",
	"alternative":     "analysis.alternative",
	"bayesian":        "analysis.bayesian",
	"prior":           "analysis.bayesian_prior",
	"partial":         "analysis.partial",
	"multilevel":      "analysis.multilevel",
	"include-factors": "analysis.include_factors",
	"redundant":       "analysis.redundant",
	"ranktransform":   "analysis.ranktransform",
	"select":          "analysis.select",
	"group-by":        "analysis.group_by",
	"random":          "analysis.random_effects",
	"covariates":      "analysis.covariates",
	"beta":            "analysis.tuning.beta",
	"trim":            "analysis.tuning.trim",
	"bootstraps":      "analysis.tuning.bootstraps",
	"seed":            "analysis.seed",
	"workers":         "analysis.workers",
	"sheet":           "data.sheet",
	"type":            "data.types",
	"dsn":             "database.url",
	"format":          "output.format",
	"digits":          "output.digits",
	"value":           "output.value",
	"log-level":       "log.level",
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	c := &cli{out: os.Stdout, v: config.New()}
	err := newRootCmd(c).Execute()
	if c.logger != nil {
		_ = c.logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", apperrors.GetCode(err), err)
		os.Exit(apperrors.ExitCode(err))
	}
}

// noConfig marks commands that run without reading configuration
const noConfig = "no-config"

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "gocorr",
		Short:         "Correlation analysis for CSV, Excel and SQL datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default .gocorr.yaml in . or $HOME)")
	root.PersistentFlags().String("log-level", "", "log level: error, warn, info, debug, trace")

	root.AddCommand(
		newCorrelateCmd(c),
		newQueryCmd(c),
		newMethodsCmd(),
		newSimulateCmd(),
	)
	root.SetOut(c.out)
	return root
}

// load binds the running command's flags and reads the configuration
func (c *cli) load(cmd *cobra.Command) error {
	if _, skip := cmd.Annotations[noConfig]; skip {
		return nil
	}
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = c.v.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return apperrors.ConfigInvalid("failed to bind flags", bindErr)
	}

	cfg, err := config.Load(c.v, c.configFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	if cfg.Log.Level == "" {
		c.logger = internal.NewDefaultLogger()
	} else {
		c.logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	}
	internal.DefaultLogger = c.logger
	return nil
}

// addAnalysisFlags registers the request options shared by correlate and query
func addAnalysisFlags(fs *pflag.FlagSet) {
	fs.StringP("method", "m", "", "correlation method, or auto")
	fs.String("p-adjust", "", "p-value adjustment: none, bonferroni, holm, hochberg, hommel, BH, BY")
	fs.Float64("ci", 0, "confidence level of the interval")
	fs.String("alternative", "", "two_sided, greater or less")
	fs.Bool("bayesian", false, "report posterior summaries instead of frequentist tests")
	fs.String("prior", "", "Bayesian prior: medium, wide, ultrawide or a positive scale")
	fs.Bool("partial", false, "partial out every other variable (or --covariates)")
	fs.Bool("multilevel", false, "adjust for --group-by or --random as random intercepts")
	fs.Bool("include-factors", false, "include ordinal and categorical columns")
	fs.Bool("redundant", false, "print the full square matrix")
	fs.Bool("ranktransform", false, "rank both variables before testing")
	fs.StringSlice("select", nil, "columns to analyse")
	fs.StringSlice("group-by", nil, "columns that split rows into groups")
	fs.StringSlice("random", nil, "random-effect factors (multilevel only)")
	fs.StringSlice("covariates", nil, "variables to partial out")
	fs.Float64("beta", 0, "percentage bend constant")
	fs.Float64("trim", 0, "winsorizing fraction per tail")
	fs.Int("bootstraps", 0, "Shepherd's Pi bootstrap resamples")
	fs.Uint64("seed", 0, "seed of stochastic estimators")
	fs.Int("workers", 0, "concurrent pair computations (0 = CPUs)")
	fs.StringToString("type", nil, "column type overrides, e.g. grade=ordinal")
	fs.StringP("format", "f", "", "output: table, matrix, markdown, html, json")
	fs.Int("digits", 0, "decimal digits")
	fs.String("value", "", "matrix cell: estimate, p, statistic, ci_low, ci_high, n_obs, zero_order")
}
