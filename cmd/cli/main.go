package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"neuromatch/adapters/excel"
	"neuromatch/adapters/postgres"
	"neuromatch/adapters/report"
	"neuromatch/app"
	"neuromatch/domain/match"
	"neuromatch/domain/sample"
	"neuromatch/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "neuromatch-cli",
		Short: "Case-control cohort matching from the command line",
	}

	rootCmd.AddCommand(newMatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMatchCmd() *cobra.Command {
	var (
		nPerGroup     int
		ratio         int
		noControls    bool
		ageMin        int
		ageMax        int
		region        string
		minRIN        float64
		maxPMI        float64
		keepPathology bool
		noSexMatch    bool
		alpha         float64
		maxIterations int
		output        string
	)

	cmd := &cobra.Command{
		Use:   "match [diagnosis]",
		Short: "Select a matched case-control cohort for a diagnosis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			url := os.Getenv("DATABASE_URL")
			if url == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := sqlx.Connect("postgres", url)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer db.Close()

			criteria := sample.DefaultCriteria(args[0], nPerGroup)
			criteria.ControlRatio = ratio
			criteria.IncludeControls = !noControls
			criteria.ExcludePathology = !keepPathology
			criteria.ExactSexMatch = !noSexMatch
			criteria.BrainRegion = region
			if cmd.Flags().Changed("age-min") {
				criteria.AgeMin = &ageMin
			}
			if cmd.Flags().Changed("age-max") {
				criteria.AgeMax = &ageMax
			}
			if cmd.Flags().Changed("min-rin") {
				criteria.MinRINScore = &minRIN
			}
			if cmd.Flags().Changed("max-pmi") {
				criteria.MaxPMIHours = &maxPMI
			}

			cfg := match.DefaultConfig()
			cfg.Alpha = alpha
			cfg.MaxIterations = maxIterations

			matcher := app.NewMatchingService(postgres.NewCandidateRepository(db), cfg)
			result, err := matcher.FindMatchedSets(context.Background(), criteria)
			if err != nil {
				return err
			}

			printSummary(result)

			if output != "" {
				var writer ports.MatchReporter
				if strings.HasSuffix(output, ".xlsx") {
					writer = excel.NewReportWriter()
				} else {
					writer = report.NewMarkdownWriter()
				}
				if err := writer.WriteReport(context.Background(), result, output); err != nil {
					return err
				}
				fmt.Printf("report written to %s\n", output)
			}

			if !result.Success {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&nPerGroup, "n", "n", 10, "cases per group")
	cmd.Flags().IntVar(&ratio, "ratio", 1, "controls per case")
	cmd.Flags().BoolVar(&noControls, "no-controls", false, "select cases only")
	cmd.Flags().IntVar(&ageMin, "age-min", 0, "minimum age")
	cmd.Flags().IntVar(&ageMax, "age-max", 0, "maximum age")
	cmd.Flags().StringVar(&region, "region", "", "brain region substring")
	cmd.Flags().Float64Var(&minRIN, "min-rin", 0, "minimum RIN score")
	cmd.Flags().Float64Var(&maxPMI, "max-pmi", 0, "maximum PMI in hours")
	cmd.Flags().BoolVar(&keepPathology, "keep-pathology", false, "do not exclude co-pathology from controls")
	cmd.Flags().BoolVar(&noSexMatch, "no-sex-match", false, "disable exact sex matching")
	cmd.Flags().Float64Var(&alpha, "alpha", match.DefaultAlpha, "significance threshold")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", match.DefaultMaxIterations, "optimizer iteration budget")
	cmd.Flags().StringVarP(&output, "out", "o", "", "report output path (.xlsx or .md)")

	return cmd
}

func printSummary(result *match.MatchResult) {
	status := "FAILED"
	if result.Success {
		status = "MATCHED"
	}
	fmt.Printf("%s: %s\n", status, result.Message)
	fmt.Printf("cases: %d, controls: %d\n", len(result.Cases), len(result.Controls))

	if r := result.Report; r != nil {
		for _, cov := range sample.Covariates {
			cs := r.Covariates[cov]
			if cs == nil || cs.PValue == nil {
				continue
			}
			fmt.Printf("  %-4s case %.2f (%.2f) vs control %.2f (%.2f), p=%.4f [%s]\n",
				cov, cs.CaseMean, cs.CaseStdDev, cs.ControlMean, cs.ControlStdDev, *cs.PValue, cs.TestMethod)
		}
	}
	for _, s := range result.Suggestions {
		fmt.Printf("  suggestion: %s\n", s)
	}
}
