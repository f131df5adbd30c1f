package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unalkalkan/la5asni/internal/planner"
	"github.com/unalkalkan/la5asni/pkg/types"
)

// planInput matches hand-written module files and stored analyses, which
// carry the same training_modules key.
type planInput struct {
	TrainingModules []types.TrainingModule `yaml:"training_modules"`
}

type planOutput struct {
	Plan          []planner.Day `json:"plan"`
	MinutesPerDay int           `json:"minutes_per_day"`
	EstimatedDays int           `json:"estimated_days"`
}

// NewPlanCmd creates the plan command. It reads modules from a JSON or
// YAML file, or stdin when the path is "-".
func NewPlanCmd(outputFn func() *Output) *cobra.Command {
	var (
		mode  string
		days  int
		hours int
	)

	cmd := &cobra.Command{
		Use:   "plan <file|->",
		Short: "Build a day-by-day study plan from training modules",
		Long: `Build a study plan from a JSON or YAML document holding training_modules,
such as an analysis downloaded from the API.

In auto mode every day has a budget of 4 hours. Manual mode requires
--days and --hours; --days is only an estimate and the plan may need more.`,
		Example: `  planctl plan analysis.json
  planctl plan --mode manual --days 5 --hours 2 modules.yaml
  cat analysis.json | planctl plan --json -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			modules, err := readModules(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			req := planner.Request{Modules: modules, Mode: planner.Mode(mode)}
			if cmd.Flags().Changed("days") {
				req.NumDays = &days
			}
			if cmd.Flags().Changed("hours") {
				req.HoursPerDay = &hours
			}

			plan, err := planner.Build(req)
			if err != nil {
				return err
			}
			if req.Mode == planner.ModeManual && len(plan.Days) > plan.Capacity.EstimatedDays {
				out.Notice(fmt.Sprintf("note: plan needs %d days, more than the %d requested",
					len(plan.Days), plan.Capacity.EstimatedDays))
			}

			return out.Print(
				[]string{"DAY", "SESSION", "MINUTES"},
				planRows(plan),
				planOutput{
					Plan:          plan.Days,
					MinutesPerDay: plan.Capacity.MinutesPerDay,
					EstimatedDays: plan.Capacity.EstimatedDays,
				},
			)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(planner.ModeAuto), "Plan mode: auto or manual")
	cmd.Flags().IntVar(&days, "days", 0, "Number of days (manual mode)")
	cmd.Flags().IntVar(&hours, "hours", 0, "Study hours per day (manual mode)")

	return cmd
}

func planRows(plan *planner.Plan) [][]string {
	var rows [][]string
	for _, day := range plan.Days {
		for i, s := range day.Sessions {
			label := ""
			if i == 0 {
				label = strconv.Itoa(day.Number)
			}
			rows = append(rows, []string{label, s.Title, strconv.Itoa(s.Duration)})
		}
		rows = append(rows, []string{"", "total", strconv.Itoa(day.TotalMinutes)})
	}
	return rows
}

// readModules parses path, or stdin for "-". JSON is read through the YAML
// decoder, which accepts it as a subset.
func readModules(stdin io.Reader, path string) ([]types.TrainingModule, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("input is empty")
	}

	doc := node.Content[0]
	if doc.Kind == yaml.SequenceNode {
		var modules []types.TrainingModule
		if err := doc.Decode(&modules); err != nil {
			return nil, fmt.Errorf("failed to decode module list: %w", err)
		}
		return modules, nil
	}

	var in planInput
	if err := doc.Decode(&in); err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}
	return in.TrainingModules, nil
}
