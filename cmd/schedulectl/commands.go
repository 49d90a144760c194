package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rakishiii/production-scheduler/internal/application"
	"github.com/Rakishiii/production-scheduler/internal/domain"
	"github.com/Rakishiii/production-scheduler/internal/infrastructure/shopfloor"
)

// ValidFormats are the supported output formats
var ValidFormats = []string{"json", "text"}

// RootOptions holds global flags
type RootOptions struct {
	ShopFloorFile string
	Format        string
}

// NewRootCommand creates the schedulectl root command
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "schedulectl",
		Short: "Offline production planning",
		Long:  "Run scheduling passes over order and absence files without a database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ShopFloorFile, "shopfloor", "", "shop floor YAML (default: built-in)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "json", "output format (json|text)")

	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewRoutingCommand(opts))
	return cmd
}

type planOptions struct {
	OrdersFile      string
	AbsencesFile    string
	Date            string
	StagePrecedence bool
	SkipCompleted   bool
}

// NewPlanCommand creates the plan command
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Normalize orders and print their schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.OrdersFile, "orders", "", "orders JSON file")
	cmd.Flags().StringVar(&opts.AbsencesFile, "absences", "", "absences JSON file")
	cmd.Flags().StringVar(&opts.Date, "date", "", "reference date YYYY-MM-DD (default: today)")
	cmd.Flags().BoolVar(&opts.StagePrecedence, "stage-precedence", false, "start each stage after the previous one ends")
	cmd.Flags().BoolVar(&opts.SkipCompleted, "skip-completed", false, "leave completed orders out of the pass")
	_ = cmd.MarkFlagRequired("orders")

	return cmd
}

// NewRoutingCommand creates the routing command
func NewRoutingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routing",
		Short: "Print the process routing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shop, err := shopfloor.Load(rootOpts.ShopFloorFile)
			if err != nil {
				return err
			}
			routing := application.ToRoutingDTO(shop)
			if rootOpts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), routing)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tWEIGHT\tMACHINE\tROLES\tHOURS/UNIT")
			for _, st := range routing.Stages {
				roles := make([]string, 0, len(st.Requirements))
				for _, r := range st.Requirements {
					roles = append(roles, fmt.Sprintf("%s x%d", r.Role, r.Count))
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%g\n", st.Name, st.Weight, st.MachineID, strings.Join(roles, ", "), st.HoursPerUnit)
			}
			return w.Flush()
		},
	}
}

// orderRecord is the file shape of an order. Records without activeStageProgress but with a
// bare progress value are imported as legacy records; their status only matters for that import.
type orderRecord struct {
	OrderID             string   `json:"orderId"`
	CustomerName        string   `json:"customerName"`
	CabinetType         string   `json:"cabinetType"`
	Color               string   `json:"color"`
	Quantity            int      `json:"quantity"`
	StartDate           string   `json:"startDate"`
	CompletionDate      string   `json:"completionDate"`
	CompletedStages     []string `json:"completedStages"`
	ActiveStageProgress *float64 `json:"activeStageProgress"`
	Progress            *float64 `json:"progress"`
	Status              string   `json:"status"`
}

type absenceRecord struct {
	AbsenceID  string `json:"absenceId"`
	ResourceID string `json:"resourceId"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
}

// PlanOutput is what plan prints in JSON format
type PlanOutput struct {
	ReferenceDate string                   `json:"referenceDate"`
	Orders        []application.OrderDTO   `json:"orders"`
	Schedule      *application.ScheduleDTO `json:"schedule"`
}

func runPlan(rootOpts *RootOptions, opts *planOptions, out io.Writer) error {
	shop, err := shopfloor.Load(rootOpts.ShopFloorFile)
	if err != nil {
		return err
	}

	ref := domain.Day(time.Now())
	if opts.Date != "" {
		if ref, err = domain.ParseDay(opts.Date); err != nil {
			return err
		}
	}

	orders, err := loadOrders(opts.OrdersFile, shop.Routing)
	if err != nil {
		return err
	}
	absences, err := loadAbsences(opts.AbsencesFile, shop.Catalog)
	if err != nil {
		return err
	}

	for _, o := range orders {
		o.ApplyPriority(ref)
	}

	scheduler := domain.NewScheduler(shop,
		domain.WithStagePrecedence(opts.StagePrecedence),
		domain.WithSkipCompleted(opts.SkipCompleted),
	)
	result := scheduler.Schedule(orders, absences, ref)
	schedule := application.ToScheduleDTO(result)

	output := PlanOutput{
		ReferenceDate: schedule.ReferenceDate,
		Orders:        make([]application.OrderDTO, 0, len(orders)),
		Schedule:      schedule,
	}
	for _, o := range orders {
		dto := application.ToOrderDTO(o, ref)
		dto.Schedule = schedule.Schedule[o.OrderID]
		dto.HasShortfall = result.HasShortfall(o.OrderID)
		output.Orders = append(output.Orders, *dto)
	}

	if rootOpts.Format == "json" {
		return writeJSON(out, output)
	}
	return writePlanText(out, output)
}

func loadOrders(path string, routing *domain.Routing) ([]*domain.Order, error) {
	var records []orderRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	orders := make([]*domain.Order, 0, len(records))
	for i, r := range records {
		if r.OrderID == "" {
			r.OrderID = fmt.Sprintf("ORD-%d", i+1)
		}
		start, err := domain.ParseDay(r.StartDate)
		if err != nil {
			return nil, fmt.Errorf("order %s: startDate: %w", r.OrderID, err)
		}
		completion, err := domain.ParseDay(r.CompletionDate)
		if err != nil {
			return nil, fmt.Errorf("order %s: completionDate: %w", r.OrderID, err)
		}

		order, err := domain.NewOrder(r.OrderID, r.CustomerName, r.CabinetType, r.Color, r.Quantity, start, completion, routing)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", r.OrderID, err)
		}
		order.CompletedStages = r.CompletedStages

		switch {
		case r.ActiveStageProgress != nil:
			order.ActiveStageProgress = *r.ActiveStageProgress
			order.Normalize(routing)
		case r.Progress != nil:
			order.Status = domain.OrderStatus(r.Status)
			domain.MigrateLegacyProgress(order, routing, *r.Progress)
		default:
			order.Normalize(routing)
		}
		order.ClearDomainEvents()
		orders = append(orders, order)
	}
	return orders, nil
}

func loadAbsences(path string, catalog *domain.ResourceCatalog) ([]domain.AbsenceRecord, error) {
	if path == "" {
		return nil, nil
	}

	var records []absenceRecord
	if err := readJSON(path, &records); err != nil {
		return nil, err
	}

	absences := make([]domain.AbsenceRecord, 0, len(records))
	for i, r := range records {
		day, err := domain.ParseDay(r.Date)
		if err != nil {
			return nil, fmt.Errorf("absence %d: %w", i+1, err)
		}
		id := r.AbsenceID
		if id == "" {
			id = fmt.Sprintf("ABS-%d", i+1)
		}
		absence, err := domain.NewAbsenceRecord(id, catalog, r.ResourceID, day, r.Reason)
		if err != nil {
			return nil, fmt.Errorf("absence %d (%s): %w", i+1, r.ResourceID, err)
		}
		absences = append(absences, *absence)
	}
	return absences, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePlanText(out io.Writer, plan PlanOutput) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Reference date: %s\n\n", plan.ReferenceDate)

	fmt.Fprintln(w, "ORDER\tPRIORITY\tPROGRESS\tNEXT STAGE\tDUE")
	for _, o := range plan.Orders {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n", o.OrderID, o.Priority, o.Progress, o.NextStage, o.CompletionDate)
	}

	fmt.Fprintln(w, "\nORDER\tSTAGE\tRESOURCES\tMACHINE\tSTART\tEND\tDAYS")
	for _, a := range plan.Schedule.Assignments {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n", a.OrderID, a.Stage, a.Resource, a.MachineID, a.Start, a.End, a.DurationDays)
	}

	if len(plan.Schedule.Shortfalls) > 0 {
		fmt.Fprintln(w, "\nSHORTFALL\tSTAGE\tROLE\tREQUIRED\tAVAILABLE\tREASON")
		for _, s := range plan.Schedule.Shortfalls {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", s.OrderID, s.Stage, s.Role, s.Required, s.Available, s.Reason)
		}
	}
	return w.Flush()
}
