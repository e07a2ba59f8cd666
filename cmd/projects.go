package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/partsbin/internal/cli"
	"github.com/theirongolddev/partsbin/internal/model"
	"github.com/theirongolddev/partsbin/internal/pipeline"
	"github.com/theirongolddev/partsbin/internal/source"
	"github.com/theirongolddev/partsbin/internal/store"
)

var (
	flagProjAll         bool
	flagProjBudget      string
	flagProjPriority    int
	flagProjDeadline    string
	flagProjStatus      string
	flagProjDescription string

	flagPartQty      int
	flagPartPrice    string
	flagPartCategory string
	flagPartSupplier string
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"proj"},
	Short:   "Project costs, budgets and coverage",
	RunE:    runProjects,
}

var projectsShowCmd = &cobra.Command{
	Use:   "show <project>",
	Short: "Bill of materials with stock coverage",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsShow,
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsAdd,
}

var projectsAddPartCmd = &cobra.Command{
	Use:   "add-part <project> <item|name>",
	Short: "Add a bill-of-materials line",
	Long:  "Add a part to a project's bill of materials. An inventory id prefix or SKU links the line to stock; anything else becomes a free-standing part priced with --price.",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsAddPart,
}

var projectsStatusCmd = &cobra.Command{
	Use:   "status <project> <planning|active|paused|completed|cancelled>",
	Short: "Change a project's status",
	Args:  cobra.ExactArgs(2),
	RunE:  runProjectsStatus,
}

var projectsRmCmd = &cobra.Command{
	Use:   "rm <project>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsRm,
}

func init() {
	projectsCmd.Flags().BoolVarP(&flagProjAll, "all", "a", false, "Include completed and cancelled projects")

	projectsAddCmd.Flags().StringVar(&flagProjBudget, "budget", "", "Project budget")
	projectsAddCmd.Flags().IntVar(&flagProjPriority, "priority", 3, "Priority, 1 (highest) to 5")
	projectsAddCmd.Flags().StringVar(&flagProjDeadline, "deadline", "", "Deadline date (YYYY-MM-DD)")
	projectsAddCmd.Flags().StringVar(&flagProjStatus, "status", string(model.StatusPlanning), "Initial status")
	projectsAddCmd.Flags().StringVar(&flagProjDescription, "description", "", "Free-form description")

	projectsAddPartCmd.Flags().IntVar(&flagPartQty, "qty", 1, "Quantity required")
	projectsAddPartCmd.Flags().StringVar(&flagPartPrice, "price", "", "Unit price (defaults to the inventory price)")
	projectsAddPartCmd.Flags().StringVar(&flagPartCategory, "category", "", "Category for free-standing parts")
	projectsAddPartCmd.Flags().StringVar(&flagPartSupplier, "supplier", "", "Supplier for free-standing parts")

	projectsCmd.AddCommand(projectsShowCmd, projectsAddCmd, projectsAddPartCmd, projectsStatusCmd, projectsRmCmd)
	rootCmd.AddCommand(projectsCmd)
}

func runProjects(_ *cobra.Command, _ []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		projects := result.Projects
		if !flagProjAll {
			projects = pipeline.FilterProjectsByStatus(projects, openStatuses()...)
		}
		if len(projects) == 0 {
			fmt.Println("\n  No projects. Create one with `partsbin projects add`.")
			return nil
		}

		stats, total := pipeline.ProjectOverview(projects, result.Items, result.Purchases)
		f := money()

		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("PROJECTS  %d", len(stats))))
		fmt.Println()

		rows := make([][]string, 0, len(stats)+2)
		for _, ps := range stats {
			budget, used := "-", "-"
			if ps.Budget.IsPositive() {
				budget = f.Format(ps.Budget)
				used = cli.FormatPercent(ps.Utilization)
				if ps.OverBudget {
					used = cli.LevelStyle(model.AlertExceeded).Render(used)
				}
			}
			rows = append(rows, []string{
				shortID(ps.ProjectID),
				truncate(ps.Name, 24),
				string(ps.Status),
				fmt.Sprintf("P%d", ps.Priority),
				f.Format(ps.Planned),
				f.Format(ps.Spent),
				f.Format(ps.ToBuy),
				budget,
				used,
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"", "Total", "", "", f.Format(total.Planned), f.Format(total.Spent), f.Format(total.ToBuy), f.Format(total.Budget), ""})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"ID", "Project", "Status", "Prio", "Planned", "Spent", "To buy", "Budget", "Used"},
			Rows:    rows,
			Left:    []int{1, 2},
		}))
		return nil
	})
}

func runProjectsShow(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		result, err := loadData(ctx, st)
		if err != nil {
			return err
		}
		p, err := matchProject(result.Projects, args[0])
		if err != nil {
			return err
		}
		d := pipeline.ProjectCost(p, result.Items)
		f := money()

		fmt.Println()
		fmt.Println(cli.RenderTitle(strings.ToUpper(p.Name)))
		fmt.Println()
		fmt.Printf("  Status %s · P%d", p.Status, p.EffectivePriority())
		if !p.Deadline.IsZero() {
			fmt.Printf(" · due %s (%s)", cli.FormatDate(p.Deadline), cli.FormatDeadline(p.Deadline, time.Now()))
		}
		fmt.Println()
		if p.Description != "" {
			fmt.Println("  " + cli.RenderMuted(p.Description))
		}
		fmt.Println()

		if len(d.Lines) == 0 {
			fmt.Println("  No parts yet. Add some with `partsbin projects add-part`.")
			return nil
		}

		rows := make([][]string, 0, len(d.Lines)+2)
		for _, l := range d.Lines {
			rows = append(rows, []string{
				truncate(l.Component.Name, 28),
				truncate(l.Component.Supplier, 12),
				cli.FormatNumber(int64(l.Required)),
				cli.FormatNumber(int64(l.InStock)),
				cli.FormatNumber(int64(l.ToBuy)),
				f.Format(l.UnitPrice),
				f.Format(l.LineCost),
				f.Format(l.ToBuyCost),
			})
		}
		rows = append(rows, []string{"---"})
		rows = append(rows, []string{"Total", "", "", "", "", "", f.Format(d.Total), f.Format(d.ToBuy)})

		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Part", "Supplier", "Need", "Have", "Buy", "Unit", "Line", "To buy"},
			Rows:    rows,
			Left:    []int{1},
		}))

		fmt.Println()
		fmt.Printf("  Coverage  %s\n", cli.RenderProgressBar(d.Coverage, 30, model.AlertOK))
		if d.Budget.IsPositive() {
			level := model.AlertOK
			if d.OverBudget {
				level = model.AlertExceeded
			}
			fmt.Printf("  Budget    %s %s of %s\n", cli.RenderProgressBar(d.Utilization, 30, level),
				f.Format(d.Total), f.Format(d.Budget))
		}
		if len(d.ByCategory) > 0 {
			fmt.Println()
			maxV := d.ByCategory[0].Total.InexactFloat64()
			for _, c := range d.ByCategory {
				fmt.Println(cli.RenderHorizontalBar(fmt.Sprintf("%s %s", c.Key, f.Format(c.Total)), c.Total.InexactFloat64(), maxV, 24))
			}
		}
		return nil
	})
}

func runProjectsAdd(_ *cobra.Command, args []string) error {
	p := model.Project{
		Name:        strings.TrimSpace(args[0]),
		Description: flagProjDescription,
		Priority:    flagProjPriority,
	}
	if p.Name == "" {
		return errors.New("project name is empty")
	}
	if flagProjPriority < 1 || flagProjPriority > 5 {
		return fmt.Errorf("--priority %d: must be 1 to 5", flagProjPriority)
	}
	status, err := model.ParseProjectStatus(flagProjStatus)
	if err != nil {
		return err
	}
	p.Status = status
	if flagProjBudget != "" {
		b, err := money().Parse(flagProjBudget)
		if err != nil {
			return fmt.Errorf("--budget: %w", err)
		}
		p.Budget = b
	}
	if flagProjDeadline != "" {
		d, err := source.ParseDate(flagProjDeadline)
		if err != nil {
			return fmt.Errorf("--deadline: %w", err)
		}
		p.Deadline = d
	}

	return withStore(func(ctx context.Context, st *store.Store) error {
		saved, err := st.SaveProject(ctx, p)
		if err != nil {
			return err
		}
		fmt.Printf("  Created %s (%s)\n", saved.Name, shortID(saved.ID))
		return nil
	})
}

func runProjectsAddPart(_ *cobra.Command, args []string) error {
	if flagPartQty < 1 {
		return fmt.Errorf("--qty %d: must be at least 1", flagPartQty)
	}
	f := money()

	return withStore(func(ctx context.Context, st *store.Store) error {
		projects, err := st.ListProjects(ctx)
		if err != nil {
			return err
		}
		p, err := matchProject(projects, args[0])
		if err != nil {
			return err
		}
		items, err := st.ListItems(ctx)
		if err != nil {
			return err
		}

		c := model.ProjectComponent{Quantity: flagPartQty}
		if it, err := matchItem(items, args[1]); err == nil {
			c.ItemID = it.ID
			c.Name = it.Name
			c.Category = it.Category
			c.Supplier = it.Supplier
			c.UnitPrice = converter().ConvertOr(it.UnitPrice, it.Currency)
		} else if errors.Is(err, store.ErrNotFound) {
			c.Name = args[1]
			c.Category = flagPartCategory
			c.Supplier = flagPartSupplier
		} else {
			return err
		}
		if flagPartPrice != "" {
			price, err := f.Parse(flagPartPrice)
			if err != nil {
				return fmt.Errorf("--price: %w", err)
			}
			c.UnitPrice = price
		}

		merged := false
		for i := range p.Components {
			if c.ItemID != "" && p.Components[i].ItemID == c.ItemID {
				p.Components[i].Quantity += c.Quantity
				merged = true
				break
			}
		}
		if !merged {
			p.Components = append(p.Components, c)
		}
		if _, err := st.SaveProject(ctx, p); err != nil {
			return err
		}
		fmt.Printf("  %s: %d × %s at %s\n", p.Name, c.Quantity, c.Name, f.Format(c.UnitPrice))
		return nil
	})
}

func runProjectsStatus(_ *cobra.Command, args []string) error {
	status, err := model.ParseProjectStatus(args[1])
	if err != nil {
		return err
	}
	return withStore(func(ctx context.Context, st *store.Store) error {
		projects, err := st.ListProjects(ctx)
		if err != nil {
			return err
		}
		p, err := matchProject(projects, args[0])
		if err != nil {
			return err
		}
		if err := st.SetProjectStatus(ctx, p.ID, status); err != nil {
			return err
		}
		fmt.Printf("  %s: %s → %s\n", p.Name, p.Status, status)
		return nil
	})
}

func runProjectsRm(_ *cobra.Command, args []string) error {
	return withStore(func(ctx context.Context, st *store.Store) error {
		projects, err := st.ListProjects(ctx)
		if err != nil {
			return err
		}
		p, err := matchProject(projects, args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteProject(ctx, p.ID); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", p.Name)
		return nil
	})
}

// matchProject resolves ref as a full id, a unique id prefix or a name.
// openStatuses are the statuses of projects still being worked on.
func openStatuses() []model.ProjectStatus {
	return []model.ProjectStatus{model.StatusPlanning, model.StatusActive, model.StatusPaused}
}

func matchProject(projects []model.Project, ref string) (model.Project, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Project{}, errors.New("empty project reference")
	}
	var matches []model.Project
	for _, p := range projects {
		switch {
		case p.ID == ref, strings.EqualFold(p.Name, ref):
			return p, nil
		case strings.HasPrefix(p.ID, ref):
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return model.Project{}, fmt.Errorf("project %q: %w", ref, store.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return model.Project{}, fmt.Errorf("project %q is ambiguous (%d matches)", ref, len(matches))
}
