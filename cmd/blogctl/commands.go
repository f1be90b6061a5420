package main

import (
	"blogicum/internal/data"
	"blogicum/internal/service"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// app is shared by the subcommands once the database is open.
type app struct {
	db         *sqlx.DB
	categories *data.CategoryRepository
	locations  *data.LocationRepository
	accounts   *service.AccountService
}

// Close releases the database if a command opened it.
func (a *app) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

// newRootCmd builds the command tree. The database is opened lazily so that help output needs no configuration.
func newRootCmd(open func() (*sqlx.DB, error)) (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "blogctl",
		Short:         "Manage categories, locations and accounts of the blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			db, err := open()
			if err != nil {
				return err
			}
			a.db = db
			a.categories = data.NewCategoryRepository(db)
			a.locations = data.NewLocationRepository(db)
			a.accounts = service.NewAccountService(data.NewUserRepository(db))
			return nil
		},
	}
	root.AddCommand(a.categoryCmd(), a.locationCmd(), a.userCmd())
	return root, a
}

func (a *app) categoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "category", Short: "Manage categories"}

	var description string
	var hidden bool
	add := &cobra.Command{
		Use:   "add <slug> <title>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &data.Category{Slug: args[0], Title: args[1], Description: description, IsPublished: !hidden}
			if err := service.ValidateCategory(c); err != nil {
				return err
			}
			id, err := a.categories.Create(cmd.Context(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created category %d (%s)\n", id, c.Slug)
			return nil
		},
	}
	add.Flags().StringVarP(&description, "description", "d", "", "category description")
	_ = add.MarkFlagRequired("description")
	add.Flags().BoolVar(&hidden, "hidden", false, "create the category unpublished")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			categories, err := a.categories.GetAll(cmd.Context(), false)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID\tSLUG\tTITLE\tPUBLISHED")
			for _, c := range categories {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", c.ID, c.Slug, c.Title, c.IsPublished)
			}
			return tw.Flush()
		},
	}

	setPublished := func(published bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return notFoundAs(a.categories.SetPublished(cmd.Context(), args[0], published), "category", args[0])
		}
	}
	publish := &cobra.Command{Use: "publish <slug>", Short: "Publish a category", Args: cobra.ExactArgs(1), RunE: setPublished(true)}
	unpublish := &cobra.Command{Use: "unpublish <slug>", Short: "Hide a category and its posts", Args: cobra.ExactArgs(1), RunE: setPublished(false)}

	del := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a category; its posts lose their category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return notFoundAs(a.categories.Delete(cmd.Context(), args[0]), "category", args[0])
		},
	}

	cmd.AddCommand(add, list, publish, unpublish, del)
	return cmd
}

func (a *app) locationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "location", Short: "Manage locations"}

	var hidden bool
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := &data.Location{Name: args[0], IsPublished: !hidden}
			if err := service.ValidateLocation(l); err != nil {
				return err
			}
			id, err := a.locations.Create(cmd.Context(), l)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created location %d (%s)\n", id, l.Name)
			return nil
		},
	}
	add.Flags().BoolVar(&hidden, "hidden", false, "create the location unpublished")

	list := &cobra.Command{
		Use:   "list",
		Short: "List all locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			locations, err := a.locations.GetAll(cmd.Context(), false)
			if err != nil {
				return err
			}
			tw := table(cmd.OutOrStdout(), "ID\tNAME\tPUBLISHED")
			for _, l := range locations {
				fmt.Fprintf(tw, "%d\t%s\t%t\n", l.ID, l.Name, l.IsPublished)
			}
			return tw.Flush()
		},
	}

	withID := func(fn func(cmd *cobra.Command, id int64) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid location id %q", args[0])
			}
			return notFoundAs(fn(cmd, id), "location", args[0])
		}
	}
	publish := &cobra.Command{
		Use: "publish <id>", Short: "Publish a location", Args: cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error { return a.locations.SetPublished(cmd.Context(), id, true) }),
	}
	unpublish := &cobra.Command{
		Use: "unpublish <id>", Short: "Hide a location on posts", Args: cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error { return a.locations.SetPublished(cmd.Context(), id, false) }),
	}
	del := &cobra.Command{
		Use: "delete <id>", Short: "Delete a location; its posts lose their location", Args: cobra.ExactArgs(1),
		RunE: withID(func(cmd *cobra.Command, id int64) error { return a.locations.Delete(cmd.Context(), id) }),
	}

	cmd.AddCommand(add, list, publish, unpublish, del)
	return cmd
}

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage accounts"}

	var email string
	add := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create a local account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.accounts.Register(cmd.Context(), service.RegisterInput{Username: args[0], Email: email, Password: args[1]})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", u.ID, u.Username)
			return nil
		},
	}
	add.Flags().StringVarP(&email, "email", "e", "", "email address")

	cmd.AddCommand(add)
	return cmd
}

func table(w io.Writer, header string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	return tw
}

func notFoundAs(err error, kind, key string) error {
	if errors.Is(err, data.ErrNoRecord) {
		return fmt.Errorf("%s %q not found", kind, key)
	}
	return err
}
