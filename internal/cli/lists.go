package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

func newListsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show lists and manage them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				app.println(cmd, renderCategories(st, p.Categories.List(), p.Categories.Active(), p.Tasks.CountByCategory))
				return nil
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "use <list-id>",
		Short: "Make a list active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				if !p.Categories.SetActive(args[0]) {
					return errNotFound("list", args[0])
				}
				app.println(cmd, "Active list: "+args[0])
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add [name]",
		Short: "Create a list and make it active",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				cat := p.Categories.Create()
				if name := strings.Join(args, " "); name != "" {
					p.Categories.Rename(cat.ID, name)
					cat, _ = p.Categories.Get(cat.ID)
				}
				app.println(cmd, fmt.Sprintf("Created %s %s %s", cat.Icon, cat.Name, st.muted.Render(cat.ID)))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <list-id> <name>",
		Short: "Rename a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				if !p.Categories.Rename(args[0], strings.Join(args[1:], " ")) {
					return errNotFound("list", args[0])
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <list-id>",
		Short: "Delete a list; its tasks fall back to the Daily List",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				if model.IsProtected(args[0]) {
					return fmt.Errorf("list %s is protected", args[0])
				}
				if !p.Categories.Delete(args[0]) {
					return errNotFound("list", args[0])
				}
				app.println(cmd, "Deleted list "+args[0])
				return nil
			})
		},
	})

	return cmd
}

func newSuggestCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest",
		Short: "Show the current quote and quick-add suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				app.println(cmd, renderSuggestions(st, p.Quote(cmd.Context()), p.QuickAdd(cmd.Context())))
				return nil
			})
		},
	}
}

func newInboxCmd(app *App) *cobra.Command {
	var accept, decline string

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show pending collaboration invites, or answer one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				switch {
				case accept != "":
					id, err := resolveRequest(p, accept)
					if err != nil {
						return err
					}
					task, err := p.AcceptInvite(id)
					if err != nil {
						return err
					}
					app.println(cmd, fmt.Sprintf("Accepted: %s is in 👥 Shared with Me", task.Title))
				case decline != "":
					id, err := resolveRequest(p, decline)
					if err != nil {
						return err
					}
					if err := p.Collaboration.Decline(id); err != nil {
						return err
					}
					app.println(cmd, "Declined.")
				default:
					app.println(cmd, renderInbox(st, p.Collaboration.Pending(), p.Notifications.UnreadCount()))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&accept, "accept", "", "Accept the invite with this id")
	cmd.Flags().StringVar(&decline, "decline", "", "Decline the invite with this id")
	cmd.MarkFlagsMutuallyExclusive("accept", "decline")
	return cmd
}

// resolveRequest matches a received request by id or unique id prefix.
func resolveRequest(p *service.Planner, ref string) (string, error) {
	var match string
	for _, req := range p.Collaboration.Inbox() {
		if req.ID == ref {
			return req.ID, nil
		}
		if strings.HasPrefix(req.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("invite id %q is ambiguous", ref)
			}
			match = req.ID
		}
	}
	if match == "" {
		return "", errNotFound("invite", ref)
	}
	return match, nil
}
