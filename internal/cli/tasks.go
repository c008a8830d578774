package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mentalist/internal/model"
	"mentalist/internal/service"
)

func newAddCmd(app *App) *cobra.Command {
	var (
		list     string
		parent   string
		notes    string
		due      string
		remind   string
		priority string
		schedule string
		private  bool
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task to a list, or a subtask with --parent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			if schedule != "" && parent != "" {
				return fmt.Errorf("--schedule plans a top-level task and cannot be combined with --parent")
			}
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				var patch model.TaskPatch
				if notes != "" {
					patch.Notes = &notes
				}
				if due != "" {
					date := p.Today()
					if due != "today" {
						parsed, err := service.ParseDate(due)
						if err != nil {
							return err
						}
						date = parsed
					}
					patch.DueDate = &date
				}
				if remind != "" {
					at, err := service.ParseReminderTime(remind)
					if err != nil {
						return err
					}
					patch.ReminderTime = &at
					if patch.DueDate == nil {
						today := p.Today()
						patch.DueDate = &today
					}
				}
				if priority != "" {
					pr := model.Priority(strings.ToLower(priority))
					if !pr.Valid() {
						return fmt.Errorf("priority must be low, medium or high, got %q", priority)
					}
					patch.Priority = &pr
				}
				if private {
					patch.IsPrivate = &private
				}

				var task model.Task
				if parent != "" {
					parentID, err := resolveTask(p, parent)
					if err != nil {
						return err
					}
					task, _ = p.Tasks.AddSubtask(parentID, title)
				} else {
					categoryID := p.Categories.Active()
					if list != "" {
						if _, ok := p.Categories.Get(list); !ok {
							return errNotFound("list", list)
						}
						categoryID = list
					}
					if schedule != "" {
						planned, err := p.PlanAhead(cmd.Context(), title, categoryID, schedule)
						if err != nil {
							return err
						}
						task = planned
					} else {
						task = p.Tasks.Create(title, categoryID, "")
					}
				}
				if !patch.IsEmpty() {
					p.Tasks.Update(task.ID, patch)
				}

				where := "under " + parent
				if parent == "" {
					cat, _ := p.Categories.Get(task.CategoryIDs[0])
					where = "to " + cat.Icon + " " + cat.Name
				}
				if task.ScheduledDate != "" {
					where += ", planned for " + service.HumanDate(task.ScheduledDate)
				}
				app.println(cmd, fmt.Sprintf("Added %s %s %s", st.accent.Render(shortID(task.ID)), task.Title, st.muted.Render(where)))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&list, "list", "l", "", "List id (default: the active list)")
	cmd.Flags().StringVarP(&parent, "parent", "p", "", "Add as a subtask of this task")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Notes")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD or today)")
	cmd.Flags().StringVar(&remind, "remind", "", "Reminder time (HH:MM); defaults the due date to today")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&schedule, "schedule", "", "Plan the task for a later day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&private, "private", false, "Hide the task from every list")
	return cmd
}

func newListCmd(app *App) *cobra.Command {
	var hidden bool

	cmd := &cobra.Command{
		Use:   "list [list-id]",
		Short: "Show the tasks of a list (default: the active list)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				today := p.Today()
				if hidden {
					lines := append([]string{st.title.Render("🔒 Private")}, renderTaskTree(st, p.Tasks.Hidden(), today, 1)...)
					app.println(cmd, strings.Join(lines, "\n"))
					return nil
				}

				categoryID := p.Categories.Active()
				if len(args) == 1 {
					categoryID = args[0]
				}
				cat, ok := p.Categories.Get(categoryID)
				if !ok {
					return errNotFound("list", categoryID)
				}
				app.println(cmd, renderList(st, cat, p.Tasks.FilterByCategory(categoryID), today))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Show private tasks instead")
	return cmd
}

func newDoneCmd(app *App) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Mark a task as done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				id, err := resolveTask(p, args[0])
				if err != nil {
					return err
				}
				completed := !undo
				p.Tasks.Update(id, model.TaskPatch{IsCompleted: &completed})
				task, _ := p.Tasks.Find(id)
				if completed {
					app.println(cmd, "Done: "+task.Title)
				} else {
					app.println(cmd, "Reopened: "+task.Title)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Reopen the task instead")
	return cmd
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task with its subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				id, err := resolveTask(p, args[0])
				if err != nil {
					return err
				}
				task, _ := p.Tasks.Find(id)
				p.Tasks.Delete(id)
				app.println(cmd, "Deleted: "+task.Title)
				return nil
			})
		},
	}
}

func newAttachCmd(app *App) *cobra.Command {
	var (
		note   string
		file   string
		remove string
	)

	cmd := &cobra.Command{
		Use:   "attach <task-id>",
		Short: "Pin a note or a file to a task, or list its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set := 0
			for _, v := range []string{note, file, remove} {
				if v != "" {
					set++
				}
			}
			if set > 1 {
				return fmt.Errorf("use only one of --note, --file and --rm")
			}

			var data []byte
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read attachment: %w", err)
				}
				data = raw
			}

			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				id, err := resolveTask(p, args[0])
				if err != nil {
					return err
				}
				switch {
				case note != "":
					att, ok := p.Tasks.AttachNote(id, note)
					if !ok {
						return fmt.Errorf("note is empty")
					}
					app.println(cmd, fmt.Sprintf("Attached %s %s", st.accent.Render(shortID(att.ID)), att.Name))
				case file != "":
					att, _ := p.Tasks.AttachFile(id, file, data)
					app.println(cmd, fmt.Sprintf("Attached %s %s %s", st.accent.Render(shortID(att.ID)), att.Name, st.muted.Render("("+string(att.Type)+")")))
				case remove != "":
					task, _ := p.Tasks.Find(id)
					attID, ok := resolveAttachment(task, remove)
					if !ok || !p.Tasks.RemoveAttachment(id, attID) {
						return errNotFound("attachment", remove)
					}
					app.println(cmd, "Removed attachment "+remove)
				default:
					task, _ := p.Tasks.Find(id)
					app.println(cmd, renderAttachments(st, task))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "Text note to pin")
	cmd.Flags().StringVar(&file, "file", "", "Image or document to pin")
	cmd.Flags().StringVar(&remove, "rm", "", "Attachment id to remove")
	return cmd
}

// resolveAttachment matches a full or short attachment id.
func resolveAttachment(task model.Task, ref string) (string, bool) {
	for _, att := range task.Attachments {
		if att.ID == ref || shortID(att.ID) == ref {
			return att.ID, true
		}
	}
	return "", false
}

func newSearchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find tasks and direct subtasks by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				app.println(cmd, renderSearch(st, query, p.Tasks.Search(query, p.Categories.List())))
				return nil
			})
		},
	}
}

func newBreakdownCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "breakdown <task-id>",
		Short: "Ask Gemini for subtasks (needs GEMINI_API_KEY)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.withPlanner(cmd, func(p *service.Planner, st styles) error {
				id, err := resolveTask(p, args[0])
				if err != nil {
					return err
				}
				created := p.BreakDown(cmd.Context(), id)
				if len(created) == 0 {
					app.println(cmd, st.muted.Render("no suggestions"))
					return nil
				}
				for _, sub := range created {
					app.println(cmd, "  + "+sub.Title)
				}
				return nil
			})
		},
	}
}
