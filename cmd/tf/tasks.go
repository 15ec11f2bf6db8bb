// cmd/tf/tasks.go
package main

import (
	"context"
	"flag"
	"regexp"
	"strings"

	"github.com/shezi1344/taskflow-cli/internal/api"
	"github.com/shezi1344/taskflow-cli/internal/errs"
	"github.com/shezi1344/taskflow-cli/internal/tasks"
	"github.com/shezi1344/taskflow-cli/internal/token"
)

// ------- validators -------

var reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLen = 8

// validateSignIn runs the form-level checks that never reach the network.
func validateSignIn(email, password string) error {
	if !reEmail.MatchString(email) {
		return errs.New(errs.KindValidationFailed, "invalid email address")
	}
	if password == "" {
		return errs.New(errs.KindValidationFailed, "password is required")
	}
	return nil
}

func validateSignUp(email, password, confirm, name string) error {
	if err := validateSignIn(email, password); err != nil {
		return err
	}
	if len(password) < minPasswordLen {
		return errs.Newf(errs.KindValidationFailed,
			"password must be at least %d characters", minPasswordLen)
	}
	if password != confirm {
		return errs.New(errs.KindValidationFailed, "passwords do not match")
	}
	if strings.TrimSpace(name) == "" {
		return errs.New(errs.KindValidationFailed, "name is required")
	}
	return nil
}

// ------- subcommands -------

// runTask dispatches the task CRUD subcommands.
func runTask(ctx context.Context, client *api.Client, store token.Store, sub string, args []string) {
	svc := tasks.NewService(client, store, nil)

	switch sub {

	case "list":
		fs := flag.NewFlagSet("task list", flag.ExitOnError)
		status := fs.String("status", "all", "filter: all|pending|completed")
		sort := fs.String("sort", "", "sort order")
		_ = fs.Parse(args)

		out, err := svc.List(ctx, *status, *sort)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "add":
		fs := flag.NewFlagSet("task add", flag.ExitOnError)
		title := fs.String("title", "", "task title")
		desc := fs.String("desc", "", "description")
		_ = fs.Parse(args)
		if strings.TrimSpace(*title) == "" {
			fail(errs.New(errs.KindValidationFailed, "title is required"))
		}

		out, err := svc.Create(ctx, tasks.CreateInput{Title: *title, Description: *desc})
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "edit":
		fs := flag.NewFlagSet("task edit", flag.ExitOnError)
		id := fs.Int64("id", 0, "task id")
		title := fs.String("title", "", "new title (unchanged if empty)")
		desc := fs.String("desc", "", "new description (unchanged if empty)")
		_ = fs.Parse(args)
		if *id <= 0 {
			fail(errs.New(errs.KindValidationFailed, "need -id"))
		}

		var in tasks.UpdateInput
		if *title != "" {
			in.Title = title
		}
		if *desc != "" {
			in.Description = desc
		}
		out, err := svc.Update(ctx, *id, in)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "done":
		fs := flag.NewFlagSet("task done", flag.ExitOnError)
		id := fs.Int64("id", 0, "task id")
		undo := fs.Bool("undo", false, "mark as not completed")
		_ = fs.Parse(args)
		if *id <= 0 {
			fail(errs.New(errs.KindValidationFailed, "need -id"))
		}

		out, err := svc.Toggle(ctx, *id, !*undo)
		if err != nil {
			fail(err)
		}
		printJSON(out)

	case "rm":
		fs := flag.NewFlagSet("task rm", flag.ExitOnError)
		id := fs.Int64("id", 0, "task id")
		_ = fs.Parse(args)
		if *id <= 0 {
			fail(errs.New(errs.KindValidationFailed, "need -id"))
		}

		if err := svc.Delete(ctx, *id); err != nil {
			fail(err)
		}
		printJSON(map[string]bool{"success": true})

	default:
		usage()
	}
}
