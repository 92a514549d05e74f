package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Unset flags keep the stored value.
type EditCmd struct {
	title       string
	description string
	image       string
	video       string
	clearImage  bool
	clearVideo  bool
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return []string{"update"} }
func (c *EditCmd) Synopsis() string   { return "Change a task" }
func (c *EditCmd) NeedsService() bool { return true }
func (c *EditCmd) NeedsAuth() bool    { return true }

func (c *EditCmd) Usage() string {
	return "taskboard edit <id> [--title <t>] [-d <description>] [--image <file>] [--video <file>] [--clear-image] [--clear-video]"
}

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
	fs.StringVar(&c.image, "image", "", "image file to attach")
	fs.StringVar(&c.video, "video", "", "video file to attach")
	fs.BoolVar(&c.clearImage, "clear-image", false, "remove the image")
	fs.BoolVar(&c.clearVideo, "clear-video", false, "remove the video")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := parseTaskID(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if c.image != "" && c.clearImage {
		fmt.Fprintln(errOut, "error: cannot use both --image and --clear-image")
		return exitcode.UserError
	}
	if c.video != "" && c.clearVideo {
		fmt.Fprintln(errOut, "error: cannot use both --video and --clear-video")
		return exitcode.UserError
	}

	task, err := findTask(ctx, svc, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			fmt.Fprintf(errOut, "error: task not found: %d\n", id)
			return exitcode.UserError
		}
		return fail(errOut, err)
	}

	form := app.FormFromTask(task)
	if c.title != "" {
		form.Title = c.title
	}
	if c.description != "" {
		form.Description = c.description
	}
	if c.clearImage {
		form.ImageURL = ""
	}
	if c.clearVideo {
		form.VideoURL = ""
	}
	if err := form.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if c.image != "" {
		url, err := uploadFile(ctx, cfg, svc, service.CategoryImage, c.image)
		if err != nil {
			return failUpload(errOut, err)
		}
		form.ImageURL = url
	}
	if c.video != "" {
		url, err := uploadFile(ctx, cfg, svc, service.CategoryVideo, c.video)
		if err != nil {
			return failUpload(errOut, err)
		}
		form.VideoURL = url
	}

	if _, err := svc.UpdateTask(ctx, id, form.Fields()); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			fmt.Fprintf(errOut, "error: task not found: %d\n", id)
			return exitcode.UserError
		}
		return fail(errOut, err)
	}

	ok(cfg, out)
	return exitcode.Success
}

// findTask returns the stored task with the given id.
func findTask(ctx context.Context, svc service.TaskTable, id int64) (service.Task, error) {
	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return service.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, service.ErrNotFound
}
