package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	image       string
	video       string
}

// SetDescription sets the description (for testing).
func (c *AddCmd) SetDescription(d string) {
	c.description = d
}

// SetAttachments sets the image and video file paths (for testing).
func (c *AddCmd) SetAttachments(image, video string) {
	c.image, c.video = image, video
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) NeedsService() bool { return true }
func (c *AddCmd) NeedsAuth() bool    { return true }

func (c *AddCmd) Usage() string {
	return "taskboard add -d <description> [--image <file>] [--video <file>] <title...>"
}

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
	fs.StringVar(&c.image, "image", "", "image file to attach")
	fs.StringVar(&c.video, "video", "", "video file to attach")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	form := app.Form{
		Title:       strings.Join(args, " "),
		Description: c.description,
	}
	if err := form.Validate(); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	// Attachments are uploaded first so a bad file creates nothing.
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

	task, err := svc.InsertTask(ctx, form.Fields())
	if err != nil {
		return fail(errOut, err)
	}
	cfg.Logger().Printf("created task %d", task.ID)

	ok(cfg, out)
	return exitcode.Success
}
