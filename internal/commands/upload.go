package commands

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"taskboard/internal/config"
	"taskboard/internal/exitcode"
	"taskboard/internal/service"
)

func init() {
	Register(&UploadCmd{})
}

// UploadCmd implements the upload command. It prints the public URL.
type UploadCmd struct {
	category string
}

func (c *UploadCmd) Name() string       { return "upload" }
func (c *UploadCmd) Aliases() []string  { return nil }
func (c *UploadCmd) Synopsis() string   { return "Upload an attachment and print its URL" }
func (c *UploadCmd) Usage() string      { return "taskboard upload [--category image|video] <file>" }
func (c *UploadCmd) NeedsService() bool { return true }
func (c *UploadCmd) NeedsAuth() bool    { return true }

func (c *UploadCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.category, "category", "c", "", "image or video (default: from the file extension)")
}

func (c *UploadCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: exactly one file required")
		return exitcode.UserError
	}
	path := args[0]

	cat := service.Category(strings.ToLower(c.category))
	if cat == "" {
		cat = guessCategory(path)
	}
	if !cat.Valid() {
		fmt.Fprintln(errOut, "error: --category must be image or video")
		return exitcode.UserError
	}

	url, err := uploadFile(ctx, cfg, svc, cat, path)
	if err != nil {
		return failUpload(errOut, err)
	}
	fmt.Fprintln(out, url)
	return exitcode.Success
}

// guessCategory maps a file extension to a category, or "" if unknown.
func guessCategory(path string) service.Category {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	switch {
	case strings.HasPrefix(t, "image/"):
		return service.CategoryImage
	case strings.HasPrefix(t, "video/"):
		return service.CategoryVideo
	}
	return ""
}
