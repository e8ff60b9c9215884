package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"videothingy/vault/internal/client"
	"videothingy/vault/models"
)

var (
	successColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgHiRed, color.Bold)
	dimColor     = color.New(color.FgWhite, color.Italic)
	titleColor   = color.New(color.Bold)
)

var errUsage = errors.New("usage")

type cli struct {
	api    *client.API
	state  *client.StateStore
	logger logrus.FieldLogger
	in     io.Reader
	out    io.Writer
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "folders":
		return c.folders(ctx, args)
	case "mkdir":
		if len(args) != 1 {
			return errUsage
		}
		return c.mkdir(ctx, args[0])
	case "upload":
		if len(args) < 2 {
			return errUsage
		}
		return c.upload(ctx, args[0], args[1:])
	case "videos":
		if len(args) != 1 {
			return errUsage
		}
		return c.videos(ctx, args[0])
	case "stream":
		return c.stream(ctx, args)
	case "captions":
		if len(args) != 1 {
			return errUsage
		}
		return c.captions(ctx, args[0])
	case "caption-status":
		if len(args) != 1 {
			return errUsage
		}
		return c.captionStatus(ctx, args[0])
	case "generate-captions":
		if len(args) != 1 {
			return errUsage
		}
		return c.generateCaptions(ctx, args[0])
	case "rm-video":
		if len(args) != 1 {
			return errUsage
		}
		return c.removeVideo(ctx, args[0])
	case "rm-folder":
		if len(args) != 1 {
			return errUsage
		}
		return c.removeFolder(ctx, args[0])
	case "watched":
		if len(args) != 1 {
			return errUsage
		}
		c.state.MarkCompleted(args[0])
		return c.state.Save()
	case "theme":
		if len(args) != 1 {
			return errUsage
		}
		if err := c.state.SetTheme(args[0]); err != nil {
			return err
		}
		return c.state.Save()
	}
	return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
}

func (c *cli) folders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("folders", flag.ContinueOnError)
	scroll := fs.Int("scroll", -1, "skip the first N folders and remember the position")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	folders, err := c.api.ListFolders(ctx)
	if err != nil {
		return err
	}

	if *scroll >= 0 {
		c.state.SetSidebarScroll(*scroll)
		if err := c.state.Save(); err != nil {
			return err
		}
	}
	st := c.state.Snapshot()
	start := min(st.SidebarScroll, len(folders))

	for _, f := range folders[start:] {
		marker := " "
		if f.ID == st.CurrentFolderID {
			marker = "*"
		}
		titleColor.Fprintf(c.out, "%s %s", marker, f.Name)
		dimColor.Fprintf(c.out, "  (%s, %d videos)\n", f.ID, len(f.Videos))
		for _, v := range f.Videos {
			c.printVideo(v)
		}
	}
	return nil
}

func (c *cli) printVideo(v models.Video) {
	watched := " "
	if c.state.IsCompleted(v.ID) {
		watched = successColor.Sprint("✓")
	}
	captions := ""
	if v.CaptionsReady {
		captions = " [cc]"
	}
	fmt.Fprintf(c.out, "    %s %s  %s  %s%s\n", watched, v.Name, formatDuration(v.Duration), formatBytes(float64(v.Size)), captions)
	dimColor.Fprintf(c.out, "      %s\n", v.ID)
}

func (c *cli) mkdir(ctx context.Context, name string) error {
	f, err := c.api.CreateFolder(ctx, name)
	if err != nil {
		return err
	}
	successColor.Fprintf(c.out, "Created folder %q (%s)\n", f.Name, f.ID)
	return nil
}

func (c *cli) upload(ctx context.Context, folderName string, paths []string) error {
	folder, err := c.api.GetFolderByName(ctx, folderName)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	lastStep := map[string]int{}
	uploader := client.NewUploader(c.api, c.logger, func(p client.Progress) {
		step := int(p.Percent) / 10
		mu.Lock()
		defer mu.Unlock()
		if prev, ok := lastStep[p.File]; ok && prev == step {
			return
		}
		lastStep[p.File] = step
		fmt.Fprintf(c.out, "%-30s %5.1f%%  %10s/s  ETA %s\n", p.File, p.Percent, formatBytes(p.BytesPerSec), p.ETA.Round(time.Second))
	})

	outcomes := uploader.Upload(ctx, folder.ID, paths)
	var failed int
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			errorColor.Fprintf(c.out, "✗ %s: %v\n", o.File, o.Err)
			continue
		}
		for _, v := range o.Videos {
			successColor.Fprintf(c.out, "✓ %s uploaded (%s)\n", v.Name, v.ID)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(paths))
	}
	return nil
}

func (c *cli) videos(ctx context.Context, folderName string) error {
	folder, err := c.api.GetFolderByName(ctx, folderName)
	if err != nil {
		return err
	}
	videos, err := c.api.GetVideosInFolder(ctx, folder.ID)
	if err != nil {
		return err
	}
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].Name < videos[j].Name })

	c.state.SetCurrentFolder(folder.ID)
	if err := c.state.Save(); err != nil {
		c.logger.Warnf("Could not save state: %v", err)
	}

	titleColor.Fprintf(c.out, "%s\n", folder.Name)
	if len(videos) == 0 {
		dimColor.Fprintln(c.out, "    (empty)")
	}
	for _, v := range videos {
		c.printVideo(v)
	}
	return nil
}

func (c *cli) stream(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	watch := fs.Bool("watch", false, "keep refreshing the URL until interrupted")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return errUsage
	}
	videoID := fs.Arg(0)

	if !*watch {
		signed, err := c.api.GetStreamURL(ctx, videoID)
		if err != nil {
			return err
		}
		c.printSigned(signed)
		return nil
	}

	refresher := client.NewURLRefresher(func(ctx context.Context) (*client.SignedURL, error) {
		return c.api.GetStreamURL(ctx, videoID)
	}, client.StreamRefreshInterval, c.logger, c.printSigned)
	return refresher.Run(ctx)
}

func (c *cli) printSigned(s *client.SignedURL) {
	fmt.Fprintln(c.out, s.URL)
	dimColor.Fprintf(c.out, "valid until %s\n", s.ExpiresAt.Local().Format(time.DateTime))
}

func (c *cli) captions(ctx context.Context, videoID string) error {
	signed, err := c.api.GetCaptionURL(ctx, videoID)
	if err != nil {
		return err
	}
	if signed == nil {
		warnColor.Fprintln(c.out, "No captions yet. Run generate-captions first.")
		return nil
	}
	c.printSigned(signed)
	return nil
}

func (c *cli) captionStatus(ctx context.Context, videoID string) error {
	ready, err := c.api.GetCaptionStatus(ctx, videoID)
	if err != nil {
		return err
	}
	if ready {
		successColor.Fprintln(c.out, "Captions ready")
	} else {
		warnColor.Fprintln(c.out, "Captions not generated")
	}
	return nil
}

func (c *cli) generateCaptions(ctx context.Context, videoID string) error {
	dimColor.Fprintln(c.out, "Transcribing, this can take a while...")
	key, err := c.api.GenerateCaptions(ctx, videoID)
	if err != nil {
		return err
	}
	successColor.Fprintf(c.out, "Captions stored at %s\n", key)
	return nil
}

func (c *cli) removeVideo(ctx context.Context, videoID string) error {
	folders, err := c.api.ListFolders(ctx)
	if err != nil {
		return err
	}
	var target *models.Video
	for _, f := range folders {
		for i := range f.Videos {
			if f.Videos[i].ID == videoID {
				target = &f.Videos[i]
			}
		}
	}
	if target == nil {
		return fmt.Errorf("video %s not found", videoID)
	}

	if err := client.ConfirmName(c.in, c.out, "video", target.Name); err != nil {
		return err
	}
	if err := c.api.DeleteVideo(ctx, videoID); err != nil {
		return err
	}
	c.state.Forget(videoID)
	if err := c.state.Save(); err != nil {
		c.logger.Warnf("Could not save state: %v", err)
	}
	successColor.Fprintf(c.out, "Deleted %q\n", target.Name)
	return nil
}

func (c *cli) removeFolder(ctx context.Context, name string) error {
	folder, err := c.api.GetFolderByName(ctx, name)
	if err != nil {
		return err
	}
	if err := client.ConfirmName(c.in, c.out, "folder", folder.Name); err != nil {
		return err
	}
	if err := c.api.DeleteFolder(ctx, folder.ID); err != nil {
		return err
	}

	for _, id := range folder.Videos {
		c.state.Forget(id)
	}
	if c.state.Snapshot().CurrentFolderID == folder.ID {
		c.state.SetCurrentFolder("")
	}
	if err := c.state.Save(); err != nil {
		c.logger.Warnf("Could not save state: %v", err)
	}
	successColor.Fprintf(c.out, "Deleted folder %q\n", folder.Name)
	return nil
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func formatBytes(n float64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%.0f %s", n, units[i])
	}
	return fmt.Sprintf("%.1f %s", n, units[i])
}
