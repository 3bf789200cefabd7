package cmd

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/teamshare/backend/cli/internal/api"
	"github.com/teamshare/backend/cli/internal/output"
	"github.com/teamshare/backend/cli/internal/pathutil"
)

var (
	flagForce    bool
	flagOutput   string
	flagInterval time.Duration
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage a team's shared files",
}

var filesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the team's files, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := authedTeam()
		if err != nil {
			return err
		}

		files, err := pathutil.List(apiClient, team)
		if err != nil {
			return fmt.Errorf("listing files: %w", err)
		}

		if flagJSON {
			output.JSON(files)
			return nil
		}
		output.FileTable(files)
		return nil
	},
}

var filesInfoCmd = &cobra.Command{
	Use:   "info <name|id>",
	Short: "Show a file's details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := authedTeam()
		if err != nil {
			return err
		}
		f, err := pathutil.Resolve(apiClient, team, args[0])
		if err != nil {
			return err
		}
		if flagJSON {
			output.JSON(f)
			return nil
		}
		output.FileDetail(f)
		return nil
	},
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Upload a file to the team",
	Long: `Upload a local file. Progress is reported by the server while the
transfer runs; press Ctrl+C to cancel it.

  teamshare files upload report.pdf --team t1`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <name|id>",
	Short: "Delete a file",
	Long: `Delete a file from the team's storage and listing.

  teamshare files rm old-report.pdf
  teamshare files rm old-report.pdf --force     Skip confirmation`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

var filesDownloadCmd = &cobra.Command{
	Use:   "download <name|id>",
	Short: "Download a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

var filesStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show upload progress and the last error for the team",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		team, err := authedTeam()
		if err != nil {
			return err
		}
		status, err := fetchStatus(team)
		if err != nil {
			return err
		}
		if flagJSON {
			output.JSON(status)
			return nil
		}
		if status.Uploading {
			fmt.Printf("Uploading: %d%%\n", status.Progress)
		} else {
			fmt.Println("No upload in progress.")
		}
		if status.LastError != "" {
			fmt.Printf("Last error: %s\n", status.LastError)
		}
		return nil
	},
}

func init() {
	filesRmCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "Skip confirmation prompt")
	filesDownloadCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: the file's name)")
	filesUploadCmd.Flags().DurationVar(&flagInterval, "poll", 500*time.Millisecond, "How often to poll upload progress")

	filesCmd.AddCommand(filesLsCmd, filesInfoCmd, filesUploadCmd, filesRmCmd, filesDownloadCmd, filesStatusCmd)
	rootCmd.AddCommand(filesCmd)
}

func authedTeam() (string, error) {
	if err := requireAuth(); err != nil {
		return "", err
	}
	return currentTeam()
}

func fetchStatus(team string) (api.PanelStatus, error) {
	var resp api.Response[api.PanelStatus]
	if err := apiClient.Get(api.TeamFilesPath(team)+"/status", nil, &resp); err != nil {
		return api.PanelStatus{}, fmt.Errorf("fetching status: %w", err)
	}
	return resp.Data, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	team, err := authedTeam()
	if err != nil {
		return err
	}

	localPath := args[0]
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}
	name := filepath.Base(localPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchUpload(ctx, team, name, done)
	}()

	var resp api.Response[api.File]
	uploadErr := apiClient.Upload(api.TeamFilesPath(team), "file", localPath, &resp)
	close(done)
	wg.Wait()

	if !flagJSON {
		fmt.Print(output.ProgressEnd(name, uploadErr))
	}
	if uploadErr != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("upload of %s cancelled", name)
		}
		return fmt.Errorf("uploading %s: %w", name, uploadErr)
	}

	if flagJSON {
		output.JSON(resp.Data)
		return nil
	}
	fmt.Printf("Uploaded %s (%s)\n", resp.Data.Name, output.FormatSize(resp.Data.Size))
	return nil
}

// watchUpload prints server-side progress until done. An interrupt asks the
// server to cancel the transfer.
func watchUpload(ctx context.Context, team, name string, done <-chan struct{}) {
	ticker := time.NewTicker(flagInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			_ = apiClient.Post(api.TeamFilesPath(team)+"/upload/cancel", nil, nil)
			<-done
			return
		case <-ticker.C:
			status, err := fetchStatus(team)
			if err != nil || !status.Uploading || flagJSON {
				continue
			}
			fmt.Print(output.Progress(name, status.Progress))
		}
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	team, err := authedTeam()
	if err != nil {
		return err
	}

	f, err := pathutil.Resolve(apiClient, team, args[0])
	if err != nil {
		return err
	}

	if !flagForce {
		fmt.Printf("Are you sure you want to delete %q? This cannot be undone. [y/N] ", f.Name)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	var resp api.Response[api.DeleteResult]
	params := url.Values{"confirm": {"true"}}
	if err := apiClient.Delete(api.TeamFilesPath(team)+"/"+f.ID, params, &resp); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}

	if flagJSON {
		output.JSON(resp.Data)
		return nil
	}

	switch resp.Data.Outcome {
	case "orphaned_blob":
		fmt.Printf("Removed %s from the list, but its stored data could not be deleted: %s\n", f.Name, resp.Data.BlobError)
	case "broken_link":
		fmt.Printf("Deleted the stored data of %s, but it is still listed: %s\n", f.Name, resp.Data.MetadataError)
	default:
		fmt.Printf("Deleted: %s\n", f.Name)
	}
	if !resp.Success {
		return fmt.Errorf("delete of %s was incomplete", f.Name)
	}
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	team, err := authedTeam()
	if err != nil {
		return err
	}

	f, err := pathutil.Resolve(apiClient, team, args[0])
	if err != nil {
		return err
	}

	var resp api.Response[api.DownloadURLResponse]
	params := url.Values{"redirect": {"false"}}
	if err := apiClient.Get(api.TeamFilesPath(team)+"/"+f.ID+"/download", params, &resp); err != nil {
		return fmt.Errorf("getting download url: %w", err)
	}

	dest := flagOutput
	if dest == "" {
		dest = filepath.Base(f.Name)
	}
	if err := apiClient.DownloadToFile(resp.Data.URL, dest); err != nil {
		return fmt.Errorf("downloading %s: %w", f.Name, err)
	}

	fmt.Printf("Downloaded %s (%s) to %s\n", f.Name, output.FormatSize(f.Size), dest)
	return nil
}
