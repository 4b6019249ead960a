package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/build-fetch-go/internal/domain"
	"github.com/yourusername/build-fetch-go/pkg/logger"
	"github.com/yourusername/build-fetch-go/pkg/progress"
)

var (
	serverURL   string
	noAutoStart bool
	verbose     bool
	log         = zap.NewNop()
	rootCmd     = &cobra.Command{
		Use:   "build-fetch",
		Short: "Build Fetch CLI - download and unpack versioned builds",
		Long:  `A command-line interface for downloading builds by URL or by manifest version, and for extracting them.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.NewCLI(verbose)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(manifestCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(installDirCmd)
}

// client checks the server is running, starting it if needed (unless --no-auto-start)
func client() *apiClient {
	if !noAutoStart {
		if err := ensureServerRunning(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return newAPIClient(serverURL)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List versions available on the manifest server",
	Run: func(cmd *cobra.Command, args []string) {
		var result struct {
			Versions []string `json:"versions"`
		}
		exitOnError(client().get("/api/v1/versions", nil, &result))

		for _, label := range result.Versions {
			numeric, err := domain.ExtractVersion(label)
			if err != nil {
				numeric = "-"
			}
			fmt.Printf("%-8s %s\n", numeric, label)
		}
	},
}

var manifestCmd = &cobra.Command{
	Use:   "manifest [version]",
	Short: "Show the manifest of a version",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var result struct {
			Manifest domain.ManifestFile `json:"manifest"`
			Chunks   int                 `json:"chunks"`
		}
		exitOnError(client().get("/api/v1/versions/"+url.PathEscape(args[0])+"/manifest", nil, &result))

		m := result.Manifest
		fmt.Printf("Manifest %s: %s in %d files, %d chunks\n",
			m.Name, progress.FormatBytes(m.Size), len(m.Chunks), result.Chunks)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tSIZE\tCHUNKS")
		for _, f := range m.Chunks {
			fmt.Fprintf(w, "%s\t%s\t%d\n", f.File, progress.FormatBytes(f.FileSize), len(f.ChunkIDs))
		}
		w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Start a download by URL or by manifest version",
	Run: func(cmd *cobra.Command, args []string) {
		req := domain.DownloadRequest{}
		req.JobID, _ = cmd.Flags().GetString("job")
		req.URL, _ = cmd.Flags().GetString("url")
		req.Version, _ = cmd.Flags().GetString("version")
		req.Destination, _ = cmd.Flags().GetString("dest")
		req.Extract, _ = cmd.Flags().GetBool("extract")
		req.DeleteAfterExtract, _ = cmd.Flags().GetBool("delete-archive")
		req.UseManifest = req.Version != ""
		wait, _ := cmd.Flags().GetBool("wait")

		if req.URL == "" && req.Version == "" {
			exitOnError(fmt.Errorf("one of --url or --version is required"))
		}

		c := client()
		if req.Destination == "" {
			var dir struct {
				Path string `json:"path"`
			}
			exitOnError(c.get("/api/v1/install-dir", nil, &dir))
			req.Destination = defaultDestination(dir.Path, req.URL)
		}

		if req.JobID == "" {
			req.JobID = uuid.New().String()
		}
		submit := func() error {
			var result struct {
				JobID string `json:"job_id"`
				Mode  string `json:"mode"`
			}
			if err := c.post("/api/v1/downloads", req, &result); err != nil {
				return err
			}
			fmt.Printf("Download started: %s (%s)\n", result.JobID, result.Mode)
			return nil
		}

		if !wait {
			exitOnError(submit())
			return
		}
		exitOnError(watchJob(c, req.JobID, submit))
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract [archive]",
	Short: "Extract a zip archive",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := domain.ExtractRequest{Archive: args[0]}
		req.JobID, _ = cmd.Flags().GetString("job")
		req.Destination, _ = cmd.Flags().GetString("dest")
		req.DeleteArchive, _ = cmd.Flags().GetBool("delete-archive")
		wait, _ := cmd.Flags().GetBool("wait")

		if req.JobID == "" {
			req.JobID = uuid.New().String()
		}
		c := client()
		submit := func() error {
			var result struct {
				JobID       string `json:"job_id"`
				Destination string `json:"destination"`
			}
			if err := c.post("/api/v1/extractions", req, &result); err != nil {
				return err
			}
			fmt.Printf("Extraction started: %s -> %s\n", result.JobID, result.Destination)
			return nil
		}

		if !wait {
			exitOnError(submit())
			return
		}
		exitOnError(watchJob(c, req.JobID, submit))
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [job]",
	Short: "Cancel a running download or extraction",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		kind := "downloads"
		if extraction, _ := cmd.Flags().GetBool("extraction"); extraction {
			kind = "extractions"
		}

		var result struct {
			Cancelled bool `json:"cancelled"`
		}
		exitOnError(client().post("/api/v1/"+kind+"/"+url.PathEscape(args[0])+"/cancel", nil, &result))
		if result.Cancelled {
			fmt.Println("Job cancelled")
		} else {
			fmt.Println("Job is not active")
		}
	},
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List running downloads and extractions",
	Run: func(cmd *cobra.Command, args []string) {
		c := client()
		for _, kind := range []string{"downloads", "extractions"} {
			var result struct {
				Active []string `json:"active"`
			}
			exitOnError(c.get("/api/v1/"+kind+"/active", nil, &result))
			fmt.Printf("%s (%d)\n", kind, len(result.Active))
			for _, id := range result.Active {
				fmt.Printf("  %s\n", id)
			}
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show download history",
	Run: func(cmd *cobra.Command, args []string) {
		query := url.Values{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			query.Set("status", status)
		}
		if jobID, _ := cmd.Flags().GetString("job"); jobID != "" {
			query.Set("job_id", jobID)
		}

		var result struct {
			Downloads []domain.JobRecord `json:"downloads"`
		}
		exitOnError(client().get("/api/v1/downloads", query, &result))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tMODE\tSOURCE\tSTATUS\tSIZE\tCREATED")
		for _, r := range result.Downloads {
			status := string(r.Status)
			if r.ErrorKind != "" {
				status += " (" + r.ErrorKind + ")"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				truncate(r.JobID, 12),
				r.Mode,
				truncate(r.Source, 40),
				status,
				progress.FormatBytes(r.DownloadedBytes),
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show download statistics",
	Run: func(cmd *cobra.Command, args []string) {
		var stats domain.JobStats
		exitOnError(client().get("/api/v1/downloads/stats", nil, &stats))

		fmt.Println("Download Statistics:")
		fmt.Printf("  Total:     %d\n", stats.Total)
		fmt.Printf("  Running:   %d\n", stats.Running)
		fmt.Printf("  Completed: %d\n", stats.Completed)
		fmt.Printf("  Failed:    %d\n", stats.Failed)
		fmt.Printf("  Cancelled: %d\n", stats.Cancelled)
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [job]",
	Short: "Follow the progress of a job until it finishes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(watchJob(client(), args[0], nil))
	},
}

var installDirCmd = &cobra.Command{
	Use:   "install-dir",
	Short: "Print the default install directory",
	Run: func(cmd *cobra.Command, args []string) {
		var dir struct {
			Path string `json:"path"`
		}
		exitOnError(client().get("/api/v1/install-dir", nil, &dir))
		fmt.Println(dir.Path)
	},
}

func init() {
	downloadCmd.Flags().StringP("url", "u", "", "URL of a single artifact")
	downloadCmd.Flags().String("version", "", "Manifest version label, e.g. 12.41")
	downloadCmd.Flags().StringP("dest", "d", "", "Destination file (url) or install root (version)")
	downloadCmd.Flags().String("job", "", "Job id (generated when empty)")
	downloadCmd.Flags().BoolP("extract", "x", false, "Extract the archive after downloading")
	downloadCmd.Flags().Bool("delete-archive", false, "Delete the archive after extracting")
	downloadCmd.Flags().BoolP("wait", "w", false, "Follow progress until the job finishes")

	extractCmd.Flags().StringP("dest", "d", "", "Destination directory (archive path without extension by default)")
	extractCmd.Flags().String("job", "", "Job id (generated when empty)")
	extractCmd.Flags().Bool("delete-archive", false, "Delete the archive after extracting")
	extractCmd.Flags().BoolP("wait", "w", false, "Follow progress until the job finishes")

	cancelCmd.Flags().Bool("extraction", false, "Cancel an extraction instead of a download")

	historyCmd.Flags().StringP("status", "s", "", "Filter by status")
	historyCmd.Flags().String("job", "", "Filter by job id")
}

// watchJob subscribes to jobID's events, then runs submit when given, and
// follows the job until it finishes. Without submit the job must already be
// running.
func watchJob(c *apiClient, jobID string, submit func() error) error {
	wsURL, err := c.eventsURL(jobID)
	if err != nil {
		return err
	}
	conn, err := dialEvents(wsURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if submit != nil {
		if err := submit(); err != nil {
			return err
		}
	} else if !c.isActive(jobID) {
		return fmt.Errorf("job %s is not running", jobID)
	}

	w := &jobWatcher{out: os.Stdout, logger: log}
	return w.follow(conn, jobID)
}

// defaultDestination is the install dir for manifest downloads, or the URL's
// file name inside it for single artifacts
func defaultDestination(installDir, rawURL string) string {
	if rawURL == "" {
		return installDir
	}
	name := "download"
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			name = base
		}
	}
	return filepath.Join(installDir, name)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
