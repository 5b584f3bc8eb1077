package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mubashirhassanpk/react-static-magic/cli/output"
	"github.com/mubashirhassanpk/react-static-magic/cli/util"
)

var buildsCmd = &cobra.Command{
	Use:     "builds",
	Aliases: []string{"jobs"},
	Short:   "Manage build jobs on a server",
	Long:    `Submit project archives to a StaticMagic server and manage the resulting build jobs.`,
}

var (
	buildsStatusFilter string
	buildsLimit        int
	buildsOffset       int
	buildsBucket       string
	buildsDownloadOut  string
)

var buildsSubmitCmd = &cobra.Command{
	Use:   "submit [project.zip]",
	Short: "Upload a project archive",
	Long: `Upload a project archive and create a pending build job.

Examples:
  staticmagic builds submit ./my-app.zip`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireClient,
	RunE:    runBuildsSubmit,
}

var buildsProcessCmd = &cobra.Command{
	Use:   "process [id]",
	Short: "Run the build for an uploaded job",
	Long: `Run the build pipeline for a previously uploaded job and print the result.

Examples:
  staticmagic builds process 9b2f0f6e-6d0e-4b54-9c39-6f35e1a2d101`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireClient,
	RunE:    runBuildsProcess,
}

var buildsStatusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Get build job status",
	Long: `Get the status of a build job.

Examples:
  staticmagic builds status 9b2f0f6e-6d0e-4b54-9c39-6f35e1a2d101`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireClient,
	RunE:    runBuildsStatus,
}

var buildsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List build jobs",
	Long: `List build jobs, newest first.

Examples:
  staticmagic builds list
  staticmagic builds list --status failed --limit 20`,
	PreRunE: requireClient,
	RunE:    runBuildsList,
}

var buildsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show build job statistics",
	Long: `Display aggregate statistics about build jobs.

Examples:
  staticmagic builds stats`,
	PreRunE: requireClient,
	RunE:    runBuildsStats,
}

var buildsDownloadCmd = &cobra.Command{
	Use:   "download [id]",
	Short: "Download the built bundle",
	Long: `Download the deployable bundle of a completed build job.

Examples:
  staticmagic builds download 9b2f0f6e-6d0e-4b54-9c39-6f35e1a2d101
  staticmagic builds download 9b2f0f6e-6d0e-4b54-9c39-6f35e1a2d101 --out dist.zip`,
	Args:    cobra.ExactArgs(1),
	PreRunE: requireClient,
	RunE:    runBuildsDownload,
}

func init() {
	// List flags
	buildsListCmd.Flags().StringVar(&buildsStatusFilter, "status", "", "Filter by status (pending, processing, completed, failed)")
	buildsListCmd.Flags().IntVar(&buildsLimit, "limit", 50, "Maximum number of jobs to return")
	buildsListCmd.Flags().IntVar(&buildsOffset, "offset", 0, "Number of jobs to skip")

	// Download flags
	buildsDownloadCmd.Flags().StringVar(&buildsDownloadOut, "out", "site.zip", "Output path for the downloaded bundle")
	buildsDownloadCmd.Flags().StringVar(&buildsBucket, "bucket", "build-outputs", "Server-side bucket holding build outputs")

	buildsCmd.AddCommand(buildsSubmitCmd)
	buildsCmd.AddCommand(buildsProcessCmd)
	buildsCmd.AddCommand(buildsStatusCmd)
	buildsCmd.AddCommand(buildsListCmd)
	buildsCmd.AddCommand(buildsStatsCmd)
	buildsCmd.AddCommand(buildsDownloadCmd)
}

func runBuildsSubmit(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	file, err := os.Open(filePath) //nolint:gosec // CLI tool reads user-provided file path
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// Create multipart form
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Uploads can outlast the client's default timeout
	originalTimeout := apiClient.HTTPClient.Timeout
	apiClient.HTTPClient.Timeout = 5 * time.Minute
	defer func() { apiClient.HTTPClient.Timeout = originalTimeout }()

	uploadURL := apiClient.BaseURL + "/api/v1/builds/"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &buf)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := apiClient.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed: %s", strings.TrimSpace(string(body)))
	}

	var job map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return fmt.Errorf("failed to decode server response: %w", err)
	}

	jobID := getStringValue(job, "id")
	fmt.Printf("Uploaded '%s' (%s). Job ID: %s\n",
		filepath.Base(filePath), util.FormatBytes(fileInfo.Size()), jobID)
	fmt.Printf("Run 'staticmagic builds process %s' to start the build.\n", jobID)
	return nil
}

func runBuildsProcess(cmd *cobra.Command, args []string) error {
	id := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// The server runs the build synchronously, which can outlast the
	// client's default timeout
	originalTimeout := apiClient.HTTPClient.Timeout
	apiClient.HTTPClient.Timeout = 5 * time.Minute
	defer func() { apiClient.HTTPClient.Timeout = originalTimeout }()

	// Both successful and failed builds come back with the full result
	// body, so decode it regardless of the HTTP status
	resp, err := apiClient.Post(ctx, "/api/v1/builds/process", map[string]string{"job_id": id})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("process request failed with status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	formatter := GetFormatter()
	if formatter.Format != output.FormatTable {
		return formatter.Print(result)
	}

	if !quiet {
		for _, line := range getStringSlice(result, "logs") {
			fmt.Println(line)
		}
	}

	success, _ := result["success"].(bool)
	if !success {
		errMsg := getStringValue(result, "error")
		if errMsg == "" {
			errMsg = fmt.Sprintf("server returned status %d", resp.StatusCode)
		}
		return fmt.Errorf("build failed: %s", errMsg)
	}

	fmt.Println("\nBuild completed.")
	if stats := getMapValue(result, "stats"); stats != nil {
		fmt.Printf("Bundle size:   %s\n", util.FormatBytes(int64(getIntValue(stats, "bundleSize"))))
		fmt.Printf("CSS size:      %s\n", util.FormatBytes(int64(getIntValue(stats, "cssSize"))))
		fmt.Printf("Archive size:  %s\n", util.FormatBytes(int64(getIntValue(stats, "zipSize"))))
		fmt.Printf("Modules:       %d bundled, %d external\n",
			getIntValue(stats, "moduleCount"), getIntValue(stats, "externalCount"))
	}
	if downloadURL := getStringValue(result, "downloadUrl"); downloadURL != "" {
		fmt.Printf("Download:      %s\n", downloadURL)
	}
	if previewURL := getStringValue(result, "previewUrl"); previewURL != "" {
		fmt.Printf("Preview:       %s\n", previewURL)
	}
	return nil
}

func runBuildsStatus(cmd *cobra.Command, args []string) error {
	id := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var job map[string]interface{}
	if err := apiClient.DoGet(ctx, "/api/v1/builds/"+url.PathEscape(id), nil, &job); err != nil {
		return err
	}

	formatter := GetFormatter()
	return formatter.Print(job)
}

func runBuildsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	query := url.Values{}
	if buildsStatusFilter != "" {
		query.Set("status", buildsStatusFilter)
	}
	query.Set("limit", strconv.Itoa(buildsLimit))
	query.Set("offset", strconv.Itoa(buildsOffset))

	var response struct {
		Jobs   []map[string]interface{} `json:"jobs"`
		Limit  int                      `json:"limit"`
		Offset int                      `json:"offset"`
	}
	if err := apiClient.DoGet(ctx, "/api/v1/builds/", query, &response); err != nil {
		return err
	}

	if len(response.Jobs) == 0 {
		fmt.Println("No build jobs found.")
		return nil
	}

	formatter := GetFormatter()

	if formatter.Format == output.FormatTable {
		data := output.TableData{
			Headers: []string{"ID", "STATUS", "CREATED", "DURATION"},
			Rows:    make([][]string, len(response.Jobs)),
		}

		for i, job := range response.Jobs {
			id := getStringValue(job, "id")
			status := getStringValue(job, "status")
			created := formatTimestamp(getStringValue(job, "created_at"))
			duration := buildDuration(job)

			data.Rows[i] = []string{id, status, created, duration}
		}

		formatter.PrintTable(data)
	} else {
		formatter.Print(response.Jobs)
	}

	return nil
}

func runBuildsStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var stats map[string]interface{}
	if err := apiClient.DoGet(ctx, "/api/v1/builds/stats", nil, &stats); err != nil {
		return err
	}

	formatter := GetFormatter()
	return formatter.Print(stats)
}

func runBuildsDownload(cmd *cobra.Command, args []string) error {
	id := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Large bundles can outlast the client's default timeout
	originalTimeout := apiClient.HTTPClient.Timeout
	apiClient.HTTPClient.Timeout = 5 * time.Minute
	defer func() { apiClient.HTTPClient.Timeout = originalTimeout }()

	var job map[string]interface{}
	if err := apiClient.DoGet(ctx, "/api/v1/builds/"+url.PathEscape(id), nil, &job); err != nil {
		return err
	}

	outputPath := getStringValue(job, "output_path")
	if outputPath == "" {
		status := getStringValue(job, "status")
		return fmt.Errorf("build has no output to download (status: %s)", status)
	}

	downloadURL := apiClient.BaseURL + "/storage/" + buildsBucket + "/" + outputPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return err
	}

	resp, err := apiClient.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("download failed: %s", strings.TrimSpace(string(body)))
	}

	out, err := os.Create(buildsDownloadOut) //nolint:gosec // CLI tool writes user-provided file path
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = out.Close() }()

	n, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Downloaded %s (%s)\n", buildsDownloadOut, util.FormatBytes(n))
	return nil
}

// Helper functions

func getStringValue(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func getIntValue(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return 0
}

func getMapValue(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mm, ok := v.(map[string]interface{}); ok {
			return mm
		}
	}
	return nil
}

func getStringSlice(m map[string]interface{}, key string) []string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// formatTimestamp renders an RFC3339 timestamp for display
func formatTimestamp(ts string) string {
	if ts == "" {
		return "-"
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return ts
}

// buildDuration computes the wall-clock build time from job timestamps
func buildDuration(job map[string]interface{}) string {
	startedAt := getStringValue(job, "started_at")
	completedAt := getStringValue(job, "completed_at")
	if startedAt == "" || completedAt == "" {
		return "-"
	}

	start, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return "-"
	}
	end, err := time.Parse(time.RFC3339Nano, completedAt)
	if err != nil {
		return "-"
	}

	return util.FormatDuration(int64(end.Sub(start).Seconds()))
}
