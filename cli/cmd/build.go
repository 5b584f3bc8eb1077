package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mubashirhassanpk/react-static-magic/cli/util"
	"github.com/mubashirhassanpk/react-static-magic/internal/builder"
)

var buildCmd = &cobra.Command{
	Use:   "build [project.zip]",
	Short: "Build a project archive locally",
	Long: `Run the build pipeline on a local project archive without a server.

The archive must contain a React project with a package.json at its root
or one directory below it. The deployable bundle is written to --out.

Examples:
  staticmagic build ./my-app.zip
  staticmagic build ./my-app.zip --out dist.zip --preview
  staticmagic build ./my-app.zip --cdn-base https://esm.sh --source-root src`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

var (
	buildOut         string
	buildPreview     bool
	buildCDNBase     string
	buildAliasPrefix string
	buildSourceRoot  string
	buildTimeout     time.Duration
)

func init() {
	buildCmd.Flags().StringVar(&buildOut, "out", "site.zip", "Output path for the built bundle")
	buildCmd.Flags().BoolVar(&buildPreview, "preview", false, "Also write a self-contained preview.html next to the bundle")
	buildCmd.Flags().StringVar(&buildCDNBase, "cdn-base", "https://esm.sh", "CDN base URL for external dependencies")
	buildCmd.Flags().StringVar(&buildAliasPrefix, "alias-prefix", "@/", "Import alias prefix mapped onto the source root")
	buildCmd.Flags().StringVar(&buildSourceRoot, "source-root", "src", "Directory the alias prefix resolves into")
	buildCmd.Flags().DurationVar(&buildTimeout, "timeout", 2*time.Minute, "Maximum build duration")
}

func runBuild(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	data, err := os.ReadFile(inputPath) //nolint:gosec // CLI tool reads user-provided file path
	if err != nil {
		return fmt.Errorf("failed to read project archive: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()

	pipeline := builder.New(builder.Options{
		CDNBase:     buildCDNBase,
		AliasPrefix: buildAliasPrefix,
		SourceRoot:  buildSourceRoot,
	})

	start := time.Now()
	res, runErr := pipeline.Run(ctx, data)
	elapsed := time.Since(start)

	// The pipeline returns its log even on failure
	if !quiet && res != nil && res.Log != nil {
		for _, line := range res.Log.Lines() {
			fmt.Println(line)
		}
	}

	if runErr != nil {
		return fmt.Errorf("build failed: %w", runErr)
	}

	if err := os.WriteFile(buildOut, res.OutputZip, 0o644); err != nil { //nolint:gosec // bundle is world-readable output
		return fmt.Errorf("failed to write bundle: %w", err)
	}

	if buildPreview {
		previewPath := filepath.Join(filepath.Dir(buildOut), "preview.html")
		if err := os.WriteFile(previewPath, []byte(res.PreviewHTML), 0o644); err != nil { //nolint:gosec // preview is world-readable output
			return fmt.Errorf("failed to write preview: %w", err)
		}
		fmt.Printf("Preview written to %s\n", previewPath)
	}

	printBuildSummary(res, buildOut, elapsed)
	return nil
}

func printBuildSummary(res *builder.Result, outPath string, elapsed time.Duration) {
	stats := res.Stats

	name := stats.Workspace
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(outPath), filepath.Ext(outPath))
	}

	fmt.Printf("\n=== Build Summary: %s ===\n", name)
	fmt.Printf("Bundle size:   %s\n", util.FormatBytes(int64(stats.BundleSize)))
	fmt.Printf("CSS size:      %s\n", util.FormatBytes(int64(stats.CSSSize)))
	fmt.Printf("Archive size:  %s\n", util.FormatBytes(int64(stats.ZipSize)))
	fmt.Printf("Modules:       %d bundled, %d external\n", stats.ModuleCount, stats.ExternalCount)
	fmt.Printf("Sources:       %d scripts, %d stylesheets (%d files total)\n",
		stats.SourceCount, stats.CSSFileCount, stats.FileCount)
	if stats.DependencyCount > 0 {
		fmt.Printf("Dependencies:  %d declared\n", stats.DependencyCount)
	}
	fmt.Printf("Completed in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("\nBundle written to %s\n", outPath)
}
