// fakehub-skeleton replicates a remote hub repository's layout
// (structure and filenames only) into the local fixture tree.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fakehub/fakehub/internal/hub"
	"github.com/fakehub/fakehub/internal/logging"
	"github.com/fakehub/fakehub/internal/skeleton"
)

var (
	flagRepoType    string
	flagRevision    string
	flagEndpoint    string
	flagToken       string
	flagInclude     []string
	flagExclude     []string
	flagMaxFiles    int
	flagDst         string
	flagForce       bool
	flagDryRun      bool
	flagFill        bool
	flagFillSize    string
	flagFillContent string
)

var rootCmd = &cobra.Command{
	Use:   "fakehub-skeleton <repo_id>",
	Short: "Skeletonize a real hub repo (structure + filenames only)",
	Args:  cobra.ExactArgs(1),
	RunE:  run,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	viper.SetDefault("endpoint", "https://huggingface.co")
	viper.SetDefault("hub_root", "fake_hub")
	viper.BindEnv("endpoint", "HF_REMOTE_ENDPOINT")
	viper.BindEnv("token", "HF_TOKEN")
	viper.BindEnv("hub_root", "FAKE_HUB_ROOT")

	f := rootCmd.Flags()
	f.StringVarP(&flagRepoType, "repo-type", "t", "", "Repository type (model|dataset)")
	f.StringVarP(&flagRevision, "revision", "r", "main", "Revision/branch/commit")
	f.StringVarP(&flagEndpoint, "endpoint", "e", "", "Remote endpoint (default: "+viper.GetString("endpoint")+")")
	f.StringVar(&flagToken, "token", "", "Hub access token (optional)")
	f.StringArrayVar(&flagInclude, "include", nil, "Glob to include (can repeat)")
	f.StringArrayVar(&flagExclude, "exclude", nil, "Glob to exclude (can repeat)")
	f.IntVar(&flagMaxFiles, "max-files", -1, "Limit number of files")
	f.StringVar(&flagDst, "dst", "", "Destination root (override default layout)")
	f.BoolVar(&flagForce, "force", false, "Overwrite existing files")
	f.BoolVar(&flagDryRun, "dry-run", false, "Print actions without writing files")
	f.BoolVar(&flagFill, "fill", false, "Fill created files with repeated content instead of empty files")
	f.StringVar(&flagFillSize, "fill-size", "", "Per-file size to fill, e.g. '16MiB' (default if --fill is set)")
	f.StringVar(&flagFillContent, "fill-content", "", "Content string to repeat when filling files (default: zeros)")
	rootCmd.MarkFlagRequired("repo-type")
}

func run(cmd *cobra.Command, args []string) error {
	repoID := args[0]

	var kind hub.RepoKind
	switch flagRepoType {
	case "model":
		kind = hub.KindModel
	case "dataset":
		kind = hub.KindDataset
	default:
		return fmt.Errorf("--repo-type must be 'model' or 'dataset', got %q", flagRepoType)
	}

	endpoint := flagEndpoint
	if endpoint == "" {
		endpoint = viper.GetString("endpoint")
	}
	token := flagToken
	if token == "" {
		token = viper.GetString("token")
	}

	client := skeleton.NewClient(endpoint, token)
	items, err := client.FetchTree(cmd.Context(), kind, repoID, flagRevision)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	files := skeleton.ApplyFilters(items, flagInclude, flagExclude, flagMaxFiles)

	dstRoot := flagDst
	if dstRoot == "" {
		dstRoot, err = hub.RepoRoot(viper.GetString("hub_root"), kind, repoID)
		if err != nil {
			return fmt.Errorf("invalid repo id %q: %w", repoID, err)
		}
	}

	opts := skeleton.Options{
		Force:    flagForce,
		DryRun:   flagDryRun,
		FillSize: -1,
	}
	if flagFill {
		opts.FillSize = 16 * 1024 * 1024
		if flagFillSize != "" {
			opts.FillSize, err = skeleton.ParseSize(flagFillSize)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing --fill-size: %v\n", err)
				os.Exit(2)
			}
		}
		opts.FillPattern = []byte(flagFillContent)
	}

	created, err := skeleton.Generate(dstRoot, files, opts)
	if err != nil {
		return err
	}

	// Record sizes and digests of what actually landed on disk
	sidecar, err := skeleton.WriteSidecar(cmd.Context(), dstRoot, created, flagDryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to write %s: %v\n", hub.SidecarName, err)
	} else if sidecar != "" {
		fmt.Printf("Wrote sidecar: %s\n", sidecar)
	}

	fmt.Printf("Skeleton root: %s\n", dstRoot)
	fmt.Printf("Files: %d\n", len(created))
	for _, p := range created {
		rel, err := filepath.Rel(dstRoot, p)
		if err != nil {
			rel = p
		}
		fmt.Printf("  %s\n", rel)
	}
	return nil
}

func main() {
	logging.InitDefault()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
