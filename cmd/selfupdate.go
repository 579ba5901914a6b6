package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the owner/name of the GitHub repository releases are
// published to. Release builds set it with
// -ldflags "-X studiomcp/cmd.githubRepoSlug=owner/name".
var githubRepoSlug = ""

var (
	errDevelopmentVersion = errors.New("cannot self-update a development version")
	errNoRepository       = errors.New("no release repository configured: pass --repository owner/name")
)

// latestRelease is the part of a GitHub release self-update needs.
type latestRelease struct {
	version     string
	assetURL    string
	assetName   string
	lessOrEqual func(current string) bool
}

// For mocking in tests
var (
	detectLatest = func(ctx context.Context, slug string) (*latestRelease, error) {
		release, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(slug))
		if err != nil || !found {
			return nil, err
		}
		return &latestRelease{
			version:     release.Version(),
			assetURL:    release.AssetURL,
			assetName:   release.AssetName,
			lessOrEqual: release.LessOrEqual,
		}, nil
	}
	updateTo       = selfupdate.UpdateTo
	executablePath = os.Executable
)

var selfUpdateRepository string

func newSelfUpdateCmd() *cobra.Command {
	selfUpdateCmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update studiomcp to the latest release",
		Long: `Checks for the latest release of studiomcp on GitHub and,
if it is newer than the running binary, downloads it and replaces
the current executable in place.`,
		Args: cobra.NoArgs,
		RunE: runSelfUpdate,
	}
	selfUpdateCmd.Flags().StringVar(&selfUpdateRepository, "repository", githubRepoSlug, "GitHub repository (owner/name) to fetch releases from")
	return selfUpdateCmd
}

func runSelfUpdate(cmd *cobra.Command, args []string) error {
	currentVersion := rootCmd.Version
	if currentVersion == "" || currentVersion == "dev" {
		return errDevelopmentVersion
	}
	if selfUpdateRepository == "" {
		return errNoRepository
	}

	ctx := context.Background()
	var out io.Writer = os.Stdout
	if cmd != nil {
		out = cmd.OutOrStdout()
		if cmd.Context() != nil {
			ctx = cmd.Context()
		}
	}

	latest, err := detectLatest(ctx, selfUpdateRepository)
	if err != nil {
		return fmt.Errorf("error detecting latest release: %w", err)
	}
	if latest == nil {
		return fmt.Errorf("no release found for %s", selfUpdateRepository)
	}

	if latest.lessOrEqual(currentVersion) {
		fmt.Fprintf(out, "Current version %s is the latest\n", currentVersion)
		return nil
	}

	exe, err := executablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s from %s to %s\n", exe, currentVersion, latest.version)
	if err := updateTo(ctx, latest.assetURL, latest.assetName, exe); err != nil {
		return fmt.Errorf("error updating binary: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.version)
	return nil
}
