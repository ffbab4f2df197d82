package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/runfetch/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// Fetch holds the artifact fetch options
type Fetch struct {
	Workflow     string `toml:"workflow"`
	Artifact     string `toml:"artifact"`
	ArtifactFile string `toml:"artifact_file"`
	UnzipDir     string `toml:"unzip_dir"`

	ConfigFile string `toml:"-"`
}

// Flags returns CLI flags for fetch configuration
func (c *Fetch) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "workflow",
			Aliases:     []string{"w"},
			Usage:       "Substring matched against the workflow file path",
			Destination: &c.Workflow,
			Sources:     cli.EnvVars("WORKFLOW_FILENAME"),
		},
		&cli.StringFlag{
			Name:        "artifact",
			Aliases:     []string{"a"},
			Usage:       "Exact name of the artifact to download",
			Destination: &c.Artifact,
			Sources:     cli.EnvVars("ARTIFACT_NAME"),
		},
		&cli.StringFlag{
			Name:        "artifact-file",
			Usage:       "Path of the downloaded zip; the run ID is inserted before the extension",
			Destination: &c.ArtifactFile,
			Sources:     cli.EnvVars("ARTIFACT_FILENAME"),
		},
		&cli.StringFlag{
			Name:        "unzip-dir",
			Aliases:     []string{"o"},
			Usage:       "Root directory for extracted artifacts",
			Destination: &c.UnzipDir,
			Sources:     cli.EnvVars("UNZIP_DIR"),
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML file with fetch options; flags and environment take precedence",
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("RUNFETCH_CONFIG"),
		},
	}
}

// LoadFile fills options not set by flag or environment from ConfigFile
func (c *Fetch) LoadFile(isSet func(name string) bool) error {
	if c.ConfigFile == "" {
		return nil
	}

	raw, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", c.ConfigFile))
	}

	var file Fetch
	if err := toml.Unmarshal(raw, &file); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", c.ConfigFile))
	}

	fill := func(name string, dst *string, v string) {
		if !isSet(name) && v != "" {
			*dst = v
		}
	}
	fill("workflow", &c.Workflow, file.Workflow)
	fill("artifact", &c.Artifact, file.Artifact)
	fill("artifact-file", &c.ArtifactFile, file.ArtifactFile)
	fill("unzip-dir", &c.UnzipDir, file.UnzipDir)

	return nil
}

// Validate checks that every required option is present
func (c *Fetch) Validate() error {
	switch {
	case c.Workflow == "":
		return goerr.New("workflow is required (--workflow or WORKFLOW_FILENAME)")
	case c.Artifact == "":
		return goerr.New("artifact is required (--artifact or ARTIFACT_NAME)")
	case c.UnzipDir == "":
		return goerr.New("unzip directory is required (--unzip-dir or UNZIP_DIR)")
	}
	return nil
}

// Request builds the fetch request for a repository
func (c *Fetch) Request(owner, repo string) *model.FetchRequest {
	return &model.FetchRequest{
		Owner:        owner,
		Repo:         repo,
		Workflow:     c.Workflow,
		ArtifactName: c.Artifact,
		ZipFile:      c.ArtifactFile,
		UnzipDir:     c.UnzipDir,
	}
}
