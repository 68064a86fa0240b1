package main

import (
	"github.com/chmdznr/oss-drive-to-blob-copier/internal/config"
	"github.com/urfave/cli/v2"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML config file",
			EnvVars: []string{"DSYNC_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging on stderr",
			EnvVars: []string{"DSYNC_DEBUG"},
		},
		&cli.StringFlag{
			Name:    "source",
			Usage:   "Source store: drive or local",
			EnvVars: []string{"DSYNC_SOURCE"},
		},
		&cli.StringFlag{
			Name:    "google-api-key",
			Usage:   "Google API key",
			EnvVars: []string{"GOOGLE_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "google-access-token",
			Usage:   "OAuth access token with drive.readonly scope",
			EnvVars: []string{"GOOGLE_ACCESS_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "drive-endpoint",
			Usage:   "Override the Drive API base URL",
			EnvVars: []string{"DSYNC_DRIVE_ENDPOINT"},
		},
		&cli.Int64Flag{
			Name:    "page-size",
			Usage:   "Number of Drive files to list",
			EnvVars: []string{"DSYNC_PAGE_SIZE"},
		},
		&cli.StringFlag{
			Name:    "source-dir",
			Usage:   "Directory read by the local source",
			EnvVars: []string{"DSYNC_SOURCE_DIR"},
		},
		&cli.StringFlag{
			Name:    "destination",
			Usage:   "Destination store: minio or azblob",
			EnvVars: []string{"DSYNC_DESTINATION"},
		},
		&cli.StringFlag{
			Name:    "container",
			Usage:   "Destination bucket or container name",
			EnvVars: []string{"DSYNC_CONTAINER", "MINIO_BUCKET", "AZURE_CONTAINER_NAME"},
		},
		&cli.StringFlag{
			Name:    "folder",
			Usage:   "Key prefix inside the destination container",
			EnvVars: []string{"DSYNC_FOLDER"},
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "MinIO endpoint (host:port)",
			EnvVars: []string{"MINIO_ENDPOINT"},
		},
		&cli.StringFlag{
			Name:    "access-key",
			Usage:   "MinIO access key",
			EnvVars: []string{"MINIO_ACCESS_KEY"},
		},
		&cli.StringFlag{
			Name:    "secret-key",
			Usage:   "MinIO secret key",
			EnvVars: []string{"MINIO_SECRET_KEY"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "MinIO region",
			EnvVars: []string{"MINIO_REGION"},
		},
		&cli.BoolFlag{
			Name:    "insecure",
			Usage:   "Connect to MinIO over plain HTTP",
			EnvVars: []string{"MINIO_INSECURE"},
		},
		&cli.StringFlag{
			Name:    "azure-account",
			Usage:   "Azure storage account name",
			EnvVars: []string{"AZURE_ACCOUNT_NAME"},
		},
		&cli.StringFlag{
			Name:    "azure-sas-token",
			Usage:   "Azure SAS token",
			EnvVars: []string{"AZURE_SAS_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "azure-service-url",
			Usage:   "Full Azure blob service URL including SAS",
			EnvVars: []string{"AZURE_SERVICE_URL"},
		},
	}
}

// flagSource is the subset of *cli.Context used to read flag overrides
type flagSource interface {
	IsSet(name string) bool
	String(name string) string
	Bool(name string) bool
	Int64(name string) int64
}

// loadConfig reads the config file and applies every flag or environment
// variable that was set on top of it
func loadConfig(c flagSource) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	strs := map[string]*string{
		"source":              &cfg.Source.Kind,
		"google-api-key":      &cfg.Source.APIKey,
		"google-access-token": &cfg.Source.AccessToken,
		"drive-endpoint":      &cfg.Source.Endpoint,
		"source-dir":          &cfg.Source.Dir,
		"destination":         &cfg.Destination.Kind,
		"container":           &cfg.Destination.Container,
		"folder":              &cfg.Destination.Folder,
		"endpoint":            &cfg.Destination.Endpoint,
		"access-key":          &cfg.Destination.AccessKey,
		"secret-key":          &cfg.Destination.SecretKey,
		"region":              &cfg.Destination.Region,
		"azure-account":       &cfg.Destination.AccountName,
		"azure-sas-token":     &cfg.Destination.SASToken,
		"azure-service-url":   &cfg.Destination.ServiceURL,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("page-size") {
		cfg.Source.PageSize = c.Int64("page-size")
	}
	if c.IsSet("insecure") {
		cfg.Destination.Insecure = c.Bool("insecure")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
