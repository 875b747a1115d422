package ingestion

import (
	"github.com/your-org/fileflow/internal/imageproc"
	"github.com/your-org/fileflow/pkg/config"
	"github.com/your-org/fileflow/pkg/retry"
)

// DefaultsFromConfig maps the environment configuration onto Defaults and
// overlays UPLOAD_TYPES_FILE when it is set.
func DefaultsFromConfig(cfg *config.Config) (Defaults, error) {
	d := Defaults{
		Naming:            cfg.Upload.Naming,
		Scan:              cfg.Upload.Scan,
		PreserveStructure: cfg.Upload.PreserveStructure,
		Image: imageproc.Config{
			Quality:             cfg.Image.Quality,
			WebMaxWidth:         cfg.Image.WebMaxWidth,
			WebMaxHeight:        cfg.Image.WebMaxHeight,
			WebQuality:          cfg.Image.WebQuality,
			CompressQuality:     cfg.Image.CompressQuality,
			CompressMinQuality:  cfg.Image.CompressMinQuality,
			CompressMaxQuality:  cfg.Image.CompressMaxQuality,
			CompressTargetBytes: cfg.Image.CompressTargetBytes,
			ThumbnailWidth:      cfg.Image.ThumbnailWidth,
			ThumbnailHeight:     cfg.Image.ThumbnailHeight,
			ThumbnailQuality:    cfg.Image.ThumbnailQuality,
		},
		URLSigned:        cfg.URL.Signed,
		URLExpiration:    cfg.URL.DefaultExpiration,
		URLMaxExpiration: cfg.URL.MaxExpiration,
		ThumbnailDir:     cfg.Upload.ThumbnailDir,
		ThumbnailSuffix:  cfg.Upload.ThumbnailSuffix,
		WatermarkDir:     cfg.Upload.WatermarkDir,
	}
	if cfg.Upload.TypesFile == "" {
		return d, nil
	}
	return LoadDefaultsFile(cfg.Upload.TypesFile, d)
}

// RetryPolicyFromConfig returns the existence-check retry policy.
func RetryPolicyFromConfig(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts:  cfg.Retry.Attempts,
		InitialDelay: cfg.Retry.InitialDelay,
		Multiplier:   cfg.Retry.Multiplier,
	}
}
