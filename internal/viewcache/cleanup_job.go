package viewcache

import "github.com/rs/zerolog"

// CleanupJob sweeps expired cached views. Reads already skip expired
// rows, so the sweep only bounds table growth.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a new cleanup job
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "viewcache_cleanup").Logger(),
	}
}

// Name returns the job name for scheduler logs
func (j *CleanupJob) Name() string {
	return "viewcache_cleanup"
}

// Run deletes expired entries
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired()
	if err != nil {
		return err
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Removed expired cached views")
	}

	return nil
}
