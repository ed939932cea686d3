package bot

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"sennabot/service"
)

// StartReleaseWorker sweeps expired prison sentences across every known
// guild, once immediately and then on the given interval. The returned
// stop function halts the worker.
func StartReleaseWorker(ctx context.Context, store service.GuildStore, prisonService service.PrisonService, interval time.Duration) func() {
	stop := make(chan struct{})

	sweep := func() {
		guilds, err := store.Guilds(ctx)
		if err != nil {
			log.WithError(err).Error("Release sweep could not list guilds")
			return
		}
		for _, guildID := range guilds {
			released, err := prisonService.ProcessReleases(ctx, guildID)
			if err != nil {
				log.WithField("guildID", guildID).WithError(err).Error("Release sweep failed for guild")
				continue
			}
			if released > 0 {
				log.WithFields(log.Fields{
					"guildID":  guildID,
					"released": released,
				}).Info("Released users whose sentences expired")
			}
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		sweep()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()

	return func() { close(stop) }
}
