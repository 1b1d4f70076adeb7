package scheduler

import (
	"context"
	"magnetrss/extract"
	"magnetrss/fetcher"
	"magnetrss/models"
	"sync"

	log "github.com/sirupsen/logrus"
)

type sourceJob struct {
	index int
	url   string
}

// fetchAll processes urls with at most s.workers goroutines. The result for
// urls[i] is stored at index i, whatever order the sources finish in.
func (s *Scheduler) fetchAll(ctx context.Context, logger *log.Entry, urls []string) [][]models.Link {
	results := make([][]models.Link, len(urls))
	if len(urls) == 0 {
		return results
	}

	jobs := make(chan sourceJob)
	var wg sync.WaitGroup

	for i := 0; i < min(s.workers, len(urls)); i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for job := range jobs {
				results[job.index] = s.processSource(ctx, logger.WithField("worker", id), job.url)
			}
		}(i)
	}

	for i, url := range urls {
		jobs <- sourceJob{index: i, url: url}
	}
	close(jobs)
	wg.Wait()

	return results
}

// processSource fetches one page and returns its magnet links. A failed
// source yields no links.
func (s *Scheduler) processSource(ctx context.Context, logger *log.Entry, url string) []models.Link {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		sourceFailures.Inc()
		logger.WithFields(log.Fields{
			"url":    url,
			"status": fetcher.StatusLabel(err),
			"error":  err,
		}).Warn("Failed to fetch source, skipping it")
		return nil
	}

	links := extract.Extract(body, "")
	logger.WithFields(log.Fields{
		"url":   url,
		"links": len(links),
	}).Debug("Extracted links")

	return links
}
