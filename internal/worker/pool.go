package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/models"
	"github.com/vienatjeee/radiant-video-creator-68d5627c/internal/services"
)

// Pool consumes queued video-generation jobs and runs them through the
// session manager. A SetNX lock keeps multiple instances from processing
// the same job.
type Pool struct {
	redis       *redis.Client
	sessions    *services.SessionManager
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, sessions *services.SessionManager, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		sessions:    sessions,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, services.GenerationQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s for user %s", id, job.ID, job.UserID)
		p.sessions.Process(ctx, job)

		p.redis.Del(ctx, lockKey)
	}
}
