// Package broker implements the distributed task queue the
// OptimizationCoordinator dispatches simulation tasks through when
// workers run on separate processes/machines: a Redis list as a
// durable work queue plus a results hash, mirroring the source
// framework's Celery-over-Redis broker (`init_worker`/`run_worker`).
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/constantine-labs/backtest/internal/engineerr"
	"github.com/constantine-labs/backtest/internal/obslog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Message is the wire envelope pushed onto the queue list.
type Message struct {
	ID        string `json:"id"`
	StudyName string `json:"study_name"`
	DNA       string `json:"dna"`
}

// ResultMessage is the wire envelope a worker writes back into the
// results hash.
type ResultMessage struct {
	Score float64 `json:"score"`
	Err   string  `json:"err"`
}

// Broker is a Redis-backed task queue scoped to one study: Submit
// pushes a task and blocks for its result; Pop/ReportResult are the
// worker side of that exchange.
type Broker struct {
	client       *redis.Client
	queueKey     string
	resultsKey   string
	pollInterval time.Duration
	log          *obslog.Logger
}

// New builds a Broker over an already-connected Redis client, scoped
// to studyName's queue and results hash.
func New(client *redis.Client, studyName string) *Broker {
	return &Broker{
		client:       client,
		queueKey:     "constantine:optimize:queue:" + studyName,
		resultsKey:   "constantine:optimize:results:" + studyName,
		pollInterval: 200 * time.Millisecond,
		log:          obslog.Component("broker").WithFields(map[string]any{"study": studyName}),
	}
}

// Connect dials addr/db and verifies connectivity with Ping before
// returning, the same fail-fast contract the pack's Redis clients use.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, engineerr.New(engineerr.OpBroker, addr, err)
	}
	return client, nil
}

// Submit pushes a (studyName, dna) task onto the durable queue and
// blocks, polling the results hash, until a worker reports a result or
// ctx is canceled.
func (b *Broker) Submit(ctx context.Context, studyName, dna string) (float64, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(Message{ID: id, StudyName: studyName, DNA: dna})
	if err != nil {
		return 0, engineerr.New(engineerr.OpBroker, id, err)
	}
	if err := b.client.LPush(ctx, b.queueKey, raw).Err(); err != nil {
		return 0, engineerr.New(engineerr.OpBroker, id, err)
	}

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return 0, engineerr.New(engineerr.OpBroker, id, ctx.Err())
		case <-ticker.C:
			raw, err := b.client.HGet(ctx, b.resultsKey, id).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return 0, engineerr.New(engineerr.OpBroker, id, err)
			}
			var result ResultMessage
			if err := json.Unmarshal([]byte(raw), &result); err != nil {
				return 0, engineerr.New(engineerr.OpBroker, id, err)
			}
			b.client.HDel(ctx, b.resultsKey, id)
			if result.Err != "" {
				return 0, fmt.Errorf("worker reported error for task %s: %s", id, result.Err)
			}
			return result.Score, nil
		}
	}
}

// Pop blocks (via BRPOP, up to timeout) for the next queued Message.
// ok is false on a timeout with no message available.
func (b *Broker) Pop(ctx context.Context, timeout time.Duration) (msg Message, ok bool, err error) {
	res, popErr := b.client.BRPop(ctx, timeout, b.queueKey).Result()
	if popErr == redis.Nil {
		return Message{}, false, nil
	}
	if popErr != nil {
		return Message{}, false, engineerr.New(engineerr.OpBroker, "", popErr)
	}
	if len(res) < 2 {
		return Message{}, false, engineerr.New(engineerr.OpBroker, "", fmt.Errorf("malformed BRPOP reply"))
	}
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return Message{}, false, engineerr.New(engineerr.OpBroker, "", err)
	}
	return msg, true, nil
}

// ReportResult writes score (or errMsg on a caught simulation failure)
// into the results hash for id, where a blocked Submit call picks it
// up.
func (b *Broker) ReportResult(ctx context.Context, id string, score float64, errMsg string) error {
	raw, err := json.Marshal(ResultMessage{Score: score, Err: errMsg})
	if err != nil {
		return engineerr.New(engineerr.OpBroker, id, err)
	}
	return engineerr.New(engineerr.OpBroker, id, b.client.HSet(ctx, b.resultsKey, id, raw).Err())
}
