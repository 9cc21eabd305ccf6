package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/logkpredict/internal/domain/prediction"
	"github.com/turtacn/logkpredict/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/logkpredict/pkg/errors"
)

const (
	recentIndexKey = "recent"

	// MaxRecent bounds the recent-request index.
	MaxRecent = 1000
	// DefaultRecentLimit is used when ListRecent is called with limit <= 0.
	DefaultRecentLimit = 20
)

// PredictionLedger stores prediction records as JSON strings with a TTL,
// plus a sorted index of request ids by creation time.
type PredictionLedger struct {
	client *Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

var _ prediction.Repository = (*PredictionLedger)(nil)

// NewPredictionLedger builds a ledger on client.  A zero ttl keeps records
// until evicted.
func NewPredictionLedger(client *Client, prefix string, ttl time.Duration, log logging.Logger) *PredictionLedger {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PredictionLedger{client: client, prefix: prefix, ttl: ttl, logger: log.Named("ledger")}
}

func (l *PredictionLedger) recordKey(id string) string { return l.prefix + id }

func (l *PredictionLedger) indexKey() string { return l.prefix + recentIndexKey }

// Save writes r and indexes it.
func (l *PredictionLedger) Save(ctx context.Context, r *prediction.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if l.client.isClosed() {
		return ErrClientClosed
	}
	data, err := json.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode prediction record")
	}

	id := r.ID.String()
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, l.recordKey(id), data, l.ttl)
	pipe.ZAdd(ctx, l.indexKey(), redis.Z{Score: float64(r.CreatedAt.UnixMilli()), Member: id})
	pipe.ZRemRangeByRank(ctx, l.indexKey(), 0, -MaxRecent-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to save prediction record").WithDetail(id)
	}
	return nil
}

// FindByID returns the record for id, or a COMMON_005 error when it is
// unknown or expired.
func (l *PredictionLedger) FindByID(ctx context.Context, id uuid.UUID) (*prediction.Record, error) {
	data, err := l.client.Get(ctx, l.recordKey(id.String())).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.Newf(errors.CodeNotFound, "prediction %s not found", id)
	}
	if err != nil {
		if err == ErrClientClosed {
			return nil, ErrClientClosed
		}
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to load prediction record").WithDetail(id.String())
	}
	return decode(data)
}

// ListRecent returns up to limit records, newest first.  Ids whose record
// has expired are dropped from the index.
func (l *PredictionLedger) ListRecent(ctx context.Context, limit int) ([]*prediction.Record, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}

	ids, err := l.client.ZRevRange(ctx, l.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, l.readError(err, "failed to read recent index")
	}
	if len(ids) == 0 {
		return []*prediction.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = l.recordKey(id)
	}
	values, err := l.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, l.readError(err, "failed to load recent records")
	}

	out := make([]*prediction.Record, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		rec, err := decode([]byte(s))
		if err != nil {
			l.logger.Warn("skipping undecodable record", logging.String("id", ids[i]), logging.Err(err))
			continue
		}
		out = append(out, rec)
	}
	if len(stale) > 0 {
		if err := l.client.ZRem(ctx, l.indexKey(), stale...).Err(); err != nil {
			l.logger.Warn("failed to prune recent index", logging.Err(err))
		}
	}
	return out, nil
}

func (l *PredictionLedger) readError(err error, msg string) error {
	if err == ErrClientClosed {
		return ErrClientClosed
	}
	return errors.Wrap(err, errors.CodeCacheError, msg)
}

func decode(data []byte) (*prediction.Record, error) {
	var r prediction.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode prediction record")
	}
	return &r, nil
}
