package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/soto-lp/internal/domain"
)

func sampleJob() domain.StructuredJob {
	return domain.StructuredJob{
		DeliveryAddress:  "5 Low Rd",
		PostcodeDelivery: "M1 1AA",
		Price:            150,
		ConfidenceScores: map[domain.Field]int{domain.FieldPrice: 90},
		ParsingQuality:   domain.QualityHigh,
		MissingFields:    []string{"contact_info"},
		AccuracyRating:   domain.RatingFair,
	}
}

func TestLRUKeepsFirstWriteAndCopies(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)
	ctx := context.Background()

	first := sampleJob()
	c.Add(ctx, "k", first)

	second := sampleJob()
	second.Price = 1
	c.Add(ctx, "k", second)

	first.ConfidenceScores[domain.FieldPrice] = 0

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 150.0, got.Price)
	assert.Equal(t, 90, got.Confidence(domain.FieldPrice))

	got.MissingFields[0] = "changed"
	again, _ := c.Get(ctx, "k")
	assert.Equal(t, "contact_info", again.MissingFields[0])
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)
	ctx := context.Background()

	c.Add(ctx, "a", sampleJob())
	c.Add(ctx, "b", sampleJob())
	_, _ = c.Get(ctx, "a")
	c.Add(ctx, "c", sampleJob())

	_, okA := c.Get(ctx, "a")
	_, okB := c.Get(ctx, "b")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.Equal(t, 2, c.Len())
}

func TestRedisRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedis(db, "test:", time.Hour, zap.NewNop())
	ctx := context.Background()

	job := sampleJob()
	data, err := json.Marshal(job)
	require.NoError(t, err)

	mock.ExpectGet("test:k").RedisNil()
	mock.ExpectSetNX("test:k", string(data), time.Hour).SetVal(true)
	mock.ExpectGet("test:k").SetVal(string(data))

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	c.Add(ctx, "k", job)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, job, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisErrorsAreMisses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewRedis(db, "", 0, zap.New(core))
	ctx := context.Background()

	mock.ExpectGet(DefaultPrefix + "k").SetErr(errors.New("connection refused"))
	mock.ExpectGet(DefaultPrefix + "bad").SetVal("{not json")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "bad")
	assert.False(t, ok)

	assert.Equal(t, 1, logs.FilterMessage("read cached extraction").Len())
	assert.Equal(t, 1, logs.FilterMessage("decode cached extraction").Len())
	require.NoError(t, mock.ExpectationsWereMet())
}
