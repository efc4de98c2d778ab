package health

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAllUp(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("redis", func(context.Context) error { return nil })
	c.Register("kafka", func(context.Context) error { return nil })
	c.Disable("postgres")

	r := c.Run(context.Background())
	assert.Equal(t, StatusUp, r.Status)
	assert.True(t, r.Healthy())
	require.Len(t, r.Components, 3)
	assert.Equal(t, StatusDisabled, r.Components["postgres"].Status)
	assert.Equal(t, StatusUp, r.Components["redis"].Status)
	assert.Equal(t, []string{"kafka", "postgres", "redis"}, c.Names())
}

func TestRunOneDown(t *testing.T) {
	c := NewChecker(time.Second)
	c.Register("redis", func(context.Context) error { return nil })
	c.Register("kafka", func(context.Context) error { return errors.New("connection refused") })

	r := c.Run(context.Background())
	assert.Equal(t, StatusDown, r.Status)
	assert.False(t, r.Healthy())
	assert.Equal(t, "connection refused", r.Components["kafka"].Message)
}

func TestRunAppliesTimeout(t *testing.T) {
	c := NewChecker(10 * time.Millisecond)
	c.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	r := c.Run(context.Background())
	assert.Equal(t, StatusDown, r.Components["slow"].Status)
}

func TestWriteJSON(t *testing.T) {
	c := NewChecker(time.Second)
	c.Disable("redis")
	var buf bytes.Buffer
	require.NoError(t, c.Run(context.Background()).WriteJSON(&buf))
	assert.Contains(t, buf.String(), `"status": "up"`)
	assert.Contains(t, buf.String(), `"redis"`)
}
