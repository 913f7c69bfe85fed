package core

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextConcurrentAccess tests that context values can be safely accessed concurrently.
func TestContextConcurrentAccess(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			assert.True(t, shouldSuppressHeader(ctx), "goroutine %d", i)
		})
	}
	wg.Wait()
}

func TestShouldSuppressHeaderDefault(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))
	assert.False(t, shouldSuppressHeader(context.WithValue(context.Background(), suppressHeaderKey, "yes")))
}
