package tail

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/logtrail/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id int) models.LogRecord {
	return models.LogRecord{"id": fmt.Sprintf("%d", id), "message": "m"}
}

func TestHub_DeliversInPublishOrder(t *testing.T) {
	h := NewHub(16)
	app := uuid.New()
	sub := h.Subscribe(app)
	defer sub.Close()

	for i := 1; i <= 10; i++ {
		assert.Equal(t, 1, h.Publish(app, rec(i)))
	}

	for i := 1; i <= 10; i++ {
		got := <-sub.Records()
		assert.Equal(t, fmt.Sprintf("%d", i), got.ID())
	}
}

func TestHub_FanOutToEverySubscriber(t *testing.T) {
	h := NewHub(4)
	app := uuid.New()
	a, b := h.Subscribe(app), h.Subscribe(app)
	defer a.Close()
	defer b.Close()

	assert.Equal(t, 2, h.Publish(app, rec(1)))
	assert.Equal(t, "1", (<-a.Records()).ID())
	assert.Equal(t, "1", (<-b.Records()).ID())
}

func TestHub_IsolatesApplications(t *testing.T) {
	h := NewHub(4)
	appA, appB := uuid.New(), uuid.New()
	subA := h.Subscribe(appA)
	defer subA.Close()

	assert.Equal(t, 0, h.Publish(appB, rec(1)))
	assert.Empty(t, subA.Records())
}

func TestHub_SlowSubscriberDropsWithoutBlockingOthers(t *testing.T) {
	h := NewHub(2)
	app := uuid.New()
	slow, fast := h.Subscribe(app), h.Subscribe(app)
	defer slow.Close()
	defer fast.Close()

	h.Publish(app, rec(1))
	h.Publish(app, rec(2))
	<-fast.Records()
	<-fast.Records()

	// slow is full; fast has room again.
	assert.Equal(t, 1, h.Publish(app, rec(3)))
	assert.Equal(t, int64(1), slow.Dropped())
	assert.Equal(t, int64(0), fast.Dropped())
	assert.Equal(t, "3", (<-fast.Records()).ID())

	assert.Equal(t, "1", (<-slow.Records()).ID())
	assert.Equal(t, "2", (<-slow.Records()).ID())
}

func TestHub_UnsubscribeClosesAndDeregisters(t *testing.T) {
	h := NewHub(4)
	app := uuid.New()
	sub := h.Subscribe(app)
	require.Equal(t, 1, h.Subscribers(app))

	sub.Close()
	sub.Close()

	assert.Equal(t, 0, h.Subscribers(app))
	_, open := <-sub.Records()
	assert.False(t, open)
	assert.Equal(t, 0, h.Publish(app, rec(1)))
}

func TestHub_ConcurrentPublishAndUnsubscribe(t *testing.T) {
	h := NewHub(1)
	app := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		sub := h.Subscribe(app)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Publish(app, rec(j))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, h.Subscribers(app))
}
