package queue

import (
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestConsumerHandleAppendsLine(t *testing.T) {
    dir := t.TempDir()
    c := NewConsumer("amqp://unused", dir, nil)

    body := []byte(`{"rental_id":7,"item_id":3,"item_title":"Drill","tenant_id":2,"owner_id":1,"starts_at":"2024-01-01T10:00:00Z","ends_at":"2024-01-01T15:00:00Z","total_price_cents":50,"confirmed_at":"2024-01-01T09:00:00Z"}`)
    require.NoError(t, c.Handle(body))
    require.NoError(t, c.Handle(body))

    data, err := os.ReadFile(filepath.Join(dir, "rentals.log"))
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "rental_id=7")
    assert.Contains(t, lines[0], `item="Drill"`)
    assert.Contains(t, lines[0], "total=50 cents")
}

func TestConsumerHandleRejectsBadPayload(t *testing.T) {
    c := NewConsumer("amqp://unused", t.TempDir(), nil)
    assert.Error(t, c.Handle([]byte("not json")))
    assert.Error(t, c.Handle([]byte(`{"item_id":1}`)))
}
