package service

import (
    "context"
    "net"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/config"
    "github.com/iliyamo/maternal-health/internal/model"
    "github.com/iliyamo/maternal-health/internal/queue"
)

// silentBroker accepts TCP connections and never writes a byte back.
func silentBroker(t *testing.T) string {
    t.Helper()
    ln, err := net.Listen("tcp", "127.0.0.1:0")
    require.NoError(t, err)

    var (
        mu    sync.Mutex
        conns []net.Conn
    )
    go func() {
        for {
            c, err := ln.Accept()
            if err != nil {
                return
            }
            mu.Lock()
            conns = append(conns, c)
            mu.Unlock()
        }
    }()
    t.Cleanup(func() {
        _ = ln.Close()
        mu.Lock()
        defer mu.Unlock()
        for _, c := range conns {
            _ = c.Close()
        }
    })
    return "amqp://guest:guest@" + ln.Addr().String() + "/"
}

func TestAMQPPublisherStopsAtDeadline(t *testing.T) {
    pub := NewAMQPPublisher(config.QueueConfig{URL: silentBroker(t), Queue: "maternal.submitted"})

    ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
    defer cancel()

    start := time.Now()
    err := pub.PublishSubmission(ctx, queue.SubmissionEvent{RecordID: 1})
    assert.Error(t, err)
    assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmitIsNotHeldBySilentBroker(t *testing.T) {
    recs := &fakeRecords{rows: map[uint64]*model.MaternalRecord{}}
    pred := &fakePredictor{res: nil, err: assert.AnError}
    pub := NewAMQPPublisher(config.QueueConfig{URL: silentBroker(t), Queue: "maternal.submitted"})
    svc := NewSubmissionService(recs, pred, nil, pub, zap.NewNop())
    svc.publishTimeout = 300 * time.Millisecond

    start := time.Now()
    out, err := svc.Submit(context.Background(), &model.MaternalRecord{Name: strp("Asha")})
    require.NoError(t, err)
    assert.NotZero(t, out.Record.ID)
    assert.Less(t, time.Since(start), 2*time.Second)
}
