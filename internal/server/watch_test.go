package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/codecity/pkg/pipeline"
)

func TestWatchBroadcastsRebuilds(t *testing.T) {
	repo := initRepo(t)
	s := newTestServer(t)
	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- s.Watch(ctx, pipeline.Options{RepoPath: repo, SkipGitTimes: true})
	}()

	c := dialWS(t, ts.URL)
	waitForClients(t, s.Hub(), 1)

	// Give the watcher time to register directories before mutating.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, repo, "src/extra.py", "value = 42\n")

	readCtx, readCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer readCancel()
	_, data, err := c.Read(readCtx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageCityUpdated, msg.Type)

	var doc struct {
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(msg.Payload, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)

	cancel()
	select {
	case <-watchDone:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchInvalidRepo(t *testing.T) {
	s := newTestServer(t)
	err := s.Watch(context.Background(), pipeline.Options{RepoPath: t.TempDir() + "/missing"})
	require.Error(t, err)
}
