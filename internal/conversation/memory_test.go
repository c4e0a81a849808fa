package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/mediabot/internal/media"
)

func TestMemoryStoreGetAbsent(t *testing.T) {
	s := NewMemoryStore()
	_, ok, err := s.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreUpsertCreatesInitial(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	conv, err := s.Upsert(ctx, 1, SetLastPrompt(10))
	require.NoError(t, err)
	assert.Equal(t, Initial, conv.Step)
	assert.Equal(t, 10, conv.LastPromptID)

	got, ok, err := s.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, conv, got)
}

func TestMemoryStoreUpsertIsShallowMerge(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.Upsert(ctx, 1, SetUser(&media.User{ID: "42", Name: "Ada"}))
	require.NoError(t, err)

	conv, err := s.Upsert(ctx, 1, SetStep(AudioChosen))
	require.NoError(t, err)
	require.NotNil(t, conv.User)
	assert.Equal(t, "Ada", conv.User.Name)
	assert.Equal(t, AudioChosen, conv.Step)
}

func TestMemoryStoreInitialClearsMedia(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := media.Audio{ID: "a"}
	v := media.Video{ID: "v"}
	conv, err := s.Upsert(ctx, 1, SetStep(AudioReceived), SetAudio(&a), SetVideo(&v))
	require.NoError(t, err)
	require.NotNil(t, conv.PendingAudio)

	conv, err = s.Upsert(ctx, 1, SetStep(Initial))
	require.NoError(t, err)
	assert.Nil(t, conv.PendingAudio)
	assert.Nil(t, conv.PendingVideo)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := media.Audio{ID: "a", TagIDs: []string{"x"}}
	conv, err := s.Upsert(ctx, 1, SetStep(AudioReceived), SetAudio(&a))
	require.NoError(t, err)

	conv.PendingAudio.TagIDs[0] = "mutated"
	a.TagIDs[0] = "mutated too"

	got, _, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got.PendingAudio.TagIDs)
}

func TestStepTextRoundTrip(t *testing.T) {
	for _, st := range Steps() {
		b, err := st.MarshalText()
		require.NoError(t, err)
		var back Step
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, st, back)
	}

	var s Step
	assert.Error(t, s.UnmarshalText([]byte("Bogus")))
	assert.False(t, Step(200).Valid())
}

func TestEncodeDecodeNormalizes(t *testing.T) {
	data := []byte(`{"step":"Initial","pendingAudio":{"id":"a"},"user":{"userId":"1","userName":"n"}}`)
	conv, err := decode(data)
	require.NoError(t, err)
	assert.Nil(t, conv.PendingAudio)
	require.NotNil(t, conv.User)
	assert.Equal(t, "n", conv.User.Name)

	out, err := encode(Conversation{Step: PhotoReceived, PendingAudio: &media.Audio{ID: "a"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"step":"PhotoReceived"`)
}

func TestKeyedMutexSerialisesSameKey(t *testing.T) {
	k := NewKeyedMutex()
	unlock := k.Lock(1)

	acquired := make(chan struct{})
	go func() {
		u := k.Lock(1)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on the same chat must wait")
	case <-time.After(20 * time.Millisecond):
	}

	other := k.Lock(2)
	other()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestKeyedMutexReleasesEntries(t *testing.T) {
	k := NewKeyedMutex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			unlock := k.Lock(id % 5)
			unlock()
			unlock()
		}(int64(i))
	}
	wg.Wait()
	assert.Zero(t, k.Held())
}
