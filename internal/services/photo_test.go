package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-photo-backend/internal/config"
	"event-photo-backend/internal/models"
	"event-photo-backend/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhotoFixture(strict bool, event *models.Event) (*memStore, *fakeRealtime, *PhotoService) {
	store := newMemStore()
	seedUser(store, "owner", "Olivia")
	seedUser(store, "guest", "Gus")
	seedUser(store, "stranger", "Sam")
	seedEvent(store, event)

	rt := newFakeRealtime("owner", "guest")
	svc := NewPhotoService(store, fakeBlobs{}, rt, config.UploadsConfig{StrictQuota: strict, MaxBatch: 50})
	svc.now = fixedClock(t0)
	return store, rt, svc
}

func activeEvent(maxUploads int) *models.Event {
	return &models.Event{
		ID:                   "e1",
		OwnerID:              "owner",
		Name:                 "Party",
		StartTime:            t0.Add(-time.Hour),
		EndTime:              t0.Add(time.Hour),
		MaxCameraRollUploads: maxUploads,
		Participants:         []string{"owner", "guest"},
	}
}

func TestRequestUploadsQuota(t *testing.T) {
	for _, strict := range []bool{false, true} {
		store, _, svc := newPhotoFixture(strict, activeEvent(5))
		ctx := context.Background()

		resp, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, resp.Allowed)
		assert.False(t, resp.Limited)
		assert.Equal(t, 5, resp.Remaining)
		require.Len(t, resp.Uploads, 3)
		assert.Contains(t, resp.Uploads[0].UploadURL, "events/e1/photos/"+resp.Uploads[0].PhotoID+".jpg")
		assert.Equal(t, 300, resp.Uploads[0].ExpiresIn)

		resp, err = svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 4})
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Allowed)
		assert.Equal(t, 4, resp.Requested)
		assert.True(t, resp.Limited)
		assert.Len(t, resp.Uploads, 2)

		_, err = svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 1})
		assert.ErrorIs(t, err, ErrUploadLimitReached)

		// camera captures are never limited
		resp, err = svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCamera, Count: 10})
		require.NoError(t, err)
		assert.Equal(t, 10, resp.Allowed)
		assert.Equal(t, models.UnlimitedUploads, resp.Remaining)

		// reservations count against the quota, not the event counter
		assert.Zero(t, store.events["e1"].TotalPhotos)
		assert.Len(t, store.photos, 15)

		assert.Equal(t, 4, store.txs)
		if strict {
			assert.Equal(t, 4, store.locks)
		} else {
			assert.Zero(t, store.locks)
		}
	}
}

func TestRequestUploadsUnlimited(t *testing.T) {
	_, _, svc := newPhotoFixture(false, activeEvent(models.UnlimitedUploads))

	resp, err := svc.RequestUploads(context.Background(), "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 40})
	require.NoError(t, err)
	assert.Equal(t, 40, resp.Allowed)
	assert.False(t, resp.Limited)
}

func TestRequestUploadsRejected(t *testing.T) {
	tests := []struct {
		name   string
		event  *models.Event
		userID string
		req    UploadRequest
		want   error
	}{
		{"bad source", activeEvent(5), "guest", UploadRequest{Source: "scanner", Count: 1}, ErrInvalidInput},
		{"zero count", activeEvent(5), "guest", UploadRequest{Source: models.SourceCamera}, ErrInvalidInput},
		{"batch too big", activeEvent(5), "guest", UploadRequest{Source: models.SourceCamera, Count: 51}, ErrInvalidInput},
		{"not participant", activeEvent(5), "stranger", UploadRequest{Source: models.SourceCamera, Count: 1}, ErrUploadNotAllowed},
		{"unknown user", activeEvent(5), "ghost", UploadRequest{Source: models.SourceCamera, Count: 1}, ErrUserNotFound},
		{"upcoming", &models.Event{ID: "e1", OwnerID: "owner", Name: "x", StartTime: t0.Add(time.Hour), EndTime: t0.Add(2 * time.Hour), MaxCameraRollUploads: 5}, "owner", UploadRequest{Source: models.SourceCamera, Count: 1}, ErrUploadNotAllowed},
		{"ended", &models.Event{ID: "e1", OwnerID: "owner", Name: "x", StartTime: t0.Add(-2 * time.Hour), EndTime: t0.Add(-time.Hour), MaxCameraRollUploads: 5}, "owner", UploadRequest{Source: models.SourceCamera, Count: 1}, ErrUploadNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _, svc := newPhotoFixture(false, tt.event)
			_, err := svc.RequestUploads(context.Background(), tt.userID, "e1", tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, store.photos)
		})
	}
}

func TestRequestUploadsPresignFailure(t *testing.T) {
	for _, strict := range []bool{false, true} {
		store, _, svc := newPhotoFixture(strict, activeEvent(2))
		ctx := context.Background()
		req := UploadRequest{Source: models.SourceCameraRoll, Count: 2}

		svc.blobs = fakeBlobs{err: errors.New("signer down")}
		_, err := svc.RequestUploads(ctx, "guest", "e1", req)
		require.Error(t, err)
		assert.Empty(t, store.photos)
		assert.Zero(t, store.events["e1"].TotalPhotos)

		svc.blobs = fakeBlobs{}
		resp, err := svc.RequestUploads(ctx, "guest", "e1", req)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.Allowed)
		assert.Len(t, resp.Uploads, 2)
		assert.Len(t, store.photos, 2)
	}
}

func TestListPhotosRevealRules(t *testing.T) {
	event := activeEvent(5)
	event.RevealPhotos = models.RevealAfter
	event.RevealAfter = models.RevealAfter12h
	store, _, svc := newPhotoFixture(false, event)
	ctx := context.Background()

	resp, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCamera, Count: 2})
	require.NoError(t, err)
	for _, u := range resp.Uploads {
		require.NoError(t, svc.ConfirmUpload(ctx, "guest", "e1", u.PhotoID))
	}

	_, err = svc.ListPhotos(ctx, "guest", "e1", 0, 0)
	var hidden *PhotosHiddenError
	require.True(t, errors.As(err, &hidden))
	assert.ErrorIs(t, err, ErrPhotosHidden)
	assert.Contains(t, hidden.Message, "Photos will be revealed on")
	require.NotNil(t, hidden.RevealAt)
	assert.Equal(t, event.EndTime.Add(12*time.Hour), *hidden.RevealAt)

	// the owner waits too
	_, err = svc.ListPhotos(ctx, "owner", "e1", 0, 0)
	assert.ErrorIs(t, err, ErrPhotosHidden)

	_, err = svc.ListPhotos(ctx, "stranger", "e1", 0, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)

	svc.now = fixedClock(event.EndTime.Add(12 * time.Hour))
	page, err := svc.ListPhotos(ctx, "guest", "e1", 500, -3)
	require.NoError(t, err)
	assert.Len(t, page.Photos, 2)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 100, page.Limit)
	assert.Zero(t, page.Offset)
	assert.Len(t, store.photos, 2)
}

func TestListPhotosOnlyConfirmed(t *testing.T) {
	store, rt, svc := newPhotoFixture(false, activeEvent(5))
	ctx := context.Background()

	resp, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 3})
	require.NoError(t, err)

	page, err := svc.ListPhotos(ctx, "guest", "e1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Photos)
	assert.Zero(t, page.Total)
	assert.Zero(t, store.events["e1"].TotalPhotos)

	photoID := resp.Uploads[1].PhotoID
	require.NoError(t, svc.ConfirmUpload(ctx, "guest", "e1", photoID))

	page, err = svc.ListPhotos(ctx, "guest", "e1", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Photos, 1)
	assert.Equal(t, photoID, page.Photos[0].ID)
	assert.NotNil(t, page.Photos[0].ConfirmedAt)
	assert.Equal(t, 1, store.events["e1"].TotalPhotos)

	// a repeated confirmation changes nothing
	require.NoError(t, svc.ConfirmUpload(ctx, "guest", "e1", photoID))
	assert.Equal(t, 1, store.events["e1"].TotalPhotos)
	assert.Len(t, rt.sent["owner"], 1)

	// unconfirmed reservations still use quota
	q, err := svc.Quota(ctx, "guest", "e1")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Used)
	assert.Equal(t, 2, q.Remaining)
}

func TestQuota(t *testing.T) {
	_, _, svc := newPhotoFixture(false, activeEvent(5))
	ctx := context.Background()

	_, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCameraRoll, Count: 2})
	require.NoError(t, err)
	_, err = svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCamera, Count: 2})
	require.NoError(t, err)

	q, err := svc.Quota(ctx, "guest", "e1")
	require.NoError(t, err)
	assert.Equal(t, &QuotaResponse{Max: 5, Used: 2, Remaining: 3}, q)

	_, err = svc.Quota(ctx, "stranger", "e1")
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, _, svc2 := newPhotoFixture(false, activeEvent(models.UnlimitedUploads))
	q, err = svc2.Quota(ctx, "guest", "e1")
	require.NoError(t, err)
	assert.True(t, q.Unlimited)
	assert.Equal(t, models.UnlimitedUploads, q.Remaining)
}

func TestConfirmUpload(t *testing.T) {
	event := activeEvent(5)
	_, rt, svc := newPhotoFixture(false, event)
	ctx := context.Background()

	resp, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCamera, Count: 1})
	require.NoError(t, err)
	photoID := resp.Uploads[0].PhotoID

	assert.ErrorIs(t, svc.ConfirmUpload(ctx, "owner", "e1", photoID), ErrForbidden)
	assert.ErrorIs(t, svc.ConfirmUpload(ctx, "guest", "e1", "missing"), ErrPhotoNotFound)

	require.NoError(t, svc.ConfirmUpload(ctx, "guest", "e1", photoID))
	msgs := rt.sent["owner"]
	require.Len(t, msgs, 1)
	assert.Equal(t, MsgPhotoAdded, msgs[0].Type)
	data := msgs[0].Data.(map[string]interface{})
	assert.Equal(t, 1, data["total_photos"])
	assert.Contains(t, data, "photo")
}

func TestConfirmUploadWhileHidden(t *testing.T) {
	event := activeEvent(5)
	event.RevealPhotos = models.RevealAfter
	event.RevealAfter = models.RevealAfter24h
	_, rt, svc := newPhotoFixture(false, event)
	ctx := context.Background()

	resp, err := svc.RequestUploads(ctx, "guest", "e1", UploadRequest{Source: models.SourceCamera, Count: 1})
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmUpload(ctx, "guest", "e1", resp.Uploads[0].PhotoID))
	data := rt.sent["owner"][0].Data.(map[string]interface{})
	assert.NotContains(t, data, "photo")
	assert.False(t, policy.CanViewPhotos(event, t0))
}
