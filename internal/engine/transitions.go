package engine

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/m3rciful/mediabot/internal/conversation"
	"github.com/m3rciful/mediabot/internal/media"
	"github.com/m3rciful/mediabot/internal/upload"
)

func (e *Engine) start(ctx context.Context, t *turn, _ Event) error {
	return t.prompt(ctx, e.startPrompt(), conversation.SetStep(conversation.Initial))
}

func (e *Engine) chooseLogin(ctx context.Context, t *turn, _ Event) error {
	return t.prompt(ctx, loginPrompt, conversation.SetStep(conversation.LoginChosen))
}

func (e *Engine) login(ctx context.Context, t *turn, ev Event) error {
	userID := strings.TrimSpace(ev.Text)
	if userID == "" {
		return &LookupError{UserID: userID, Err: media.ErrUserNotFound}
	}
	name, err := e.users.LookupName(ctx, userID)
	if err != nil {
		return &LookupError{UserID: userID, Err: err}
	}
	user := media.User{ID: userID, Name: name}
	return t.finish(ctx, e.loginDonePrompt(user),
		conversation.SetStep(conversation.Initial),
		conversation.SetUser(&user),
	)
}

func (e *Engine) chooseAudio(ctx context.Context, t *turn, _ Event) error {
	return t.prompt(ctx, audioPrompt, conversation.SetStep(conversation.AudioChosen))
}

func (e *Engine) receiveAudio(ctx context.Context, t *turn, ev Event) error {
	if err := t.prompt(ctx, processingPrompt); err != nil {
		return err
	}
	att := *ev.Audio
	url, err := e.uploader.Upload(ctx, e.job(path.Join(e.opts.AudioDir, att.FileID+".mp3"), att.FileID, att.Size))
	if err != nil {
		return err
	}
	rec := media.BuildAudio(att, t.user(), url, e.opts.Tags...)
	return t.prompt(ctx, photoPrompt,
		conversation.SetStep(conversation.AudioReceived),
		conversation.SetAudio(&rec),
	)
}

func (e *Engine) receivePhoto(ctx context.Context, t *turn, ev Event) error {
	if t.conv.PendingAudio == nil {
		return ErrNoPendingMedia
	}
	if err := t.prompt(ctx, processingPrompt); err != nil {
		return err
	}
	att := *ev.Photo
	url, err := e.uploader.Upload(ctx, e.job(path.Join(e.opts.PhotoDir, att.FileID+".jpg"), att.FileID, att.Size))
	if err != nil {
		return err
	}
	rec := media.WithArtwork(*t.conv.PendingAudio, url)
	return t.prompt(ctx, confirmPrompt(rec),
		conversation.SetStep(conversation.PhotoReceived),
		conversation.SetAudio(&rec),
	)
}

func (e *Engine) confirmAudio(ctx context.Context, t *turn, _ Event) error {
	if t.conv.PendingAudio == nil {
		return ErrNoPendingMedia
	}
	rec := t.conv.PendingAudio.Clone()
	if err := t.prompt(ctx, processingPrompt, conversation.SetStep(conversation.AudioProcessing)); err != nil {
		return err
	}
	return e.persist(ctx, t, e.opts.AudioCollection, rec)
}

func (e *Engine) chooseVideo(ctx context.Context, t *turn, _ Event) error {
	return t.prompt(ctx, videoPrompt, conversation.SetStep(conversation.VideoChosen))
}

func (e *Engine) receiveVideo(ctx context.Context, t *turn, ev Event) error {
	if err := t.prompt(ctx, processingPrompt); err != nil {
		return err
	}
	att := *ev.Video
	id := e.opts.NewID()

	jobs := []upload.Job{e.job(path.Join(e.opts.VideoDir, id+".mp4"), att.FileID, att.Size)}
	thumb := att.Thumbnail
	if thumb != nil && thumb.FileID != "" {
		jobs = append(jobs, e.job(path.Join(e.opts.ThumbnailDir, id+".jpg"), thumb.FileID, thumb.Size))
	}
	urls, err := e.uploader.UploadAll(ctx, jobs...)
	if err != nil {
		return err
	}

	rec := media.BuildVideo(id, att, t.user(), urls[0], e.opts.Tags...)
	if len(urls) > 1 {
		rec = media.WithThumbnail(rec, urls[1])
	}
	return t.prompt(ctx, confirmPrompt(rec),
		conversation.SetStep(conversation.VideoReceived),
		conversation.SetVideo(&rec),
	)
}

func (e *Engine) confirmVideo(ctx context.Context, t *turn, _ Event) error {
	if t.conv.PendingVideo == nil {
		return ErrNoPendingMedia
	}
	rec := t.conv.PendingVideo.Clone()
	if err := t.prompt(ctx, processingPrompt, conversation.SetStep(conversation.VideoProcessing)); err != nil {
		return err
	}
	return e.persist(ctx, t, e.opts.VideoCollection, rec)
}

func (e *Engine) cancel(ctx context.Context, t *turn, _ Event) error {
	return t.finish(ctx, e.cancelledPrompt(),
		conversation.SetStep(conversation.Initial),
		conversation.ClearMedia(),
	)
}

func (e *Engine) persist(ctx context.Context, t *turn, collection string, rec media.Record) error {
	if err := e.records.Put(ctx, collection, rec.RecordID(), rec); err != nil {
		return &PersistError{Collection: collection, ID: rec.RecordID(), Err: err}
	}
	return t.finish(ctx, e.succeededPrompt(),
		conversation.SetStep(conversation.Initial),
		conversation.ClearMedia(),
	)
}

func (e *Engine) job(dst, fileID string, size int64) upload.Job {
	return upload.Job{
		Path: dst,
		Size: size,
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			return e.messenger.AttachmentStream(ctx, fileID)
		},
	}
}
