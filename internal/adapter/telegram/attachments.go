package telegram

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// attachment is a downloadable recording in a message.
type attachment struct {
	fileID   string
	filename string
}

// audioAttachment picks the recording of msg: a voice note, an audio file,
// or a document with an audio mime type.
func audioAttachment(msg *tgbotapi.Message) (attachment, bool) {
	switch {
	case msg.Voice != nil:
		return attachment{
			fileID:   msg.Voice.FileID,
			filename: fileName("voice", "", msg.Voice.MimeType, ".ogg"),
		}, true
	case msg.Audio != nil:
		return attachment{
			fileID:   msg.Audio.FileID,
			filename: fileName("audio", msg.Audio.FileName, msg.Audio.MimeType, ".mp3"),
		}, true
	case msg.Document != nil && strings.HasPrefix(strings.ToLower(msg.Document.MimeType), "audio/"):
		return attachment{
			fileID:   msg.Document.FileID,
			filename: fileName("audio", msg.Document.FileName, msg.Document.MimeType, ""),
		}, true
	}
	return attachment{}, false
}

// fileName keeps name when it has an extension, otherwise derives one from
// the mime type.
func fileName(base, name, mimeType, fallbackExt string) string {
	if filepath.Ext(name) != "" {
		return name
	}
	if name == "" {
		name = base
	}
	ext := fallbackExt
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}
	return name + ext
}

func (b *Bot) download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("telegram file download: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
