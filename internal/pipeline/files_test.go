package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixivarc/pkg/pixiv"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))))
	return buf.Bytes()
}

func runDownloadStage(p *Pipeline, batches ...FileBatch) {
	ch := make(chan FileBatch, len(batches))
	for _, batch := range batches {
		ch <- batch
	}
	close(ch)
	p.downloadFiles(context.Background(), ch)
}

func TestDownloadEmptyBatchResolvesImmediately(t *testing.T) {
	p := newTestPipeline(&mockAPI{}, &mockDownloader{}, newMockStore(), nil)

	pending := NewPendingFiles()
	runDownloadStage(p, FileBatch{Pending: pending})

	files, err := pending.Await()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDownloadBatchSuccess(t *testing.T) {
	downloader := &mockDownloader{content: map[string][]byte{
		"https://i.pximg.net/a.png": []byte("aaa"),
		"https://i.pximg.net/b.png": []byte("bbb"),
	}}
	p := newTestPipeline(&mockAPI{}, downloader, newMockStore(), nil)

	pending := NewPendingFiles()
	runDownloadStage(p, FileBatch{
		Requests: []FileRequest{
			ImageRequest("https://i.pximg.net/a.png"),
			ImageRequest("https://i.pximg.net/b.png"),
		},
		Pending: pending,
	})

	files, err := pending.Await()
	require.NoError(t, err)
	require.Len(t, files, 2)

	for url, path := range files {
		data, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Equal(t, downloader.content[url], data)
		os.Remove(path)
	}
}

func TestDownloadBatchFailureFailsWholeBatch(t *testing.T) {
	downloader := &mockDownloader{
		content: map[string][]byte{"https://i.pximg.net/a.png": []byte("aaa")},
		fail:    map[string]bool{"https://i.pximg.net/b.png": true},
	}
	p := newTestPipeline(&mockAPI{}, downloader, newMockStore(), nil)

	pending := NewPendingFiles()
	runDownloadStage(p, FileBatch{
		Requests: []FileRequest{
			ImageRequest("https://i.pximg.net/a.png"),
			ImageRequest("https://i.pximg.net/b.png"),
		},
		Pending: pending,
	})

	_, err := pending.Await()
	require.Error(t, err)
}

func TestDownloadAnimationUnsupported(t *testing.T) {
	downloader := &mockDownloader{}
	p := newTestPipeline(&mockAPI{}, downloader, newMockStore(), nil)

	pending := NewPendingFiles()
	runDownloadStage(p, FileBatch{
		Requests: []FileRequest{
			AnimationRequest("https://i.pximg.net/123.zip", []pixiv.UgoiraFrame{{File: "000000.jpg", Delay: 100}}),
		},
		Pending: pending,
	})

	_, err := pending.Await()
	require.Error(t, err)
	assert.Empty(t, downloader.calls)
}

func TestDownloadSizedImageResized(t *testing.T) {
	downloader := &mockDownloader{content: map[string][]byte{
		"https://i.pximg.net/cover.jpg": pngBytes(t, 10, 10),
	}}
	p := newTestPipeline(&mockAPI{}, downloader, newMockStore(), nil)

	pending := NewPendingFiles()
	runDownloadStage(p, FileBatch{
		Requests: []FileRequest{SizedImageRequest("https://i.pximg.net/cover.jpg", 427, 600)},
		Pending:  pending,
	})

	files, err := pending.Await()
	require.NoError(t, err)
	path := files["https://i.pximg.net/cover.jpg"]
	defer os.Remove(path)

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoded, _, err := image.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 427, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func TestResizeSkipsMatchingDimensions(t *testing.T) {
	path := writeTempFile(t, pngBytes(t, 427, 600))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, resizeImageFile(path, 427, 600))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestResizeRewritesDifferingDimensions(t *testing.T) {
	path := writeTempFile(t, pngBytes(t, 10, 20))

	require.NoError(t, resizeImageFile(path, 427, 600))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	decoded, format, err := image.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 427, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func writeTempFile(t *testing.T, data []byte) string {
	t.Helper()

	tmp, err := os.CreateTemp(t.TempDir(), "resize-*")
	require.NoError(t, err)
	_, err = tmp.Write(data)
	require.NoError(t, err)
	require.NoError(t, tmp.Close())
	return tmp.Name()
}
