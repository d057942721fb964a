package evidence

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) (*Renderer, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := viper.New()
	cfg.Set("evidence.output_path", filepath.Join(dir, "high_score_output.png"))
	cfg.Set("evidence.archive_dir", filepath.Join(dir, "high_score_images"))

	renderer, err := NewRenderer(cfg, nil)
	require.NoError(t, err)
	return renderer, dir
}

func TestRendererWritesOutputImage(t *testing.T) {
	t.Parallel()

	renderer, dir := newTestRenderer(t)
	record := domain.Record{
		Value:      700,
		Transcript: "You have $500.\r\nYou won! seven seven seven",
		SetAt:      time.Date(2026, 2, 14, 11, 5, 0, 0, time.UTC),
	}

	paths, err := renderer.Render(context.Background(), record)
	require.NoError(t, err)
	outputPath := filepath.Join(dir, "high_score_output.png")
	assert.Equal(t, []string{outputPath}, paths)

	file, err := os.Open(outputPath)
	require.NoError(t, err)
	defer file.Close()

	img, err := png.Decode(file)
	require.NoError(t, err)

	bounds := img.Bounds()
	assert.Equal(t, len("You won! seven seven seven")*7+2*margin, bounds.Dx())
	assert.Equal(t, 2*lineHeight+2*margin, bounds.Dy())

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})

	dark := false
	for y := bounds.Min.Y; y < bounds.Max.Y && !dark; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r < 0x8000 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark, "expected text pixels")

	_, err = os.Stat(filepath.Join(dir, "high_score_images"))
	assert.True(t, os.IsNotExist(err))
}

func TestRendererArchivesAboveThreshold(t *testing.T) {
	t.Parallel()

	renderer, dir := newTestRenderer(t)
	record := domain.Record{
		Value:      10001,
		Transcript: "JACKPOT! diamond diamond diamond\nYou now have $10001.",
		SetAt:      time.Date(2026, 2, 14, 11, 5, 9, 0, time.UTC),
	}

	paths, err := renderer.Render(context.Background(), record)
	require.NoError(t, err)

	archived := filepath.Join(dir, "high_score_images", "high_score_10001_20260214_110509.png")
	assert.Equal(t, []string{filepath.Join(dir, "high_score_output.png"), archived}, paths)
	assert.FileExists(t, archived)
}

func TestRendererDoesNotArchiveAtThreshold(t *testing.T) {
	t.Parallel()

	renderer, _ := newTestRenderer(t)
	paths, err := renderer.Render(context.Background(), domain.Record{Value: 10000, Transcript: "You now have $10000.", SetAt: time.Now()})
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestRendererSkipsEmptyTranscript(t *testing.T) {
	t.Parallel()

	renderer, dir := newTestRenderer(t)
	paths, err := renderer.Render(context.Background(), domain.Record{Value: 20000, Transcript: " \r\n\x07\n", SetAt: time.Now()})
	require.ErrorIs(t, err, domain.ErrEmptyTranscript)
	assert.Empty(t, paths)
	assert.NoFileExists(t, filepath.Join(dir, "high_score_output.png"))
}

func TestRendererHonoursContext(t *testing.T) {
	t.Parallel()

	renderer, _ := newTestRenderer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.Render(ctx, domain.Record{Value: 1, Transcript: "x"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCleanTranscript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "crlf", in: "a\r\nb", want: []string{"a", "b"}},
		{name: "bare cr", in: "a\rb", want: []string{"a", "b"}},
		{name: "control and non ascii", in: "\x1b[0mwon\té!", want: []string{"[0mwon!"}},
		{name: "keeps blank lines between text", in: "a\n\nb", want: []string{"a", "", "b"}},
		{name: "blank", in: "  \n\t", want: nil},
		{name: "empty", in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanTranscript(tt.in))
		})
	}
}

func TestNewRendererDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	renderer, err := NewRenderer(viper.New(), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, defaultOutputPath), renderer.outputPath)
	assert.Equal(t, filepath.Join(dir, defaultArchiveDir), renderer.archiveDir)
	assert.Equal(t, int64(defaultArchiveThreshold), renderer.archiveThreshold)
}
