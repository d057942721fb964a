package evidence

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/slotbot/internal/domain"
	"github.com/bnema/slotbot/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	outputPathKey       = "evidence.output_path"
	archiveDirKey       = "evidence.archive_dir"
	archiveThresholdKey = "evidence.archive_threshold"

	defaultOutputPath       = "high_score_output.png"
	defaultArchiveDir       = "high_score_images"
	defaultArchiveThreshold = 10000

	margin          = 10
	lineHeight      = 14
	archiveLayout   = "20060102_150405"
	imageFileMode   = 0o644
	archiveDirMode  = 0o755
	tempFilePattern = ".evidence-*.png.tmp"
)

// Renderer draws a record's transcript as black monospace text on a white
// PNG. The latest record always replaces the output file; records above the
// archive threshold also get a timestamped copy.
type Renderer struct {
	outputPath       string
	archiveDir       string
	archiveThreshold int64
	face             font.Face
	logger           *zap.Logger
}

var _ ports.EvidenceRenderer = (*Renderer)(nil)

func NewRenderer(cfg *viper.Viper, logger *zap.Logger) (*Renderer, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.SetDefault(outputPathKey, defaultOutputPath)
	cfg.SetDefault(archiveDirKey, defaultArchiveDir)
	cfg.SetDefault(archiveThresholdKey, defaultArchiveThreshold)

	outputPath, err := filepath.Abs(cfg.GetString(outputPathKey))
	if err != nil {
		return nil, fmt.Errorf("resolve evidence output path: %w", err)
	}
	archiveDir, err := filepath.Abs(cfg.GetString(archiveDirKey))
	if err != nil {
		return nil, fmt.Errorf("resolve evidence archive dir: %w", err)
	}

	return &Renderer{
		outputPath:       outputPath,
		archiveDir:       archiveDir,
		archiveThreshold: cfg.GetInt64(archiveThresholdKey),
		face:             basicfont.Face7x13,
		logger:           logger,
	}, nil
}

// Render writes the transcript image and returns the paths it wrote.
func (r *Renderer) Render(ctx context.Context, record domain.Record) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lines := cleanTranscript(record.Transcript)
	if len(lines) == 0 {
		r.logger.Info("no text to render, image not created", zap.Int64("value", record.Value))
		return nil, domain.ErrEmptyTranscript
	}

	data, err := r.encode(lines)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(r.outputPath), archiveDirMode); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}

	var written []string
	if err := writeFileAtomic(r.outputPath, data); err != nil {
		return nil, err
	}
	written = append(written, r.outputPath)
	r.logger.Info("evidence image saved", zap.String("path", r.outputPath), zap.Int64("value", record.Value))

	if record.Value <= r.archiveThreshold {
		return written, nil
	}

	if err := os.MkdirAll(r.archiveDir, archiveDirMode); err != nil {
		return written, fmt.Errorf("create archive directory: %w", err)
	}
	archivePath := filepath.Join(r.archiveDir, archiveName(record))
	if err := writeFileAtomic(archivePath, data); err != nil {
		return written, err
	}
	written = append(written, archivePath)
	r.logger.Info("evidence image archived", zap.String("path", archivePath), zap.Int64("value", record.Value))

	return written, nil
}

func (r *Renderer) encode(lines []string) ([]byte, error) {
	advance := font.MeasureString(r.face, "M").Ceil()
	width := 0
	for _, line := range lines {
		width = max(width, len(line)*advance)
	}

	img := image.NewRGBA(image.Rect(0, 0, width+2*margin, len(lines)*lineHeight+2*margin))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
	}
	ascent := r.face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		drawer.Dot = fixed.P(margin, margin+i*lineHeight+ascent)
		drawer.DrawString(line)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode evidence image: %w", err)
	}

	return buf.Bytes(), nil
}

func archiveName(record domain.Record) string {
	return fmt.Sprintf("high_score_%d_%s.png", record.Value, record.SetAt.Format(archiveLayout))
}

// cleanTranscript splits on any line ending and keeps printable ASCII only.
// It returns nil when no line has visible text.
func cleanTranscript(transcript string) []string {
	normalized := strings.ReplaceAll(transcript, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	visible := false
	for i, line := range lines {
		lines[i] = strings.Map(func(r rune) rune {
			if r < 0x20 || r > 0x7e {
				return -1
			}
			return r
		}, line)
		if strings.TrimSpace(lines[i]) != "" {
			visible = true
		}
	}
	if !visible {
		return nil
	}

	return lines
}

func writeFileAtomic(path string, data []byte) error {
	tempFile, err := os.CreateTemp(filepath.Dir(path), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp evidence file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp evidence file: %w", err)
	}
	if err := tempFile.Chmod(imageFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp evidence file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp evidence file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	cleanup = false

	return nil
}
