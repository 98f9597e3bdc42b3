package wordcloud

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"

	"github.com/psykhi/wordclouds"
	"go.uber.org/zap"

	"tahlil/core"
	"tahlil/metrics"
)

// ErrNoContent is returned when a document has no content words to draw.
var ErrNoContent = errors.New("no content words to render")

var defaultPalette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// Renderer draws word clouds for analyzed documents.
type Renderer struct {
	width    int
	height   int
	maxWords int
	fontFile string
	logger   *zap.SugaredLogger
}

// NewRenderer validates the font file up front so a missing font surfaces
// at startup rather than on the first request.
func NewRenderer(width, height, maxWords int, fontFile string, logger *zap.SugaredLogger) (*Renderer, error) {
	if _, err := os.Stat(fontFile); err != nil {
		return nil, fmt.Errorf("word cloud font %s: %w", fontFile, err)
	}
	return &Renderer{
		width:    width,
		height:   height,
		maxWords: maxWords,
		fontFile: fontFile,
		logger:   logger,
	}, nil
}

// Render draws a PNG word cloud from the document's content words.
func (r *Renderer) Render(doc *core.Doc) ([]byte, error) {
	counts := Frequencies(doc.ContentWords(), r.maxWords)
	if len(counts) == 0 {
		return nil, ErrNoContent
	}

	colors := make([]color.Color, len(defaultPalette))
	for i, c := range defaultPalette {
		colors[i] = c
	}

	cloud := wordclouds.NewWordcloud(counts,
		wordclouds.FontFile(r.fontFile),
		wordclouds.FontMaxSize(r.height/3),
		wordclouds.FontMinSize(10),
		wordclouds.Colors(colors),
		wordclouds.BackgroundColor(color.White),
		wordclouds.Width(r.width),
		wordclouds.Height(r.height),
	)
	img := cloud.Draw()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding word cloud: %w", err)
	}

	metrics.WordcloudsRendered.Inc()
	r.logger.Debugw("rendered word cloud", "words", len(counts), "bytes", buf.Len())
	return buf.Bytes(), nil
}
