package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/contexture/ai"
	"github.com/poiesic/contexture/ai/mock"
	"github.com/poiesic/contexture/core"
)

func pdfAsset(id string) *core.AssetInput {
	return &core.AssetInput{
		AssetId: id,
		Kind:    core.AssetKindPdf,
		Data:    []byte{0x25, 0x50, 0x44, 0x46},
	}
}

func emptyExtractor(name string) *mock.MockExtractor {
	ex := mock.NewMockExtractor()
	ex.NameValue = name
	ex.ExtractFunc = func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
		return &ai.ExtractionResult{}, nil
	}
	return ex
}

func textExtractor(name, content string) *mock.MockExtractor {
	ex := mock.NewMockExtractor()
	ex.NameValue = name
	ex.ExtractFunc = func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
		return &ai.ExtractionResult{
			Texts: []core.ExtractedText{{Label: "t", Content: content}},
		}, nil
	}
	return ex
}

func failingExtractor(name string) *mock.MockExtractor {
	ex := mock.NewMockExtractor()
	ex.NameValue = name
	ex.ExtractFunc = func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
		return nil, errors.New("boom")
	}
	return ex
}

func TestFallbackChainStopsOnFirstNonEmpty(t *testing.T) {
	a := emptyExtractor("A")
	b := textExtractor("B", "x")
	router, err := NewRouter([]ai.AssetExtractor{a, b})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Equal(t, 1, a.CallCount())
	assert.Equal(t, 1, b.CallCount())
	require.Len(t, out.Texts, 1)
	assert.Equal(t, "B", out.Texts[0].Extractor)
	assert.Equal(t, "x", out.Texts[0].Text.Content)
	assert.Empty(t, out.Warnings)
}

func TestFallbackChainShortCircuits(t *testing.T) {
	a := textExtractor("A", "x")
	b := textExtractor("B", "y")
	router, err := NewRouter([]ai.AssetExtractor{a, b})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Equal(t, 1, a.CallCount())
	assert.Equal(t, 0, b.CallCount())
	require.Len(t, out.Texts, 1)
	assert.Equal(t, "A", out.Texts[0].Extractor)
}

func TestPdfDisabledYieldsSingleWarning(t *testing.T) {
	router, err := NewRouter([]ai.AssetExtractor{textExtractor("A", "x")})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	cfg.Pdf.Enabled = false
	out, err := router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Empty(t, out.Texts)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnPdfExtractionDisabled, out.Warnings[0].Code)
	assert.Equal(t, "p1", out.Warnings[0].AssetId)
}

func TestUnknownKindSkipsOrFailsByPolicy(t *testing.T) {
	router, err := NewRouter(nil)
	require.NoError(t, err)
	asset := &core.AssetInput{AssetId: "a1", Kind: core.AssetKind("hologram")}

	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnUnsupportedKind, out.Warnings[0].Code)

	cfg.OnUnsupportedAsset = core.PolicyFail
	_, err = router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssetFailed)
}

func TestNoInstalledExtractorWarns(t *testing.T) {
	imageOnly := mock.NewMockExtractor()
	imageOnly.Kinds = []core.AssetKind{core.AssetKindImage}
	router, err := NewRouter([]ai.AssetExtractor{imageOnly})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.NoError(t, err)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnUnsupportedKind, out.Warnings[0].Code)
	assert.Equal(t, 0, imageOnly.CallCount())
}

func TestEmptyExtractionWarningPerKind(t *testing.T) {
	tests := []struct {
		name     string
		asset    *core.AssetInput
		wantCode core.WarningCode
	}{
		{
			name:     "pdf gets pdf-specific code",
			asset:    pdfAsset("p1"),
			wantCode: core.WarnPdfEmptyExtraction,
		},
		{
			name:     "audio gets generic code",
			asset:    &core.AssetInput{AssetId: "a1", Kind: core.AssetKindAudio, Data: []byte{1}},
			wantCode: core.WarnExtractionEmpty,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, err := NewRouter([]ai.AssetExtractor{emptyExtractor("A")})
			require.NoError(t, err)

			cfg := core.DefaultAssetProcessingConfig()
			out, err := router.Process(context.Background(), tt.asset, &cfg, core.EventScope{})
			require.NoError(t, err)

			assert.Empty(t, out.Texts)
			require.Len(t, out.Warnings, 1)
			assert.Equal(t, tt.wantCode, out.Warnings[0].Code)
		})
	}
}

func TestExtractorErrorSkipsToNextInChain(t *testing.T) {
	a := failingExtractor("A")
	b := textExtractor("B", "recovered")
	router, err := NewRouter([]ai.AssetExtractor{a, b})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.NoError(t, err)

	require.Len(t, out.Texts, 1)
	assert.Equal(t, "B", out.Texts[0].Extractor)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnProcessingError, out.Warnings[0].Code)
	assert.Equal(t, core.StageExtract, out.Warnings[0].Stage)
}

func TestExtractorErrorFailsUnderFailPolicy(t *testing.T) {
	router, err := NewRouter([]ai.AssetExtractor{failingExtractor("A")})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	cfg.OnError = core.PolicyFail
	_, err = router.Process(context.Background(), pdfAsset("p1"), &cfg, core.EventScope{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAssetFailed)
}

func TestImageMultimodalBypassesExtractors(t *testing.T) {
	ex := mock.NewMockExtractor()
	ex.Kinds = []core.AssetKind{core.AssetKindPdf}
	router, err := NewRouter([]ai.AssetExtractor{ex}, WithMultimodal(true))
	require.NoError(t, err)

	asset := &core.AssetInput{
		AssetId:  "img1",
		Kind:     core.AssetKindImage,
		Data:     []byte{0x89, 0x50},
		Text:     "a red bicycle",
		Metadata: map[string]string{"media_type": "image/png"},
	}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	require.NotNil(t, out.Image)
	assert.Equal(t, []byte{0x89, 0x50}, out.Image.Data)
	assert.Equal(t, "image/png", out.Image.MediaType)
	assert.Equal(t, "a red bicycle", out.Image.Caption)
	assert.Empty(t, out.Warnings)
}

func TestImageCaptionFallbackWithoutMultimodal(t *testing.T) {
	router, err := NewRouter(nil)
	require.NoError(t, err)

	asset := &core.AssetInput{
		AssetId: "img1",
		Kind:    core.AssetKindImage,
		Data:    []byte{1},
		Text:    "a red bicycle",
	}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Nil(t, out.Image)
	require.Len(t, out.Texts, 1)
	assert.Equal(t, CaptionSource, out.Texts[0].Extractor)
	assert.Equal(t, "a red bicycle", out.Texts[0].Text.Content)
}

func TestImageExtractorsRunAdditively(t *testing.T) {
	ex := textExtractor("vision", "a description")
	router, err := NewRouter([]ai.AssetExtractor{ex}, WithMultimodal(true))
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "img1", Kind: core.AssetKindImage, Data: []byte{1}}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	require.NotNil(t, out.Image)
	require.Len(t, out.Texts, 1)
	assert.Equal(t, "vision", out.Texts[0].Extractor)
}

func TestImageNeitherPathWarns(t *testing.T) {
	router, err := NewRouter(nil)
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "img1", Kind: core.AssetKindImage, Data: []byte{1}}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnImageNoMultimodalNoCaption, out.Warnings[0].Code)
}

type stubFetcher struct {
	data        []byte
	contentType string
	err         error
	urls        []string
}

func (f *stubFetcher) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	f.urls = append(f.urls, url)
	return f.data, f.contentType, f.err
}

func TestURLSourcedAssetIsFetchedBeforeExtraction(t *testing.T) {
	var seen []byte
	ex := mock.NewMockExtractor()
	ex.ExtractFunc = func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
		seen = asset.Data
		return &ai.ExtractionResult{Texts: []core.ExtractedText{{Content: "ok"}}}, nil
	}
	fetcher := &stubFetcher{data: []byte("payload")}
	router, err := NewRouter([]ai.AssetExtractor{ex}, WithFetcher(fetcher))
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "p1", Kind: core.AssetKindPdf, URL: "http://example.com/doc.pdf"}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Equal(t, []string{"http://example.com/doc.pdf"}, fetcher.urls)
	assert.Equal(t, []byte("payload"), seen)
	require.Len(t, out.Texts, 1)
}

func TestFetchedContentTypeSetsMediaType(t *testing.T) {
	var seen string
	ex := mock.NewMockExtractor()
	ex.ExtractFunc = func(ctx context.Context, asset *core.AssetInput, ectx ai.ExtractionContext) (*ai.ExtractionResult, error) {
		seen = asset.Metadata["media_type"]
		return &ai.ExtractionResult{Texts: []core.ExtractedText{{Content: "ok"}}}, nil
	}
	fetcher := &stubFetcher{data: []byte("payload"), contentType: "application/pdf"}
	router, err := NewRouter([]ai.AssetExtractor{ex}, WithFetcher(fetcher))
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "p1", Kind: core.AssetKindPdf, URL: "http://example.com/doc"}
	cfg := core.DefaultAssetProcessingConfig()
	_, err = router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", seen)

	// The input asset is not mutated.
	assert.Nil(t, asset.Metadata)

	// A caller-supplied media type wins over the response header.
	fetcher.contentType = "application/octet-stream"
	asset = &core.AssetInput{
		AssetId:  "p2",
		Kind:     core.AssetKindPdf,
		URL:      "http://example.com/doc",
		Metadata: map[string]string{"media_type": "application/pdf"},
	}
	_, err = router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", seen)
}

func TestFetchFailureWarnsWithFetchStage(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("connection refused")}
	router, err := NewRouter([]ai.AssetExtractor{textExtractor("A", "x")}, WithFetcher(fetcher))
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "p1", Kind: core.AssetKindPdf, URL: "http://example.com/doc.pdf"}
	cfg := core.DefaultAssetProcessingConfig()
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	assert.Empty(t, out.Texts)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnProcessingError, out.Warnings[0].Code)
	assert.Equal(t, core.StageFetch, out.Warnings[0].Stage)
}

func TestInlinePayloadOverSizeCapWarns(t *testing.T) {
	router, err := NewRouter([]ai.AssetExtractor{textExtractor("A", "x")})
	require.NoError(t, err)

	asset := &core.AssetInput{AssetId: "p1", Kind: core.AssetKindPdf, Data: make([]byte, 64)}
	cfg := core.DefaultAssetProcessingConfig()
	cfg.Pdf.MaxBytes = 32
	out, err := router.Process(context.Background(), asset, &cfg, core.EventScope{})
	require.NoError(t, err)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, core.WarnProcessingError, out.Warnings[0].Code)
	assert.Equal(t, core.StageFetch, out.Warnings[0].Stage)
}

func TestExtractorEventsAreEmitted(t *testing.T) {
	var events []core.Event
	sink := sinkFunc(func(e core.Event) { events = append(events, e) })

	router, err := NewRouter([]ai.AssetExtractor{textExtractor("A", "x")}, WithEventSink(sink))
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	scope := core.EventScope{SessionId: "s", OperationId: "op"}
	_, err = router.Process(context.Background(), pdfAsset("p1"), &cfg, scope)
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "extractor:start", events[0].Name)
	assert.Equal(t, "extractor:success", events[1].Name)
	assert.Equal(t, "op", events[0].OperationId)
	assert.Equal(t, "p1", events[0].SpanId)
}

type sinkFunc func(core.Event)

func (f sinkFunc) OnEvent(e core.Event) { f(e) }

func TestPlanAsset(t *testing.T) {
	ex := textExtractor("A", "x")
	router, err := NewRouter([]ai.AssetExtractor{ex})
	require.NoError(t, err)
	cfg := core.DefaultAssetProcessingConfig()

	tests := []struct {
		name         string
		asset        *core.AssetInput
		mutate       func(*core.AssetProcessingConfig)
		wantDecision core.AssetDecision
		wantCode     core.WarningCode
	}{
		{
			name:         "pdf with extractor will process",
			asset:        pdfAsset("p1"),
			wantDecision: core.AssetWillProcess,
		},
		{
			name:         "unknown kind will skip",
			asset:        &core.AssetInput{AssetId: "a", Kind: core.AssetKind("nope")},
			wantDecision: core.AssetWillSkip,
			wantCode:     core.WarnUnsupportedKind,
		},
		{
			name:  "disabled pdf will skip",
			asset: pdfAsset("p1"),
			mutate: func(c *core.AssetProcessingConfig) {
				c.Pdf.Enabled = false
			},
			wantDecision: core.AssetWillSkip,
			wantCode:     core.WarnPdfExtractionDisabled,
		},
		{
			name:         "image without any path will skip",
			asset:        &core.AssetInput{AssetId: "i", Kind: core.AssetKindImage, Data: []byte{1}},
			wantDecision: core.AssetWillSkip,
			wantCode:     core.WarnImageNoMultimodalNoCaption,
		},
		{
			name:         "image with caption will process",
			asset:        &core.AssetInput{AssetId: "i", Kind: core.AssetKindImage, Data: []byte{1}, Text: "cap"},
			wantDecision: core.AssetWillProcess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			plan := router.PlanAsset(tt.asset, &c)
			assert.Equal(t, tt.wantDecision, plan.Decision)
			assert.Equal(t, tt.wantCode, plan.WarningCode)
			assert.Zero(t, ex.CallCount(), "planning must not invoke extractors")
		})
	}
}

func TestPlanAssetListsMatchingExtractors(t *testing.T) {
	a := emptyExtractor("A")
	b := textExtractor("B", "x")
	router, err := NewRouter([]ai.AssetExtractor{a, b})
	require.NoError(t, err)

	cfg := core.DefaultAssetProcessingConfig()
	plan := router.PlanAsset(pdfAsset("p1"), &cfg)
	assert.Equal(t, core.AssetWillProcess, plan.Decision)
	assert.Equal(t, []string{"A", "B"}, plan.Extractors)
}
