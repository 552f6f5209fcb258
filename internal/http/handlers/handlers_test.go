package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qlweb/internal/brotherql"
	"qlweb/internal/config"
	"qlweb/internal/domain"
	"qlweb/internal/infra/cache"
	"qlweb/internal/infra/fonts"
)

type fakeBackend struct {
	mu       sync.Mutex
	written  []byte
	writeErr error
	closed   bool
}

func (b *fakeBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.written = append(b.written, data...)
	return nil
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return nil
}

type fakeJournal struct {
	mu      sync.Mutex
	records []domain.PrintRecord
	err     error
}

func (j *fakeJournal) Record(ctx context.Context, rec domain.PrintRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, rec)
	return nil
}

func (j *fakeJournal) Recent(ctx context.Context, limit int) ([]domain.PrintRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return nil, j.err
	}
	if limit < len(j.records) {
		return j.records[:limit], nil
	}
	return j.records, nil
}

type fakeEvents struct {
	published []domain.PrintRecord
}

func (e *fakeEvents) PublishPrint(rec domain.PrintRecord) error {
	e.published = append(e.published, rec)
	return nil
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Label.DefaultFont = config.FontSpec{Family: "Go", Style: "Regular"}
	cfg.Server.DebugOutput = filepath.Join(t.TempDir(), "sample-out.png")
	cfg.Printer.Printer = "tcp://127.0.0.1:9100"
	return cfg
}

type testEnv struct {
	app     *fiber.App
	backend *fakeBackend
	journal *fakeJournal
	events  *fakeEvents
	cfg     config.Config
}

func newTestEnv(t *testing.T, debug bool, previews *cache.Preview) *testEnv {
	t.Helper()
	env := &testEnv{
		backend: &fakeBackend{},
		journal: &fakeJournal{},
		events:  &fakeEvents{},
		cfg:     testConfig(t),
	}
	open := func(string) (brotherql.Backend, error) { return env.backend, nil }
	printer := NewPrintService(env.cfg, open, env.journal, env.events, func() bool { return debug })
	h := New(env.cfg, fonts.NewRegistry(), previews, printer, env.journal)

	app := fiber.New()
	app.Get("/", h.Index)
	app.Get("/labeldesigner", h.Designer)
	app.Get("/api/labels", h.Labels)
	app.Get("/api/prints", h.Prints)
	app.All("/api/preview/text", h.PreviewText)
	app.All("/api/preview/grocy", h.PreviewGrocy)
	app.All("/api/print/text", h.PrintText)
	app.All("/api/print/grocy", h.PrintGrocy)
	env.app = app
	return env
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return body
}

func parseWith(t *testing.T, cfg config.Config, form url.Values) (*domain.LabelContext, error) {
	t.Helper()
	var (
		lc  *domain.LabelContext
		err error
	)
	app := fiber.New()
	app.Post("/", func(c *fiber.Ctx) error {
		lc, err = parseLabelContext(c, cfg, fonts.NewRegistry())
		return nil
	})
	resp := postForm(t, app, "/", form)
	resp.Body.Close()
	return lc, err
}

func TestParseLabelContext_Defaults(t *testing.T) {
	lc, err := parseWith(t, testConfig(t), url.Values{"text": {"Hello"}})
	require.NoError(t, err)

	assert.Equal(t, "Hello", lc.Text)
	assert.Equal(t, "62", lc.LabelSize)
	assert.Equal(t, 40, lc.FontSize)
	assert.Equal(t, 10, lc.Margin)
	assert.Equal(t, 70, lc.Threshold)
	assert.Equal(t, domain.AlignCenter, lc.Align)
	assert.Equal(t, domain.OrientationStandard, lc.Orientation)
	assert.Equal(t, 10, lc.MarginTop)
	assert.Equal(t, 10, lc.MarginRight)
	assert.Equal(t, "Go", lc.FontFamily)
	assert.Equal(t, "Regular", lc.FontStyle)
	assert.Equal(t, brotherql.EndlessLabel, lc.Kind)
	assert.Equal(t, 696, lc.Width)
	assert.Equal(t, 0, lc.Height)
	assert.Equal(t, domain.Black, lc.FillColor)
	assert.False(t, lc.Red)
	assert.Equal(t, domain.CodeDataMatrix, lc.CodeType)
}

func TestParseLabelContext_Fields(t *testing.T) {
	lc, err := parseWith(t, testConfig(t), url.Values{
		"text":        {"x"},
		"font_size":   {"60.0"},
		"font_family": {"Go Mono (Bold)"},
		"label_size":  {"29x90"},
		"orientation": {"Rotated"},
		"align":       {"right"},
		"margin_top":  {"50"},
		"margin_left": {"0"},
		"code_type":   {"QRCode"},
		"product":     {"Milk"},
		"grocycode":   {"grcy:p:1"},
		"due_date":    {"2026-10-20"},
	})
	require.NoError(t, err)

	assert.Equal(t, 60, lc.FontSize)
	assert.Equal(t, "Go Mono", lc.FontFamily)
	assert.Equal(t, "Bold", lc.FontStyle)
	assert.Equal(t, brotherql.DieCutLabel, lc.Kind)
	assert.Equal(t, 306, lc.Width)
	assert.Equal(t, 991, lc.Height)
	assert.Equal(t, domain.AlignRight, lc.Align)
	assert.Equal(t, 30, lc.MarginTop)
	assert.Equal(t, 0, lc.MarginLeft)
	assert.Equal(t, 15, lc.MarginBottom)
	assert.Equal(t, domain.CodeQR, lc.CodeType)
	assert.Equal(t, "Milk", lc.GrocyName())
	assert.Equal(t, "2026-10-20", lc.DueDate)
}

func TestParseLabelContext_FractionalMargins(t *testing.T) {
	lc, err := parseWith(t, testConfig(t), url.Values{
		"text":          {"x"},
		"font_size":     {"40"},
		"margin_top":    {"37.5"},
		"margin_bottom": {"12.5"},
		"margin_left":   {"1000"},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, lc.MarginTop)
	assert.Equal(t, 5, lc.MarginBottom)
	assert.Equal(t, 400, lc.MarginLeft)
	assert.Equal(t, 10, lc.MarginRight)
}

func TestParseLabelContext_RedLabel(t *testing.T) {
	lc, err := parseWith(t, testConfig(t), url.Values{"text": {"x"}, "label_size": {"62red"}})
	require.NoError(t, err)
	assert.True(t, lc.Red)
	assert.Equal(t, domain.Red, lc.FillColor)
}

func TestParseLabelContext_Code128FromEnv(t *testing.T) {
	t.Setenv("Code128", "1")
	lc, err := parseWith(t, testConfig(t), url.Values{"text": {"x"}})
	require.NoError(t, err)
	assert.Equal(t, domain.CodeCode128, lc.CodeType)
}

func TestParseLabelContext_Errors(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		status  int
		wantErr error
	}{
		{"bad font size", url.Values{"font_size": {"big"}}, fiber.StatusBadRequest, nil},
		{"zero font size", url.Values{"font_size": {"0"}}, fiber.StatusBadRequest, nil},
		{"bad align", url.Values{"align": {"justify"}}, fiber.StatusBadRequest, nil},
		{"bad orientation", url.Values{"orientation": {"sideways"}}, fiber.StatusBadRequest, nil},
		{"bad margin", url.Values{"margin_top": {"-x"}}, fiber.StatusBadRequest, nil},
		{"font size too large", url.Values{"font_size": {"5000"}}, fiber.StatusBadRequest, nil},
		{"font size overflows int", url.Values{"font_size": {"1e300"}}, fiber.StatusBadRequest, nil},
		{"font size not a number", url.Values{"font_size": {"NaN"}}, fiber.StatusBadRequest, nil},
		{"huge margin", url.Values{"margin_top": {"50000000000000000"}}, fiber.StatusBadRequest, nil},
		{"negative margin", url.Values{"margin_left": {"-5"}}, fiber.StatusBadRequest, nil},
		{"infinite margin", url.Values{"margin_right": {"Inf"}}, fiber.StatusBadRequest, nil},
		{"bad code type", url.Values{"code_type": {"ean13"}}, fiber.StatusBadRequest, nil},
		{"unknown font", url.Values{"font_family": {"Comic Sans (Regular)"}}, 0, domain.ErrUnknownFont},
		{"unknown style", url.Values{"font_family": {"Go (Heavy)"}}, 0, domain.ErrUnknownFont},
		{"unknown label", url.Values{"label_size": {"999"}}, 0, domain.ErrUnknownLabelSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseWith(t, testConfig(t), tt.form)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var fe *fiber.Error
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.status, fe.Code)
		})
	}
}

func TestSplitFontFamily(t *testing.T) {
	tests := []struct {
		in, family, style string
	}{
		{"DejaVu Sans (Book)", "DejaVu Sans", "Book"},
		{"Go Mono (Bold Italic)", "Go Mono", "Bold Italic"},
		{"  Go  ", "Go", ""},
		{"Font (v2) (Regular)", "Font (v2)", "Regular"},
		{"Broken (Regular", "Broken (Regular", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		family, style := splitFontFamily(tt.in)
		assert.Equal(t, tt.family, family, tt.in)
		assert.Equal(t, tt.style, style, tt.in)
	}
}

func TestResolveFont(t *testing.T) {
	reg := fonts.NewRegistry()
	def := config.FontSpec{Family: "Go", Style: "Bold"}

	family, style, path, err := resolveFont(reg, "", def)
	require.NoError(t, err)
	assert.Equal(t, "Go", family)
	assert.Equal(t, "Bold", style)
	assert.NotEmpty(t, path)

	// Family only: the default style is kept when the family matches.
	_, style, _, err = resolveFont(reg, "Go", def)
	require.NoError(t, err)
	assert.Equal(t, "Bold", style)

	// Other family without a style takes its first style.
	_, style, _, err = resolveFont(reg, "Go Mono", def)
	require.NoError(t, err)
	assert.Equal(t, reg.Styles("Go Mono")[0], style)

	_, _, _, err = resolveFont(reg, "Nope", def)
	assert.ErrorIs(t, err, domain.ErrUnknownFont)
}

func TestIndexRedirects(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/labeldesigner", resp.Header.Get(fiber.HeaderLocation))
}

func TestDesignerPage(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/labeldesigner", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")

	body := string(readBody(t, resp))
	assert.Contains(t, body, env.cfg.Website.PageTitle)
	assert.Contains(t, body, `value="Go (Regular)" selected`)
	assert.Contains(t, body, "Go Mono (Bold)")
	assert.Contains(t, body, `value="62"`)
	assert.NotContains(t, body, `value="62red"`)
}

func TestLabelsAPI(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/labels", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Model       string        `json:"model"`
		DefaultSize string        `json:"default_size"`
		Labels      []labelOption `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, resp), &body))
	assert.Equal(t, "QL-500", body.Model)
	assert.Equal(t, "62", body.DefaultSize)

	ids := map[string]labelOption{}
	for _, l := range body.Labels {
		ids[l.Identifier] = l
	}
	require.Contains(t, ids, "62")
	assert.Equal(t, "endless", ids["62"].Kind)
	assert.Equal(t, 696, ids["62"].Width)
	assert.NotContains(t, ids, "62red")
}

func TestPreviewText_PNG(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp := postForm(t, env.app, "/api/preview/text", url.Values{"text": {"Hello"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))
	body := readBody(t, resp)
	assert.Equal(t, "\x89PNG", string(body[:4]))
}

func TestPreviewText_Base64Query(t *testing.T) {
	env := newTestEnv(t, true, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/preview/text?text=Hi&return_format=base64", nil)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/plain")

	decoded, err := base64.StdEncoding.DecodeString(string(readBody(t, resp)))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(decoded[:4]))
}

func TestPreviewText_UsesCache(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	env := newTestEnv(t, true, cache.NewPreview(rdb, time.Minute))

	form := url.Values{"text": {"cached label"}}
	first := postForm(t, env.app, "/api/preview/text", form)
	require.Equal(t, fiber.StatusOK, first.StatusCode)
	readBody(t, first)

	keys := s.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "qlweb:preview:text:"))

	require.NoError(t, s.Set(keys[0], "from-cache"))
	second := postForm(t, env.app, "/api/preview/text", form)
	assert.Equal(t, "from-cache", string(readBody(t, second)))

	other := postForm(t, env.app, "/api/preview/text", url.Values{"text": {"other"}})
	readBody(t, other)
	assert.Len(t, s.Keys(), 2)
}

func TestPreviewText_Errors(t *testing.T) {
	env := newTestEnv(t, true, nil)

	resp := postForm(t, env.app, "/api/preview/text", url.Values{"text": {"x"}, "font_family": {"Nope (Regular)"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postForm(t, env.app, "/api/preview/text", url.Values{"text": {"x"}, "label_size": {"nope"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/preview/text?text=x&margin_top=50000000000000000", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Within every per-field limit, but the rotated label would be far longer
	// than any printer can feed.
	resp = postForm(t, env.app, "/api/preview/text", url.Values{
		"text":        {strings.Repeat("W", 200)},
		"font_size":   {"1000"},
		"orientation": {"rotated"},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "too large")
}

func TestPreviewGrocy(t *testing.T) {
	env := newTestEnv(t, true, nil)

	resp := postForm(t, env.app, "/api/preview/grocy", url.Values{"product": {"Milk"}})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postForm(t, env.app, "/api/preview/grocy", url.Values{"product": {"Milk"}, "grocycode": {"grcy:p:1"}})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))

	resp = postForm(t, env.app, "/api/preview/grocy", url.Values{
		"product":   {"Milk"},
		"grocycode": {"grcy:p:" + strings.Repeat("a", 80)},
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(readBody(t, resp)), "does not fit")
}

func TestPrintService_RasterCompression(t *testing.T) {
	cfg := testConfig(t)
	cfg.Printer.Model = "QL-710W"
	lc, err := parseWith(t, cfg, url.Values{"text": {"x"}})
	require.NoError(t, err)
	img := image.NewGray(image.Rect(0, 0, 696, 20))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	compression := []byte{0x4D, 0x02}

	r, err := NewPrintService(cfg, nil, nil, nil, nil).Raster(lc, img)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(r.Data(), compression), "compression is off by default")

	cfg.Printer.Compress = true
	r, err = NewPrintService(cfg, nil, nil, nil, nil).Raster(lc, img)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(r.Data(), compression))

	cfg.Printer.Model = "QL-700"
	r, err = NewPrintService(cfg, nil, nil, nil, nil).Raster(lc, img)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(r.Data(), compression), "QL-700 cannot compress")
}

func TestPrintText_DebugReturnsData(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp := postForm(t, env.app, "/api/print/text", url.Values{"text": {"Hello"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var res PrintResult
	require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Data)
	assert.FileExists(t, env.cfg.Server.DebugOutput)
	assert.Empty(t, env.backend.written)

	require.Len(t, env.journal.records, 1)
	rec := env.journal.records[0]
	assert.True(t, rec.DryRun)
	assert.True(t, rec.Success)
	assert.Equal(t, domain.PrintText, rec.Kind)
	assert.Positive(t, rec.Rows)
	assert.Equal(t, len(res.Data)/2, rec.Bytes)
	assert.Len(t, env.events.published, 1)
}

func TestPrintText_SendsToBackend(t *testing.T) {
	env := newTestEnv(t, false, nil)
	resp := postForm(t, env.app, "/api/print/text", url.Values{"text": {"Hello"}})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var res PrintResult
	require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
	assert.True(t, res.Success)
	assert.Empty(t, res.Data)
	assert.NotEmpty(t, env.backend.written)
	assert.True(t, env.backend.closed)

	require.Len(t, env.journal.records, 1)
	assert.False(t, env.journal.records[0].DryRun)
	assert.Equal(t, len(env.backend.written), env.journal.records[0].Bytes)
}

func TestPrintText_TransportFailure(t *testing.T) {
	env := newTestEnv(t, false, nil)
	env.backend.writeErr = errors.New("connection refused")

	resp := postForm(t, env.app, "/api/print/text", url.Values{"text": {"Hello"}})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

	var res PrintResult
	require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "connection refused")

	require.Len(t, env.journal.records, 1)
	assert.False(t, env.journal.records[0].Success)
	assert.Equal(t, "connection refused", env.journal.records[0].Error)
}

func TestPrint_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		path string
		form url.Values
		want string
	}{
		{"missing text", "/api/print/text", url.Values{}, domain.ErrMissingText.Error()},
		{"missing grocy name", "/api/print/grocy", url.Values{"grocycode": {"grcy:p:1"}}, domain.ErrMissingGrocyName.Error()},
		{"missing grocy code", "/api/print/grocy", url.Values{"battery": {"Remote"}}, domain.ErrMissingGrocyCode.Error()},
		{"bad font size", "/api/print/text", url.Values{"text": {"x"}, "font_size": {"abc"}}, "invalid font_size"},
		{"unknown label", "/api/print/text", url.Values{"text": {"x"}, "label_size": {"nope"}}, "unknown label_size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true, nil)
			resp := postForm(t, env.app, tt.path, tt.form)
			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

			var res PrintResult
			require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.want)
			assert.Empty(t, env.journal.records)
		})
	}
}

func TestPrintGrocy_Debug(t *testing.T) {
	env := newTestEnv(t, true, nil)
	resp := postForm(t, env.app, "/api/print/grocy", url.Values{
		"product":   {"Oat milk"},
		"grocycode": {"grcy:p:42:x"},
		"due_date":  {"2026-11-01"},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var res PrintResult
	require.NoError(t, json.Unmarshal(readBody(t, resp), &res))
	assert.True(t, res.Success)
	require.Len(t, env.journal.records, 1)
	assert.Equal(t, domain.PrintGrocy, env.journal.records[0].Kind)
}

func TestPrints(t *testing.T) {
	env := newTestEnv(t, true, nil)
	for i := 0; i < 3; i++ {
		resp := postForm(t, env.app, "/api/print/text", url.Values{"text": {"Hello"}})
		readBody(t, resp)
	}

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/prints?limit=2", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var recs []domain.PrintRecord
	require.NoError(t, json.Unmarshal(readBody(t, resp), &recs))
	assert.Len(t, recs, 2)

	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/api/prints?limit=0", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	env.journal.err = errors.New("db down")
	resp, err = env.app.Test(httptest.NewRequest(http.MethodGet, "/api/prints", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestPrints_NoJournal(t *testing.T) {
	cfg := testConfig(t)
	h := New(cfg, fonts.NewRegistry(), nil, NewPrintService(cfg, nil, nil, nil, nil), nil)
	assert.False(t, h.HasJournal())

	app := fiber.New()
	app.Get("/api/prints", h.Prints)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/prints", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
