package handlers

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"image"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"qlweb/internal/brotherql"
	"qlweb/internal/config"
	"qlweb/internal/domain"
	"qlweb/internal/infra/cache"
	"qlweb/internal/infra/fonts"
	"qlweb/internal/render"
	"qlweb/web"
)

// Handler serves the label designer and its API.
type Handler struct {
	cfg      config.Config
	fonts    *fonts.Registry
	renderer *render.Renderer
	cache    *cache.Preview
	printer  *PrintService
	journal  Journal
	page     *template.Template
}

// New creates a Handler. cache and journal may be nil.
func New(cfg config.Config, reg *fonts.Registry, previews *cache.Preview, printer *PrintService, journal Journal) *Handler {
	return &Handler{
		cfg:      cfg,
		fonts:    reg,
		renderer: render.New(reg),
		cache:    previews,
		printer:  printer,
		journal:  journal,
		page:     template.Must(template.ParseFS(web.Templates, "templates/labeldesigner.html")),
	}
}

// HasJournal reports whether print history can be served.
func (h *Handler) HasJournal() bool { return h.journal != nil }

// Index redirects to the designer.
func (h *Handler) Index(c *fiber.Ctx) error {
	return c.Redirect("/labeldesigner", fiber.StatusFound)
}

type fontFamily struct {
	Name   string
	Styles []string
}

type labelOption struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Red        bool   `json:"red"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

type designerPage struct {
	Website     config.WebsiteConfig
	Label       config.LabelConfig
	DefaultFont string
	Fonts       []fontFamily
	Labels      []labelOption
	Model       string
	TwoColor    bool
}

func (h *Handler) labelOptions() []labelOption {
	model := h.cfg.Printer.Model
	var out []labelOption
	for _, spec := range brotherql.Labels() {
		if !spec.SupportedBy(model) {
			continue
		}
		out = append(out, labelOption{
			Identifier: spec.Identifier,
			Name:       spec.Name,
			Kind:       spec.Kind.String(),
			Red:        spec.Color,
			Width:      spec.DotsPrintable.Width,
			Height:     spec.DotsPrintable.Height,
		})
	}
	return out
}

// Designer renders the label designer page.
func (h *Handler) Designer(c *fiber.Ctx) error {
	data := designerPage{
		Website:     h.cfg.Website,
		Label:       h.cfg.Label,
		DefaultFont: fonts.Spec(h.cfg.Label.DefaultFont).String(),
		Labels:      h.labelOptions(),
		Model:       h.cfg.Printer.Model,
	}
	if m, ok := brotherql.LookupModel(h.cfg.Printer.Model); ok {
		data.TwoColor = m.TwoColor
	}
	for _, family := range h.fonts.Families() {
		data.Fonts = append(data.Fonts, fontFamily{Name: family, Styles: h.fonts.Styles(family)})
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Send(buf.Bytes())
}

// Labels lists the label sizes of the configured printer.
func (h *Handler) Labels(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"model":        h.cfg.Printer.Model,
		"default_size": h.cfg.Label.DefaultSize,
		"labels":       h.labelOptions(),
	})
}

// Prints lists recent print attempts from the journal.
func (h *Handler) Prints(c *fiber.Ctx) error {
	if h.journal == nil {
		return fiber.NewError(fiber.StatusNotFound, "print journal disabled")
	}
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
	}
	recs, err := h.journal.Recent(c.UserContext(), limit)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(recs)
}

func validateRequest(lc *domain.LabelContext, kind domain.PrintKind) error {
	switch kind {
	case domain.PrintGrocy:
		if lc.GrocyName() == "" {
			return domain.ErrMissingGrocyName
		}
		if lc.GrocyCode == "" {
			return domain.ErrMissingGrocyCode
		}
	default:
		if lc.Text == "" {
			return domain.ErrMissingText
		}
	}
	return nil
}

func (h *Handler) draw(lc *domain.LabelContext, kind domain.PrintKind) (image.Image, error) {
	if kind == domain.PrintGrocy {
		return h.renderer.Grocy(lc)
	}
	return h.renderer.Text(lc)
}

// badRequest reports whether err is caused by the request rather than the
// server.
func badRequest(err error) bool {
	for _, target := range []error{
		domain.ErrUnknownFont, domain.ErrUnknownLabelSize, domain.ErrMissingText,
		domain.ErrMissingGrocyName, domain.ErrMissingGrocyCode,
		render.ErrEmptyCanvas, render.ErrCanvasTooLarge, render.ErrSymbol, brotherql.ErrUnknownLabel, brotherql.ErrUnsupportedCommand,
		brotherql.ErrLabelTooLong,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func toFiberError(err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	if badRequest(err) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return err
}

func (h *Handler) preview(c *fiber.Ctx, kind domain.PrintKind) error {
	lc, err := parseLabelContext(c, h.cfg, h.fonts)
	if err != nil {
		return toFiberError(err)
	}
	if kind == domain.PrintGrocy {
		if err := validateRequest(lc, kind); err != nil {
			return toFiberError(err)
		}
	}

	key := cache.Key(string(kind), map[string]string{"label": fmt.Sprintf("%+v", *lc)})
	data, ok := h.cache.Get(c.UserContext(), key)
	if !ok {
		img, err := h.draw(lc, kind)
		if err != nil {
			return toFiberError(err)
		}
		if data, err = render.PNG(img); err != nil {
			return err
		}
		h.cache.Set(c.UserContext(), key, data)
	}

	if c.FormValue("return_format") == "base64" {
		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		return c.SendString(base64.StdEncoding.EncodeToString(data))
	}
	c.Type("png")
	return c.Send(data)
}

// PreviewText returns the text label as PNG or base64.
func (h *Handler) PreviewText(c *fiber.Ctx) error { return h.preview(c, domain.PrintText) }

// PreviewGrocy returns the grocy label as PNG or base64.
func (h *Handler) PreviewGrocy(c *fiber.Ctx) error { return h.preview(c, domain.PrintGrocy) }

func printFailure(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		err = errors.New(fe.Message)
	}
	return c.Status(status).JSON(PrintResult{Success: false, Error: err.Error()})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

func (h *Handler) print(c *fiber.Ctx, kind domain.PrintKind) error {
	lc, err := parseLabelContext(c, h.cfg, h.fonts)
	if err != nil {
		return printFailure(c, err)
	}
	if err := validateRequest(lc, kind); err != nil {
		return printFailure(c, err)
	}
	img, err := h.draw(lc, kind)
	if err != nil {
		if !badRequest(err) {
			return err
		}
		return printFailure(c, err)
	}

	res, err := h.printer.Print(c.UserContext(), kind, requestID(c), lc, img)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, ErrTransport) {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(res)
	}
	return c.JSON(res)
}

// PrintText prints a text label.
func (h *Handler) PrintText(c *fiber.Ctx) error { return h.print(c, domain.PrintText) }

// PrintGrocy prints a grocy label. Grocy calls it as a label printer webhook.
func (h *Handler) PrintGrocy(c *fiber.Ctx) error { return h.print(c, domain.PrintGrocy) }
