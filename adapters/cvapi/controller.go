package cvapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	storefs "github.com/goliatone/go-cvwizard/adapters/store/fs"
	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
	"github.com/goliatone/go-cvwizard/notify"
	cvqry "github.com/goliatone/go-cvwizard/query"
)

// DefaultBasePath is where the wizard API is mounted when none is configured.
const DefaultBasePath = "/api/cv"

// DefaultMaxBufferBytes is the fallback buffer limit when streaming is unavailable.
const DefaultMaxBufferBytes int64 = 8 * 1024 * 1024

// TemplateCatalog lists presentation templates.
type TemplateCatalog interface {
	Names() []string
	Has(name string) bool
}

// NotificationSource exposes the visible notifications.
type NotificationSource interface {
	Active() []notify.Notification
}

// DownloadStore opens delivered downloads.
type DownloadStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, storefs.Meta, error)
}

// URLVerifier checks signed download links.
type URLVerifier interface {
	Verify(key, expires, sig string) error
}

// Config configures the shared wizard API controller.
type Config struct {
	Session        *cv.Session
	Preview        cv.Exporter
	Templates      TemplateCatalog
	Notifications  NotificationSource
	Downloads      DownloadStore
	Verifier       URLVerifier
	BasePath       string
	DownloadsPath  string
	Logger         cv.Logger
	MaxBodyBytes   int64
	MaxBufferBytes int64
}

// Controller exposes wizard API handlers for multiple transports.
type Controller struct {
	session        *cv.Session
	preview        cv.Exporter
	templates      TemplateCatalog
	notifications  NotificationSource
	downloads      DownloadStore
	verifier       URLVerifier
	basePath       string
	downloadsPath  string
	logger         cv.Logger
	maxBodyBytes   int64
	maxBufferBytes int64
}

// NewController creates a shared wizard API controller.
func NewController(cfg Config) *Controller {
	basePath := strings.TrimRight(cfg.BasePath, "/")
	if basePath == "" {
		basePath = DefaultBasePath
	}
	downloadsPath := strings.TrimRight(cfg.DownloadsPath, "/")
	if downloadsPath == "" {
		downloadsPath = basePath + "/downloads"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = cv.NopLogger{}
	}
	maxBuffer := cfg.MaxBufferBytes
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBufferBytes
	}
	return &Controller{
		session:        cfg.Session,
		preview:        cfg.Preview,
		templates:      cfg.Templates,
		notifications:  cfg.Notifications,
		downloads:      cfg.Downloads,
		verifier:       cfg.Verifier,
		basePath:       basePath,
		downloadsPath:  downloadsPath,
		logger:         logger,
		maxBodyBytes:   cfg.MaxBodyBytes,
		maxBufferBytes: maxBuffer,
	}
}

// BasePath returns the configured base path.
func (c *Controller) BasePath() string {
	if c == nil {
		return ""
	}
	return c.basePath
}

// DownloadsPath returns the path downloads are served from.
func (c *Controller) DownloadsPath() string {
	if c == nil {
		return ""
	}
	return c.downloadsPath
}

// Serve routes wizard endpoints.
func (c *Controller) Serve(req Request, res Response) {
	if res == nil {
		return
	}
	if c == nil || c.session == nil {
		WriteError(res, cv.NewError(cv.KindInternal, "controller is not configured", nil))
		return
	}
	if req == nil {
		WriteError(res, cv.NewError(cv.KindInternal, "request is nil", nil))
		return
	}

	if key, ok := c.downloadKey(req.Path()); ok {
		if req.Method() != http.MethodGet {
			methodNotAllowed(res, http.MethodGet)
			return
		}
		c.handleDownload(req, res, key)
		return
	}
	if !hasPathPrefix(req.Path(), c.basePath) {
		writeNotFound(res)
		return
	}

	suffix := strings.Trim(strings.TrimPrefix(req.Path(), c.basePath), "/")
	var parts []string
	if suffix != "" {
		parts = strings.Split(suffix, "/")
	}
	if len(parts) == 0 {
		writeNotFound(res)
		return
	}

	switch parts[0] {
	case "wizard":
		c.routeWizard(req, res, parts[1:])
	case "profile":
		c.routeProfile(req, res, parts[1:])
	case "document":
		c.only(req, res, parts, http.MethodGet, c.handleDocument)
	case "preview":
		c.only(req, res, parts, http.MethodGet, c.handlePreview)
	case "templates":
		c.only(req, res, parts, http.MethodGet, c.handleTemplates)
	case "template":
		c.only(req, res, parts, http.MethodPut, c.handleSelectTemplate)
	case "connectivity":
		switch {
		case len(parts) != 1:
			writeNotFound(res)
		case req.Method() == http.MethodGet:
			writeJSON(res, http.StatusOK, ConnectivityResponse{Online: c.session.Online()})
		case req.Method() == http.MethodPut:
			c.handleConnectivity(req, res)
		default:
			methodNotAllowed(res, http.MethodGet+","+http.MethodPut)
		}
	case "notifications":
		c.only(req, res, parts, http.MethodGet, c.handleNotifications)
	case "exports":
		switch {
		case len(parts) != 1:
			writeNotFound(res)
		case req.Method() == http.MethodPost:
			c.handleExport(req, res)
		case req.Method() == http.MethodGet:
			c.handleHistory(req, res)
		default:
			methodNotAllowed(res, http.MethodGet+","+http.MethodPost)
		}
	default:
		writeNotFound(res)
	}
}

func (c *Controller) only(req Request, res Response, parts []string, method string, handle func(Request, Response)) {
	if len(parts) != 1 {
		writeNotFound(res)
		return
	}
	if req.Method() != method {
		methodNotAllowed(res, method)
		return
	}
	handle(req, res)
}

func (c *Controller) routeWizard(req Request, res Response, parts []string) {
	ctx := req.Context()
	switch {
	case len(parts) == 0 && req.Method() == http.MethodGet:
		state, err := cvqry.NewCurrentStepHandler(c.session).Query(ctx, cvqry.CurrentStep{})
		c.respond(res, http.StatusOK, state, err)
	case len(parts) == 1 && req.Method() == http.MethodPost:
		var result cvcmd.StepResult
		var err error
		switch parts[0] {
		case "next":
			err = execute(ctx, cvcmd.NewNextStepHandler(c.session).Execute, cvcmd.NextStep{Result: &result})
		case "previous":
			err = execute(ctx, cvcmd.NewPreviousStepHandler(c.session).Execute, cvcmd.PreviousStep{Result: &result})
		case "jump":
			var payload jumpPayload
			if err = decodeJSON(req, c.maxBodyBytes, &payload); err == nil {
				err = execute(ctx, cvcmd.NewJumpToStepHandler(c.session).Execute, cvcmd.JumpToStep{Step: payload.Step, Result: &result})
			}
		default:
			writeNotFound(res)
			return
		}
		c.respond(res, http.StatusOK, result, err)
	case len(parts) <= 1:
		methodNotAllowed(res, http.MethodGet+","+http.MethodPost)
	default:
		writeNotFound(res)
	}
}

func (c *Controller) routeProfile(req Request, res Response, parts []string) {
	ctx := req.Context()

	switch len(parts) {
	case 0:
		switch req.Method() {
		case http.MethodGet:
			snapshot, err := cvqry.NewProfileSnapshotHandler(c.session).Query(ctx, cvqry.ProfileSnapshot{})
			c.respond(res, http.StatusOK, snapshot, err)
		case http.MethodDelete:
			c.respondEmpty(res, execute(ctx, cvcmd.NewResetProfileHandler(c.session).Execute, cvcmd.ResetProfile{}))
		default:
			methodNotAllowed(res, http.MethodGet+","+http.MethodDelete)
		}
	case 1:
		if req.Method() != http.MethodPost {
			methodNotAllowed(res, http.MethodPost)
			return
		}
		var count int
		var err error
		switch cv.Section(parts[0]) {
		case cv.SectionEducation:
			var entry cv.EducationEntry
			if err = decodeJSON(req, c.maxBodyBytes, &entry); err == nil {
				err = execute(ctx, cvcmd.NewAppendEducationHandler(c.session).Execute, cvcmd.AppendEducation{Entry: entry, Result: &count})
			}
		case cv.SectionExperience:
			var entry cv.ExperienceEntry
			if err = decodeJSON(req, c.maxBodyBytes, &entry); err == nil {
				err = execute(ctx, cvcmd.NewAppendExperienceHandler(c.session).Execute, cvcmd.AppendExperience{Entry: entry, Result: &count})
			}
		default:
			writeNotFound(res)
			return
		}
		c.respond(res, http.StatusCreated, CountResponse{Count: count}, err)
	case 2:
		section := cv.Section(parts[0])
		switch req.Method() {
		case http.MethodPut:
			var payload fieldPayload
			err := decodeJSON(req, c.maxBodyBytes, &payload)
			if err == nil {
				err = execute(ctx, cvcmd.NewSetFieldHandler(c.session).Execute, cvcmd.SetField{Section: section, Key: parts[1], Value: payload.Value})
			}
			c.respondEmpty(res, err)
		case http.MethodDelete:
			index, err := strconv.Atoi(parts[1])
			if err != nil {
				WriteError(res, cv.NewError(cv.KindValidation, fmt.Sprintf("invalid index %q", parts[1]), err))
				return
			}
			switch section {
			case cv.SectionEducation:
				c.respondEmpty(res, execute(ctx, cvcmd.NewRemoveEducationHandler(c.session).Execute, cvcmd.RemoveEducation{Index: index}))
			case cv.SectionExperience:
				c.respondEmpty(res, execute(ctx, cvcmd.NewRemoveExperienceHandler(c.session).Execute, cvcmd.RemoveExperience{Index: index}))
			default:
				writeNotFound(res)
			}
		default:
			methodNotAllowed(res, http.MethodPut+","+http.MethodDelete)
		}
	default:
		writeNotFound(res)
	}
}

func (c *Controller) handleDocument(req Request, res Response) {
	doc, err := cvqry.NewRenderDocumentHandler(c.session).Query(req.Context(), cvqry.RenderDocument{})
	c.respond(res, http.StatusOK, doc, err)
}

func (c *Controller) handlePreview(req Request, res Response) {
	if c.preview == nil {
		WriteError(res, cv.NewError(cv.KindNotImpl, "preview renderer not configured", nil))
		return
	}
	ctx := req.Context()
	doc, err := cvqry.NewRenderDocumentHandler(c.session).Query(ctx, cvqry.RenderDocument{})
	if err != nil {
		WriteError(res, err)
		return
	}
	cfg := c.session.ExportConfig(cv.FormatHTML)
	if name := strings.TrimSpace(req.Query("template")); name != "" {
		cfg.Template = name
	}
	artifact, err := c.preview.Export(ctx, doc, cfg)
	if err != nil {
		WriteError(res, err)
		return
	}
	setDownloadHeaders(res, artifact.Filename, artifact.ContentType, true)
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(artifact.Data); err != nil {
		c.logger.Errorf("preview write failed: %v", err)
	}
}

func (c *Controller) handleTemplates(req Request, res Response) {
	_ = req
	var names []string
	if c.templates != nil {
		names = c.templates.Names()
	}
	writeJSON(res, http.StatusOK, TemplatesResponse{Templates: names, Selected: c.session.Template()})
}

func (c *Controller) handleSelectTemplate(req Request, res Response) {
	var payload templatePayload
	if err := decodeJSON(req, c.maxBodyBytes, &payload); err != nil {
		WriteError(res, err)
		return
	}
	var known func(string) bool
	if c.templates != nil {
		known = c.templates.Has
	}
	c.respondEmpty(res, execute(req.Context(), cvcmd.NewSelectTemplateHandler(c.session, known).Execute, cvcmd.SelectTemplate{Name: payload.Name}))
}

func (c *Controller) handleConnectivity(req Request, res Response) {
	var payload connectivityPayload
	if err := decodeJSON(req, c.maxBodyBytes, &payload); err != nil {
		WriteError(res, err)
		return
	}
	if payload.Online == nil {
		WriteError(res, cv.NewError(cv.KindValidation, "online is required", nil))
		return
	}
	err := execute(req.Context(), cvcmd.NewConnectivityChangedHandler(c.session).Execute, cvcmd.ConnectivityChanged{Online: *payload.Online})
	c.respond(res, http.StatusOK, ConnectivityResponse{Online: c.session.Online()}, err)
}

func (c *Controller) handleNotifications(req Request, res Response) {
	_ = req
	if c.notifications == nil {
		writeJSON(res, http.StatusOK, []notify.Notification{})
		return
	}
	active := c.notifications.Active()
	if active == nil {
		active = []notify.Notification{}
	}
	writeJSON(res, http.StatusOK, active)
}

func (c *Controller) handleExport(req Request, res Response) {
	var payload exportPayload
	if err := decodeOptionalJSON(req, c.maxBodyBytes, &payload); err != nil {
		WriteError(res, err)
		return
	}
	format := payload.Format
	if format == "" {
		format = cv.Format(strings.ToLower(strings.TrimSpace(req.Query("format"))))
	}
	if format == "" {
		format = cv.FormatPDF
	}
	cfg := payload.apply(c.session.ExportConfig(format))

	var outcome cv.ExportOutcome
	err := execute(req.Context(), cvcmd.NewExportDocumentHandler(c.session).Execute, cvcmd.ExportDocument{
		Format: format,
		Config: &cfg,
		Result: &outcome,
	})
	if err != nil {
		WriteError(res, err)
		return
	}

	artifact := outcome.Artifact
	if !wantsDownload(req) {
		if outcome.Location != "" {
			res.SetHeader("Location", outcome.Location)
		}
		writeJSON(res, http.StatusCreated, ExportResponse{
			Filename:    artifact.Filename,
			ContentType: artifact.ContentType,
			Size:        len(artifact.Data),
			Location:    outcome.Location,
		})
		return
	}

	setDownloadHeaders(res, artifact.Filename, artifact.ContentType, false)
	res.SetHeader("Content-Length", strconv.Itoa(len(artifact.Data)))
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(artifact.Data); err != nil {
		c.logger.Errorf("export write failed: %v", err)
	}
}

func (c *Controller) handleHistory(req Request, res Response) {
	msg := cvqry.ExportHistory{
		Format: cv.Format(strings.ToLower(strings.TrimSpace(req.Query("format")))),
		Status: cv.ExportStatus(strings.ToLower(strings.TrimSpace(req.Query("status")))),
	}
	if raw := strings.TrimSpace(req.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(res, cv.NewError(cv.KindValidation, fmt.Sprintf("invalid limit %q", raw), err))
			return
		}
		msg.Limit = limit
	}
	if err := msg.Validate(); err != nil {
		WriteError(res, err)
		return
	}
	records, err := cvqry.NewExportHistoryHandler(c.session).Query(req.Context(), msg)
	c.respond(res, http.StatusOK, records, err)
}

func (c *Controller) handleDownload(req Request, res Response, key string) {
	if c.downloads == nil {
		WriteError(res, cv.NewError(cv.KindNotImpl, "download store not configured", nil))
		return
	}
	if c.verifier != nil {
		if err := c.verifier.Verify(key, req.Query("expires"), req.Query("sig")); err != nil {
			WriteError(res, err)
			return
		}
	}

	reader, meta, err := c.downloads.Open(req.Context(), key)
	if err != nil {
		WriteError(res, err)
		return
	}
	defer reader.Close()

	setDownloadHeaders(res, meta.Filename, meta.ContentType, false)
	if meta.Size > 0 {
		res.SetHeader("Content-Length", strconv.FormatInt(meta.Size, 10))
	}

	if writer, ok := res.Writer(); ok {
		res.WriteHeader(http.StatusOK)
		if _, err := io.Copy(writer, reader); err != nil {
			c.logger.Errorf("download copy failed: %v", err)
		}
		return
	}

	data, err := io.ReadAll(io.LimitReader(reader, c.maxBufferBytes+1))
	if err != nil {
		WriteError(res, err)
		return
	}
	if int64(len(data)) > c.maxBufferBytes {
		res.DelHeader("Content-Disposition")
		res.DelHeader("Content-Length")
		WriteError(res, cv.NewError(cv.KindValidation, "download exceeds buffer limit", nil))
		return
	}
	res.WriteHeader(http.StatusOK)
	if _, err := res.Write(data); err != nil {
		c.logger.Errorf("download buffer write failed: %v", err)
	}
}

func (c *Controller) downloadKey(requestPath string) (string, bool) {
	if !hasPathPrefix(requestPath, c.downloadsPath) {
		return "", false
	}
	key := strings.Trim(strings.TrimPrefix(requestPath, c.downloadsPath), "/")
	if key == "" {
		return "", false
	}
	return storefs.DefaultPrefix + "/" + key, true
}

func (c *Controller) respond(res Response, status int, payload any, err error) {
	if err != nil {
		WriteError(res, err)
		return
	}
	writeJSON(res, status, payload)
}

func (c *Controller) respondEmpty(res Response, err error) {
	if err != nil {
		WriteError(res, err)
		return
	}
	writeNoContent(res)
}

type validator interface {
	Validate() error
}

// execute validates msg the way the dispatcher does before running it.
func execute[T validator](ctx context.Context, handle func(context.Context, T) error, msg T) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return handle(ctx, msg)
}

func methodNotAllowed(res Response, allow string) {
	res.SetHeader("Allow", allow)
	res.WriteHeader(http.StatusMethodNotAllowed)
}

func hasPathPrefix(requestPath, prefix string) bool {
	return requestPath == prefix || strings.HasPrefix(requestPath, prefix+"/")
}
