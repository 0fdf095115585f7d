// components/feedback/feedback.go
//
// Sendero feedback component – site widget to issue tracker.
//
// Context
//   The floating feedback widget posts a category, a message, and
//   optionally an email, the page URL, and a screenshot data URL.  The
//   handler validates with struct tags, stores the screenshot in the blob
//   store, and files an issue in the tracker with the visitor's browser,
//   OS, and country attached.  A failed screenshot upload is logged and
//   the issue is filed without it; a failed issue creation is a 500.
//
//   The component registers no route when the tracker is disabled.
//
//------------------------------------------------------------------------------

package feedback

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/senderotrails/site/internal/blob"
	"github.com/senderotrails/site/internal/component"
	"github.com/senderotrails/site/internal/config"
	"github.com/senderotrails/site/internal/form"
	"github.com/senderotrails/site/internal/logger"
	"github.com/senderotrails/site/internal/metrics"
	"github.com/senderotrails/site/internal/requestinfo"
	"github.com/senderotrails/site/internal/tracker"
)

// Route and response texts.
const (
	FormID = "feedback"
	Path   = "/api/feedback"

	MsgThanks = "Thanks for your feedback!"
	MsgFailed = "Failed to submit feedback. Please try again."

	MsgCategory        = "Please choose a feedback category"
	MsgMessageRequired = "Please enter your feedback"
	MsgMessageTooShort = "Feedback must be at least 5 characters"
	MsgMessageTooLong  = "Feedback must be at most 5000 characters"
	MsgEmailInvalid    = "Please enter a valid email address"
	MsgPageURLInvalid  = "Invalid page URL"
	MsgScreenshot      = "Screenshot must be a PNG, JPEG, or WebP image"
	MsgScreenshotSize  = "Screenshot must be 5 MB or smaller"
)

// Request is the widget payload.
type Request struct {
	Category   string `json:"category"   validate:"required,oneof=bug feature general"`
	Message    string `json:"message"    validate:"required,min=5,max=5000"`
	Email      string `json:"email"      validate:"omitempty,email"`
	PageURL    string `json:"pageUrl"    validate:"omitempty,url,max=2048"`
	Screenshot string `json:"screenshot" validate:"omitempty,startswith=data:"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Compile-time assertion: *Component satisfies component.Component.
var _ component.Component = (*Component)(nil)

// Component owns the feedback endpoint.
type Component struct {
	tracker tracker.Client
	blob    blob.Store
	cfg     config.Tracker
	limit   func(http.Handler) http.Handler
	newID   func() string
}

// New returns a Component.  bs and limit may be nil.
func New(tc tracker.Client, bs blob.Store, cfg config.Tracker, limit func(http.Handler) http.Handler) *Component {
	return &Component{tracker: tc, blob: bs, cfg: cfg, limit: limit, newID: uuid.NewString}
}

// Register component at program start.
func init() { component.Register(&Component{newID: uuid.NewString}) }

/*────────────────── component.Component methods ───────────────────────────*/

// Name returns the canonical component key.
func (c *Component) Name() string { return FormID }

// Init picks up the tracker, blob store, and limiter.
func (c *Component) Init(s component.Services) error {
	c.tracker = s.Tracker
	c.blob = s.Blob
	c.limit = s.Limiter
	if s.Config != nil {
		c.cfg = s.Config.Tracker
	}
	return nil
}

// Migrations returns nil; feedback lives in the tracker.
func (c *Component) Migrations(string) []string { return nil }

// Routes registers POST /api/feedback behind the rate limiter.
func (c *Component) Routes(r chi.Router) {
	if c.tracker == nil {
		return
	}
	h := c.Handler()
	if c.limit != nil {
		h = c.limit(h)
	}
	r.Handle(Path, h)
}

// Handler returns the guarded endpoint without rate limiting.
func (c *Component) Handler() http.Handler { return form.Endpoint(FormID, c.submit) }

/*──────────────────────────── Handler ──────────────────────────────────────*/

func (c *Component) submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context()).With("form", FormID)
	count := func(outcome string) { metrics.FormSubmissions.WithLabelValues(FormID, outcome).Inc() }

	var req Request
	if err := form.DecodeJSON(r, &req, blob.MaxScreenshotBytes*2); err != nil {
		form.FailDecode(w, r, FormID, err)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	req.Email = strings.TrimSpace(req.Email)

	if msgs := Validate(req); len(msgs) > 0 {
		count(metrics.OutcomeInvalid)
		form.Fail(w, r, http.StatusBadRequest, strings.Join(msgs, ","))
		return
	}

	var shotType string
	var shot []byte
	if req.Screenshot != "" {
		var err error
		shotType, shot, err = blob.ParseDataURL(req.Screenshot)
		if err != nil {
			count(metrics.OutcomeInvalid)
			msg := MsgScreenshot
			if errors.Is(err, blob.ErrTooLarge) {
				msg = MsgScreenshotSize
			}
			form.Fail(w, r, http.StatusBadRequest, msg)
			return
		}
	}

	shotURL := ""
	if shot != nil && c.blob != nil {
		u, err := c.blob.Put(r.Context(), c.newID()+blob.Ext(shotType), shotType, shot)
		if err != nil {
			log.Warnw("screenshot upload failed", "stage", "uploading", "err", err)
		} else {
			shotURL = u
		}
	}

	issue := tracker.Issue{
		Title:       Title(req),
		Description: Describe(req, requestinfo.FromContext(r.Context()), shotURL),
		TeamID:      c.cfg.TeamID,
		ProjectID:   c.cfg.ProjectID,
	}
	if id := c.cfg.Labels[req.Category]; id != "" {
		issue.LabelIDs = []string{id}
	}

	created, err := c.tracker.CreateIssue(r.Context(), issue)
	if err != nil {
		log.Errorw("issue creation failed", "stage", "tracking", "err", err)
		metrics.FeedbackIssues.WithLabelValues("failed").Inc()
		count(metrics.OutcomeError)
		form.Fail(w, r, http.StatusInternalServerError, MsgFailed)
		return
	}

	metrics.FeedbackIssues.WithLabelValues("created").Inc()
	count(metrics.OutcomeCreated)
	log.Infow("feedback filed", "issue", created.Identifier)
	form.Succeed(w, r, http.StatusCreated, form.Confirmation{Message: MsgThanks, ID: created.Identifier})
}

// Validate returns user-facing messages in field order, one per field.
func Validate(req Request) []string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{form.MsgUnexpected}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, messageFor(fe))
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case "category":
		return MsgCategory
	case "message":
		switch fe.Tag() {
		case "required":
			return MsgMessageRequired
		case "min":
			return MsgMessageTooShort
		default:
			return MsgMessageTooLong
		}
	case "email":
		return MsgEmailInvalid
	case "pageUrl":
		return MsgPageURLInvalid
	default:
		return MsgScreenshot
	}
}

/*──────────────────────────── Issue text ───────────────────────────────────*/

var categoryLabel = map[string]string{
	"bug":     "Bug",
	"feature": "Feature",
	"general": "Feedback",
}

// Title renders "[Bug] first line of the message", capped at 80 runes.
func Title(req Request) string {
	first, _, _ := strings.Cut(req.Message, "\n")
	first = strings.TrimSpace(first)
	if r := []rune(first); len(r) > 80 {
		first = string(r[:77]) + "..."
	}
	return fmt.Sprintf("[%s] %s", categoryLabel[req.Category], first)
}

// Describe renders the markdown issue body.  info may be nil.
func Describe(req Request, info *requestinfo.RequestInfo, screenshotURL string) string {
	var sb strings.Builder
	sb.WriteString(req.Message)
	sb.WriteString("\n\n---\n\n")
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	row := func(k, v string) {
		if v == "" {
			v = "–"
		}
		fmt.Fprintf(&sb, "| %s | %s |\n", k, v)
	}
	row("Category", req.Category)
	row("Page", req.PageURL)
	row("Email", req.Email)
	if info != nil {
		row("Browser", info.UA.BrowserLabel())
		row("OS", info.UA.OSLabel())
		row("Device", info.UA.Device)
		row("Country", info.Geo.CountryISO)
		row("Submitted", info.Timestamp.Format("2006-01-02 15:04 UTC"))
	}
	if screenshotURL != "" {
		fmt.Fprintf(&sb, "\n![Screenshot](%s)\n", screenshotURL)
	}
	sb.WriteString("\n_Submitted via the site feedback widget_\n")
	return sb.String()
}
