package controller

import (
    "encoding/json"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"

    appErrors "github.com/shulgold/newsletter-engine/internal/errors"
    "github.com/shulgold/newsletter-engine/internal/model"
    "github.com/shulgold/newsletter-engine/internal/repository"
    "github.com/shulgold/newsletter-engine/internal/service"
)

type NewsletterController struct {
    NewsletterRepo repository.NewsletterRepositoryInterface
    SegmentRepo    repository.SegmentRepositoryInterface
    SendRepo       repository.SendRepositoryInterface
    RecipientRepo  repository.RecipientLogRepositoryInterface
    TrackingRepo   repository.TrackingRepositoryInterface
    Initiator      *service.SendInitiator
}

func (c *NewsletterController) CreateNewsletter(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Subject     string `json:"subject"`
        PreviewText string `json:"preview_text"`
        BodyHTML    string `json:"body_html"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if body.Subject == "" {
        http.Error(w, "subject is required", http.StatusBadRequest)
        return
    }

    newsletter := &model.Newsletter{
        Subject:     body.Subject,
        PreviewText: body.PreviewText,
        BodyHTML:    body.BodyHTML,
        Status:      "draft",
    }
    if err := c.NewsletterRepo.Create(newsletter); err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(newsletter)
}

func (c *NewsletterController) ListNewsletters(w http.ResponseWriter, r *http.Request) {
    page, _ := strconv.Atoi(r.URL.Query().Get("page"))
    pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
    status := r.URL.Query().Get("status")

    if page < 1 {
        page = 1
    }
    if pageSize < 1 {
        pageSize = 20
    }
    if pageSize > 100 {
        pageSize = 100
    }
    offset := (page - 1) * pageSize

    newsletters, total, err := c.NewsletterRepo.ListNewsletters(offset, pageSize, status)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    totalPages := (total + pageSize - 1) / pageSize
    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{
        "data": newsletters,
        "pagination": map[string]int{
            "page":        page,
            "page_size":   pageSize,
            "total_count": total,
            "total_pages": totalPages,
        },
    })
}

func (c *NewsletterController) GetNewsletter(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid newsletter id", http.StatusBadRequest)
        return
    }

    newsletter, err := c.NewsletterRepo.GetByID(id)
    if err != nil {
        var notFound *appErrors.ErrNewsletterNotFound
        if errors.As(err, &notFound) {
            http.Error(w, err.Error(), http.StatusNotFound)
            return
        }
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    sends, err := c.SendRepo.ListByNewsletter(id)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    response := map[string]interface{}{
        "newsletter": newsletter,
        "sends":      sends,
    }

    // Delivery + engagement stats for the most recent send
    if len(sends) > 0 {
        latest := sends[0]
        stats, err := c.RecipientRepo.StatusCounts(latest.ID)
        if err != nil {
            http.Error(w, err.Error(), http.StatusInternalServerError)
            return
        }
        opens, clicks, err := c.TrackingRepo.Counts(latest.ID)
        if err != nil {
            http.Error(w, err.Error(), http.StatusInternalServerError)
            return
        }
        stats["opens"] = opens
        stats["clicks"] = clicks
        response["stats"] = stats
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(response)
}

// InitiateSend starts a dispatch: POST /newsletters/{id}/send
func (c *NewsletterController) InitiateSend(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid newsletter id", http.StatusBadRequest)
        return
    }

    var body struct {
        SegmentID  *int    `json:"segment_id"`
        ScheduleAt *string `json:"schedule_at"`
    }
    if r.Body != nil && r.ContentLength != 0 {
        if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
            http.Error(w, "invalid body", http.StatusBadRequest)
            return
        }
    }

    var scheduleAt *time.Time
    if body.ScheduleAt != nil {
        t, err := time.Parse(time.RFC3339, *body.ScheduleAt)
        if err != nil {
            http.Error(w, "invalid schedule_at, expected RFC3339", http.StatusBadRequest)
            return
        }
        scheduleAt = &t
    }

    result, err := c.Initiator.Initiate(id, body.SegmentID, scheduleAt)
    if err != nil {
        var notFound *appErrors.ErrNewsletterNotFound
        var segNotFound *appErrors.ErrSegmentNotFound
        var dispatched *appErrors.ErrAlreadyDispatched
        var empty *appErrors.ErrEmptyAudience
        switch {
        case errors.As(err, &notFound), errors.As(err, &segNotFound):
            http.Error(w, err.Error(), http.StatusNotFound)
        case errors.As(err, &dispatched):
            http.Error(w, err.Error(), http.StatusConflict)
        case errors.As(err, &empty):
            http.Error(w, err.Error(), http.StatusUnprocessableEntity)
        default:
            http.Error(w, err.Error(), http.StatusInternalServerError)
        }
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(result)
}

func (c *NewsletterController) ListSends(w http.ResponseWriter, r *http.Request) {
    id, err := strconv.Atoi(chi.URLParam(r, "id"))
    if err != nil {
        http.Error(w, "invalid newsletter id", http.StatusBadRequest)
        return
    }

    sends, err := c.SendRepo.ListByNewsletter(id)
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"data": sends})
}

func (c *NewsletterController) CreateSegment(w http.ResponseWriter, r *http.Request) {
    var body struct {
        Name   string              `json:"name"`
        Filter model.InterestFlags `json:"filter"`
    }
    if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
        http.Error(w, "invalid body", http.StatusBadRequest)
        return
    }
    if body.Name == "" {
        http.Error(w, "name is required", http.StatusBadRequest)
        return
    }

    segment := &model.Segment{Name: body.Name, Filter: body.Filter}
    if err := c.SegmentRepo.Create(segment); err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(segment)
}

func (c *NewsletterController) ListSegments(w http.ResponseWriter, r *http.Request) {
    segments, err := c.SegmentRepo.ListAll()
    if err != nil {
        http.Error(w, err.Error(), http.StatusInternalServerError)
        return
    }

    w.Header().Set("Content-Type", "application/json")
    json.NewEncoder(w).Encode(map[string]interface{}{"data": segments})
}
